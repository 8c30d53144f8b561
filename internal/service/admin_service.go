package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/siscert/api/internal/acesso"
	"github.com/siscert/api/internal/auth"
	"github.com/siscert/api/internal/certidao"
	"github.com/siscert/api/internal/empresa"
	"github.com/siscert/api/internal/repo"
	"github.com/siscert/api/internal/util"
)

var (
	ErrUsuarioNaoEncontrado = errors.New("Usuário não encontrado")
	ErrGrupoNaoEncontrado   = errors.New("Grupo não encontrado")
	ErrTipoNaoEncontrado    = errors.New("Tipo de certidão não encontrado")
	// ErrAdminNaoExcluivel protege contas administrativas contra exclusão.
	ErrAdminNaoExcluivel = errors.New("Não é permitido excluir administradores")
)

type adminStore interface {
	ListUsuarios(ctx context.Context) ([]repo.Usuario, error)
	GetUsuarioByID(ctx context.Context, id int64) (repo.Usuario, error)
	InsertUsuario(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error)
	UpdateUsuario(ctx context.Context, id int64, arg repo.UpdateUsuarioParams) (repo.Usuario, error)
	SetUsuarioStatus(ctx context.Context, id int64, status string, approvedBy *int64) (repo.Usuario, error)
	DeleteUsuario(ctx context.Context, id int64) (bool, error)
	CountUsuariosByStatus(ctx context.Context) (map[string]int, error)
	ListUsuarioGrupos(ctx context.Context, usuarioID int64) ([]repo.UsuarioGrupo, error)
	ListAllUsuarioGrupos(ctx context.Context) ([]repo.UsuarioGrupo, error)
	SetUsuarioGrupos(ctx context.Context, usuarioID int64, vinculos []repo.UsuarioGrupo) error

	ListGrupos(ctx context.Context) ([]repo.Grupo, error)
	GetGrupo(ctx context.Context, id int64) (repo.Grupo, error)
	InsertGrupo(ctx context.Context, nome string) (repo.Grupo, error)
	UpdateGrupo(ctx context.Context, id int64, nome string) (repo.Grupo, error)
	DeleteGrupo(ctx context.Context, id int64) (bool, error)
	ListGrupoMembros(ctx context.Context, grupoID int64) ([]repo.GrupoMembro, error)
	ListGrupoEmpresaIDs(ctx context.Context, grupoID int64) ([]int64, error)
	SetGrupoUsuarios(ctx context.Context, grupoID int64, membros []repo.UsuarioGrupo) error
	SetGrupoEmpresas(ctx context.Context, grupoID int64, empresaIDs []int64) error

	ListTipos(ctx context.Context, apenasAtivos bool) ([]repo.TipoCertidao, error)
	InsertTipo(ctx context.Context, nome string, ordem int) (repo.TipoCertidao, error)
	UpdateTipo(ctx context.Context, id int64, arg repo.UpdateTipoParams) (repo.TipoCertidao, error)
	DeleteTipo(ctx context.Context, id int64) (bool, error)
}

type certidaoCounter interface {
	CountByStatus(ctx context.Context) (map[certidao.Status]int, error)
}

// AdminService reúne a gestão de usuários, grupos e tipos de certidão.
type AdminService struct {
	store     adminStore
	certidoes certidaoCounter
	access    *AccessService
}

// NewAdminService cria o serviço. access pode ser nil quando não há cache.
func NewAdminService(store adminStore, certidoes certidaoCounter, access *AccessService) *AdminService {
	return &AdminService{store: store, certidoes: certidoes, access: access}
}

// Stats conta usuários e certidões por status.
func (s *AdminService) Stats(ctx context.Context) (Stats, error) {
	usuarios, err := s.store.CountUsuariosByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	certidoes, err := s.certidoes.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		UsuariosPendentes:   usuarios[repo.StatusPendente],
		UsuariosAtivos:      usuarios[repo.StatusAtivo],
		UsuariosBloqueados:  usuarios[repo.StatusBloqueado],
		CertidoesAtivas:     certidoes[certidao.StatusAtiva],
		CertidoesArquivadas: certidoes[certidao.StatusArquivada],
		CertidoesLixeira:    certidoes[certidao.StatusLixeira],
	}
	for _, n := range usuarios {
		st.TotalUsuarios += n
	}
	for _, n := range certidoes {
		st.TotalCertidoes += n
	}
	return st, nil
}

// UsuarioCreateInput cria conta pelo painel; por padrão usuario ativo.
type UsuarioCreateInput struct {
	Login  string  `json:"login"`
	Senha  string  `json:"senha"`
	Nome   *string `json:"nome"`
	Role   string  `json:"role"`
	Status string  `json:"status"`
}

func (in *UsuarioCreateInput) normalize() error {
	if err := validateLogin(in.Login); err != nil {
		return err
	}
	if err := util.ValidatePassword(in.Senha, "senha"); err != nil {
		return err
	}
	if err := validateNome(in.Nome); err != nil {
		return err
	}
	if in.Role == "" {
		in.Role = string(acesso.RoleUsuario)
	}
	if in.Role != string(acesso.RoleUsuario) && in.Role != string(acesso.RoleAdmin) {
		return util.Invalid("role", "role deve ser admin ou usuario")
	}
	if in.Status == "" {
		in.Status = repo.StatusAtivo
	}
	switch in.Status {
	case repo.StatusAtivo, repo.StatusPendente, repo.StatusBloqueado:
	default:
		return util.Invalid("status", "status deve ser pendente, ativo ou bloqueado")
	}
	return nil
}

// UsuarioUpdateInput altera apenas campos presentes; nome aceita null.
type UsuarioUpdateInput struct {
	Login *string               `json:"login"`
	Senha *string               `json:"senha"`
	Nome  util.Opcional[string] `json:"nome"`
}

func (in UsuarioUpdateInput) Validate() error {
	if in.Login != nil {
		if err := validateLogin(*in.Login); err != nil {
			return err
		}
	}
	if in.Senha != nil {
		if err := util.ValidatePassword(*in.Senha, "senha"); err != nil {
			return err
		}
	}
	if in.Nome.HasValue() {
		return validateNome(&in.Nome.Value)
	}
	return nil
}

// VinculoInput associa o usuário a um grupo; acesso vazio vale comum.
type VinculoInput struct {
	GrupoID int64  `json:"grupoId"`
	Acesso  string `json:"acesso"`
}

// MembroInput associa um usuário ao grupo; acesso vazio vale comum.
type MembroInput struct {
	UsuarioID int64  `json:"usuarioId"`
	Acesso    string `json:"acesso"`
}

// ListUsuarios lista todos os usuários com seus vínculos.
func (s *AdminService) ListUsuarios(ctx context.Context) ([]UsuarioAPI, error) {
	usuarios, err := s.store.ListUsuarios(ctx)
	if err != nil {
		return nil, err
	}
	vinculos, err := s.store.ListAllUsuarioGrupos(ctx)
	if err != nil {
		return nil, err
	}
	porUsuario := make(map[int64][]repo.UsuarioGrupo)
	for _, v := range vinculos {
		porUsuario[v.UsuarioID] = append(porUsuario[v.UsuarioID], v)
	}

	out := make([]UsuarioAPI, 0, len(usuarios))
	for _, u := range usuarios {
		out = append(out, toUsuarioAPI(u, porUsuario[u.ID]))
	}
	return out, nil
}

// CriarUsuario cria conta já aprovada (salvo status informado).
func (s *AdminService) CriarUsuario(ctx context.Context, in UsuarioCreateInput) (UsuarioAPI, error) {
	if err := in.normalize(); err != nil {
		return UsuarioAPI{}, err
	}
	hash, err := auth.Hash(in.Senha)
	if err != nil {
		return UsuarioAPI{}, err
	}
	u, err := s.store.InsertUsuario(ctx, repo.InsertUsuarioParams{
		Login:     strings.TrimSpace(in.Login),
		SenhaHash: hash,
		Nome:      trimNome(in.Nome),
		Role:      in.Role,
		Status:    in.Status,
	})
	if err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return UsuarioAPI{}, ErrLoginEmUso
		}
		return UsuarioAPI{}, err
	}
	return toUsuarioAPI(u, nil), nil
}

// AtualizarUsuario altera login, senha ou nome.
func (s *AdminService) AtualizarUsuario(ctx context.Context, id int64, in UsuarioUpdateInput) (UsuarioAPI, error) {
	if err := in.Validate(); err != nil {
		return UsuarioAPI{}, err
	}
	params := repo.UpdateUsuarioParams{SetNome: in.Nome.Set}
	if in.Login != nil {
		login := strings.TrimSpace(*in.Login)
		params.Login = &login
	}
	if in.Senha != nil {
		hash, err := auth.Hash(*in.Senha)
		if err != nil {
			return UsuarioAPI{}, err
		}
		params.SenhaHash = &hash
	}
	if in.Nome.Set {
		params.Nome = trimNome(in.Nome.Ptr())
	}

	u, err := s.store.UpdateUsuario(ctx, id, params)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrConflict):
			return UsuarioAPI{}, ErrLoginEmUso
		case errors.Is(err, repo.ErrNotFound):
			return UsuarioAPI{}, ErrUsuarioNaoEncontrado
		}
		return UsuarioAPI{}, err
	}
	return s.usuarioComVinculos(ctx, u)
}

// AprovarUsuario ativa cadastro pendente registrando o administrador.
func (s *AdminService) AprovarUsuario(ctx context.Context, id, adminID int64) (UsuarioAPI, error) {
	return s.setStatus(ctx, id, repo.StatusAtivo, &adminID)
}

// BloquearUsuario impede novos logins e requisições do usuário.
func (s *AdminService) BloquearUsuario(ctx context.Context, id int64) (UsuarioAPI, error) {
	return s.setStatus(ctx, id, repo.StatusBloqueado, nil)
}

// ReativarUsuario volta o usuário bloqueado para ativo.
func (s *AdminService) ReativarUsuario(ctx context.Context, id, adminID int64) (UsuarioAPI, error) {
	return s.setStatus(ctx, id, repo.StatusAtivo, &adminID)
}

func (s *AdminService) setStatus(ctx context.Context, id int64, status string, approvedBy *int64) (UsuarioAPI, error) {
	u, err := s.store.SetUsuarioStatus(ctx, id, status, approvedBy)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return UsuarioAPI{}, ErrUsuarioNaoEncontrado
		}
		return UsuarioAPI{}, err
	}
	s.invalidate(id)
	log.Info().Int64("usuario_id", id).Str("status", status).Msg("status do usuário alterado")
	return s.usuarioComVinculos(ctx, u)
}

// SetUsuarioGrupos substitui os grupos do usuário.
func (s *AdminService) SetUsuarioGrupos(ctx context.Context, id int64, in []VinculoInput) (UsuarioAPI, error) {
	vinculos := make([]repo.UsuarioGrupo, 0, len(in))
	for i, v := range in {
		nivel, err := parseNivel(v.Acesso, fmt.Sprintf("grupos[%d].acesso", i))
		if err != nil {
			return UsuarioAPI{}, err
		}
		vinculos = append(vinculos, repo.UsuarioGrupo{UsuarioID: id, GrupoID: v.GrupoID, Acesso: string(nivel)})
	}

	u, err := s.store.GetUsuarioByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return UsuarioAPI{}, ErrUsuarioNaoEncontrado
		}
		return UsuarioAPI{}, err
	}
	if err := s.store.SetUsuarioGrupos(ctx, id, dedupeVinculos(vinculos, func(v repo.UsuarioGrupo) int64 { return v.GrupoID })); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return UsuarioAPI{}, ErrGrupoNaoEncontrado
		}
		return UsuarioAPI{}, err
	}
	s.invalidate(id)
	return s.usuarioComVinculos(ctx, u)
}

// ExcluirUsuario remove usuário comum. Administradores não podem ser excluídos.
func (s *AdminService) ExcluirUsuario(ctx context.Context, id int64) error {
	u, err := s.store.GetUsuarioByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUsuarioNaoEncontrado
		}
		return err
	}
	if u.Role == string(acesso.RoleAdmin) {
		return ErrAdminNaoExcluivel
	}
	deleted, err := s.store.DeleteUsuario(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUsuarioNaoEncontrado
	}
	s.invalidate(id)
	return nil
}

func (s *AdminService) usuarioComVinculos(ctx context.Context, u repo.Usuario) (UsuarioAPI, error) {
	vinculos, err := s.store.ListUsuarioGrupos(ctx, u.ID)
	if err != nil {
		return UsuarioAPI{}, err
	}
	return toUsuarioAPI(u, vinculos), nil
}

// GrupoInput é o corpo de criação e renomeação de grupo.
type GrupoInput struct {
	Nome string `json:"nome"`
}

func (in GrupoInput) Validate() error {
	nome := strings.TrimSpace(in.Nome)
	if nome == "" {
		return util.Invalid("nome", "Nome é obrigatório")
	}
	if len(nome) > 200 {
		return util.Invalid("nome", "Nome muito longo")
	}
	return nil
}

// ListGrupos lista todos os grupos por nome.
func (s *AdminService) ListGrupos(ctx context.Context) ([]GrupoAPI, error) {
	grupos, err := s.store.ListGrupos(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GrupoAPI, 0, len(grupos))
	for _, g := range grupos {
		out = append(out, toGrupoAPI(g))
	}
	return out, nil
}

// GruposVisiveis devolve todos os grupos para admin e só os do usuário para
// os demais.
func (s *AdminService) GruposVisiveis(ctx context.Context, ac acesso.AuthContext) ([]GrupoAPI, error) {
	all, err := s.ListGrupos(ctx)
	if err != nil || ac.IsAdmin() {
		return all, err
	}
	out := make([]GrupoAPI, 0, len(all))
	for _, g := range all {
		if _, ok := ac.Nivel(g.ID); ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// GetGrupo devolve o grupo com membros e empresas.
func (s *AdminService) GetGrupo(ctx context.Context, id int64) (GrupoDetalhe, error) {
	g, err := s.store.GetGrupo(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return GrupoDetalhe{}, ErrGrupoNaoEncontrado
		}
		return GrupoDetalhe{}, err
	}
	membros, err := s.store.ListGrupoMembros(ctx, id)
	if err != nil {
		return GrupoDetalhe{}, err
	}
	empresaIDs, err := s.store.ListGrupoEmpresaIDs(ctx, id)
	if err != nil {
		return GrupoDetalhe{}, err
	}

	det := GrupoDetalhe{
		GrupoAPI:   toGrupoAPI(g),
		Usuarios:   make([]GrupoMembroAPI, 0, len(membros)),
		EmpresaIDs: empresaIDs,
	}
	if det.EmpresaIDs == nil {
		det.EmpresaIDs = []int64{}
	}
	for _, m := range membros {
		det.Usuarios = append(det.Usuarios, GrupoMembroAPI{ID: m.UsuarioID, Login: m.Login, Nome: m.Nome, Acesso: m.Acesso})
	}
	return det, nil
}

// CriarGrupo cria grupo vazio.
func (s *AdminService) CriarGrupo(ctx context.Context, in GrupoInput) (GrupoAPI, error) {
	if err := in.Validate(); err != nil {
		return GrupoAPI{}, err
	}
	g, err := s.store.InsertGrupo(ctx, strings.TrimSpace(in.Nome))
	if err != nil {
		return GrupoAPI{}, err
	}
	return toGrupoAPI(g), nil
}

// AtualizarGrupo renomeia o grupo.
func (s *AdminService) AtualizarGrupo(ctx context.Context, id int64, in GrupoInput) (GrupoAPI, error) {
	if err := in.Validate(); err != nil {
		return GrupoAPI{}, err
	}
	g, err := s.store.UpdateGrupo(ctx, id, strings.TrimSpace(in.Nome))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return GrupoAPI{}, ErrGrupoNaoEncontrado
		}
		return GrupoAPI{}, err
	}
	return toGrupoAPI(g), nil
}

// ExcluirGrupo remove o grupo; suas certidões passam a globais.
func (s *AdminService) ExcluirGrupo(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteGrupo(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrGrupoNaoEncontrado
	}
	s.purge()
	log.Info().Int64("grupo_id", id).Msg("grupo excluído")
	return nil
}

// SetGrupoUsuarios substitui os membros do grupo.
func (s *AdminService) SetGrupoUsuarios(ctx context.Context, id int64, in []MembroInput) (GrupoDetalhe, error) {
	membros := make([]repo.UsuarioGrupo, 0, len(in))
	for i, m := range in {
		nivel, err := parseNivel(m.Acesso, fmt.Sprintf("usuarios[%d].acesso", i))
		if err != nil {
			return GrupoDetalhe{}, err
		}
		membros = append(membros, repo.UsuarioGrupo{UsuarioID: m.UsuarioID, GrupoID: id, Acesso: string(nivel)})
	}
	if _, err := s.store.GetGrupo(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return GrupoDetalhe{}, ErrGrupoNaoEncontrado
		}
		return GrupoDetalhe{}, err
	}
	if err := s.store.SetGrupoUsuarios(ctx, id, dedupeVinculos(membros, func(v repo.UsuarioGrupo) int64 { return v.UsuarioID })); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return GrupoDetalhe{}, ErrUsuarioNaoEncontrado
		}
		return GrupoDetalhe{}, err
	}
	s.purge()
	return s.GetGrupo(ctx, id)
}

// SetGrupoEmpresas substitui as empresas do grupo.
func (s *AdminService) SetGrupoEmpresas(ctx context.Context, id int64, empresaIDs []int64) (GrupoDetalhe, error) {
	if _, err := s.store.GetGrupo(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return GrupoDetalhe{}, ErrGrupoNaoEncontrado
		}
		return GrupoDetalhe{}, err
	}
	seen := make(map[int64]struct{}, len(empresaIDs))
	ids := make([]int64, 0, len(empresaIDs))
	for _, e := range empresaIDs {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		ids = append(ids, e)
	}
	if err := s.store.SetGrupoEmpresas(ctx, id, ids); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return GrupoDetalhe{}, empresa.ErrNotFound
		}
		return GrupoDetalhe{}, err
	}
	return s.GetGrupo(ctx, id)
}

// TipoCreateInput cria item do catálogo; ordem padrão 0.
type TipoCreateInput struct {
	Nome  string `json:"nome"`
	Ordem *int   `json:"ordem"`
}

// TipoUpdateInput altera campos presentes do tipo.
type TipoUpdateInput struct {
	Nome  *string `json:"nome"`
	Ordem *int    `json:"ordem"`
	Ativo *bool   `json:"ativo"`
}

func validateTipoNome(nome string) error {
	nome = strings.TrimSpace(nome)
	if nome == "" {
		return util.Invalid("nome", "Nome é obrigatório")
	}
	if len(nome) > 200 {
		return util.Invalid("nome", "Nome muito longo")
	}
	return nil
}

func validateOrdem(ordem *int) error {
	if ordem != nil && *ordem < 0 {
		return util.Invalid("ordem", "ordem deve ser maior ou igual a zero")
	}
	return nil
}

// ListTipos lista o catálogo por ordem e nome.
func (s *AdminService) ListTipos(ctx context.Context, apenasAtivos bool) ([]TipoAPI, error) {
	tipos, err := s.store.ListTipos(ctx, apenasAtivos)
	if err != nil {
		return nil, err
	}
	out := make([]TipoAPI, 0, len(tipos))
	for _, t := range tipos {
		out = append(out, toTipoAPI(t))
	}
	return out, nil
}

// CriarTipo adiciona tipo ao catálogo.
func (s *AdminService) CriarTipo(ctx context.Context, in TipoCreateInput) (TipoAPI, error) {
	if err := validateTipoNome(in.Nome); err != nil {
		return TipoAPI{}, err
	}
	if err := validateOrdem(in.Ordem); err != nil {
		return TipoAPI{}, err
	}
	ordem := 0
	if in.Ordem != nil {
		ordem = *in.Ordem
	}
	t, err := s.store.InsertTipo(ctx, strings.TrimSpace(in.Nome), ordem)
	if err != nil {
		return TipoAPI{}, err
	}
	return toTipoAPI(t), nil
}

// AtualizarTipo altera nome, ordem ou ativo.
func (s *AdminService) AtualizarTipo(ctx context.Context, id int64, in TipoUpdateInput) (TipoAPI, error) {
	params := repo.UpdateTipoParams{Ordem: in.Ordem, Ativo: in.Ativo}
	if in.Nome != nil {
		if err := validateTipoNome(*in.Nome); err != nil {
			return TipoAPI{}, err
		}
		nome := strings.TrimSpace(*in.Nome)
		params.Nome = &nome
	}
	if err := validateOrdem(in.Ordem); err != nil {
		return TipoAPI{}, err
	}
	t, err := s.store.UpdateTipo(ctx, id, params)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TipoAPI{}, ErrTipoNaoEncontrado
		}
		return TipoAPI{}, err
	}
	return toTipoAPI(t), nil
}

// ExcluirTipo remove o tipo do catálogo.
func (s *AdminService) ExcluirTipo(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteTipo(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTipoNaoEncontrado
	}
	return nil
}

func (s *AdminService) invalidate(userID int64) {
	if s.access != nil {
		s.access.Invalidate(userID)
	}
}

func (s *AdminService) purge() {
	if s.access != nil {
		s.access.Purge()
	}
}

func parseNivel(v, campo string) (acesso.Nivel, error) {
	if v == "" {
		return acesso.NivelComum, nil
	}
	n := acesso.Nivel(v)
	if !acesso.ValidNivel(n) {
		return "", util.Invalid(campo, "acesso deve ser comum ou visualizador")
	}
	return n, nil
}

// dedupeVinculos mantém a última ocorrência de cada chave, na ordem original.
func dedupeVinculos(list []repo.UsuarioGrupo, key func(repo.UsuarioGrupo) int64) []repo.UsuarioGrupo {
	last := make(map[int64]int, len(list))
	for i, v := range list {
		last[key(v)] = i
	}
	out := make([]repo.UsuarioGrupo, 0, len(last))
	for i, v := range list {
		if last[key(v)] == i {
			out = append(out, v)
		}
	}
	return out
}
