package service

import (
	"time"

	"github.com/siscert/api/internal/acesso"
	"github.com/siscert/api/internal/repo"
)

// UsuarioAPI é a forma pública do usuário, sem hash de senha.
type UsuarioAPI struct {
	ID         int64            `json:"id"`
	Login      string           `json:"login"`
	Nome       *string          `json:"nome"`
	Role       string           `json:"role"`
	Status     string           `json:"status"`
	ApprovedAt *time.Time       `json:"approvedAt"`
	Grupos     []acesso.Vinculo `json:"grupos"`
	CreatedAt  time.Time        `json:"createdAt"`
}

func toUsuarioAPI(u repo.Usuario, vinculos []repo.UsuarioGrupo) UsuarioAPI {
	return UsuarioAPI{
		ID:         u.ID,
		Login:      u.Login,
		Nome:       u.Nome,
		Role:       u.Role,
		Status:     u.Status,
		ApprovedAt: u.ApprovedAt,
		Grupos:     toVinculos(vinculos),
		CreatedAt:  u.CreatedAt,
	}
}

// GrupoAPI é o item da listagem de grupos.
type GrupoAPI struct {
	ID        int64     `json:"id"`
	Nome      string    `json:"nome"`
	CreatedAt time.Time `json:"createdAt"`
}

// GrupoMembroAPI é um usuário dentro do detalhe do grupo.
type GrupoMembroAPI struct {
	ID     int64   `json:"id"`
	Login  string  `json:"login"`
	Nome   *string `json:"nome"`
	Acesso string  `json:"acesso"`
}

// GrupoDetalhe traz membros e empresas vinculadas.
type GrupoDetalhe struct {
	GrupoAPI
	Usuarios   []GrupoMembroAPI `json:"usuarios"`
	EmpresaIDs []int64          `json:"empresaIds"`
}

func toGrupoAPI(g repo.Grupo) GrupoAPI {
	return GrupoAPI{ID: g.ID, Nome: g.Nome, CreatedAt: g.CreatedAt}
}

// TipoAPI é o item do catálogo de tipos de certidão.
type TipoAPI struct {
	ID        int64     `json:"id"`
	Nome      string    `json:"nome"`
	Ordem     int       `json:"ordem"`
	Ativo     bool      `json:"ativo"`
	CreatedAt time.Time `json:"createdAt"`
}

func toTipoAPI(t repo.TipoCertidao) TipoAPI {
	return TipoAPI{ID: t.ID, Nome: t.Nome, Ordem: t.Ordem, Ativo: t.Ativo, CreatedAt: t.CreatedAt}
}

// Stats resume usuários e certidões para o painel administrativo.
type Stats struct {
	TotalUsuarios       int `json:"totalUsuarios"`
	UsuariosPendentes   int `json:"usuariosPendentes"`
	UsuariosAtivos      int `json:"usuariosAtivos"`
	UsuariosBloqueados  int `json:"usuariosBloqueados"`
	TotalCertidoes      int `json:"totalCertidoes"`
	CertidoesAtivas     int `json:"certidoesAtivas"`
	CertidoesArquivadas int `json:"certidoesArquivadas"`
	CertidoesLixeira    int `json:"certidoesLixeira"`
}
