package empresa

import (
	"context"
	"errors"
	"strings"

	"github.com/siscert/api/internal/acesso"
	"github.com/siscert/api/internal/repo"
)

const maxSlugAttempts = 50

// Store abstrai o repositório para testes.
type Store interface {
	List(ctx context.Context, apenasAtivos bool, grupoIDs []int64) ([]Empresa, error)
	Get(ctx context.Context, id int64) (Empresa, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Insert(ctx context.Context, e Empresa) (Empresa, error)
	Update(ctx context.Context, e Empresa) (Empresa, error)
	Delete(ctx context.Context, id int64) (bool, error)
	TiposBloqueados(ctx context.Context, empresaIDs []int64) (map[int64][]int64, error)
	SetTiposBloqueados(ctx context.Context, empresaID int64, tipoIDs []int64) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// List devolve todas as empresas com os tipos bloqueados.
func (s *Service) List(ctx context.Context, apenasAtivos bool) ([]Empresa, error) {
	rows, err := s.store.List(ctx, apenasAtivos, nil)
	if err != nil {
		return nil, err
	}
	return s.withBloqueados(ctx, rows)
}

// ListForUser: admin ou usuário sem grupos vê todas; os demais veem a união
// das empresas dos seus grupos.
func (s *Service) ListForUser(ctx context.Context, ac acesso.AuthContext, apenasAtivos bool) ([]Empresa, error) {
	grupoIDs := ac.GrupoIDs()
	if ac.IsAdmin() || len(grupoIDs) == 0 {
		return s.List(ctx, apenasAtivos)
	}
	rows, err := s.store.List(ctx, apenasAtivos, grupoIDs)
	if err != nil {
		return nil, err
	}
	return s.withBloqueados(ctx, rows)
}

// Get devolve empresa com os tipos bloqueados.
func (s *Service) Get(ctx context.Context, id int64) (Empresa, error) {
	e, err := s.store.Get(ctx, id)
	if err != nil {
		return Empresa{}, err
	}
	list, err := s.withBloqueados(ctx, []Empresa{e})
	if err != nil {
		return Empresa{}, err
	}
	return list[0], nil
}

// Create gera o slug a partir do nome e acrescenta -n em caso de colisão.
func (s *Service) Create(ctx context.Context, in CreateInput) (Empresa, error) {
	if err := in.Validate(); err != nil {
		return Empresa{}, err
	}
	ordem := 0
	if in.Ordem != nil {
		ordem = *in.Ordem
	}

	base := Slugify(in.Nome)
	for n := 0; n < maxSlugAttempts; n++ {
		slug := candidateSlug(base, n)
		exists, err := s.store.SlugExists(ctx, slug)
		if err != nil {
			return Empresa{}, err
		}
		if exists {
			continue
		}
		created, err := s.store.Insert(ctx, Empresa{Slug: slug, Nome: strings.TrimSpace(in.Nome), Cor: in.Cor, Ordem: ordem})
		if errors.Is(err, repo.ErrConflict) {
			continue
		}
		if err != nil {
			return Empresa{}, err
		}
		created.TipoIDsBloqueados = []int64{}
		return created, nil
	}
	return Empresa{}, repo.ErrConflict
}

// Update aplica os campos informados; slug informado é normalizado.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Empresa, error) {
	if err := in.Validate(); err != nil {
		return Empresa{}, err
	}
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return Empresa{}, err
	}

	if in.Slug != nil {
		cur.Slug = Slugify(*in.Slug)
	}
	if in.Nome != nil {
		cur.Nome = strings.TrimSpace(*in.Nome)
	}
	if in.Ordem != nil {
		cur.Ordem = *in.Ordem
	}
	if in.Ativo != nil {
		cur.Ativo = *in.Ativo
	}
	if in.Cor.Set {
		cur.Cor = in.Cor.Ptr()
	}

	updated, err := s.store.Update(ctx, cur)
	if err != nil {
		return Empresa{}, err
	}
	list, err := s.withBloqueados(ctx, []Empresa{updated})
	if err != nil {
		return Empresa{}, err
	}
	return list[0], nil
}

// Delete remove a empresa.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// SetTiposBloqueados substitui os tipos bloqueados da empresa.
func (s *Service) SetTiposBloqueados(ctx context.Context, id int64, tipoIDs []int64) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.store.SetTiposBloqueados(ctx, id, dedupe(tipoIDs))
}

func (s *Service) withBloqueados(ctx context.Context, rows []Empresa) ([]Empresa, error) {
	ids := make([]int64, 0, len(rows))
	for _, e := range rows {
		ids = append(ids, e.ID)
	}
	bloqueados, err := s.store.TiposBloqueados(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].TipoIDsBloqueados = bloqueados[rows[i].ID]
		if rows[i].TipoIDsBloqueados == nil {
			rows[i].TipoIDsBloqueados = []int64{}
		}
	}
	return rows, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
