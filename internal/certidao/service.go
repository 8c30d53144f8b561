package certidao

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/siscert/api/internal/acesso"
)

// Filter restringe a listagem de certidões.
type Filter struct {
	Status     *Status
	Visibility acesso.Visibility
}

// Repository persiste certidões; implementado sobre pgx em repository.go.
type Repository interface {
	List(ctx context.Context, filter Filter) ([]Certidao, error)
	ListExpiring(ctx context.Context, vis acesso.Visibility, from, to string) ([]Certidao, error)
	Get(ctx context.Context, id uuid.UUID) (*Certidao, error)
	Insert(ctx context.Context, c Certidao) (*Certidao, error)
	Update(ctx context.Context, c Certidao) (*Certidao, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status, dataExclusao *time.Time) (*Certidao, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

// Service aplica a política de acesso antes de cada transição.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock troca a fonte de tempo.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List devolve as certidões visíveis, com podeEditar por linha.
func (s *Service) List(ctx context.Context, ac acesso.AuthContext, status *Status) ([]Item, error) {
	rows, err := s.repo.List(ctx, Filter{Status: status, Visibility: ac.Visibility()})
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(rows))
	for _, c := range rows {
		items = append(items, toItem(ac, c))
	}
	return items, nil
}

// Get exige que a certidão exista e seja visível.
func (s *Service) Get(ctx context.Context, ac acesso.AuthContext, id uuid.UUID) (*Item, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !acesso.CanView(ac, c.GrupoID) {
		return nil, acesso.ErrForbidden
	}
	item := toItem(ac, *c)
	return &item, nil
}

// Create valida o grupo de destino antes dos campos.
func (s *Service) Create(ctx context.Context, ac acesso.AuthContext, in CreateInput) (*Item, error) {
	if err := acesso.CheckCreate(ac, in.GrupoID); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	c := in.toCertidao()
	c.ID = uuid.New()
	created, err := s.repo.Insert(ctx, c)
	if err != nil {
		return nil, err
	}
	item := toItem(ac, *created)
	return &item, nil
}

// Update aplica patch parcial; ordem: existência, permissão, validação.
func (s *Service) Update(ctx context.Context, ac acesso.AuthContext, id uuid.UUID, patch Patch) (*Item, error) {
	cur, err := s.loadEditable(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if patch.GrupoID.Set {
		var target *int64
		if !patch.GrupoID.Null {
			target = &patch.GrupoID.Value
		}
		if err := acesso.CheckCreate(ac, target); err != nil {
			return nil, err
		}
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	merged := patch.Apply(*cur, s.now())
	if err := validateDates(merged.DataEmissao, merged.DataValidade); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, merged)
	if err != nil {
		return nil, err
	}
	item := toItem(ac, *updated)
	return &item, nil
}

// Archive move para arquivada.
func (s *Service) Archive(ctx context.Context, ac acesso.AuthContext, id uuid.UUID) (*Item, error) {
	return s.transition(ctx, ac, id, StatusArquivada, nil)
}

// Restore volta para ativa e limpa a data de exclusão.
func (s *Service) Restore(ctx context.Context, ac acesso.AuthContext, id uuid.UUID) (*Item, error) {
	return s.transition(ctx, ac, id, StatusAtiva, nil)
}

// Trash envia para a lixeira registrando o momento.
func (s *Service) Trash(ctx context.Context, ac acesso.AuthContext, id uuid.UUID) (*Item, error) {
	now := s.now()
	return s.transition(ctx, ac, id, StatusLixeira, &now)
}

func (s *Service) transition(ctx context.Context, ac acesso.AuthContext, id uuid.UUID, status Status, dataExclusao *time.Time) (*Item, error) {
	cur, err := s.loadEditable(ctx, ac, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == status && (status != StatusLixeira || cur.DataExclusao != nil) {
		item := toItem(ac, *cur)
		return &item, nil
	}
	updated, err := s.repo.SetStatus(ctx, id, status, dataExclusao)
	if err != nil {
		return nil, err
	}
	item := toItem(ac, *updated)
	return &item, nil
}

// Delete remove a certidão definitivamente.
func (s *Service) Delete(ctx context.Context, ac acesso.AuthContext, id uuid.UUID) error {
	if _, err := s.loadEditable(ctx, ac, id); err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Duplicate cria cópia independente, com novo id e status ativa.
func (s *Service) Duplicate(ctx context.Context, ac acesso.AuthContext, id uuid.UUID) (*Item, error) {
	cur, err := s.loadEditable(ctx, ac, id)
	if err != nil {
		return nil, err
	}

	cp := cur.Clone()
	cp.ID = uuid.New()
	cp.Status = StatusAtiva
	cp.DataExclusao = nil
	created, err := s.repo.Insert(ctx, cp)
	if err != nil {
		return nil, err
	}
	item := toItem(ac, *created)
	return &item, nil
}

// Expiring lista certidões ativas com alerta ligado vencendo em [from, to].
func (s *Service) Expiring(ctx context.Context, vis acesso.Visibility, from, to string) ([]Certidao, error) {
	return s.repo.ListExpiring(ctx, vis, from, to)
}

// CountByStatus alimenta o painel administrativo.
func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *Service) loadEditable(ctx context.Context, ac acesso.AuthContext, id uuid.UUID) (*Certidao, error) {
	cur, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := acesso.CheckEdit(ac, cur.GrupoID); err != nil {
		return nil, err
	}
	return cur, nil
}

func toItem(ac acesso.AuthContext, c Certidao) Item {
	return Item{Certidao: c, PodeEditar: acesso.CanEdit(ac, c.GrupoID)}
}
