package notificacoes

import (
	"context"
	"errors"
)

// ErrCalendarioDesativado indica que o usuário não habilitou a exportação.
var ErrCalendarioDesativado = errors.New("Exportação para calendário desativada nas notificações")

// Store abstrai o repositório para testes.
type Store interface {
	Get(ctx context.Context, userID int64) (Config, bool, error)
	Upsert(ctx context.Context, userID int64, cfg Config) (Config, error)
	ListElegiveis(ctx context.Context) ([]Elegivel, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get devolve a configuração do usuário ou o padrão quando ainda não salva.
func (s *Service) Get(ctx context.Context, userID int64) (Config, error) {
	cfg, ok, err := s.store.Get(ctx, userID)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return cfg, nil
}

// Save valida e grava a configuração completa.
func (s *Service) Save(ctx context.Context, userID int64, in Input) (Config, error) {
	cfg, err := in.Config()
	if err != nil {
		return Config{}, err
	}
	return s.store.Upsert(ctx, userID, cfg)
}

// Elegiveis lista os usuários considerados pelo job de lembretes.
func (s *Service) Elegiveis(ctx context.Context) ([]Elegivel, error) {
	return s.store.ListElegiveis(ctx)
}

// CalendarioLiberado exige enviarParaGoogleCalendar ligado na configuração.
func (s *Service) CalendarioLiberado(ctx context.Context, userID int64) error {
	cfg, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !cfg.EnviarParaGoogleCalendar {
		return ErrCalendarioDesativado
	}
	return nil
}
