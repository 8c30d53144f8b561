package push

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/siscert/api/internal/util"
)

// Store é o subconjunto do repositório usado pelo serviço.
type Store interface {
	Upsert(ctx context.Context, sub Subscription) (*Subscription, error)
	ListByUser(ctx context.Context, userID int64) ([]Subscription, error)
	DeleteByUserAndEndpoint(ctx context.Context, userID int64, endpoint string) (bool, error)
}

// SubscribeInput espelha o JSON de PushSubscription do navegador.
type SubscribeInput struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
	UserAgent *string `json:"userAgent"`
}

// Validate exige endpoint URL e as duas chaves.
func (in SubscribeInput) Validate() error {
	u, err := url.Parse(strings.TrimSpace(in.Endpoint))
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return util.Invalid("endpoint", "endpoint deve ser uma URL válida")
	}
	if strings.TrimSpace(in.Keys.P256dh) == "" {
		return util.Invalid("keys.p256dh", "p256dh é obrigatório")
	}
	if strings.TrimSpace(in.Keys.Auth) == "" {
		return util.Invalid("keys.auth", "auth é obrigatório")
	}
	return nil
}

// SendResult resume um envio para todas as inscrições de um usuário.
type SendResult struct {
	Sent   int
	Failed int
	Pruned int
}

// Service registra inscrições e distribui notificações.
type Service struct {
	store  Store
	sender Sender
	vapid  VAPIDConfig
	log    zerolog.Logger
}

func NewService(store Store, sender Sender, vapid VAPIDConfig, logger zerolog.Logger) *Service {
	return &Service{store: store, sender: sender, vapid: vapid, log: logger}
}

// VAPIDPublicKey devolve a chave pública para o navegador assinar a inscrição.
func (s *Service) VAPIDPublicKey() (string, error) {
	if !s.vapid.Configured() {
		return "", ErrNotConfigured
	}
	return s.vapid.PublicKey, nil
}

// Subscribe grava (ou atualiza) a inscrição do usuário.
func (s *Service) Subscribe(ctx context.Context, userID int64, in SubscribeInput) (*Subscription, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.store.Upsert(ctx, Subscription{
		UsuarioID: userID,
		Endpoint:  strings.TrimSpace(in.Endpoint),
		P256dh:    strings.TrimSpace(in.Keys.P256dh),
		Auth:      strings.TrimSpace(in.Keys.Auth),
		UserAgent: in.UserAgent,
	})
}

// Unsubscribe remove a inscrição do endpoint informado.
func (s *Service) Unsubscribe(ctx context.Context, userID int64, endpoint string) (bool, error) {
	if strings.TrimSpace(endpoint) == "" {
		return false, util.Invalid("endpoint", "endpoint é obrigatório")
	}
	return s.store.DeleteByUserAndEndpoint(ctx, userID, endpoint)
}

// SendToUser envia a todas as inscrições em paralelo. Falha de uma inscrição
// não interrompe as demais; 404/410 removem a inscrição. Sem nova tentativa.
func (s *Service) SendToUser(ctx context.Context, userID int64, payload Payload) (SendResult, error) {
	if !s.vapid.Configured() {
		return SendResult{}, ErrNotConfigured
	}
	subs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return SendResult{}, err
	}

	var (
		mu     sync.Mutex
		result SendResult
		g      errgroup.Group
	)
	for _, sub := range subs {
		g.Go(func() error {
			err := s.sender.Send(ctx, sub, payload)
			outcome := s.settle(ctx, userID, sub, err)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case "sent":
				result.Sent++
			case "pruned":
				result.Pruned++
				result.Failed++
			default:
				result.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	return result, nil
}

func (s *Service) settle(ctx context.Context, userID int64, sub Subscription, err error) string {
	if err == nil {
		deliveriesTotal.WithLabelValues("sent").Inc()
		return "sent"
	}
	deliveriesTotal.WithLabelValues("failed").Inc()

	if IsGone(err) {
		if _, derr := s.store.DeleteByUserAndEndpoint(ctx, userID, sub.Endpoint); derr != nil {
			s.log.Warn().Err(derr).Int64("user_id", userID).Msg("remover inscrição expirada")
			return "failed"
		}
		deliveriesTotal.WithLabelValues("pruned").Inc()
		s.log.Info().Int64("user_id", userID).Str("subscription_id", sub.ID.String()).Msg("inscrição expirada removida")
		return "pruned"
	}

	s.log.Warn().Err(err).Int64("user_id", userID).Str("subscription_id", sub.ID.String()).Msg("falha ao enviar push")
	return "failed"
}
