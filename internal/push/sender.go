// Package push entrega notificações Web Push (VAPID) às inscrições dos usuários.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// TTL padrão das mensagens no serviço de push: 24 horas.
const defaultTTL = 24 * time.Hour

var ErrNotConfigured = errors.New("Push notifications não configuradas. Defina VAPID_PUBLIC_KEY e VAPID_PRIVATE_KEY.")

// DeliveryError é a resposta de erro do serviço de push do navegador.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("push service respondeu %d", e.StatusCode)
}

// Gone indica que a inscrição não existe mais no serviço e pode ser removida.
func (e *DeliveryError) Gone() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// IsGone informa se err carrega um DeliveryError de inscrição expirada.
func IsGone(err error) bool {
	var derr *DeliveryError
	return errors.As(err, &derr) && derr.Gone()
}

// VAPIDConfig reúne as credenciais usadas para assinar os envios.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
	TTL        time.Duration
}

// Configured informa se o par de chaves está presente.
func (c VAPIDConfig) Configured() bool {
	return c.PublicKey != "" && c.PrivateKey != ""
}

// Payload é o corpo JSON entregue ao service worker.
type Payload struct {
	Title     string            `json:"title"`
	Body      string            `json:"body,omitempty"`
	URL       string            `json:"url,omitempty"`
	Certidoes []PayloadCertidao `json:"certidoes,omitempty"`
}

// PayloadCertidao resume uma certidão dentro do push.
type PayloadCertidao struct {
	ID           string  `json:"id"`
	Nome         *string `json:"nome,omitempty"`
	DataValidade string  `json:"dataValidade"`
	Empresa      string  `json:"empresa"`
}

// Sender entrega um payload a uma inscrição.
type Sender interface {
	Send(ctx context.Context, sub Subscription, payload Payload) error
}

// WebPushSender cifra e envia mensagens com webpush-go.
type WebPushSender struct {
	cfg    VAPIDConfig
	client *http.Client
}

// NewWebPushSender cria o sender; client nil usa um http.Client com timeout.
func NewWebPushSender(cfg VAPIDConfig, client *http.Client) *WebPushSender {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	cfg.Subscriber = strings.TrimPrefix(strings.TrimSpace(cfg.Subscriber), "mailto:")
	if cfg.Subscriber == "" {
		cfg.Subscriber = "noreply@siscert.local"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &WebPushSender{cfg: cfg, client: client}
}

// Send falha com ErrNotConfigured antes de qualquer chamada de rede.
func (s *WebPushSender) Send(ctx context.Context, sub Subscription, payload Payload) error {
	if !s.cfg.Configured() {
		return ErrNotConfigured
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
		TTL:             int(s.cfg.TTL / time.Second),
	})
	if err != nil {
		return fmt.Errorf("webpush: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &DeliveryError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
