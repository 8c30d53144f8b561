package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/siscert/api/internal/certidao"
	"github.com/siscert/api/internal/config"
	"github.com/siscert/api/internal/empresa"
	httpmiddleware "github.com/siscert/api/internal/http/middleware"
	"github.com/siscert/api/internal/lembrete"
	"github.com/siscert/api/internal/notificacoes"
	"github.com/siscert/api/internal/push"
	"github.com/siscert/api/internal/service"
)

// ReminderRunner executa o job de lembretes sob demanda.
type ReminderRunner interface {
	RunNow(ctx context.Context, horario string) (lembrete.Summary, error)
}

// Services agrupa as dependências dos handlers; montado em cmd/api.
type Services struct {
	Auth         *service.AuthService
	Access       *service.AccessService
	Admin        *service.AdminService
	Certidoes    *certidao.Service
	Empresas     *empresa.Service
	Notificacoes *notificacoes.Service
	Push         *push.Service
	Lembretes    ReminderRunner
	// ReadyChecks são executados por /ready; a chave nomeia a dependência.
	ReadyChecks map[string]func(context.Context) error
}

type Handler struct {
	Services
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, svc Services) http.Handler {
	h := &Handler{
		Services:      svc,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Metrics)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Group(func(public chi.Router) {
			public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

			public.Route("/auth", func(a chi.Router) {
				a.Post("/cadastro", h.Cadastro)
				a.Post("/login", h.Login)
				a.Post("/refresh", h.Refresh)
				a.Post("/logout", h.Logout)
			})
			public.Get("/push/vapid-key", h.VAPIDKey)
		})

		api.Group(func(private chi.Router) {
			private.Use(httpmiddleware.Auth(svc.Auth.JWT()))
			private.Use(httpmiddleware.UserRateLimit(h.authLimiter))
			private.Use(httpmiddleware.LoadAccess(svc.Access))

			private.Get("/auth/me", h.Me)
			private.Post("/auth/trocar-senha", h.TrocarSenha)

			private.Route("/certidoes", func(c chi.Router) {
				c.Get("/", h.ListCertidoes)
				c.Post("/", h.CreateCertidao)
				c.Get("/calendario.ics", h.CalendarioCertidoes)
				c.Get("/{id}", h.GetCertidao)
				c.Put("/{id}", h.UpdateCertidao)
				c.Delete("/{id}", h.DeleteCertidao)
				c.Patch("/{id}/arquivar", h.ArquivarCertidao)
				c.Patch("/{id}/restaurar", h.RestaurarCertidao)
				c.Patch("/{id}/lixeira", h.LixeiraCertidao)
				c.Post("/{id}/duplicar", h.DuplicarCertidao)
			})

			private.Post("/push/subscribe", h.Subscribe)
			private.Post("/push/unsubscribe", h.Unsubscribe)

			private.Get("/notificacoes/config", h.GetNotificacoesConfig)
			private.Put("/notificacoes/config", h.PutNotificacoesConfig)

			private.Get("/grupos", h.ListGrupos)
			private.Get("/empresas", h.ListEmpresas)
			private.Get("/tipos-certidao", h.ListTiposCertidao)

			private.Route("/admin", func(admin chi.Router) {
				admin.Use(httpmiddleware.RequireAdmin)
				h.mountAdmin(admin)
			})
		})
	})

	return r
}
