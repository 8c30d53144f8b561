package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/siscert/api/internal/auth"
	"github.com/siscert/api/internal/certidao"
	"github.com/siscert/api/internal/config"
	"github.com/siscert/api/internal/db"
	"github.com/siscert/api/internal/empresa"
	internalhttp "github.com/siscert/api/internal/http"
	"github.com/siscert/api/internal/lembrete"
	"github.com/siscert/api/internal/notificacoes"
	"github.com/siscert/api/internal/push"
	"github.com/siscert/api/internal/repo"
	"github.com/siscert/api/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	setupLogger(cfg)

	if cfg.DBAutoMigrate {
		if err := db.Migrate(cfg.DBDSN); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	queries := repo.New(pool)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)

	accessService := service.NewAccessService(queries, cfg.AccessCacheTTL)
	certidaoService := certidao.NewService(certidao.NewRepository(pool))
	notificacaoService := notificacoes.NewService(notificacoes.NewRepository(pool))

	vapid := push.VAPIDConfig{
		PublicKey:  cfg.Push.VAPIDPublicKey,
		PrivateKey: cfg.Push.VAPIDPrivateKey,
		Subscriber: cfg.Push.VAPIDSubject,
	}
	sender := push.NewWebPushSender(vapid, &http.Client{Timeout: 15 * time.Second})
	pushService := push.NewService(push.NewRepository(pool), sender, vapid, log.With().Str("component", "push").Logger())

	svc := internalhttp.Services{
		Auth:         service.NewAuthService(queries, redisClient, jwtManager, cfg.JWTRefreshTTL),
		Access:       accessService,
		Admin:        service.NewAdminService(queries, certidaoService, accessService),
		Certidoes:    certidaoService,
		Empresas:     empresa.NewService(empresa.NewRepository(pool)),
		Notificacoes: notificacaoService,
		Push:         pushService,
		ReadyChecks: map[string]func(context.Context) error{
			"db":    pool.Ping,
			"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	}

	var job *lembrete.Job
	if cfg.Push.Configured() {
		job = lembrete.NewJob(notificacaoService, accessService, certidaoService, pushService, cfg.Location,
			log.With().Str("component", "lembrete").Logger())
		svc.Lembretes = job
		if cfg.Push.JobEnabled {
			if err := job.Start(ctx); err != nil {
				return err
			}
		}
	} else {
		log.Warn().Msg("VAPID não configurado: push e lembretes desativados")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           internalhttp.NewRouter(cfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if job != nil {
		job.Stop(shutdownCtx)
	}
	return srv.Shutdown(shutdownCtx)
}

func setupLogger(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
