package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docuplane/credentiald/internal/cache"
	"github.com/docuplane/credentiald/internal/clients"
	"github.com/docuplane/credentiald/internal/config"
	"github.com/docuplane/credentiald/internal/credential"
	"github.com/docuplane/credentiald/internal/domain"
	"github.com/docuplane/credentiald/internal/email"
	httpserver "github.com/docuplane/credentiald/internal/http"
	"github.com/docuplane/credentiald/internal/metrics"
	"github.com/docuplane/credentiald/internal/notification"
	"github.com/docuplane/credentiald/internal/observability/logger"
	"github.com/docuplane/credentiald/internal/rate"
	"github.com/docuplane/credentiald/internal/security/token"
	"github.com/docuplane/credentiald/internal/session"
	"github.com/docuplane/credentiald/internal/store/memstore"
	"github.com/docuplane/credentiald/internal/store/pg"
	"github.com/docuplane/credentiald/internal/store/redisstore"
	rdb "github.com/redis/go-redis/v9"
)

func main() {
	// .env es solo conveniencia de dev; si no existe, seguimos.
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:           "credentiald",
		Short:         "Servicio de credenciales, tokens y sesiones",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "ruta del config YAML")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones de postgres y termina",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(configPath)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func migrate(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "credentiald"})
	defer func() { _ = logger.Sync() }()

	if cfg.Storage.DSN == "" {
		return fmt.Errorf("migrate: storage.dsn is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := pg.New(ctx, cfg.Storage.DSN)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Migrate(ctx)
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "credentiald"})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	if err := metrics.Register(nil); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Storage ---
	var (
		credentials    domain.CredentialRepository
		tokens         domain.TokenRepository
		active         domain.ActiveSessionRepository
		impersonations domain.ImpersonationRepository
		durableBackend domain.SessionBackend
	)
	if cfg.Storage.DSN != "" {
		store, err := pg.New(ctx, cfg.Storage.DSN)
		if err != nil {
			return err
		}
		defer store.Close()

		if cfg.Flags.Migrate {
			if err := store.Migrate(ctx); err != nil {
				return err
			}
		}
		credentials = pg.NewCredentialRepository(store)
		tokens = pg.NewTokenRepository(store)
		active = pg.NewActiveSessionRepository(store)
		impersonations = pg.NewImpersonationRepository(store)
		durableBackend = pg.NewSessionBackend(store)
	} else {
		// Sin postgres todo vive en memoria: solo para dev local.
		log.Warn("no storage.dsn configured, using in-memory stores")
		credentials = memstore.NewCredentialRepository()
		tokens = memstore.NewTokenRepository()
		active = memstore.NewActiveSessionRepository()
		impersonations = nopImpersonations{}
		durableBackend = memstore.NewSessionBackend()
	}

	// --- Redis (sesiones efímeras, breaker, cache) ---
	var (
		rateStore      domain.RateLimitStore
		sessionPrimary domain.SessionBackend
		settingsCache  cache.Client
	)
	if cfg.Redis.Addr != "" {
		client := rdb.NewClient(&rdb.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			Password: cfg.Redis.Password,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		defer client.Close()

		rateStore = redisstore.NewRateLimitStore(client, cfg.Redis.Prefix)
		sessionPrimary = redisstore.NewSessionBackend(client, cfg.Redis.Prefix)
		if cfg.Cache.Kind == "redis" {
			settingsCache = cache.NewRedis(client, cfg.Redis.Prefix)
		}
	} else {
		log.Warn("no redis.addr configured, using in-memory counters and sessions")
		rateStore = memstore.NewRateLimitStore()
		sessionPrimary = memstore.NewSessionBackend()
	}
	if settingsCache == nil {
		settingsCache = cache.NewMemory(cfg.MemoryCacheTTL())
	}

	// El backend efímero es el canónico; el durable queda de audit.
	multi, err := session.NewMultiStore(sessionPrimary, durableBackend)
	if err != nil {
		return err
	}

	// --- Colaboradores ---
	var notifier domain.NotificationSink
	if cfg.Notifications.Endpoint != "" {
		notifier = notification.NewHTTPSink(cfg.Notifications.Endpoint)
	}
	var mailer email.PasswordMailer
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPSender(cfg.SMTP)
	}

	svc := credential.New(credential.Deps{
		Credentials:       credentials,
		Tokens:            tokens,
		Sessions:          multi,
		ActiveSessions:    active,
		Impersonations:    impersonations,
		Breaker:           rate.NewCircuitBreaker(rateStore),
		Codec:             token.NewCodec([]byte(cfg.Auth.TokenSecret)),
		Users:             clients.NewUserClient(cfg.Services.Users),
		Accounts:          clients.NewAccountsClient(cfg.Services.Accounts),
		Authorization:     clients.NewAuthorizationClient(cfg.Services.Authorization),
		Directory:         clients.NewDirectoryClient(cfg.Services.Directory),
		Notifier:          notifier,
		Mailer:            mailer,
		SettingsCache:     settingsCache,
		AccessTokenSecret: []byte(cfg.Auth.AccessTokenSecret),
		AccessTokenTTL:    cfg.AccessTokenTTL(),
	})

	router := httpserver.NewRouter(httpserver.NewHandler(svc))
	srv := httpserver.NewServer(cfg.Server.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}

// nopImpersonations descarta el audit trail. Solo en dev sin postgres;
// LoginWithUserToken con impersonación no debería usarse ahí.
type nopImpersonations struct{}

func (nopImpersonations) Save(context.Context, *domain.ImpersonationRecord) error { return nil }
