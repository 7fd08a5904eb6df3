package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pantryline/pantryline-backend/api/routes"
	"github.com/pantryline/pantryline-backend/internal/auth"
	"github.com/pantryline/pantryline-backend/internal/docstore"
	"github.com/pantryline/pantryline-backend/internal/items"
	"github.com/pantryline/pantryline-backend/internal/users"
	"github.com/pantryline/pantryline-backend/pkg/auth/session"
	"github.com/pantryline/pantryline-backend/pkg/config"
	"github.com/pantryline/pantryline-backend/pkg/db"
	"github.com/pantryline/pantryline-backend/pkg/logger"
	"github.com/pantryline/pantryline-backend/pkg/metrics"
	"github.com/pantryline/pantryline-backend/pkg/migrate"
	"github.com/pantryline/pantryline-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()
	redisClient.SetSyncChannelPrefix(cfg.Sync.ChannelPrefix)

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	var adapter docstore.Adapter
	if cfg.Sync.Driver == "memory" {
		adapter = docstore.NewMemoryAdapter()
	} else {
		adapter, err = docstore.NewSQLAdapter(dbClient.DB(), redisClient, cfg.Sync, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to build document store", err)
			os.Exit(1)
		}
	}

	itemRegistry, err := items.NewRegistry(items.RegistryParams{
		Adapter: adapter,
		Logger:  logg,
		Metrics: syncMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build item registry", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	broadcaster := auth.NewBroadcaster()

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		Broadcaster:    broadcaster,
		MirrorSessions: itemRegistry,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		IsUniqueViolation: func(err error) bool {
			return db.IsUniqueViolation(err, "users_email_key")
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// auth-state changes drive item repository lifecycles
	changes, cancelChanges := broadcaster.Subscribe()
	defer cancelChanges()
	authChanges := make(chan items.AuthChange)
	go func() {
		defer close(authChanges)
		for change := range changes {
			select {
			case authChanges <- items.AuthChange{UserID: change.UserID, SignedIn: change.SignedIn}:
			case <-runCtx.Done():
				return
			}
		}
	}()
	go itemRegistry.Run(runCtx, authChanges)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"sync_driver": cfg.Sync.Driver,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:       cfg,
			Logger:       logg,
			DBPinger:     dbClient,
			RedisClient:  redisClient,
			Sessions:     sessionManager,
			AuthService:  authService,
			ItemRegistry: itemRegistry,
			Gatherer:     registry,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "error shutting down http server", err)
	}

	broadcaster.Close()
	if err := itemRegistry.CloseAll(); err != nil {
		logg.Error(ctx, "error closing item repositories", err)
	}
	logg.Info(ctx, "api server stopped")
}
