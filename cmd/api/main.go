package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/coffee-service/internal/api/http"
	"github.com/spec-kit/coffee-service/internal/api/http/handlers"
	"github.com/spec-kit/coffee-service/internal/auth"
	"github.com/spec-kit/coffee-service/internal/config"
	"github.com/spec-kit/coffee-service/internal/events"
	"github.com/spec-kit/coffee-service/internal/observability"
	"github.com/spec-kit/coffee-service/internal/persistence"
	"github.com/spec-kit/coffee-service/internal/repository"
	"github.com/spec-kit/coffee-service/internal/service"
	"github.com/spec-kit/coffee-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var credentialRepo repository.CredentialRepository
	if pg.Enabled() {
		credentialRepo = repository.NewPostgresCredentialRepository(pg.PoolHandle())
	} else {
		credentialRepo = repository.NewFixtureCredentialRepository()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	if redis.Enabled() {
		credentialRepo = repository.NewCachedCredentialRepository(credentialRepo, redis.Client, cfg.Redis.CredentialCacheTTL(), logger)
	}

	settings, err := auth.NewTokenSettings(cfg.Auth.JWTSecret, cfg.Auth.TokenValidity(), cfg.Auth.TokenValidityRememberMe())
	if err != nil {
		logger.Fatal("invalid token settings", zap.Error(err))
	}
	issuer := auth.NewTokenIssuer(settings)
	verifier := auth.NewTokenVerifier(settings)

	dispatcher := events.NewInMemoryDispatcher()
	auditService := service.NewAuditService(dispatcher, logger, metrics)
	worker.StartAuditWorker(auditService)

	authService := service.NewAuthService(service.AuthDependencies{
		CredentialRepo: credentialRepo,
		Issuer:         issuer,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	gate := auth.NewGate(verifier, cfg.Auth.TokenHeader, logger, dispatcher)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics, logger),
		Auth:    handlers.NewAuthHandler(authService),
		Account: handlers.NewAccountHandler(),
		Coffee:  handlers.NewCoffeeHandler(),
		Gate:    gate,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
