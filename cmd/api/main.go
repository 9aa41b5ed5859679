package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/coachgate/internal/api"
	"github.com/hszk-dev/coachgate/internal/api/handler"
	"github.com/hszk-dev/coachgate/internal/api/middleware"
	"github.com/hszk-dev/coachgate/internal/auth"
	"github.com/hszk-dev/coachgate/internal/config"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
	"github.com/hszk-dev/coachgate/internal/infrastructure/cache"
	"github.com/hszk-dev/coachgate/internal/infrastructure/postgres"
	"github.com/hszk-dev/coachgate/internal/infrastructure/queue"
	"github.com/hszk-dev/coachgate/internal/infrastructure/storage"
	"github.com/hszk-dev/coachgate/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	store, err := newObjectStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	logger.Info("object storage ready",
		slog.String("driver", cfg.Storage.Driver),
		slog.String("bucket", cfg.Storage.Bucket),
	)
	checks := map[string]handler.Pinger{"storage": store}

	var tableCache usecase.TableCacheConfig
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("connected to Redis")

		blobCache := cache.NewRedisBlobCache(redisClient)
		tableCache = usecase.TableCacheConfig{Cache: blobCache, TTL: cfg.Redis.TableTTL}
		checks["redis"] = blobCache
	}

	var auditQueue repository.AuditQueue
	if cfg.Audit.Mode == config.AuditModeQueue {
		queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer queueClient.Close()
		logger.Info("connected to RabbitMQ")
		auditQueue = queueClient
	}

	var auditArchive repository.AuditArchive
	if cfg.Audit.ArchiveEnabled {
		pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		defer pgClient.Close()
		logger.Info("connected to PostgreSQL")

		repo := postgres.NewAuditRepository(pgClient.Pool())
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		auditArchive = repo
		checks["postgres"] = pgClient
	}

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.TokenSecret)

	auditLog := usecase.NewAuditLog(store, auditQueue, auditArchive, usecase.AuditLogConfig{
		Mode:       cfg.Audit.Mode,
		MaxEntries: cfg.Audit.MaxEntries,
	})
	coaches := usecase.NewCoachService(store, auditLog, tableCache)
	capabilities := usecase.NewCapabilityService(store, coaches, auditLog, usecase.CapabilityServiceConfig{
		URLExpiry: cfg.Storage.URLExpiry,
	})

	svc := api.Services{
		Auth: usecase.NewAuthService(store, hasher, tokens, auditLog, usecase.BootstrapConfig{
			Username: cfg.Auth.BootstrapUsername,
			Password: cfg.Auth.BootstrapPassword,
		}),
		Videos: usecase.NewVideoService(store, capabilities, auditLog, usecase.VideoServiceConfig{
			URLExpiry: cfg.Storage.URLExpiry,
		}),
		Capabilities: capabilities,
		Coaches:      coaches,
		Pricing:      usecase.NewPricingService(store, auditLog, tableCache),
		Users:        usecase.NewUserService(store, hasher, auditLog),
		Audit:        auditLog,
	}

	r := api.NewRouter(svc, api.RouterConfig{
		Logger:       logger,
		RateLimiter:  middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst),
		HealthChecks: checks,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.Int("port", cfg.Server.Port),
			slog.String("audit_mode", cfg.Audit.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func newObjectStore(ctx context.Context, cfg config.StorageConfig) (repository.ObjectStorage, error) {
	if cfg.Driver == config.StorageDriverMemory {
		return storage.NewMemoryStore(cfg.Bucket), nil
	}

	client, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:       cfg.Endpoint,
		PublicEndpoint: cfg.PublicEndpoint,
		AccessKey:      cfg.AccessKey,
		SecretKey:      cfg.SecretKey,
		Bucket:         cfg.Bucket,
		Region:         cfg.Region,
		UseSSL:         cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to object storage: %w", err)
	}
	return client, nil
}
