package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hszk-dev/coachgate/internal/config"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
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
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if cfg.Storage.Driver != config.StorageDriverMinIO {
		return fmt.Errorf("worker requires STORAGE_DRIVER=%s, got %q", config.StorageDriverMinIO, cfg.Storage.Driver)
	}
	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}
	logger.Info("connected to MinIO")

	queueClient, err := queue.NewClient(ctx, queue.DefaultClientConfig(cfg.RabbitMQ.URL()))
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	var archive repository.AuditArchive
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
		archive = repo
	}

	// The worker is the only writer of logs.json in queue mode, so it
	// appends directly.
	auditLog := usecase.NewAuditLog(storageClient, nil, archive, usecase.AuditLogConfig{
		Mode:       usecase.AuditModeDirect,
		MaxEntries: cfg.Audit.MaxEntries,
	})
	consumer := usecase.NewAuditConsumer(auditLog, usecase.AuditConsumerConfig{
		MaxRetries: cfg.Worker.MaxRetries,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// ConsumeAuditEvents calls the handler synchronously, so once the
	// consumer goroutine exits no append is in flight.
	consumerDone := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		defer close(consumerDone)
		logger.Info("starting worker, consuming audit events")
		err := queueClient.ConsumeAuditEvents(ctx, func(event repository.AuditEvent) error {
			// Appends must finish even while shutdown cancels ctx.
			if err := consumer.ProcessEvent(context.WithoutCancel(ctx), event); err != nil {
				logger.Warn("audit append failed, scheduling retry",
					slog.String("entry_id", event.Entry.ID),
					slog.Int("retry_count", event.RetryCount),
					slog.String("error", err.Error()),
				)
				return err
			}
			logger.Debug("audit event appended",
				slog.String("entry_id", event.Entry.ID),
				slog.String("action", string(event.Entry.Action)),
			)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	cancel()

	select {
	case <-consumerDone:
		logger.Info("consumer stopped")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, an audit append may not have completed")
	}

	logger.Info("worker stopped")
	return nil
}
