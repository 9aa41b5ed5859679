package usecase

import (
	"context"
	"log/slog"

	"github.com/hszk-dev/coachgate/internal/domain/repository"
	"github.com/hszk-dev/coachgate/internal/infrastructure/metrics"
)

const (
	// DefaultMaxRetries is the default number of redeliveries before an audit event is dropped.
	DefaultMaxRetries = 3
)

// AuditConsumerConfig holds configuration for AuditConsumer.
type AuditConsumerConfig struct {
	// MaxRetries is the number of redeliveries before an event is dropped.
	MaxRetries int
}

// DefaultAuditConsumerConfig returns the default configuration.
func DefaultAuditConsumerConfig() AuditConsumerConfig {
	return AuditConsumerConfig{
		MaxRetries: DefaultMaxRetries,
	}
}

// AuditConsumer drains queued audit events into logs.json.
type AuditConsumer interface {
	// ProcessEvent appends one queued entry.
	// Returns nil on success or when the event is dropped after too many retries.
	// Returns error for transient failures that should trigger a retry.
	ProcessEvent(ctx context.Context, event repository.AuditEvent) error
}

type auditConsumer struct {
	log        AuditLog
	maxRetries int
}

// NewAuditConsumer creates a new AuditConsumer instance.
func NewAuditConsumer(log AuditLog, cfg AuditConsumerConfig) AuditConsumer {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &auditConsumer{
		log:        log,
		maxRetries: cfg.MaxRetries,
	}
}

func (c *auditConsumer) ProcessEvent(ctx context.Context, event repository.AuditEvent) error {
	if event.RetryCount >= c.maxRetries {
		metrics.AuditAppendsTotal.WithLabelValues(metrics.AuditFailed).Inc()
		slog.Error("dropping audit event after max retries",
			"entry_id", event.Entry.ID,
			"action", event.Entry.Action,
			"user", event.Entry.User,
			"retry_count", event.RetryCount,
		)
		return nil
	}

	if err := c.log.Append(ctx, event.Entry); err != nil {
		slog.Warn("failed to append queued audit event",
			"entry_id", event.Entry.ID,
			"retry_count", event.RetryCount,
			"error", err,
		)
		return err
	}

	slog.Debug("audit event appended",
		"entry_id", event.Entry.ID,
		"action", event.Entry.Action,
	)
	return nil
}
