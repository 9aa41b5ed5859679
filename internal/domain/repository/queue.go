package repository

import (
	"context"

	"github.com/hszk-dev/coachgate/internal/domain/model"
)

// AuditEvent is an audit entry in transit between the API and the worker.
type AuditEvent struct {
	Entry      model.AuditEntry `json:"entry"`
	RetryCount int              `json:"retry_count"`
}

// AuditQueue defines the interface for message queue operations.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type AuditQueue interface {
	// PublishAuditEvent sends an audit event to the queue.
	// Used by the API server when audit appends are delegated to the worker.
	PublishAuditEvent(ctx context.Context, event AuditEvent) error

	// ConsumeAuditEvents starts consuming audit events from the queue.
	// The handler function is called for each received event.
	// Used by the worker service.
	ConsumeAuditEvents(ctx context.Context, handler func(event AuditEvent) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
