package repository

import (
	"context"

	"github.com/hszk-dev/coachgate/internal/domain/model"
)

// AuditArchive keeps a queryable copy of audit entries outside the bucket.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type AuditArchive interface {
	// Archive stores entry. Archiving the same entry id twice is not an error.
	Archive(ctx context.Context, entry model.AuditEntry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]model.AuditEntry, error)
}
