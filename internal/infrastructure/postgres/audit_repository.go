package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const auditSchema = `
	CREATE TABLE IF NOT EXISTS audit_entries (
		id         TEXT PRIMARY KEY,
		occurred_at TIMESTAMPTZ NOT NULL,
		username   TEXT NOT NULL,
		action     TEXT NOT NULL,
		details    TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS audit_entries_occurred_at_idx ON audit_entries (occurred_at DESC);
`

// AuditRepository implements repository.AuditArchive using PostgreSQL.
type AuditRepository struct {
	db DBTX
}

// NewAuditRepository creates a new AuditRepository instance.
func NewAuditRepository(db DBTX) *AuditRepository {
	return &AuditRepository{db: db}
}

// EnsureSchema creates the archive table if it does not exist.
func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("failed to create audit schema: %w", err)
	}
	return nil
}

// Archive inserts entry. Redelivered entries hit the primary key and are
// silently skipped.
func (r *AuditRepository) Archive(ctx context.Context, entry model.AuditEntry) error {
	const query = `
		INSERT INTO audit_entries (id, occurred_at, username, action, details)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.Timestamp,
		entry.User,
		string(entry.Action),
		entry.Details,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to archive audit entry: %w", repository.ErrBackendUnavailable, err)
	}
	return nil
}

// Recent returns the newest archived entries, newest first.
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	const query = `
		SELECT id, occurred_at, username, action, details
		FROM audit_entries
		ORDER BY occurred_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query audit entries: %w", repository.ErrBackendUnavailable, err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var (
			entry  model.AuditEntry
			action string
		)
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.User, &action, &entry.Details); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Action = model.Action(action)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// Compile-time verification that AuditRepository implements repository.AuditArchive.
var _ repository.AuditArchive = (*AuditRepository)(nil)
