package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
	"github.com/hszk-dev/coachgate/internal/infrastructure/jsontable"
	"github.com/hszk-dev/coachgate/internal/infrastructure/metrics"
)

// Audit delivery modes.
const (
	AuditModeDirect = "direct"
	AuditModeQueue  = "queue"
)

// DefaultAuditMaxEntries is how many entries logs.json retains.
const DefaultAuditMaxEntries = 1000

// AuditRecorder records audit entries on a best-effort basis.
type AuditRecorder interface {
	// Record never fails the caller; delivery problems are logged.
	Record(ctx context.Context, user string, action model.Action, details string)
}

// AuditLog is the newest-first audit trail kept in logs.json.
type AuditLog interface {
	AuditRecorder

	// Append prepends entry to logs.json and trims it to the retention limit.
	Append(ctx context.Context, entry model.AuditEntry) error

	// List returns up to limit entries, newest first. A limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]model.AuditEntry, error)

	// ListArchived reads the Postgres archive instead of logs.json.
	ListArchived(ctx context.Context, limit int) ([]model.AuditEntry, error)
}

// AuditLogConfig holds configuration for AuditLog.
type AuditLogConfig struct {
	// Mode selects direct appends or publishing to the audit queue.
	Mode string
	// MaxEntries is the retention limit of logs.json.
	MaxEntries int
}

// DefaultAuditLogConfig returns the default configuration.
func DefaultAuditLogConfig() AuditLogConfig {
	return AuditLogConfig{
		Mode:       AuditModeDirect,
		MaxEntries: DefaultAuditMaxEntries,
	}
}

type auditLog struct {
	table   *jsontable.Table[model.AuditEntry]
	queue   repository.AuditQueue
	archive repository.AuditArchive

	mode       string
	maxEntries int
	now        func() time.Time
}

// NewAuditLog creates a new AuditLog. queue and archive may be nil.
func NewAuditLog(
	storage repository.ObjectStorage,
	queue repository.AuditQueue,
	archive repository.AuditArchive,
	cfg AuditLogConfig,
) AuditLog {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultAuditMaxEntries
	}
	return &auditLog{
		table:      jsontable.New[model.AuditEntry](storage, model.AuditLogKey),
		queue:      queue,
		archive:    archive,
		mode:       cfg.Mode,
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
	}
}

// Record stamps a new entry and delivers it. The request context's
// cancellation is dropped so a disconnecting client cannot cut an entry short.
func (l *auditLog) Record(ctx context.Context, user string, action model.Action, details string) {
	ctx = context.WithoutCancel(ctx)
	if user == "" {
		user = model.AnonymousUser
	}
	entry := model.NewAuditEntry(user, action, details, l.now())

	if l.mode == AuditModeQueue && l.queue != nil {
		err := l.queue.PublishAuditEvent(ctx, repository.AuditEvent{Entry: entry})
		if err == nil {
			metrics.AuditAppendsTotal.WithLabelValues(metrics.AuditQueued).Inc()
			return
		}
		slog.Warn("failed to queue audit entry, appending directly",
			"action", action,
			"error", err,
		)
	}

	if err := l.Append(ctx, entry); err != nil {
		slog.Warn("failed to append audit entry",
			"action", action,
			"user", user,
			"error", err,
		)
	}
}

func (l *auditLog) Append(ctx context.Context, entry model.AuditEntry) error {
	entries, err := l.table.Load(ctx)
	if err != nil {
		metrics.AuditAppendsTotal.WithLabelValues(metrics.AuditFailed).Inc()
		return fmt.Errorf("load audit log: %w", err)
	}

	next := make([]model.AuditEntry, 0, min(len(entries)+1, l.maxEntries))
	next = append(next, entry)
	for _, e := range entries {
		if len(next) == l.maxEntries {
			break
		}
		if e.ID == entry.ID {
			// Redelivered queue message.
			continue
		}
		next = append(next, e)
	}

	if err := l.table.Save(ctx, next); err != nil {
		metrics.AuditAppendsTotal.WithLabelValues(metrics.AuditFailed).Inc()
		return fmt.Errorf("save audit log: %w", err)
	}
	metrics.AuditAppendsTotal.WithLabelValues(metrics.AuditAppended).Inc()

	l.archiveEntry(ctx, entry)
	return nil
}

func (l *auditLog) archiveEntry(ctx context.Context, entry model.AuditEntry) {
	if l.archive == nil {
		return
	}
	if err := l.archive.Archive(ctx, entry); err != nil {
		metrics.AuditAppendsTotal.WithLabelValues(metrics.AuditArchiveFailed).Inc()
		slog.Warn("failed to archive audit entry",
			"entry_id", entry.ID,
			"error", err,
		)
		return
	}
	metrics.AuditAppendsTotal.WithLabelValues(metrics.AuditArchived).Inc()
}

func (l *auditLog) List(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	entries, err := l.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load audit log: %w", err)
	}
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries, nil
}

func (l *auditLog) ListArchived(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if l.archive == nil {
		return nil, invalidInput(errors.New("audit archive is not enabled"))
	}
	if limit <= 0 || limit > l.maxEntries {
		limit = l.maxEntries
	}
	entries, err := l.archive.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read audit archive: %w", err)
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	return entries, nil
}
