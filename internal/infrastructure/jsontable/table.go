// Package jsontable stores a list of records as one JSON array blob in the
// object store. Every write replaces the whole blob; there is no locking,
// so concurrent read-modify-write sequences race and the last save wins.
package jsontable

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/hszk-dev/coachgate/internal/domain/repository"
	"github.com/hszk-dev/coachgate/internal/infrastructure/cache"
	"github.com/hszk-dev/coachgate/internal/infrastructure/metrics"
)

const contentTypeJSON = "application/json"

// ErrMalformed is returned when a stored blob is not a JSON array of T.
var ErrMalformed = errors.New("malformed table blob")

// Option configures a Table.
type Option[T any] func(*Table[T])

// WithDefaults sets the rows returned while the blob does not exist.
// fn is called on every miss so callers may mutate the result.
func WithDefaults[T any](fn func() []T) Option[T] {
	return func(t *Table[T]) {
		t.defaults = fn
	}
}

// WithCache enables the read-through cache used by Snapshot.
func WithCache[T any](c cache.BlobCache, ttl time.Duration) Option[T] {
	return func(t *Table[T]) {
		t.cache = c
		t.cacheTTL = ttl
	}
}

// Table is a typed view of one JSON array blob.
type Table[T any] struct {
	store    repository.ObjectStorage
	key      string
	defaults func() []T

	cache    cache.BlobCache
	cacheTTL time.Duration
	sfGroup  singleflight.Group
}

// New binds a Table to key in store.
func New[T any](store repository.ObjectStorage, key string, opts ...Option[T]) *Table[T] {
	t := &Table[T]{
		store: store,
		key:   key,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Key returns the object key backing the table.
func (t *Table[T]) Key() string {
	return t.key
}

// Load reads the current rows. A missing blob yields the defaults, or an
// empty slice when none are configured.
func (t *Table[T]) Load(ctx context.Context) ([]T, error) {
	data, err := t.read(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return t.missing(), nil
		}
		return nil, err
	}
	return t.decode(data)
}

// Save replaces the blob with rows and drops any cached copy.
func (t *Table[T]) Save(ctx context.Context, rows []T) error {
	if rows == nil {
		rows = []T{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", t.key, err)
	}

	if err := t.store.Upload(ctx, t.key, bytes.NewReader(data), int64(len(data)), contentTypeJSON); err != nil {
		return err
	}

	t.invalidate(ctx)
	return nil
}

// Exists reports whether the blob has ever been written.
func (t *Table[T]) Exists(ctx context.Context) (bool, error) {
	return t.store.Exists(ctx, t.key)
}

// Snapshot is the read path for public listings. It serves from the cache
// when one is configured and coalesces concurrent misses. The result may be
// up to the cache TTL stale, so it must not feed a read-modify-write.
func (t *Table[T]) Snapshot(ctx context.Context) ([]T, error) {
	if t.cache == nil {
		return t.Load(ctx)
	}

	result, err, shared := t.sfGroup.Do(t.key, func() (any, error) {
		return t.readThrough(ctx)
	})

	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}

	data := result.([]byte)
	if data == nil {
		return t.missing(), nil
	}
	return t.decode(data)
}

// readThrough implements the cache-aside pattern over raw bytes. A nil
// result means the blob does not exist.
func (t *Table[T]) readThrough(ctx context.Context) ([]byte, error) {
	data, err := t.cache.Get(ctx, t.key)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		slog.Warn("cache get failed, falling back to object store",
			"key", t.key,
			"error", err,
		)
	}
	if data != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
		return data, nil
	}
	if err == nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
	}

	data, err = t.read(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, nil
		}
		return nil, err
	}

	// Only cache blobs that decode, so a corrupt write is not served for a full TTL.
	if _, err := t.decode(data); err != nil {
		return nil, err
	}

	if err := t.cache.Set(ctx, t.key, data, t.cacheTTL); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		slog.Warn("failed to cache table",
			"key", t.key,
			"error", err,
		)
	} else {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	}

	return data, nil
}

func (t *Table[T]) invalidate(ctx context.Context) {
	if t.cache == nil {
		return
	}
	if err := t.cache.Delete(ctx, t.key); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		slog.Warn("failed to invalidate cached table",
			"key", t.key,
			"error", err,
		)
		return
	}
	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
}

func (t *Table[T]) read(ctx context.Context) ([]byte, error) {
	rc, err := t.store.Download(ctx, t.key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", repository.ErrBackendUnavailable, t.key, err)
	}
	return data, nil
}

func (t *Table[T]) decode(data []byte) ([]T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	var rows []T
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, t.key, err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

func (t *Table[T]) missing() []T {
	if t.defaults != nil {
		if rows := t.defaults(); rows != nil {
			return rows
		}
	}
	return []T{}
}
