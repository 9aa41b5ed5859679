package cache

import (
	"context"
	"time"
)

// BlobCache caches raw table blobs keyed by their object key.
// Implementations store bytes verbatim; decoding stays with the caller.
type BlobCache interface {
	// Get retrieves a blob from cache by key.
	// Returns nil, nil if the key is not in cache (cache miss).
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a blob in cache with the specified TTL.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a blob from cache.
	// Returns nil if the key was not in cache.
	Delete(ctx context.Context, key string) error
}
