package repository

import (
	"context"
	"io"
	"time"
)

// ObjectStorage defines the interface for object storage operations.
// Implementations should be provided by the infrastructure layer (e.g., MinIO, S3).
// Every error other than ErrObjectNotFound wraps ErrBackendUnavailable.
type ObjectStorage interface {
	// GeneratePresignedUploadURL creates a presigned URL for direct client upload
	// of exactly one key. The signature covers contentType, so the client must
	// send the same Content-Type header.
	GeneratePresignedUploadURL(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a presigned URL for downloading an object.
	// The URL is valid for the specified duration.
	GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// Upload stores an object, replacing any existing object with the same key.
	// size may be -1 when unknown.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download retrieves an object from the storage.
	// Returns ErrObjectNotFound if the key does not exist.
	// Caller is responsible for closing the returned ReadCloser.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object from the storage.
	// Deleting a key that does not exist succeeds.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists in the storage.
	Exists(ctx context.Context, key string) (bool, error)

	// List returns every object whose key starts with prefix, recursively.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Copy duplicates srcKey to dstKey server-side.
	// Returns ErrObjectNotFound if srcKey does not exist.
	Copy(ctx context.Context, srcKey, dstKey string) error

	// Ping verifies the bucket is reachable.
	Ping(ctx context.Context) error
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}
