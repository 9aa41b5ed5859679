package repository

import "errors"

var (
	// ErrObjectNotFound is returned when a key does not exist in the bucket.
	ErrObjectNotFound = errors.New("object not found")

	// ErrBucketNotFound is returned when the configured bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrBackendUnavailable wraps every object store failure other than a
	// missing key: unreachable endpoint, bad credentials, throttling.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrPreconditionFailed is reserved for conditional writes.
	ErrPreconditionFailed = errors.New("storage precondition failed")
)
