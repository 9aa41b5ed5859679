package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hszk-dev/coachgate/internal/domain/repository"
)

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
}

// MemoryStore is an in-process repository.ObjectStorage for local
// development and tests. Presigned URLs are syntactically valid but point
// at a fake host.
type MemoryStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryObject
	now     func() time.Time
}

var _ repository.ObjectStorage = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store for bucket.
func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{
		bucket:  bucket,
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

// WithNowFunc overrides the clock used for LastModified.
func (m *MemoryStore) WithNowFunc(now func() time.Time) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
	return m
}

func (m *MemoryStore) GeneratePresignedUploadURL(_ context.Context, key, contentType string, expiry time.Duration) (string, error) {
	return m.presign("PUT", key, contentType, expiry), nil
}

func (m *MemoryStore) GeneratePresignedDownloadURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	return m.presign("GET", key, "", expiry), nil
}

func (m *MemoryStore) presign(method, key, contentType string, expiry time.Duration) string {
	q := url.Values{}
	q.Set("X-Method", method)
	q.Set("X-Expires", fmt.Sprintf("%d", int64(expiry.Seconds())))
	if contentType != "" {
		q.Set("X-Content-Type", contentType)
	}
	u := url.URL{
		Scheme:   "http",
		Host:     "memory.local",
		Path:     "/" + m.bucket + "/" + key,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (m *MemoryStore) Upload(ctx context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrBackendUnavailable, err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("%w: read upload body: %w", repository.ErrBackendUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType, lastModified: m.now()}
	return nil
}

func (m *MemoryStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrBackendUnavailable, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(obj.data))), nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrBackendUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %w", repository.ErrBackendUnavailable, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]repository.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrBackendUnavailable, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]repository.ObjectInfo, 0, len(m.objects))
	for key, obj := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, repository.ObjectInfo{
			Key:          key,
			Size:         int64(len(obj.data)),
			ContentType:  obj.contentType,
			LastModified: obj.lastModified,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStore) Copy(ctx context.Context, srcKey, dstKey string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrBackendUnavailable, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[srcKey]
	if !ok {
		return repository.ErrObjectNotFound
	}
	m.objects[dstKey] = memoryObject{
		data:         bytes.Clone(obj.data),
		contentType:  obj.contentType,
		lastModified: m.now(),
	}
	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

// Bucket returns the configured bucket name.
func (m *MemoryStore) Bucket() string {
	return m.bucket
}

// Put is a convenience for seeding the store.
func (m *MemoryStore) Put(key string, data []byte) {
	_ = m.Upload(context.Background(), key, bytes.NewReader(data), int64(len(data)), "application/octet-stream")
}

// Get returns the stored bytes of key and whether it exists.
func (m *MemoryStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(obj.data), true
}
