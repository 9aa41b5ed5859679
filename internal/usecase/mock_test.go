package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
	"github.com/hszk-dev/coachgate/internal/infrastructure/storage"
)

// mockObjectStorage provides a configurable mock for ObjectStorage.
// Calls without an override fall through to an in-memory store.
type mockObjectStorage struct {
	*storage.MemoryStore

	generatePresignedUploadURLFn   func(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	generatePresignedDownloadURLFn func(ctx context.Context, key string, expiry time.Duration) (string, error)
	uploadFn                       func(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	downloadFn                     func(ctx context.Context, key string) (io.ReadCloser, error)
	deleteFn                       func(ctx context.Context, key string) error
	existsFn                       func(ctx context.Context, key string) (bool, error)
	listFn                         func(ctx context.Context, prefix string) ([]repository.ObjectInfo, error)
	copyFn                         func(ctx context.Context, srcKey, dstKey string) error
}

func newMockObjectStorage() *mockObjectStorage {
	return &mockObjectStorage{MemoryStore: storage.NewMemoryStore("test")}
}

func (m *mockObjectStorage) GeneratePresignedUploadURL(ctx context.Context, key, contentType string, expiry time.Duration) (string, error) {
	if m.generatePresignedUploadURLFn != nil {
		return m.generatePresignedUploadURLFn(ctx, key, contentType, expiry)
	}
	return m.MemoryStore.GeneratePresignedUploadURL(ctx, key, contentType, expiry)
}

func (m *mockObjectStorage) GeneratePresignedDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if m.generatePresignedDownloadURLFn != nil {
		return m.generatePresignedDownloadURLFn(ctx, key, expiry)
	}
	return m.MemoryStore.GeneratePresignedDownloadURL(ctx, key, expiry)
}

func (m *mockObjectStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, key, reader, size, contentType)
	}
	return m.MemoryStore.Upload(ctx, key, reader, size, contentType)
}

func (m *mockObjectStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.downloadFn != nil {
		return m.downloadFn(ctx, key)
	}
	return m.MemoryStore.Download(ctx, key)
}

func (m *mockObjectStorage) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return m.MemoryStore.Delete(ctx, key)
}

func (m *mockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return m.MemoryStore.Exists(ctx, key)
}

func (m *mockObjectStorage) List(ctx context.Context, prefix string) ([]repository.ObjectInfo, error) {
	if m.listFn != nil {
		return m.listFn(ctx, prefix)
	}
	return m.MemoryStore.List(ctx, prefix)
}

func (m *mockObjectStorage) Copy(ctx context.Context, srcKey, dstKey string) error {
	if m.copyFn != nil {
		return m.copyFn(ctx, srcKey, dstKey)
	}
	return m.MemoryStore.Copy(ctx, srcKey, dstKey)
}

// mockAuditRecorder captures recorded entries.
type mockAuditRecorder struct {
	mu      sync.Mutex
	entries []model.AuditEntry
}

func (m *mockAuditRecorder) Record(_ context.Context, user string, action model.Action, details string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, model.AuditEntry{User: user, Action: action, Details: details})
}

func (m *mockAuditRecorder) actions() []model.Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Action, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

// mockAuditQueue provides a configurable mock for AuditQueue.
type mockAuditQueue struct {
	publishAuditEventFn  func(ctx context.Context, event repository.AuditEvent) error
	consumeAuditEventsFn func(ctx context.Context, handler func(event repository.AuditEvent) error) error
	closeFn              func() error
}

func (m *mockAuditQueue) PublishAuditEvent(ctx context.Context, event repository.AuditEvent) error {
	if m.publishAuditEventFn != nil {
		return m.publishAuditEventFn(ctx, event)
	}
	return nil
}

func (m *mockAuditQueue) ConsumeAuditEvents(ctx context.Context, handler func(event repository.AuditEvent) error) error {
	if m.consumeAuditEventsFn != nil {
		return m.consumeAuditEventsFn(ctx, handler)
	}
	return nil
}

func (m *mockAuditQueue) Close() error {
	if m.closeFn != nil {
		return m.closeFn()
	}
	return nil
}

// mockAuditArchive provides a configurable mock for AuditArchive.
type mockAuditArchive struct {
	archiveFn func(ctx context.Context, entry model.AuditEntry) error
	recentFn  func(ctx context.Context, limit int) ([]model.AuditEntry, error)
}

func (m *mockAuditArchive) Archive(ctx context.Context, entry model.AuditEntry) error {
	if m.archiveFn != nil {
		return m.archiveFn(ctx, entry)
	}
	return nil
}

func (m *mockAuditArchive) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if m.recentFn != nil {
		return m.recentFn(ctx, limit)
	}
	return nil, nil
}

// mockAuditLog provides a configurable mock for AuditLog.
type mockAuditLog struct {
	mockAuditRecorder
	appendFn func(ctx context.Context, entry model.AuditEntry) error
}

func (m *mockAuditLog) Append(ctx context.Context, entry model.AuditEntry) error {
	if m.appendFn != nil {
		return m.appendFn(ctx, entry)
	}
	return nil
}

func (m *mockAuditLog) List(context.Context, int) ([]model.AuditEntry, error) {
	return nil, nil
}

func (m *mockAuditLog) ListArchived(context.Context, int) ([]model.AuditEntry, error) {
	return nil, nil
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}
