package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
)

// RenameOutput contains the result of renaming a video.
type RenameOutput struct {
	OldKey string
	NewKey string
	// NotesMoved is true when a notes sibling was carried over.
	NotesMoved bool
	// DuplicateRemains is true when the copy succeeded but the old object
	// could not be deleted. Both keys then hold the video.
	DuplicateRemains bool
}

// VideoService defines the interface for coach-facing video operations.
type VideoService interface {
	// List returns every video, newest first, with a download URL each.
	List(ctx context.Context) ([]model.VideoObject, error)

	// Delete removes a video and its notes. Deleting a missing video succeeds.
	Delete(ctx context.Context, actor, key string) error

	// Rename moves a video, and its notes if any, to newKey.
	Rename(ctx context.Context, actor, oldKey, newKey string) (*RenameOutput, error)

	// GetNotes returns the stored notes JSON, or nil when there are none.
	GetNotes(ctx context.Context, actor, key string) (json.RawMessage, error)

	// SaveNotes replaces the notes of an existing video.
	SaveNotes(ctx context.Context, actor, key string, notes json.RawMessage) error

	// DownloadURL returns a presigned GET URL for a video.
	DownloadURL(ctx context.Context, key string) (*Capability, error)
}

// VideoServiceConfig holds configuration for VideoService.
type VideoServiceConfig struct {
	URLExpiry time.Duration
}

// DefaultVideoServiceConfig returns the default configuration.
func DefaultVideoServiceConfig() VideoServiceConfig {
	return VideoServiceConfig{
		URLExpiry: DefaultCapabilityExpiry,
	}
}

type videoService struct {
	storage      repository.ObjectStorage
	capabilities CapabilityService
	audit        AuditRecorder

	urlExpiry time.Duration
}

// NewVideoService creates a new VideoService instance.
func NewVideoService(
	storage repository.ObjectStorage,
	capabilities CapabilityService,
	audit AuditRecorder,
	cfg VideoServiceConfig,
) VideoService {
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = DefaultCapabilityExpiry
	}
	return &videoService{
		storage:      storage,
		capabilities: capabilities,
		audit:        audit,
		urlExpiry:    cfg.URLExpiry,
	}
}

// List derives hasNotes from the same listing pass that finds the videos.
func (s *videoService) List(ctx context.Context) ([]model.VideoObject, error) {
	objects, err := s.storage.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	keys := make(map[string]struct{}, len(objects))
	for _, obj := range objects {
		keys[obj.Key] = struct{}{}
	}

	videos := make([]model.VideoObject, 0, len(objects))
	for _, obj := range objects {
		if !model.IsVideoKey(obj.Key) {
			continue
		}
		url, err := s.storage.GeneratePresignedDownloadURL(ctx, obj.Key, s.urlExpiry)
		if err != nil {
			return nil, fmt.Errorf("generate presigned download URL: %w", err)
		}
		_, hasNotes := keys[model.NotesKey(obj.Key)]
		videos = append(videos, model.VideoObject{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			URL:          url,
			HasNotes:     hasNotes,
		})
	}

	sort.SliceStable(videos, func(i, j int) bool {
		if videos[i].LastModified.Equal(videos[j].LastModified) {
			return videos[i].Key < videos[j].Key
		}
		return videos[i].LastModified.After(videos[j].LastModified)
	})
	return videos, nil
}

func (s *videoService) Delete(ctx context.Context, actor, key string) error {
	if err := model.ValidateVideoKey(key); err != nil {
		return invalidInput(err)
	}

	if err := s.storage.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionDeleteFile, key)

	if s.deleteSiblingNotes(ctx, key) {
		s.audit.Record(ctx, actor, model.ActionDeleteNotes, model.NotesKey(key))
	}
	return nil
}

// deleteSiblingNotes removes the notes of key if present and reports
// whether it did. Failures are logged only.
func (s *videoService) deleteSiblingNotes(ctx context.Context, key string) bool {
	notesKey := model.NotesKey(key)
	exists, err := s.storage.Exists(ctx, notesKey)
	if err != nil {
		slog.Warn("failed to check notes of deleted video",
			"key", notesKey,
			"error", err,
		)
		return false
	}
	if !exists {
		return false
	}
	if err := s.storage.Delete(ctx, notesKey); err != nil {
		slog.Warn("failed to delete notes of deleted video",
			"key", notesKey,
			"error", err,
		)
		return false
	}
	return true
}

func (s *videoService) Rename(ctx context.Context, actor, oldKey, newKey string) (*RenameOutput, error) {
	if err := model.ValidateVideoKey(oldKey); err != nil {
		return nil, invalidInput(err)
	}
	if err := model.ValidateVideoKey(newKey); err != nil {
		return nil, invalidInput(err)
	}
	if oldKey == newKey {
		return nil, invalidInput(errors.New("new key must differ from old key"))
	}

	exists, err := s.storage.Exists(ctx, oldKey)
	if err != nil {
		return nil, fmt.Errorf("check source: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: video %q", ErrNotFound, oldKey)
	}

	exists, err = s.storage.Exists(ctx, newKey)
	if err != nil {
		return nil, fmt.Errorf("check target: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %q already exists", ErrConflict, newKey)
	}

	if err := s.storage.Copy(ctx, oldKey, newKey); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: video %q", ErrNotFound, oldKey)
		}
		return nil, fmt.Errorf("copy video: %w", err)
	}

	out := &RenameOutput{OldKey: oldKey, NewKey: newKey}
	out.NotesMoved = s.moveNotes(ctx, oldKey, newKey)

	if err := s.storage.Delete(ctx, oldKey); err != nil {
		slog.Warn("renamed video copy succeeded but old object remains",
			"old_key", oldKey,
			"new_key", newKey,
			"error", err,
		)
		out.DuplicateRemains = true
	}

	details := oldKey + " -> " + newKey
	if out.DuplicateRemains {
		details += " (old copy remains)"
	}
	s.audit.Record(ctx, actor, model.ActionRenameFile, details)
	return out, nil
}

// moveNotes carries the notes sibling over to newKey. Failures are logged
// only; the video move itself is what the caller asked for.
func (s *videoService) moveNotes(ctx context.Context, oldKey, newKey string) bool {
	oldNotes, newNotes := model.NotesKey(oldKey), model.NotesKey(newKey)

	exists, err := s.storage.Exists(ctx, oldNotes)
	if err != nil {
		slog.Warn("failed to check notes of renamed video",
			"key", oldNotes,
			"error", err,
		)
		return false
	}
	if !exists {
		return false
	}

	if err := s.storage.Copy(ctx, oldNotes, newNotes); err != nil {
		slog.Warn("failed to copy notes of renamed video",
			"old_key", oldNotes,
			"new_key", newNotes,
			"error", err,
		)
		return false
	}
	if err := s.storage.Delete(ctx, oldNotes); err != nil {
		slog.Warn("failed to delete old notes of renamed video",
			"key", oldNotes,
			"error", err,
		)
	}
	return true
}

func (s *videoService) GetNotes(ctx context.Context, actor, key string) (json.RawMessage, error) {
	if err := model.ValidateVideoKey(key); err != nil {
		return nil, invalidInput(err)
	}

	rc, err := s.storage.Download(ctx, model.NotesKey(key))
	if err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			s.audit.Record(ctx, actor, model.ActionDownloadNotes, key)
			return nil, nil
		}
		return nil, fmt.Errorf("download notes: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read notes: %w", repository.ErrBackendUnavailable, err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("notes of %q are not valid JSON", key)
	}

	s.audit.Record(ctx, actor, model.ActionDownloadNotes, key)
	return json.RawMessage(data), nil
}

func (s *videoService) SaveNotes(ctx context.Context, actor, key string, notes json.RawMessage) error {
	if err := model.ValidateVideoKey(key); err != nil {
		return invalidInput(err)
	}
	notes = bytes.TrimSpace(notes)
	if len(notes) == 0 || !json.Valid(notes) {
		return invalidInput(errors.New("notes must be valid JSON"))
	}

	exists, err := s.storage.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check video: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: video %q", ErrNotFound, key)
	}

	if err := s.storage.Upload(ctx, model.NotesKey(key), bytes.NewReader(notes), int64(len(notes)), "application/json"); err != nil {
		return fmt.Errorf("upload notes: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionSaveNotes, key)
	return nil
}

func (s *videoService) DownloadURL(ctx context.Context, key string) (*Capability, error) {
	return s.capabilities.IssueDownloadURL(ctx, key)
}
