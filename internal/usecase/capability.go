package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
)

// DefaultCapabilityExpiry is the lifetime of every presigned URL.
const DefaultCapabilityExpiry = time.Hour

// Capability is a presigned URL granting one operation on one object.
type Capability struct {
	URL       string
	Key       string
	ExpiresAt time.Time
	ExpiresIn time.Duration
}

// CapabilityService issues presigned URLs.
type CapabilityService interface {
	// IssueUploadURL returns a PUT URL for a new, uniquely named object.
	IssueUploadURL(ctx context.Context, actor, fileName, contentType string) (*Capability, error)

	// IssueCoachImageURL returns a PUT URL for a coach's profile image.
	IssueCoachImageURL(ctx context.Context, actor, coachID, fileName, contentType string) (*Capability, error)

	// IssueDownloadURL returns a GET URL for an existing video.
	IssueDownloadURL(ctx context.Context, key string) (*Capability, error)
}

// CapabilityServiceConfig holds configuration for CapabilityService.
type CapabilityServiceConfig struct {
	URLExpiry time.Duration
}

// DefaultCapabilityServiceConfig returns the default configuration.
func DefaultCapabilityServiceConfig() CapabilityServiceConfig {
	return CapabilityServiceConfig{
		URLExpiry: DefaultCapabilityExpiry,
	}
}

type capabilityService struct {
	storage repository.ObjectStorage
	coaches CoachService
	audit   AuditRecorder

	urlExpiry time.Duration
	now       func() time.Time
}

// NewCapabilityService creates a new CapabilityService instance.
func NewCapabilityService(
	storage repository.ObjectStorage,
	coaches CoachService,
	audit AuditRecorder,
	cfg CapabilityServiceConfig,
) CapabilityService {
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = DefaultCapabilityExpiry
	}
	return &capabilityService{
		storage:   storage,
		coaches:   coaches,
		audit:     audit,
		urlExpiry: cfg.URLExpiry,
		now:       time.Now,
	}
}

func (s *capabilityService) IssueUploadURL(ctx context.Context, actor, fileName, contentType string) (*Capability, error) {
	if strings.TrimSpace(contentType) == "" {
		return nil, invalidInput(model.ErrEmptyContentType)
	}
	key, err := generateUploadKey(fileName)
	if err != nil {
		return nil, err
	}

	capability, err := s.presignUpload(ctx, key, contentType)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, model.ActionIssueUploadURL, key)
	return capability, nil
}

func (s *capabilityService) IssueCoachImageURL(ctx context.Context, actor, coachID, fileName, contentType string) (*Capability, error) {
	if strings.TrimSpace(coachID) == "" {
		return nil, invalidInput(errors.New("coach id is required"))
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, invalidInput(fmt.Errorf("content type %q is not an image", contentType))
	}
	ext := model.Extension(fileName)
	if ext == "" {
		return nil, invalidInput(fmt.Errorf("file name %q has no extension", fileName))
	}

	if _, err := s.coaches.Get(ctx, coachID); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%sprofile-%s-%d.%s", model.CoachImagePrefix, model.SanitizeFileName(coachID), s.now().UnixMilli(), ext)
	capability, err := s.presignUpload(ctx, key, contentType)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, actor, model.ActionIssueCoachImageURL, key)
	return capability, nil
}

func (s *capabilityService) IssueDownloadURL(ctx context.Context, key string) (*Capability, error) {
	if err := model.ValidateVideoKey(key); err != nil {
		return nil, invalidInput(err)
	}

	exists, err := s.storage.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("check video: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: video %q", ErrNotFound, key)
	}

	url, err := s.storage.GeneratePresignedDownloadURL(ctx, key, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate presigned download URL: %w", err)
	}
	return s.capability(url, key), nil
}

func (s *capabilityService) presignUpload(ctx context.Context, key, contentType string) (*Capability, error) {
	url, err := s.storage.GeneratePresignedUploadURL(ctx, key, contentType, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("generate presigned upload URL: %w", err)
	}
	return s.capability(url, key), nil
}

func (s *capabilityService) capability(url, key string) *Capability {
	return &Capability{
		URL:       url,
		Key:       key,
		ExpiresAt: s.now().Add(s.urlExpiry).UTC(),
		ExpiresIn: s.urlExpiry,
	}
}

// generateUploadKey prefixes the sanitized file name with a time-ordered
// UUID so uploads never overwrite each other.
func generateUploadKey(fileName string) (string, error) {
	name := model.SanitizeFileName(fileName)
	if name == "" || strings.Trim(name, ".") == "" {
		return "", invalidInput(model.ErrEmptyFileName)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate upload key: %w", err)
	}
	key := id.String() + "-" + name
	if err := model.ValidateVideoKey(key); err != nil {
		return "", invalidInput(err)
	}
	return key, nil
}
