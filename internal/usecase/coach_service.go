package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
	"github.com/hszk-dev/coachgate/internal/infrastructure/cache"
	"github.com/hszk-dev/coachgate/internal/infrastructure/jsontable"
)

// CreateCoachInput contains the input parameters for creating a coach.
// Empty optional fields take their defaults.
type CreateCoachInput struct {
	Name            string
	Title           string
	Description     string
	Skills          []string
	AvatarColor     string
	Initials        string
	ProfileImageKey string
	SocialMedia     map[string]string
}

// CoachService defines the interface for coach directory operations.
type CoachService interface {
	// List returns the public coach directory, possibly served from cache.
	List(ctx context.Context) ([]model.Coach, error)

	// Get reads one coach from the store, bypassing the cache.
	Get(ctx context.Context, id string) (*model.Coach, error)

	Create(ctx context.Context, actor string, input CreateCoachInput) (*model.Coach, error)
	Update(ctx context.Context, actor, id string, patch model.CoachPatch) (*model.Coach, error)

	// Delete removes the coach and, best-effort, its profile image.
	Delete(ctx context.Context, actor, id string) error
}

// TableCacheConfig enables the Redis snapshot cache for public tables.
type TableCacheConfig struct {
	Cache cache.BlobCache
	TTL   time.Duration
}

type coachService struct {
	table   *jsontable.Table[model.Coach]
	storage repository.ObjectStorage
	audit   AuditRecorder
	now     func() time.Time
}

// NewCoachService creates a new CoachService instance.
func NewCoachService(storage repository.ObjectStorage, audit AuditRecorder, cacheCfg TableCacheConfig) CoachService {
	var opts []jsontable.Option[model.Coach]
	if cacheCfg.Cache != nil {
		opts = append(opts, jsontable.WithCache[model.Coach](cacheCfg.Cache, cacheCfg.TTL))
	}
	return &coachService{
		table:   jsontable.New(storage, model.CoachesTableKey, opts...),
		storage: storage,
		audit:   audit,
		now:     time.Now,
	}
}

func (s *coachService) List(ctx context.Context) ([]model.Coach, error) {
	coaches, err := s.table.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load coaches: %w", err)
	}
	return coaches, nil
}

func (s *coachService) Get(ctx context.Context, id string) (*model.Coach, error) {
	coaches, err := s.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load coaches: %w", err)
	}
	i := indexOfCoach(coaches, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: coach %q", ErrNotFound, id)
	}
	return &coaches[i], nil
}

func (s *coachService) Create(ctx context.Context, actor string, input CreateCoachInput) (*model.Coach, error) {
	now := s.now().UTC()
	coach, err := model.NewCoach(input.Name, now)
	if err != nil {
		return nil, invalidInput(err)
	}

	patch := model.CoachPatch{
		Title:       &input.Title,
		Description: &input.Description,
	}
	if input.Skills != nil {
		patch.Skills = &input.Skills
	}
	if input.AvatarColor != "" {
		patch.AvatarColor = &input.AvatarColor
	}
	if strings.TrimSpace(input.Initials) != "" {
		patch.Initials = &input.Initials
	}
	if input.ProfileImageKey != "" {
		patch.ProfileImageKey = &input.ProfileImageKey
	}
	if input.SocialMedia != nil {
		patch.SocialMedia = &input.SocialMedia
	}
	if err := coach.Apply(patch, now); err != nil {
		return nil, invalidInput(err)
	}

	coaches, err := s.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load coaches: %w", err)
	}
	if indexOfCoach(coaches, coach.ID) >= 0 {
		return nil, fmt.Errorf("%w: coach id %q", ErrConflict, coach.ID)
	}

	if err := s.table.Save(ctx, append(slices.Clone(coaches), *coach)); err != nil {
		return nil, fmt.Errorf("save coaches: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionCreateCoach, fmt.Sprintf("%s (%s)", coach.Name, coach.ID))
	return coach, nil
}

func (s *coachService) Update(ctx context.Context, actor, id string, patch model.CoachPatch) (*model.Coach, error) {
	coaches, err := s.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load coaches: %w", err)
	}
	i := indexOfCoach(coaches, id)
	if i < 0 {
		return nil, fmt.Errorf("%w: coach %q", ErrNotFound, id)
	}

	next := slices.Clone(coaches)
	coach := next[i]
	if err := coach.Apply(patch, s.now().UTC()); err != nil {
		return nil, invalidInput(err)
	}
	next[i] = coach

	if err := s.table.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save coaches: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionUpdateCoach, fmt.Sprintf("%s (%s)", coach.Name, coach.ID))
	return &coach, nil
}

func (s *coachService) Delete(ctx context.Context, actor, id string) error {
	coaches, err := s.table.Load(ctx)
	if err != nil {
		return fmt.Errorf("load coaches: %w", err)
	}
	i := indexOfCoach(coaches, id)
	if i < 0 {
		return fmt.Errorf("%w: coach %q", ErrNotFound, id)
	}
	removed := coaches[i]

	if err := s.table.Save(ctx, slices.Delete(slices.Clone(coaches), i, i+1)); err != nil {
		return fmt.Errorf("save coaches: %w", err)
	}

	s.deleteProfileImage(ctx, removed)
	s.audit.Record(ctx, actor, model.ActionDeleteCoach, fmt.Sprintf("%s (%s)", removed.Name, removed.ID))
	return nil
}

func (s *coachService) deleteProfileImage(ctx context.Context, coach model.Coach) {
	key := coach.ProfileImageKey
	if key == "" || !strings.HasPrefix(key, model.CoachImagePrefix) {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil && !errors.Is(err, repository.ErrObjectNotFound) {
		slog.Warn("failed to delete coach profile image",
			"coach_id", coach.ID,
			"key", key,
			"error", err,
		)
	}
}

func indexOfCoach(coaches []model.Coach, id string) int {
	return slices.IndexFunc(coaches, func(c model.Coach) bool {
		return c.ID == id
	})
}
