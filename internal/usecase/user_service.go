package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hszk-dev/coachgate/internal/auth"
	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
	"github.com/hszk-dev/coachgate/internal/infrastructure/jsontable"
)

// UserView is a credential without its password hash.
type UserView struct {
	Username  string
	Roles     []string
	IsCoach   bool
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func newUserView(c model.Credential) UserView {
	return UserView{
		Username:  c.Username,
		Roles:     append([]string{}, c.Roles...),
		IsCoach:   c.IsCoach(),
		IsAdmin:   c.IsAdmin(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// CreateUserInput contains the input parameters for creating a user.
type CreateUserInput struct {
	Username string
	Password string
	Roles    []string
}

// UpdateUserInput carries the fields of a user update. Nil fields are left
// untouched.
type UpdateUserInput struct {
	Password *string
	Roles    *[]string
}

// UserService defines the interface for user administration.
type UserService interface {
	List(ctx context.Context) ([]UserView, error)
	Create(ctx context.Context, actor string, input CreateUserInput) (*UserView, error)
	Update(ctx context.Context, actor, username string, input UpdateUserInput) (*UserView, error)
	Delete(ctx context.Context, actor, username string) error
}

type userService struct {
	table  *jsontable.Table[model.Credential]
	hasher *auth.PasswordHasher
	audit  AuditRecorder
	now    func() time.Time
}

// NewUserService creates a new UserService instance.
func NewUserService(storage repository.ObjectStorage, hasher *auth.PasswordHasher, audit AuditRecorder) UserService {
	return &userService{
		table:  jsontable.New[model.Credential](storage, model.UsersTableKey),
		hasher: hasher,
		audit:  audit,
		now:    time.Now,
	}
}

func (s *userService) List(ctx context.Context) ([]UserView, error) {
	creds, err := s.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	views := make([]UserView, 0, len(creds))
	for _, c := range creds {
		views = append(views, newUserView(c))
	}
	return views, nil
}

func (s *userService) Create(ctx context.Context, actor string, input CreateUserInput) (*UserView, error) {
	username := strings.TrimSpace(input.Username)
	if err := model.ValidateUsername(username); err != nil {
		return nil, invalidInput(err)
	}
	if input.Password == "" {
		return nil, invalidInput(model.ErrEmptyPassword)
	}
	roles, err := model.NormalizeRoles(input.Roles)
	if err != nil {
		return nil, invalidInput(err)
	}

	creds, err := s.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	if model.FindCredential(creds, username) >= 0 {
		return nil, fmt.Errorf("%w: user %q already exists", ErrConflict, username)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	cred := model.Credential{
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	next := append(slices.Clone(creds), cred)
	if err := checkAdminRemains(creds, next); err != nil {
		return nil, err
	}
	if err := s.table.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionCreateUser, username)
	view := newUserView(cred)
	return &view, nil
}

func (s *userService) Update(ctx context.Context, actor, username string, input UpdateUserInput) (*UserView, error) {
	if input.Password == nil && input.Roles == nil {
		return nil, invalidInput(errors.New("nothing to update"))
	}
	if input.Password != nil && *input.Password == "" {
		return nil, invalidInput(model.ErrEmptyPassword)
	}

	creds, err := s.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	i := model.FindCredential(creds, username)
	if i < 0 {
		return nil, fmt.Errorf("%w: user %q", ErrNotFound, username)
	}

	next := slices.Clone(creds)
	cred := next[i]
	var changed []string
	if input.Roles != nil {
		roles, err := model.NormalizeRoles(*input.Roles)
		if err != nil {
			return nil, invalidInput(err)
		}
		cred.Roles = roles
		changed = append(changed, "roles")
	}
	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		cred.PasswordHash = hash
		changed = append(changed, "password")
	}
	cred.UpdatedAt = s.now().UTC()
	next[i] = cred

	if err := checkAdminRemains(creds, next); err != nil {
		return nil, err
	}
	if err := s.table.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionUpdateUser, fmt.Sprintf("%s (%s)", username, strings.Join(changed, ", ")))
	view := newUserView(cred)
	return &view, nil
}

func (s *userService) Delete(ctx context.Context, actor, username string) error {
	creds, err := s.table.Load(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	i := model.FindCredential(creds, username)
	if i < 0 {
		return fmt.Errorf("%w: user %q", ErrNotFound, username)
	}

	next := slices.Delete(slices.Clone(creds), i, i+1)
	if err := checkAdminRemains(creds, next); err != nil {
		return err
	}
	if err := s.table.Save(ctx, next); err != nil {
		return fmt.Errorf("save users: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionDeleteUser, username)
	return nil
}

// checkAdminRemains rejects a change that leaves a non-empty table without
// an admin, or that removes the last admin of a table that had one. Once
// users.json exists bootstrap never runs again, so an admin-less table
// would lock every admin out.
func checkAdminRemains(before, after []model.Credential) error {
	if model.CountAdmins(after) > 0 {
		return nil
	}
	if len(after) > 0 || model.CountAdmins(before) > 0 {
		return ErrLastAdmin
	}
	return nil
}
