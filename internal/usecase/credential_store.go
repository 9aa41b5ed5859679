package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hszk-dev/coachgate/internal/auth"
	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
	"github.com/hszk-dev/coachgate/internal/infrastructure/jsontable"
)

// BootstrapConfig names the admin account created when users.json is missing.
type BootstrapConfig struct {
	Username string
	Password string
}

// DefaultBootstrapConfig returns the default bootstrap account.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Username: "admin",
		Password: "admin",
	}
}

// credentialStore owns users.json.
type credentialStore struct {
	table     *jsontable.Table[model.Credential]
	hasher    *auth.PasswordHasher
	audit     AuditRecorder
	bootstrap BootstrapConfig
	now       func() time.Time
}

func newCredentialStore(
	storage repository.ObjectStorage,
	hasher *auth.PasswordHasher,
	audit AuditRecorder,
	bootstrap BootstrapConfig,
) *credentialStore {
	return &credentialStore{
		table:     jsontable.New[model.Credential](storage, model.UsersTableKey),
		hasher:    hasher,
		audit:     audit,
		bootstrap: bootstrap,
		now:       time.Now,
	}
}

func findByUsername(creds []model.Credential, username string) (model.Credential, bool) {
	i := model.FindCredential(creds, username)
	if i < 0 {
		return model.Credential{}, false
	}
	return creds[i], true
}

func (s *credentialStore) verifyPassword(candidate, hash string) bool {
	return s.hasher.Verify(candidate, hash)
}

// bootstrapIfAbsent writes a single admin account when users.json does not
// exist. An existing blob, even an empty one, is never touched.
func (s *credentialStore) bootstrapIfAbsent(ctx context.Context) error {
	exists, err := s.table.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check users table: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := s.hasher.Hash(s.bootstrap.Password)
	if err != nil {
		return err
	}

	// Hashing takes long enough for another request to have bootstrapped.
	exists, err = s.table.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check users table: %w", err)
	}
	if exists {
		return nil
	}

	now := s.now().UTC()
	admin := model.Credential{
		Username:     s.bootstrap.Username,
		PasswordHash: hash,
		Roles:        []string{model.RoleFounders},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.table.Save(ctx, []model.Credential{admin}); err != nil {
		return fmt.Errorf("write bootstrap admin: %w", err)
	}

	slog.Info("bootstrapped admin account", "username", admin.Username)
	s.audit.Record(ctx, admin.Username, model.ActionBootstrapAdmin, "created initial admin account")
	return nil
}
