package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hszk-dev/coachgate/internal/auth"
	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
	"github.com/hszk-dev/coachgate/internal/infrastructure/metrics"
)

// LoginOutput contains the result of a successful login.
type LoginOutput struct {
	Token  string
	Claims *auth.Claims
}

// AuthService defines the interface for authentication operations.
type AuthService interface {
	// Login checks username and password and issues a session token.
	// The users table is bootstrapped first if it does not exist yet.
	Login(ctx context.Context, username, password string) (*LoginOutput, error)

	// Verify validates a session token and returns its claims.
	Verify(token string) (*auth.Claims, error)
}

type authService struct {
	creds  *credentialStore
	tokens *auth.TokenManager
	audit  AuditRecorder
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(
	storage repository.ObjectStorage,
	hasher *auth.PasswordHasher,
	tokens *auth.TokenManager,
	audit AuditRecorder,
	bootstrap BootstrapConfig,
) AuthService {
	return &authService{
		creds:  newCredentialStore(storage, hasher, audit, bootstrap),
		tokens: tokens,
		audit:  audit,
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginOutput, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalidInput(errors.New("username and password are required"))
	}

	if err := s.creds.bootstrapIfAbsent(ctx); err != nil {
		return nil, err
	}

	creds, err := s.creds.table.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	cred, found := findByUsername(creds, username)
	if !found {
		s.creds.hasher.BurnCompare(password)
		return nil, s.loginFailed(ctx, username)
	}
	if !s.creds.verifyPassword(password, cred.PasswordHash) {
		return nil, s.loginFailed(ctx, username)
	}

	token, claims, err := s.tokens.Issue(cred)
	if err != nil {
		return nil, err
	}

	metrics.AuthAttemptsTotal.WithLabelValues(metrics.AuthSuccess).Inc()
	s.audit.Record(ctx, cred.Username, model.ActionLogin, "")
	return &LoginOutput{Token: token, Claims: claims}, nil
}

func (s *authService) loginFailed(ctx context.Context, username string) error {
	metrics.AuthAttemptsTotal.WithLabelValues(metrics.AuthInvalidCredentials).Inc()
	s.audit.Record(ctx, username, model.ActionLoginFailed, "")
	return ErrInvalidCredentials
}

func (s *authService) Verify(token string) (*auth.Claims, error) {
	return s.tokens.Verify(token)
}
