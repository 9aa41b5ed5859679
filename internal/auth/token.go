// Package auth issues and verifies session tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hszk-dev/coachgate/internal/domain/model"
)

// TokenTTL is the lifetime of every issued session token.
const TokenTTL = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is the session token payload. The role flags are computed once at
// issuance and trusted until the token expires.
type Claims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	IsCoach  bool     `json:"isCoach"`
	IsAdmin  bool     `json:"isAdmin"`
	jwt.RegisteredClaims
}

// CanAccessVideos reports whether the holder passes the coach-or-admin rule.
func (c *Claims) CanAccessVideos() bool {
	return c.IsCoach || c.IsAdmin
}

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager creates a TokenManager using secret as the HMAC key.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), now: time.Now}
}

// WithClock overrides the time source. Used by tests.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// Issue signs a token for cred.
func (m *TokenManager) Issue(cred model.Credential) (string, *Claims, error) {
	now := m.now().Truncate(time.Second)
	claims := &Claims{
		Username: cred.Username,
		Roles:    append([]string{}, cred.Roles...),
		IsCoach:  cred.IsCoach(),
		IsAdmin:  cred.IsAdmin(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// Verify checks the signature and then the expiry of tokenStr. A token whose
// signature does not verify is ErrInvalidToken even when it is also expired.
func (m *TokenManager) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Username == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
