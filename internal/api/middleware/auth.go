package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hszk-dev/coachgate/internal/auth"
	"github.com/hszk-dev/coachgate/internal/infrastructure/metrics"
)

// TokenVerifier validates a session token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Role is an authorization requirement checked against token claims.
type Role int

const (
	// RoleCoach admits coach-equivalent and admin-equivalent tokens.
	RoleCoach Role = iota
	// RoleAdmin admits admin-equivalent tokens only.
	RoleAdmin
)

func (r Role) allows(c *auth.Claims) bool {
	switch r {
	case RoleCoach:
		return c.CanAccessVideos()
	case RoleAdmin:
		return c.IsAdmin
	default:
		return false
	}
}

// Authenticate rejects requests without a valid bearer token and stores the
// claims in the request context.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return authenticate(verifier, true)
}

// OptionalAuthenticate attaches claims when the request carries a valid
// token. Requests without one, or with an expired or invalid one, proceed
// anonymously.
func OptionalAuthenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return authenticate(verifier, false)
}

func authenticate(verifier TokenVerifier, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, present := bearerToken(r)
			if !present {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				metrics.AuthAttemptsTotal.WithLabelValues(metrics.AuthMissing).Inc()
				writeError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil && !required {
				slog.Debug("ignoring unusable token on public route",
					"path", r.URL.Path,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					metrics.AuthAttemptsTotal.WithLabelValues(metrics.AuthExpired).Inc()
					writeError(w, http.StatusUnauthorized, "token_expired", "Session has expired")
					return
				}
				metrics.AuthAttemptsTotal.WithLabelValues(metrics.AuthInvalid).Inc()
				writeError(w, http.StatusUnauthorized, "invalid_token", "Invalid session token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole rejects authenticated requests whose claims do not satisfy
// role. It must run after Authenticate.
func RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				metrics.AuthAttemptsTotal.WithLabelValues(metrics.AuthMissing).Inc()
				writeError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
				return
			}
			if !role.allows(claims) {
				metrics.AuthAttemptsTotal.WithLabelValues(metrics.AuthForbidden).Inc()
				writeError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		// A malformed header is a garbled token, not a missing one.
		return header, true
	}
	return strings.TrimSpace(token), true
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	if holder, ok := ctx.Value(claimsHolderKey).(*claimsHolder); ok {
		holder.claims = claims
	}
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// Actor returns the username of the authenticated caller, or "" for
// anonymous requests.
func Actor(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Username
	}
	return ""
}

// claimsHolder lets outer middleware see claims attached further down the
// chain.
type claimsHolder struct {
	request *http.Request
	claims  *auth.Claims
}

func trackClaims(r *http.Request) *claimsHolder {
	h := &claimsHolder{}
	h.request = r.WithContext(context.WithValue(r.Context(), claimsHolderKey, h))
	return h
}

func (h *claimsHolder) username() string {
	if h.claims == nil {
		return ""
	}
	return h.claims.Username
}
