package handler

import (
	"net/http"
	"time"

	"github.com/hszk-dev/coachgate/internal/api/middleware"
	"github.com/hszk-dev/coachgate/internal/auth"
	"github.com/hszk-dev/coachgate/internal/usecase"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	IsCoach   bool      `json:"isCoach"`
	IsAdmin   bool      `json:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type VerifyResponse struct {
	Valid     bool      `json:"valid"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	IsCoach   bool      `json:"isCoach"`
	IsAdmin   bool      `json:"isAdmin"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AuthHandler handles login and token inspection.
type AuthHandler struct {
	svc usecase.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc usecase.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	out, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, LoginResponse{
		Token:     out.Token,
		Username:  out.Claims.Username,
		Roles:     rolesOrEmpty(out.Claims.Roles),
		IsCoach:   out.Claims.IsCoach,
		IsAdmin:   out.Claims.IsAdmin,
		ExpiresAt: expiresAt(out.Claims),
	})
}

// Verify handles GET /auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		Error(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
		return
	}

	JSON(w, http.StatusOK, VerifyResponse{
		Valid:     true,
		Username:  claims.Username,
		Roles:     rolesOrEmpty(claims.Roles),
		IsCoach:   claims.IsCoach,
		IsAdmin:   claims.IsAdmin,
		ExpiresAt: expiresAt(claims),
	})
}

func expiresAt(c *auth.Claims) time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.UTC()
}

func rolesOrEmpty(roles []string) []string {
	if roles == nil {
		return []string{}
	}
	return roles
}
