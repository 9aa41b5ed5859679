package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hszk-dev/coachgate/internal/api/middleware"
	"github.com/hszk-dev/coachgate/internal/auth"
	"github.com/hszk-dev/coachgate/internal/domain/repository"
	"github.com/hszk-dev/coachgate/internal/usecase"
)

// handleServiceError maps service errors to the HTTP error taxonomy.
// Backend failures are logged in full and answered with a fixed message so
// provider errors never reach the client.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
	case errors.Is(err, auth.ErrExpiredToken):
		Error(w, http.StatusUnauthorized, "token_expired", "Session has expired")
	case errors.Is(err, auth.ErrInvalidToken):
		Error(w, http.StatusUnauthorized, "invalid_token", "Invalid session token")
	case errors.Is(err, usecase.ErrInvalidInput):
		Error(w, http.StatusBadRequest, "invalid_request", clientMessage(err, usecase.ErrInvalidInput))
	case errors.Is(err, usecase.ErrNotFound):
		Error(w, http.StatusNotFound, "not_found", clientMessage(err, usecase.ErrNotFound))
	case errors.Is(err, usecase.ErrLastAdmin):
		Error(w, http.StatusConflict, "conflict", "At least one admin account must remain")
	case errors.Is(err, usecase.ErrConflict):
		Error(w, http.StatusConflict, "conflict", clientMessage(err, usecase.ErrConflict))
	case errors.Is(err, repository.ErrBackendUnavailable):
		logServerError(r, err)
		Error(w, http.StatusInternalServerError, "backend_unavailable", "Storage backend unavailable")
	default:
		logServerError(r, err)
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// clientMessage returns the service's own description of err, which never
// includes provider errors for the client-facing kinds.
func clientMessage(err, kind error) string {
	msg := strings.TrimPrefix(err.Error(), kind.Error()+": ")
	if msg == "" {
		return kind.Error()
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func logServerError(r *http.Request, err error) {
	slog.Error("request failed",
		"request_id", middleware.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
}
