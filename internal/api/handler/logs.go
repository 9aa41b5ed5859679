package handler

import (
	"net/http"

	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/usecase"
)

// LogsHandler handles GET /logs.
type LogsHandler struct {
	svc usecase.AuditLog
}

// NewLogsHandler creates a new LogsHandler.
func NewLogsHandler(svc usecase.AuditLog) *LogsHandler {
	return &LogsHandler{svc: svc}
}

// List handles GET /logs?limit=&source=archive
func (h *LogsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var entries []model.AuditEntry
	switch source := queryParam(r, "source"); source {
	case "", "bucket":
		entries, err = h.svc.List(r.Context(), limit)
	case "archive":
		entries, err = h.svc.ListArchived(r.Context(), limit)
	default:
		writeBadRequest(w, "source must be bucket or archive")
		return
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, entries)
}
