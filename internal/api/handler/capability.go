package handler

import (
	"net/http"
	"time"

	"github.com/hszk-dev/coachgate/internal/api/middleware"
	"github.com/hszk-dev/coachgate/internal/usecase"
)

type UploadURLRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type CoachImageURLRequest struct {
	CoachID     string `json:"coachId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type UploadURLResponse struct {
	UploadURL string    `json:"uploadURL"`
	Key       string    `json:"key"`
	ExpiresIn int64     `json:"expiresIn"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CapabilityHandler issues presigned upload URLs.
type CapabilityHandler struct {
	svc usecase.CapabilityService
}

// NewCapabilityHandler creates a new CapabilityHandler.
func NewCapabilityHandler(svc usecase.CapabilityService) *CapabilityHandler {
	return &CapabilityHandler{svc: svc}
}

// UploadURL handles POST /get-upload-url
func (h *CapabilityHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	var req UploadURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.FileName == "" || req.ContentType == "" {
		writeBadRequest(w, "fileName and contentType are required")
		return
	}

	c, err := h.svc.IssueUploadURL(r.Context(), middleware.Actor(r.Context()), req.FileName, req.ContentType)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toUploadURLResponse(c))
}

// CoachImageURL handles POST /get-coach-image-upload-url
func (h *CapabilityHandler) CoachImageURL(w http.ResponseWriter, r *http.Request) {
	var req CoachImageURLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.CoachID == "" || req.FileName == "" || req.ContentType == "" {
		writeBadRequest(w, "coachId, fileName and contentType are required")
		return
	}

	c, err := h.svc.IssueCoachImageURL(r.Context(), middleware.Actor(r.Context()), req.CoachID, req.FileName, req.ContentType)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toUploadURLResponse(c))
}

func toUploadURLResponse(c *usecase.Capability) UploadURLResponse {
	return UploadURLResponse{
		UploadURL: c.URL,
		Key:       c.Key,
		ExpiresIn: int64(c.ExpiresIn.Seconds()),
		ExpiresAt: c.ExpiresAt,
	}
}
