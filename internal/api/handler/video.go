package handler

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/hszk-dev/coachgate/internal/api/middleware"
	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/usecase"
)

// Request/Response types

type FileKeyRequest struct {
	FileKey string `json:"fileKey"`
}

type RenameRequest struct {
	OldKey string `json:"oldKey"`
	NewKey string `json:"newKey"`
}

type SaveNotesRequest struct {
	FileKey string          `json:"fileKey"`
	Notes   json.RawMessage `json:"notes"`
}

type VideoResponse struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	URL          string    `json:"url"`
	HasNotes     bool      `json:"hasNotes"`
}

type DeleteFileResponse struct {
	Success bool   `json:"success"`
	FileKey string `json:"fileKey"`
}

type RenameResponse struct {
	Success          bool   `json:"success"`
	OldKey           string `json:"oldKey"`
	NewKey           string `json:"newKey"`
	NotesMoved       bool   `json:"notesMoved"`
	DuplicateRemains bool   `json:"duplicateRemains"`
}

type NotesResponse struct {
	FileKey string          `json:"fileKey"`
	Notes   json.RawMessage `json:"notes"`
}

type DownloadURLResponse struct {
	DownloadURL string    `json:"downloadURL"`
	Key         string    `json:"key"`
	ExpiresIn   int64     `json:"expiresIn"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// VideoHandler handles coach-facing video requests.
type VideoHandler struct {
	svc usecase.VideoService
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(svc usecase.VideoService) *VideoHandler {
	return &VideoHandler{svc: svc}
}

// List handles GET /list-files
func (h *VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	videos, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]VideoResponse, 0, len(videos))
	for _, v := range videos {
		resp = append(resp, toVideoResponse(v))
	}
	JSON(w, http.StatusOK, resp)
}

// Delete handles POST /delete-file
func (h *VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req FileKeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.FileKey == "" {
		writeBadRequest(w, "fileKey is required")
		return
	}

	if err := h.svc.Delete(r.Context(), middleware.Actor(r.Context()), req.FileKey); err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, DeleteFileResponse{Success: true, FileKey: req.FileKey})
}

// Rename handles POST /rename-file
func (h *VideoHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.OldKey == "" || req.NewKey == "" {
		writeBadRequest(w, "oldKey and newKey are required")
		return
	}

	out, err := h.svc.Rename(r.Context(), middleware.Actor(r.Context()), req.OldKey, req.NewKey)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, RenameResponse{
		Success:          true,
		OldKey:           out.OldKey,
		NewKey:           out.NewKey,
		NotesMoved:       out.NotesMoved,
		DuplicateRemains: out.DuplicateRemains,
	})
}

// GetNotes handles GET /get-notes?fileKey=
func (h *VideoHandler) GetNotes(w http.ResponseWriter, r *http.Request) {
	key := queryParam(r, "fileKey")
	if key == "" {
		writeBadRequest(w, "fileKey is required")
		return
	}

	notes, err := h.svc.GetNotes(r.Context(), middleware.Actor(r.Context()), key)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if notes == nil {
		notes = json.RawMessage("null")
	}

	JSON(w, http.StatusOK, NotesResponse{FileKey: key, Notes: notes})
}

// SaveNotes handles POST /save-notes
func (h *VideoHandler) SaveNotes(w http.ResponseWriter, r *http.Request) {
	var req SaveNotesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.FileKey == "" || len(req.Notes) == 0 {
		writeBadRequest(w, "fileKey and notes are required")
		return
	}

	if err := h.svc.SaveNotes(r.Context(), middleware.Actor(r.Context()), req.FileKey, req.Notes); err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// DownloadURL handles GET /get-download-url?fileKey=
func (h *VideoHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	key := queryParam(r, "fileKey")
	if key == "" {
		writeBadRequest(w, "fileKey is required")
		return
	}

	c, err := h.svc.DownloadURL(r.Context(), key)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, DownloadURLResponse{
		DownloadURL: c.URL,
		Key:         c.Key,
		ExpiresIn:   int64(c.ExpiresIn.Seconds()),
		ExpiresAt:   c.ExpiresAt,
	})
}

func toVideoResponse(v model.VideoObject) VideoResponse {
	return VideoResponse{
		Key:          v.Key,
		Size:         v.Size,
		LastModified: v.LastModified.UTC(),
		URL:          v.URL,
		HasNotes:     v.HasNotes,
	}
}
