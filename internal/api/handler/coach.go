package handler

import (
	"net/http"

	"github.com/hszk-dev/coachgate/internal/api/middleware"
	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/usecase"
)

// CoachRequest is the body of coach create and update requests. Absent
// fields are left untouched on update.
type CoachRequest struct {
	Name            *string            `json:"name"`
	Title           *string            `json:"title"`
	Description     *string            `json:"description"`
	Skills          *[]string          `json:"skills"`
	AvatarColor     *string            `json:"avatarColor"`
	Initials        *string            `json:"initials"`
	ProfileImageKey *string            `json:"profileImageKey"`
	SocialMedia     *map[string]string `json:"socialMedia"`
}

func (req CoachRequest) createInput() usecase.CreateCoachInput {
	in := usecase.CreateCoachInput{
		Name:            deref(req.Name),
		Title:           deref(req.Title),
		Description:     deref(req.Description),
		AvatarColor:     deref(req.AvatarColor),
		Initials:        deref(req.Initials),
		ProfileImageKey: deref(req.ProfileImageKey),
	}
	if req.Skills != nil {
		in.Skills = *req.Skills
	}
	if req.SocialMedia != nil {
		in.SocialMedia = *req.SocialMedia
	}
	return in
}

func (req CoachRequest) patch() model.CoachPatch {
	return model.CoachPatch{
		Name:            req.Name,
		Title:           req.Title,
		Description:     req.Description,
		Skills:          req.Skills,
		AvatarColor:     req.AvatarColor,
		Initials:        req.Initials,
		ProfileImageKey: req.ProfileImageKey,
		SocialMedia:     req.SocialMedia,
	}
}

// CoachHandler handles /manage-coaches.
type CoachHandler struct {
	svc usecase.CoachService
}

// NewCoachHandler creates a new CoachHandler.
func NewCoachHandler(svc usecase.CoachService) *CoachHandler {
	return &CoachHandler{svc: svc}
}

// List handles GET /manage-coaches
func (h *CoachHandler) List(w http.ResponseWriter, r *http.Request) {
	coaches, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, coaches)
}

// Create handles POST /manage-coaches
func (h *CoachHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CoachRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Name == nil {
		writeBadRequest(w, "name is required")
		return
	}

	coach, err := h.svc.Create(r.Context(), middleware.Actor(r.Context()), req.createInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, coach)
}

// Update handles PUT /manage-coaches?id=
func (h *CoachHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := queryParam(r, "id")
	if id == "" {
		writeBadRequest(w, "id is required")
		return
	}
	var req CoachRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	coach, err := h.svc.Update(r.Context(), middleware.Actor(r.Context()), id, req.patch())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, coach)
}

// Delete handles DELETE /manage-coaches?id=
func (h *CoachHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := queryParam(r, "id")
	if id == "" {
		writeBadRequest(w, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), middleware.Actor(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Coach deleted"})
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
