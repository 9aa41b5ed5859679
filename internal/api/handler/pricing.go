package handler

import (
	"net/http"

	"github.com/hszk-dev/coachgate/internal/api/middleware"
	"github.com/hszk-dev/coachgate/internal/domain/model"
	"github.com/hszk-dev/coachgate/internal/usecase"
)

// PricingPlanRequest is the body of plan create and update requests.
type PricingPlanRequest struct {
	ID          string    `json:"id"`
	Name        *string   `json:"name"`
	Price       *float64  `json:"price"`
	Currency    *string   `json:"currency"`
	Interval    *string   `json:"interval"`
	Features    *[]string `json:"features"`
	Color       *string   `json:"color"`
	Popular     *bool     `json:"popular"`
	Description *string   `json:"description"`
	ButtonText  *string   `json:"buttonText"`
}

func (req PricingPlanRequest) patch() model.PricingPlanPatch {
	return model.PricingPlanPatch{
		Name:        req.Name,
		Price:       req.Price,
		Currency:    req.Currency,
		Interval:    req.Interval,
		Features:    req.Features,
		Color:       req.Color,
		Popular:     req.Popular,
		Description: req.Description,
		ButtonText:  req.ButtonText,
	}
}

// PricingHandler handles /manage-pricing.
type PricingHandler struct {
	svc usecase.PricingService
}

// NewPricingHandler creates a new PricingHandler.
func NewPricingHandler(svc usecase.PricingService) *PricingHandler {
	return &PricingHandler{svc: svc}
}

// List handles GET /manage-pricing
func (h *PricingHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, plans)
}

// Create handles POST /manage-pricing
func (h *PricingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req PricingPlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Name == nil || req.Price == nil {
		writeBadRequest(w, "name and price are required")
		return
	}

	plan, err := h.svc.Create(r.Context(), middleware.Actor(r.Context()), usecase.CreatePricingPlanInput{
		ID:               req.ID,
		Name:             *req.Name,
		Price:            *req.Price,
		PricingPlanPatch: req.patch(),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, plan)
}

// Update handles PUT /manage-pricing?id=
func (h *PricingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := queryParam(r, "id")
	if id == "" {
		writeBadRequest(w, "id is required")
		return
	}
	var req PricingPlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	plan, err := h.svc.Update(r.Context(), middleware.Actor(r.Context()), id, req.patch())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, plan)
}

// Delete handles DELETE /manage-pricing?id=
func (h *PricingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := queryParam(r, "id")
	if id == "" {
		writeBadRequest(w, "id is required")
		return
	}

	if err := h.svc.Delete(r.Context(), middleware.Actor(r.Context()), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "Pricing plan deleted"})
}
