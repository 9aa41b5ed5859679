package handler

import (
	"net/http"
	"time"

	"github.com/hszk-dev/coachgate/internal/api/middleware"
	"github.com/hszk-dev/coachgate/internal/usecase"
)

type CreateUserRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

type UpdateUserRequest struct {
	Username string    `json:"username"`
	Password *string   `json:"password"`
	Roles    *[]string `json:"roles"`
}

type UserResponse struct {
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	IsCoach   bool      `json:"isCoach"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserHandler handles /manage-users.
type UserHandler struct {
	svc usecase.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc usecase.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// List handles GET /manage-users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	JSON(w, http.StatusOK, resp)
}

// Create handles POST /manage-users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	user, err := h.svc.Create(r.Context(), middleware.Actor(r.Context()), usecase.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusCreated, toUserResponse(*user))
}

// Update handles PUT /manage-users?username=
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	username := queryParam(r, "username")
	if username == "" {
		username = req.Username
	}
	if username == "" {
		writeBadRequest(w, "username is required")
		return
	}

	user, err := h.svc.Update(r.Context(), middleware.Actor(r.Context()), username, usecase.UpdateUserInput{
		Password: req.Password,
		Roles:    req.Roles,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, toUserResponse(*user))
}

// Delete handles DELETE /manage-users?username=
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username := queryParam(r, "username")
	if username == "" {
		writeBadRequest(w, "username is required")
		return
	}

	if err := h.svc.Delete(r.Context(), middleware.Actor(r.Context()), username); err != nil {
		handleServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, SuccessResponse{Success: true, Message: "User deleted"})
}

func toUserResponse(u usecase.UserView) UserResponse {
	return UserResponse{
		Username:  u.Username,
		Roles:     rolesOrEmpty(u.Roles),
		IsCoach:   u.IsCoach,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
