package handler

import (
	"net/http"

	"homefinder-client/internal/middleware"
	"homefinder-client/internal/model"
	"homefinder-client/internal/service"
	"homefinder-client/pkg/response"
)

// UserHandler serves the signed-in user's profile.
type UserHandler struct {
	auth *service.AuthService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(auth *service.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

// Profile handles GET /api/users/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.auth.Profile(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, u)
}

// UpdateProfile handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd model.ProfileUpdate
	if err := decodeJSON(r, &upd); err != nil {
		response.Error(w, err)
		return
	}
	u, err := h.auth.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), upd)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, u)
}
