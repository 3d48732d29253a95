package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	"github.com/lorenzboss/m306-rate-mate/internal/service"
	"github.com/lorenzboss/m306-rate-mate/pkg/httputil"
	"github.com/lorenzboss/m306-rate-mate/pkg/pagination"
)

// UserHandler handles HTTP requests for profile, directory and user
// administration endpoints.
type UserHandler struct {
	users   *service.UserService
	reviews *service.ReviewService
	logger  *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(users *service.UserService, reviews *service.ReviewService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, reviews: reviews, logger: logger}
}

// ChangeRoleRequest is the JSON request body for changing a user's role.
type ChangeRoleRequest struct {
	Role int `json:"role" validate:"required,oneof=1 2 3"`
}

// Profile handles GET /api/v1/users/me
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Profile(r.Context(), callerFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// Directory handles GET /api/v1/users/directory
func (h *UserHandler) Directory(w http.ResponseWriter, r *http.Request) {
	users, err := h.reviews.Directory(r.Context(), callerFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if users == nil {
		users = []domain.UserRef{}
	}
	httputil.WriteData(w, http.StatusOK, users)
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.ListUsers(r.Context(), callerFrom(r), pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, page)
}

// ChangeRole handles PUT /api/v1/users/{id}/role
func (h *UserHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req ChangeRoleRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	if err := h.users.ChangeRole(r.Context(), callerFrom(r), id.String(), domain.Role(req.Role)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]any{"id": id.String(), "role": req.Role})
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.users.DeleteUser(r.Context(), callerFrom(r), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id.String(), "status": "deleted"})
}
