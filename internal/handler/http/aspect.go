package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	"github.com/lorenzboss/m306-rate-mate/internal/service"
	"github.com/lorenzboss/m306-rate-mate/pkg/httputil"
)

// AspectHandler handles HTTP requests for aspect endpoints.
type AspectHandler struct {
	service *service.AspectService
	logger  *slog.Logger
}

// NewAspectHandler creates a new aspect HTTP handler.
func NewAspectHandler(svc *service.AspectService, logger *slog.Logger) *AspectHandler {
	return &AspectHandler{service: svc, logger: logger}
}

// AspectRequest is the JSON request body for creating or editing an aspect.
// Lengths are checked again after trimming.
type AspectRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=500"`
}

// List handles GET /api/v1/aspects
func (h *AspectHandler) List(w http.ResponseWriter, r *http.Request) {
	aspects, err := h.service.List(r.Context(), callerFrom(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if aspects == nil {
		aspects = []domain.Aspect{}
	}
	httputil.WriteData(w, http.StatusOK, aspects)
}

// Create handles POST /api/v1/aspects
func (h *AspectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req AspectRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	aspect, err := h.service.Create(r.Context(), callerFrom(r), req.Name, req.Description)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, aspect)
}

// Update handles PUT /api/v1/aspects/{id}
func (h *AspectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req AspectRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	aspect, err := h.service.Update(r.Context(), callerFrom(r), id.String(), req.Name, req.Description)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, aspect)
}

// Delete handles DELETE /api/v1/aspects/{id}
func (h *AspectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), callerFrom(r), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, map[string]string{"id": id.String(), "status": "deleted"})
}
