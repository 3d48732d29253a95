package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	"github.com/lorenzboss/m306-rate-mate/internal/service"
	"github.com/lorenzboss/m306-rate-mate/pkg/httputil"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// RatingRequest is one scored aspect of a new review.
type RatingRequest struct {
	AspectID string `json:"aspect_id" validate:"required,uuid"`
	Rating   int    `json:"rating" validate:"required,gte=1,lte=5"`
}

// CreateReviewRequest is the JSON request body for creating a review.
type CreateReviewRequest struct {
	ReceiverID string          `json:"receiver_id" validate:"required,uuid"`
	Ratings    []RatingRequest `json:"ratings" validate:"required,min=1,dive"`
	IsPrivate  bool            `json:"is_private"`
	Comment    string          `json:"comment" validate:"max=2000"`
}

// --- Handlers ---

// List handles GET /api/v1/reviews?user_id=
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	target, ok := optionalUserID(w, r)
	if !ok {
		return
	}

	reviews, err := h.service.ListReviews(r.Context(), callerFrom(r), target)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, reviews)
}

// Statistics handles GET /api/v1/reviews/statistics?user_id=
func (h *ReviewHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	target, ok := optionalUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Statistics(r.Context(), callerFrom(r), target)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}

// Get handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.service.GetReview(r.Context(), callerFrom(r), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, review)
}

// Create handles POST /api/v1/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}

	ratings := make([]domain.RatingInput, 0, len(req.Ratings))
	for _, rt := range req.Ratings {
		ratings = append(ratings, domain.RatingInput{AspectID: rt.AspectID, Rating: rt.Rating})
	}

	review, err := h.service.CreateReview(r.Context(), callerFrom(r), service.CreateReviewInput{
		ReceiverID: req.ReceiverID,
		Ratings:    ratings,
		IsPrivate:  req.IsPrivate,
		Comment:    req.Comment,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, map[string]string{"id": review.ID})
}
