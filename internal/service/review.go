package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	"github.com/lorenzboss/m306-rate-mate/internal/event"
	"github.com/lorenzboss/m306-rate-mate/internal/repository"
	apperrors "github.com/lorenzboss/m306-rate-mate/pkg/errors"
)

// ReviewService implements review listing, detail lookup, statistics and
// creation.
type ReviewService struct {
	reviews  repository.ReviewRepository
	users    repository.UserRepository
	aspects  repository.AspectRepository
	producer *event.Producer
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	aspects repository.AspectRepository,
	producer *event.Producer,
	metrics *Metrics,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		users:    users,
		aspects:  aspects,
		producer: producer,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateReviewInput holds the parameters for creating a review.
type CreateReviewInput struct {
	ReceiverID string
	Ratings    []domain.RatingInput
	IsPrivate  bool
	Comment    string
}

// ListReviews returns the reviews the target user wrote and received, most
// rated first. Private reviews hide their owner from everyone but the owner,
// judged against the caller rather than the target.
func (s *ReviewService) ListReviews(ctx context.Context, caller *domain.Caller, targetUserID string) (*domain.UserReviews, error) {
	userID, err := ResolveTarget(caller, targetUserID)
	if err != nil {
		return nil, err
	}

	created, err := s.reviews.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fetchFailure("reviews", err)
	}
	received, err := s.reviews.ListByReceiver(ctx, userID)
	if err != nil {
		return nil, fetchFailure("reviews", err)
	}

	return &domain.UserReviews{
		Created:  domain.ShapeReviews(created, caller.UserID),
		Received: domain.ShapeReviews(received, caller.UserID),
	}, nil
}

// GetReview returns one review for the detail view. Only its owner, its
// receiver, team leaders and admins may open it.
func (s *ReviewService) GetReview(ctx context.Context, caller *domain.Caller, reviewID string) (*domain.ReviewWithDetails, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fetchFailure("review", err)
	}
	if !review.CanView(*caller) {
		return nil, apperrors.AccessDenied()
	}

	details := review.VisibleTo(caller.UserID)
	return &details, nil
}

// Statistics aggregates all ratings of the reviews the target user wrote or
// received.
func (s *ReviewService) Statistics(ctx context.Context, caller *domain.Caller, targetUserID string) (*domain.ReviewStatistics, error) {
	userID, err := ResolveTarget(caller, targetUserID)
	if err != nil {
		return nil, err
	}

	samples, err := s.reviews.RatingSamples(ctx, userID)
	if err != nil {
		return nil, fetchFailure("statistics", err)
	}

	stats := domain.ComputeStatistics(samples)
	return &stats, nil
}

// Directory lists every other user as a possible review receiver.
func (s *ReviewService) Directory(ctx context.Context, caller *domain.Caller) ([]domain.UserRef, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	users, err := s.users.ListOthers(ctx, caller.UserID)
	if err != nil {
		return nil, fetchFailure("users", err)
	}
	return users, nil
}

// CreateReview stores a review from the caller with all of its ratings.
func (s *ReviewService) CreateReview(ctx context.Context, caller *domain.Caller, input CreateReviewInput) (*domain.NewReview, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	aspectIDs, err := normalizeReviewInput(caller, &input)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, input.ReceiverID); err != nil {
		return nil, storeFailure("get receiver", err)
	}

	found, err := s.aspects.CountExisting(ctx, aspectIDs)
	if err != nil {
		return nil, storeFailure("check aspects", err)
	}
	if found != len(aspectIDs) {
		return nil, apperrors.NotFound("aspect", strings.Join(aspectIDs, ","))
	}

	review := &domain.NewReview{
		ID:         uuid.New().String(),
		OwnerID:    caller.UserID,
		ReceiverID: input.ReceiverID,
		IsPrivate:  input.IsPrivate,
		Comment:    input.Comment,
		CreatedAt:  s.now().UTC(),
		Ratings:    input.Ratings,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, storeFailure("create review", err)
	}
	s.metrics.reviewsCreated.Inc()

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.Int("ratings", len(review.Ratings)),
		slog.Bool("private", review.IsPrivate),
	)

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	return review, nil
}

// normalizeReviewInput validates input in place, canonicalizing ids and
// trimming the comment. It returns the aspect ids of the ratings in order.
func normalizeReviewInput(caller *domain.Caller, input *CreateReviewInput) ([]string, error) {
	receiver, err := uuid.Parse(input.ReceiverID)
	if err != nil {
		return nil, apperrors.InvalidInput("receiver_id must be a valid UUID")
	}
	input.ReceiverID = receiver.String()
	if input.ReceiverID == caller.UserID {
		return nil, apperrors.InvalidInput("you cannot review yourself")
	}
	if len(input.Ratings) == 0 {
		return nil, apperrors.InvalidInput("at least one rating is required")
	}
	input.Comment = strings.TrimSpace(input.Comment)
	if utf8.RuneCountInString(input.Comment) > domain.MaxCommentLength {
		return nil, apperrors.InvalidInput("comment must be at most 2000 characters")
	}

	ratings := make([]domain.RatingInput, 0, len(input.Ratings))
	seen := make(map[string]struct{}, len(input.Ratings))
	ids := make([]string, 0, len(input.Ratings))
	for _, r := range input.Ratings {
		aspectID, err := uuid.Parse(r.AspectID)
		if err != nil {
			return nil, apperrors.InvalidInput("aspect_id must be a valid UUID")
		}
		if r.Rating < domain.MinRating || r.Rating > domain.MaxRating {
			return nil, apperrors.InvalidInput("ratings must be between 1 and 5")
		}
		id := aspectID.String()
		if _, dup := seen[id]; dup {
			return nil, apperrors.InvalidInput("each aspect can only be rated once per review")
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		ratings = append(ratings, domain.RatingInput{AspectID: id, Rating: r.Rating})
	}
	input.Ratings = ratings
	return ids, nil
}
