package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	"github.com/lorenzboss/m306-rate-mate/pkg/database"
	apperrors "github.com/lorenzboss/m306-rate-mate/pkg/errors"
)

const (
	reviewReceiverConstraint = "reviews_receiver_id_fkey"
	reviewAspectConstraint   = "ratings_review_aspect_key"
)

const reviewSelect = `
		SELECT v.id, v.is_private, COALESCE(v.comment, ''), v.created_at,
		       o.id, o.email, rc.id, rc.email
		FROM reviews v
		JOIN users o ON o.id = v.owner_id
		JOIN users rc ON rc.id = v.receiver_id`

// Most rated first, newest first among equals.
const reviewListOrder = `
		ORDER BY (SELECT COUNT(*) FROM ratings r WHERE r.review_id = v.id) DESC, v.created_at DESC`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts the review and its ratings in a single transaction.
func (r *ReviewRepository) Create(ctx context.Context, nr *domain.NewReview) (err error) {
	reviewQuery := `
		INSERT INTO reviews (id, owner_id, receiver_id, is_private, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	ratingQuery := `
		INSERT INTO ratings (id, review_id, aspect_id, rating)
		VALUES ($1, $2, $3, $4)`

	ctx, end := database.TraceQuery(ctx, "reviews.create", reviewQuery)
	defer func() { end(err) }()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, reviewQuery,
		nr.ID, nr.OwnerID, nr.ReceiverID, nr.IsPrivate, nr.Comment, nr.CreatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err, reviewReceiverConstraint) {
			return apperrors.NotFound("user", nr.ReceiverID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	for _, rt := range nr.Ratings {
		_, err = tx.Exec(ctx, ratingQuery, uuid.NewString(), nr.ID, rt.AspectID, rt.Rating)
		if err != nil {
			switch {
			case database.IsForeignKeyViolation(err, ratingAspectConstraint):
				return apperrors.NotFound("aspect", rt.AspectID)
			case database.IsUniqueViolation(err, reviewAspectConstraint):
				return apperrors.InvalidInput("each aspect can only be rated once per review")
			}
			return fmt.Errorf("insert rating: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID returns a review with its ratings ordered by aspect name.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	query := reviewSelect + ` WHERE v.id = $1`

	ctx, end := database.TraceQuery(ctx, "reviews.get_by_id", query)
	defer func() { end(err) }()

	rv, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	reviews := []domain.Review{*rv}
	if err = r.attachRatings(ctx, reviews); err != nil {
		return nil, err
	}
	return &reviews[0], nil
}

// ListByOwner returns the reviews userID wrote.
func (r *ReviewRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Review, error) {
	return r.list(ctx, "reviews.list_by_owner", reviewSelect+` WHERE v.owner_id = $1`+reviewListOrder, userID)
}

// ListByReceiver returns the reviews userID received.
func (r *ReviewRepository) ListByReceiver(ctx context.Context, userID string) ([]domain.Review, error) {
	return r.list(ctx, "reviews.list_by_receiver", reviewSelect+` WHERE v.receiver_id = $1`+reviewListOrder, userID)
}

func (r *ReviewRepository) list(ctx context.Context, op, query, userID string) (_ []domain.Review, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	rows.Close()

	if err = r.attachRatings(ctx, reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID, &rv.IsPrivate, &rv.Comment, &rv.CreatedAt,
		&rv.Owner.ID, &rv.Owner.Email, &rv.Receiver.ID, &rv.Receiver.Email,
	)
	if err != nil {
		return nil, err
	}
	rv.Ratings = []domain.Rating{}
	return &rv, nil
}

// attachRatings loads the ratings of all reviews with one query and assigns
// them in aspect name order.
func (r *ReviewRepository) attachRatings(ctx context.Context, reviews []domain.Review) (err error) {
	if len(reviews) == 0 {
		return nil
	}

	query := `
		SELECT r.id, r.review_id, r.rating, a.id, a.name, a.description
		FROM ratings r
		JOIN aspects a ON a.id = r.aspect_id
		WHERE r.review_id = ANY($1)
		ORDER BY a.name ASC`

	ctx, end := database.TraceQuery(ctx, "ratings.list_by_reviews", query)
	defer func() { end(err) }()

	ids := make([]string, len(reviews))
	index := make(map[string]int, len(reviews))
	for i, rv := range reviews {
		ids[i] = rv.ID
		index[rv.ID] = i
	}

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rt domain.Rating
		if err = rows.Scan(&rt.ID, &rt.ReviewID, &rt.Rating, &rt.Aspect.ID, &rt.Aspect.Name, &rt.Aspect.Description); err != nil {
			return fmt.Errorf("scan rating row: %w", err)
		}
		if i, ok := index[rt.ReviewID]; ok {
			reviews[i].Ratings = append(reviews[i].Ratings, rt)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("iterate rating rows: %w", err)
	}
	return nil
}

// RatingSamples returns every rating of the reviews userID wrote or received.
func (r *ReviewRepository) RatingSamples(ctx context.Context, userID string) (_ []domain.RatingSample, err error) {
	query := `
		SELECT r.review_id, a.name, r.rating
		FROM ratings r
		JOIN reviews v ON v.id = r.review_id
		JOIN aspects a ON a.id = r.aspect_id
		WHERE v.owner_id = $1 OR v.receiver_id = $1
		ORDER BY v.created_at ASC, v.id ASC, a.name ASC`

	ctx, end := database.TraceQuery(ctx, "ratings.samples", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list rating samples: %w", err)
	}
	defer rows.Close()

	var samples []domain.RatingSample
	for rows.Next() {
		var s domain.RatingSample
		if err = rows.Scan(&s.ReviewID, &s.AspectName, &s.Rating); err != nil {
			return nil, fmt.Errorf("scan rating sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating samples: %w", err)
	}
	return samples, nil
}
