package domain

import (
	"math"
	"time"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 2000
)

// AspectRef is the aspect information carried by a rating.
type AspectRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Rating is a single 1..5 score tying a review to an aspect.
type Rating struct {
	ID       string    `json:"id"`
	ReviewID string    `json:"review_id"`
	Aspect   AspectRef `json:"aspect"`
	Rating   int       `json:"rating"`
}

// Review is a feedback record from an owner to a receiver, with its ratings.
type Review struct {
	ID        string    `json:"id"`
	Owner     UserRef   `json:"owner"`
	Receiver  UserRef   `json:"receiver"`
	IsPrivate bool      `json:"is_private"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	Ratings   []Rating  `json:"ratings"`
}

// ReviewWithDetails is a review as shown to a particular viewer. Owner is nil
// when the review is private and the viewer is not its owner.
type ReviewWithDetails struct {
	ID            string    `json:"id"`
	Owner         *UserRef  `json:"owner"`
	Receiver      UserRef   `json:"receiver"`
	IsPrivate     bool      `json:"is_private"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
	Ratings       []Rating  `json:"ratings"`
	AverageRating float64   `json:"average_rating"`
	TotalRatings  int       `json:"total_ratings"`
}

// UserReviews holds the reviews a user wrote and the reviews they received.
type UserReviews struct {
	Created  []ReviewWithDetails `json:"created"`
	Received []ReviewWithDetails `json:"received"`
}

// RatingInput is one aspect score submitted with a new review.
type RatingInput struct {
	AspectID string
	Rating   int
}

// NewReview is what gets persisted when a review is created.
type NewReview struct {
	ID         string
	OwnerID    string
	ReceiverID string
	IsPrivate  bool
	Comment    string
	CreatedAt  time.Time
	Ratings    []RatingInput
}

// RoundToTenth rounds v to one decimal place, halves away from zero.
func RoundToTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// AverageRating returns the mean of the ratings rounded to one decimal, or 0
// when there are none.
func AverageRating(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	return RoundToTenth(float64(sum) / float64(len(ratings)))
}

// VisibleTo shapes r for the viewer with id viewerID: it computes the
// average and count and hides the owner of a private review from everyone
// but the owner. The receiver is never hidden.
func (r Review) VisibleTo(viewerID string) ReviewWithDetails {
	out := ReviewWithDetails{
		ID:            r.ID,
		Receiver:      r.Receiver,
		IsPrivate:     r.IsPrivate,
		Comment:       r.Comment,
		CreatedAt:     r.CreatedAt,
		Ratings:       r.Ratings,
		AverageRating: AverageRating(r.Ratings),
		TotalRatings:  len(r.Ratings),
	}
	if out.Ratings == nil {
		out.Ratings = []Rating{}
	}
	if !r.IsPrivate || r.Owner.ID == viewerID {
		owner := r.Owner
		out.Owner = &owner
	}
	return out
}

// ShapeReviews applies VisibleTo to every review, keeping order.
func ShapeReviews(reviews []Review, viewerID string) []ReviewWithDetails {
	out := make([]ReviewWithDetails, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, r.VisibleTo(viewerID))
	}
	return out
}

// CanView reports whether caller may open the detail view of r.
func (r Review) CanView(caller Caller) bool {
	return r.Owner.ID == caller.UserID || r.Receiver.ID == caller.UserID || caller.Role.IsElevated()
}
