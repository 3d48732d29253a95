package repository

import (
	"context"
	"time"

	"github.com/lorenzboss/m306-rate-mate/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns one page of users ordered by email and the total count.
	List(ctx context.Context, offset, limit int) ([]domain.User, int, error)

	// ListOthers returns every user except excludeID, ordered by email.
	ListOthers(ctx context.Context, excludeID string) ([]domain.UserRef, error)

	// UpdateRole changes the role of a user.
	UpdateRole(ctx context.Context, id string, role domain.Role) error

	// Delete removes a user; their reviews cascade in the store.
	Delete(ctx context.Context, id string) error
}

// AspectRepository defines the interface for aspect persistence operations.
type AspectRepository interface {
	// List returns all aspects ordered by name with their rating counts.
	List(ctx context.Context) ([]domain.Aspect, error)

	// GetByID retrieves an aspect with its rating count.
	GetByID(ctx context.Context, id string) (*domain.Aspect, error)

	// NameTaken reports whether another aspect than excludeID already uses
	// name, compared case-insensitively. An empty excludeID checks all aspects.
	NameTaken(ctx context.Context, name, excludeID string) (bool, error)

	// CountExisting returns how many of ids reference existing aspects.
	CountExisting(ctx context.Context, ids []string) (int, error)

	// Create inserts a new aspect.
	Create(ctx context.Context, aspect *domain.Aspect) error

	// Update changes the name and description of an aspect.
	Update(ctx context.Context, aspect *domain.Aspect) error

	// Delete removes an aspect. It fails with ASPECT_IN_USE while ratings
	// still reference it.
	Delete(ctx context.Context, id string) error
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create stores a review and all of its ratings in one transaction.
	Create(ctx context.Context, review *domain.NewReview) error

	// GetByID returns a review with its ratings ordered by aspect name.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// ListByOwner returns the reviews written by userID, most rated first.
	ListByOwner(ctx context.Context, userID string) ([]domain.Review, error)

	// ListByReceiver returns the reviews received by userID, most rated first.
	ListByReceiver(ctx context.Context, userID string) ([]domain.Review, error)

	// RatingSamples returns every rating of the reviews userID wrote or
	// received, ordered by review creation time, review id and aspect name.
	RatingSamples(ctx context.Context, userID string) ([]domain.RatingSample, error)
}

// LoginAttemptStore tracks failed logins per (email, client ip) pair.
type LoginAttemptStore interface {
	// IsLocked reports whether the pair is currently locked out.
	IsLocked(ctx context.Context, email, ip string) (bool, error)

	// RecordFailure counts a failed attempt and locks the pair once the
	// threshold is reached. It returns the number of attempts in the window
	// and whether this attempt triggered the lock.
	RecordFailure(ctx context.Context, email, ip string) (int64, bool, error)

	// Reset clears the attempts and any lock for the pair.
	Reset(ctx context.Context, email, ip string) error
}

// LoginAttemptPolicy configures a LoginAttemptStore.
type LoginAttemptPolicy struct {
	MaxAttempts int64
	Window      time.Duration
	Lockout     time.Duration
}

// DefaultLoginAttemptPolicy allows 50 failures per day before a 10 minute lockout.
func DefaultLoginAttemptPolicy() LoginAttemptPolicy {
	return LoginAttemptPolicy{
		MaxAttempts: 50,
		Window:      24 * time.Hour,
		Lockout:     10 * time.Minute,
	}
}
