package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	pkgkafka "github.com/lorenzboss/m306-rate-mate/pkg/kafka"
	"github.com/lorenzboss/m306-rate-mate/pkg/logger"
)

// Event types.
const (
	TypeReviewCreated   = "review.created"
	TypeAspectCreated   = "aspect.created"
	TypeAspectUpdated   = "aspect.updated"
	TypeAspectDeleted   = "aspect.deleted"
	TypeUserRegistered  = "user.registered"
	TypeUserRoleChanged = "user.role_changed"
	TypeUserDeleted     = "user.deleted"
)

// Aggregate types. Each one gets its own topic.
const (
	AggregateTypeReview = "review"
	AggregateTypeAspect = "aspect"
	AggregateTypeUser   = "user"
)

const (
	topicPrefix = "r8m8"
	source      = "r8m8"
)

// ReviewCreatedData is the payload for a review.created event. OwnerID is
// left out for private reviews.
type ReviewCreatedData struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id,omitempty"`
	ReceiverID  string   `json:"receiver_id"`
	IsPrivate   bool     `json:"is_private"`
	AspectIDs   []string `json:"aspect_ids"`
	RatingCount int      `json:"rating_count"`
}

// AspectData is the payload for aspect.created and aspect.updated events.
type AspectData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AspectDeletedData is the payload for an aspect.deleted event.
type AspectDeletedData struct {
	ID string `json:"id"`
}

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  int    `json:"role"`
}

// UserRoleChangedData is the payload for a user.role_changed event.
type UserRoleChangedData struct {
	ID        string `json:"id"`
	OldRole   int    `json:"old_role"`
	NewRole   int    `json:"new_role"`
	ChangedBy string `json:"changed_by"`
}

// UserDeletedData is the payload for a user.deleted event.
type UserDeletedData struct {
	ID        string `json:"id"`
	DeletedBy string `json:"deleted_by"`
}

// Publisher writes an event to a topic. *pkgkafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes r8m8 domain events. With a nil Publisher every publish
// is a no-op, which is how the server runs without Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new domain event producer.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, eventType, aggregateType, aggregateID string, data any) error {
	if p == nil || p.kafka == nil {
		return nil
	}

	evt, err := pkgkafka.NewEvent(eventType, aggregateType, aggregateID, source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	evt.CorrelationID = logger.CorrelationIDFromContext(ctx)

	if err := p.kafka.Publish(ctx, pkgkafka.Topic(topicPrefix, aggregateType), evt); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("type", eventType),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.NewReview) error {
	data := ReviewCreatedData{
		ID:          r.ID,
		ReceiverID:  r.ReceiverID,
		IsPrivate:   r.IsPrivate,
		AspectIDs:   make([]string, 0, len(r.Ratings)),
		RatingCount: len(r.Ratings),
	}
	if !r.IsPrivate {
		data.OwnerID = r.OwnerID
	}
	for _, rt := range r.Ratings {
		data.AspectIDs = append(data.AspectIDs, rt.AspectID)
	}
	return p.publish(ctx, TypeReviewCreated, AggregateTypeReview, r.ID, data)
}

// PublishAspectCreated publishes an aspect.created event.
func (p *Producer) PublishAspectCreated(ctx context.Context, a *domain.Aspect) error {
	return p.publish(ctx, TypeAspectCreated, AggregateTypeAspect, a.ID,
		AspectData{ID: a.ID, Name: a.Name, Description: a.Description})
}

// PublishAspectUpdated publishes an aspect.updated event.
func (p *Producer) PublishAspectUpdated(ctx context.Context, a *domain.Aspect) error {
	return p.publish(ctx, TypeAspectUpdated, AggregateTypeAspect, a.ID,
		AspectData{ID: a.ID, Name: a.Name, Description: a.Description})
}

// PublishAspectDeleted publishes an aspect.deleted event.
func (p *Producer) PublishAspectDeleted(ctx context.Context, id string) error {
	return p.publish(ctx, TypeAspectDeleted, AggregateTypeAspect, id, AspectDeletedData{ID: id})
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TypeUserRegistered, AggregateTypeUser, u.ID,
		UserRegisteredData{ID: u.ID, Email: u.Email, Role: int(u.Role)})
}

// PublishUserRoleChanged publishes a user.role_changed event.
func (p *Producer) PublishUserRoleChanged(ctx context.Context, userID string, oldRole, newRole domain.Role, changedBy string) error {
	return p.publish(ctx, TypeUserRoleChanged, AggregateTypeUser, userID, UserRoleChangedData{
		ID:        userID,
		OldRole:   int(oldRole),
		NewRole:   int(newRole),
		ChangedBy: changedBy,
	})
}

// PublishUserDeleted publishes a user.deleted event.
func (p *Producer) PublishUserDeleted(ctx context.Context, userID, deletedBy string) error {
	return p.publish(ctx, TypeUserDeleted, AggregateTypeUser, userID,
		UserDeletedData{ID: userID, DeletedBy: deletedBy})
}
