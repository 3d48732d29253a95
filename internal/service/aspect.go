package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	"github.com/lorenzboss/m306-rate-mate/internal/event"
	"github.com/lorenzboss/m306-rate-mate/internal/repository"
	apperrors "github.com/lorenzboss/m306-rate-mate/pkg/errors"
)

// AspectService manages rating aspects and guards their integrity: names are
// unique ignoring case and an aspect with ratings cannot be deleted.
type AspectService struct {
	aspects  repository.AspectRepository
	producer *event.Producer
	metrics  *Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewAspectService creates a new aspect service.
func NewAspectService(
	aspects repository.AspectRepository,
	producer *event.Producer,
	metrics *Metrics,
	logger *slog.Logger,
) *AspectService {
	return &AspectService{
		aspects:  aspects,
		producer: producer,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns all aspects ordered by name.
func (s *AspectService) List(ctx context.Context, caller *domain.Caller) ([]domain.Aspect, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	aspects, err := s.aspects.List(ctx)
	if err != nil {
		return nil, fetchFailure("aspects", err)
	}
	return aspects, nil
}

// Create adds a new aspect.
func (s *AspectService) Create(ctx context.Context, caller *domain.Caller, name, description string) (*domain.Aspect, error) {
	if err := requireElevated(caller); err != nil {
		return nil, err
	}
	name, description, err := domain.NormalizeAspect(name, description)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	aspect := &domain.Aspect{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.aspects.Create(ctx, aspect); err != nil {
		return nil, storeFailure("create aspect", err)
	}
	s.metrics.aspectChanges.WithLabelValues("create").Inc()

	if err := s.producer.PublishAspectCreated(ctx, aspect); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish aspect.created event",
			slog.String("aspect_id", aspect.ID),
			slog.String("error", err.Error()),
		)
	}
	return aspect, nil
}

// Update renames or redescribes an aspect.
func (s *AspectService) Update(ctx context.Context, caller *domain.Caller, id, name, description string) (*domain.Aspect, error) {
	if err := requireElevated(caller); err != nil {
		return nil, err
	}
	name, description, err := domain.NormalizeAspect(name, description)
	if err != nil {
		return nil, err
	}

	aspect, err := s.aspects.GetByID(ctx, id)
	if err != nil {
		return nil, storeFailure("get aspect", err)
	}
	if err := s.ensureNameFree(ctx, name, aspect.ID); err != nil {
		return nil, err
	}

	aspect.Name = name
	aspect.Description = description
	aspect.UpdatedAt = s.now().UTC()
	if err := s.aspects.Update(ctx, aspect); err != nil {
		return nil, storeFailure("update aspect", err)
	}
	s.metrics.aspectChanges.WithLabelValues("update").Inc()

	if err := s.producer.PublishAspectUpdated(ctx, aspect); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish aspect.updated event",
			slog.String("aspect_id", aspect.ID),
			slog.String("error", err.Error()),
		)
	}
	return aspect, nil
}

// Delete removes an aspect that no rating uses.
func (s *AspectService) Delete(ctx context.Context, caller *domain.Caller, id string) error {
	if err := requireElevated(caller); err != nil {
		return err
	}

	aspect, err := s.aspects.GetByID(ctx, id)
	if err != nil {
		return storeFailure("get aspect", err)
	}
	if aspect.RatingCount > 0 {
		return apperrors.AspectInUse(id, aspect.RatingCount)
	}

	if err := s.aspects.Delete(ctx, id); err != nil {
		return storeFailure("delete aspect", err)
	}
	s.metrics.aspectChanges.WithLabelValues("delete").Inc()

	s.logger.InfoContext(ctx, "aspect deleted", slog.String("aspect_id", id))

	if err := s.producer.PublishAspectDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish aspect.deleted event",
			slog.String("aspect_id", id),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func (s *AspectService) ensureNameFree(ctx context.Context, name, excludeID string) error {
	taken, err := s.aspects.NameTaken(ctx, name, excludeID)
	if err != nil {
		return storeFailure("check aspect name", err)
	}
	if taken {
		return apperrors.DuplicateName("aspect", name)
	}
	return nil
}
