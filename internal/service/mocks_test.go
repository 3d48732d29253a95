package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"

	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	"github.com/lorenzboss/m306-rate-mate/internal/event"
	pkgkafka "github.com/lorenzboss/m306-rate-mate/pkg/kafka"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context, offset, limit int) ([]domain.User, int, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

func (m *mockUserRepository) ListOthers(ctx context.Context, excludeID string) ([]domain.UserRef, error) {
	args := m.Called(ctx, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserRef), args.Error(1)
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Aspect Repository ---

type mockAspectRepository struct {
	mock.Mock
}

func (m *mockAspectRepository) List(ctx context.Context) ([]domain.Aspect, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Aspect), args.Error(1)
}

func (m *mockAspectRepository) GetByID(ctx context.Context, id string) (*domain.Aspect, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Aspect), args.Error(1)
}

func (m *mockAspectRepository) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAspectRepository) CountExisting(ctx context.Context, ids []string) (int, error) {
	args := m.Called(ctx, ids)
	return args.Int(0), args.Error(1)
}

func (m *mockAspectRepository) Create(ctx context.Context, aspect *domain.Aspect) error {
	args := m.Called(ctx, aspect)
	return args.Error(0)
}

func (m *mockAspectRepository) Update(ctx context.Context, aspect *domain.Aspect) error {
	args := m.Called(ctx, aspect)
	return args.Error(0)
}

func (m *mockAspectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.NewReview) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByOwner(ctx context.Context, userID string) ([]domain.Review, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) ListByReceiver(ctx context.Context, userID string) ([]domain.Review, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) RatingSamples(ctx context.Context, userID string) ([]domain.RatingSample, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RatingSample), args.Error(1)
}

// --- Mock Login Attempt Store ---

type mockLoginAttemptStore struct {
	mock.Mock
}

func (m *mockLoginAttemptStore) IsLocked(ctx context.Context, email, ip string) (bool, error) {
	args := m.Called(ctx, email, ip)
	return args.Bool(0), args.Error(1)
}

func (m *mockLoginAttemptStore) RecordFailure(ctx context.Context, email, ip string) (int64, bool, error) {
	args := m.Called(ctx, email, ip)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *mockLoginAttemptStore) Reset(ctx context.Context, email, ip string) error {
	args := m.Called(ctx, email, ip)
	return args.Error(0)
}

// --- Event capture ---

type capturePublisher struct {
	events []*pkgkafka.Event
}

func (c *capturePublisher) Publish(_ context.Context, _ string, evt *pkgkafka.Event) error {
	c.events = append(c.events, evt)
	return nil
}

func (c *capturePublisher) types() []string {
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

func newCapture() (*capturePublisher, *event.Producer) {
	c := &capturePublisher{}
	return c, event.NewProducer(c, testLogger())
}

var (
	bob   = &domain.Caller{UserID: "8b2a1c2e-5a55-4f0e-9a57-1f1d0b6c1f10", Email: "bob@example.com", Role: domain.RoleUser}
	carol = &domain.Caller{UserID: "c4e0f6a1-3b7d-4e2f-8a1c-9d5b7e3f2a60", Email: "carol@example.com", Role: domain.RoleUser}
	dave  = &domain.Caller{UserID: "d1f3a5b7-c9e1-4f2a-b4c6-d8e0f2a4b6c8", Email: "dave@example.com", Role: domain.RoleUser}
	tl    = &domain.Caller{UserID: "e2a4c6e8-0a2c-4e6a-8c0e-2a4c6e8a0c2e", Email: "lead@example.com", Role: domain.RoleTeamLeader}
	admin = &domain.Caller{UserID: "f3b5d7f9-1b3d-4f7b-9d1f-3b5d7f9b1d3f", Email: "admin@example.com", Role: domain.RoleAdmin}
)

func ref(c *domain.Caller) domain.UserRef {
	return domain.UserRef{ID: c.UserID, Email: c.Email}
}
