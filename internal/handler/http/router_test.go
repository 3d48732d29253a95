package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lorenzboss/m306-rate-mate/internal/auth"
	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	"github.com/lorenzboss/m306-rate-mate/internal/event"
	"github.com/lorenzboss/m306-rate-mate/internal/service"
	apperrors "github.com/lorenzboss/m306-rate-mate/pkg/errors"
	"github.com/lorenzboss/m306-rate-mate/pkg/health"
	"github.com/lorenzboss/m306-rate-mate/pkg/httputil"
	"github.com/lorenzboss/m306-rate-mate/pkg/middleware"
)

const (
	bobID    = "8b2a1c2e-5a55-4f0e-9a57-1f1d0b6c1f10"
	carolID  = "c4e0f6a1-3b7d-4e2f-8a1c-9d5b7e3f2a60"
	daveID   = "d1f3a5b7-c9e1-4f2a-b4c6-d8e0f2a4b6c8"
	leadID   = "e2a4c6e8-0a2c-4e6a-8c0e-2a4c6e8a0c2e"
	adminID  = "f3b5d7f9-1b3d-4f7b-9d1f-3b5d7f9b1d3f"
	reviewID = "a0a0a0a0-1111-4222-8333-444455556666"
	aspectID = "0a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
)

var (
	bob   = &domain.User{ID: bobID, Email: "bob@example.com", Role: domain.RoleUser}
	carol = &domain.User{ID: carolID, Email: "carol@example.com", Role: domain.RoleUser}
	dave  = &domain.User{ID: daveID, Email: "dave@example.com", Role: domain.RoleUser}
	lead  = &domain.User{ID: leadID, Email: "lead@example.com", Role: domain.RoleTeamLeader}
	admin = &domain.User{ID: adminID, Email: "admin@example.com", Role: domain.RoleAdmin}
)

type testServer struct {
	handler  http.Handler
	jwt      *auth.JWTManager
	users    *mockUserRepository
	aspects  *mockAspectRepository
	reviews  *mockReviewRepository
	attempts *mockLoginAttemptStore
}

func newTestServer(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()

	s := &testServer{
		jwt:      auth.NewJWTManager("0123456789abcdef0123456789abcdef", 10*time.Minute, time.Hour),
		users:    &mockUserRepository{},
		aspects:  &mockAspectRepository{},
		reviews:  &mockReviewRepository{},
		attempts: &mockLoginAttemptStore{},
	}
	producer := event.NewProducer(nil, logger)
	metrics := service.NewMetrics(reg)

	s.handler = NewRouter(RouterDeps{
		Users:          service.NewUserService(s.users, s.attempts, s.jwt, producer, metrics, "", logger),
		Aspects:        service.NewAspectService(s.aspects, producer, metrics, logger),
		Reviews:        service.NewReviewService(s.reviews, s.users, s.aspects, producer, metrics, logger),
		TokenValidator: s.jwt.TokenValidator(),
		Health:         health.NewHandler(),
		Registry:       reg,
		AuthLimiter:    limiter,
		CORS:           middleware.DefaultCORSConfig(),
		Logger:         logger,
	})
	return s
}

func (s *testServer) do(t *testing.T, method, path string, as *domain.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		token, err := s.jwt.GenerateAccessToken(as)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool                    `json:"success"`
	Data    json.RawMessage         `json:"data"`
	Error   *httputil.ErrorResponse `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, rec)
	require.NotNil(t, env.Error, rec.Body.String())
	return env.Error.Code
}

func privateReviewFromBob() *domain.Review {
	return &domain.Review{
		ID:        reviewID,
		Owner:     domain.UserRef{ID: bobID, Email: bob.Email},
		Receiver:  domain.UserRef{ID: carolID, Email: carol.Email},
		IsPrivate: true,
		Comment:   "solid work",
		CreatedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		Ratings: []domain.Rating{
			{ID: "r1", ReviewID: reviewID, Aspect: domain.AspectRef{ID: aspectID, Name: "Communication"}, Rating: 4},
		},
	}
}

// --- Ambient ---

func TestHealthLive(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.do(t, http.MethodGet, "/health/live", nil, nil)

	rec := s.do(t, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "r8m8_http_requests_total")
}

func TestAPIRequiresToken(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/v1/reviews", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperrors.CodeNotAuthenticated, errorCode(t, rec))
}

func TestAPIRejectsNonJSONBody(t *testing.T) {
	s := newTestServer(t, nil)
	token, err := s.jwt.GenerateAccessToken(bob)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", strings.NewReader("receiver=carol"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

// --- Reviews ---

func TestListReviews_ReceiverGetsNullOwnerForPrivateReview(t *testing.T) {
	s := newTestServer(t, nil)
	s.reviews.On("ListByOwner", mock.Anything, carolID).Return([]domain.Review{}, nil)
	s.reviews.On("ListByReceiver", mock.Anything, carolID).Return([]domain.Review{*privateReviewFromBob()}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/reviews", carol, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var data struct {
		Received []map[string]any `json:"received"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	require.Len(t, data.Received, 1)
	owner, present := data.Received[0]["owner"]
	assert.True(t, present)
	assert.Nil(t, owner)
	assert.Equal(t, 4.0, data.Received[0]["average_rating"])
}

func TestListReviews_OwnerSeesThemselves(t *testing.T) {
	s := newTestServer(t, nil)
	s.reviews.On("ListByOwner", mock.Anything, bobID).Return([]domain.Review{*privateReviewFromBob()}, nil)
	s.reviews.On("ListByReceiver", mock.Anything, bobID).Return([]domain.Review{}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/reviews", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data domain.UserReviews
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	require.Len(t, data.Created, 1)
	require.NotNil(t, data.Created[0].Owner)
	assert.Equal(t, bobID, data.Created[0].Owner.ID)
}

func TestListReviews_UserCannotTargetOthers(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/v1/reviews?user_id="+carolID, bob, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apperrors.CodeInsufficientPermissions, errorCode(t, rec))
}

func TestListReviews_TeamLeaderTargetsOthers(t *testing.T) {
	s := newTestServer(t, nil)
	s.reviews.On("ListByOwner", mock.Anything, bobID).Return([]domain.Review{*privateReviewFromBob()}, nil)
	s.reviews.On("ListByReceiver", mock.Anything, bobID).Return([]domain.Review{}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/reviews?user_id="+strings.ToUpper(bobID), lead, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data domain.UserReviews
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	require.Len(t, data.Created, 1)
	assert.Nil(t, data.Created[0].Owner)
}

func TestListReviews_InvalidUserID(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/v1/reviews?user_id=bob", lead, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", errorCode(t, rec))
}

func TestListReviews_StoreFailureIsGeneric(t *testing.T) {
	s := newTestServer(t, nil)
	s.reviews.On("ListByOwner", mock.Anything, bobID).Return(nil, assert.AnError)

	rec := s.do(t, http.MethodGet, "/api/v1/reviews", bob, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, apperrors.CodeFetchFailed, env.Error.Code)
	assert.NotContains(t, env.Error.Message, assert.AnError.Error())
}

func TestGetReview(t *testing.T) {
	tests := []struct {
		name       string
		as         *domain.User
		wantStatus int
		wantCode   string
	}{
		{"owner", bob, http.StatusOK, ""},
		{"receiver", carol, http.StatusOK, ""},
		{"stranger", dave, http.StatusForbidden, apperrors.CodeAccessDenied},
		{"admin", admin, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)
			s.reviews.On("GetByID", mock.Anything, reviewID).Return(privateReviewFromBob(), nil)

			rec := s.do(t, http.MethodGet, "/api/v1/reviews/"+reviewID, tt.as, nil)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
			}
		})
	}
}

func TestGetReview_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	s.reviews.On("GetByID", mock.Anything, reviewID).Return(nil, apperrors.NotFound("review", reviewID))

	rec := s.do(t, http.MethodGet, "/api/v1/reviews/"+reviewID, dave, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetReview_MalformedID(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/v1/reviews/not-a-uuid", bob, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatistics(t *testing.T) {
	s := newTestServer(t, nil)
	s.reviews.On("RatingSamples", mock.Anything, carolID).Return([]domain.RatingSample{
		{ReviewID: "r-1", AspectName: "Speed", Rating: 5},
		{ReviewID: "r-1", AspectName: "Speed", Rating: 3},
		{ReviewID: "r-2", AspectName: "Speed", Rating: 4},
	}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/reviews/statistics", carol, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var stats domain.ReviewStatistics
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &stats))
	assert.Equal(t, 2, stats.TotalReviews)
	assert.Equal(t, 4.0, stats.AverageRating)
	require.NotNil(t, stats.MostRatedAspect)
	assert.Equal(t, "Speed", *stats.MostRatedAspect)
}

func TestCreateReview(t *testing.T) {
	s := newTestServer(t, nil)
	s.users.On("GetByID", mock.Anything, carolID).Return(carol, nil)
	s.aspects.On("CountExisting", mock.Anything, []string{aspectID}).Return(1, nil)
	s.reviews.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.NewReview) bool {
		return r.OwnerID == bobID && r.ReceiverID == carolID && r.IsPrivate
	})).Return(nil)

	rec := s.do(t, http.MethodPost, "/api/v1/reviews", bob, map[string]any{
		"receiver_id": carolID,
		"ratings":     []map[string]any{{"aspect_id": aspectID, "rating": 5}},
		"is_private":  true,
		"comment":     "thanks",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var data map[string]string
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.NotEmpty(t, data["id"])
	s.reviews.AssertExpectations(t)
}

func TestCreateReview_ValidationFields(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/api/v1/reviews", bob, map[string]any{
		"receiver_id": carolID,
		"ratings":     []map[string]any{{"aspect_id": aspectID, "rating": 9}},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "ratings[0].rating")
}

func TestCreateReview_SelfReview(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/api/v1/reviews", bob, map[string]any{
		"receiver_id": bobID,
		"ratings":     []map[string]any{{"aspect_id": aspectID, "rating": 3}},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperrors.CodeInvalidInput, errorCode(t, rec))
}

// --- Aspects ---

func TestAspects_UserCannotCreate(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPost, "/api/v1/aspects", bob, map[string]string{"name": "Speed", "description": "How fast"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
}

func TestAspects_DuplicateName(t *testing.T) {
	s := newTestServer(t, nil)
	s.aspects.On("NameTaken", mock.Anything, "speed", "").Return(true, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/aspects", lead, map[string]string{"name": "speed", "description": "How fast"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeDuplicateName, errorCode(t, rec))
}

func TestAspects_DeleteInUse(t *testing.T) {
	s := newTestServer(t, nil)
	s.aspects.On("GetByID", mock.Anything, aspectID).Return(&domain.Aspect{ID: aspectID, RatingCount: 2}, nil)

	rec := s.do(t, http.MethodDelete, "/api/v1/aspects/"+aspectID, admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.CodeAspectInUse, errorCode(t, rec))
}

func TestAspects_List(t *testing.T) {
	s := newTestServer(t, nil)
	s.aspects.On("List", mock.Anything).Return(nil, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/aspects", dave, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(decode(t, rec).Data))
}

// --- Users ---

func TestUsers_AdminList(t *testing.T) {
	s := newTestServer(t, nil)
	s.users.On("List", mock.Anything, 0, 20).Return([]domain.User{*bob, *carol}, 2, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	var page struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &page))
	assert.Equal(t, 2, page.Total)
}

func TestUsers_ListForbiddenForTeamLeader(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodGet, "/api/v1/users", lead, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUsers_Directory(t *testing.T) {
	s := newTestServer(t, nil)
	s.users.On("ListOthers", mock.Anything, bobID).Return([]domain.UserRef{{ID: carolID, Email: carol.Email}}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/users/directory", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), carol.Email)
}

func TestUsers_ChangeRole(t *testing.T) {
	s := newTestServer(t, nil)
	s.users.On("GetByID", mock.Anything, carolID).Return(carol, nil)
	s.users.On("UpdateRole", mock.Anything, carolID, domain.RoleTeamLeader).Return(nil)

	rec := s.do(t, http.MethodPut, "/api/v1/users/"+carolID+"/role", admin, map[string]int{"role": 2})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	s.users.AssertExpectations(t)
}

func TestUsers_ChangeRoleRejectsUnknownRole(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(t, http.MethodPut, "/api/v1/users/"+carolID+"/role", admin, map[string]int{"role": 7})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Auth ---

func TestLogin(t *testing.T) {
	s := newTestServer(t, nil)
	hash, err := bcrypt.GenerateFromPassword([]byte("Sup3r$ecret"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := *bob
	stored.PasswordHash = string(hash)

	s.users.On("GetByEmail", mock.Anything, bob.Email).Return(&stored, nil)
	s.attempts.On("IsLocked", mock.Anything, bob.Email, "192.0.2.1").Return(false, nil)
	s.attempts.On("Reset", mock.Anything, bob.Email, "192.0.2.1").Return(nil)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", nil, map[string]string{"email": bob.Email, "password": "Sup3r$ecret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data AuthResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.NotEmpty(t, data.Tokens.AccessToken)
	assert.NotContains(t, rec.Body.String(), string(hash))
}

func TestLogin_Locked(t *testing.T) {
	s := newTestServer(t, nil)
	s.users.On("GetByEmail", mock.Anything, bob.Email).Return(bob, nil)
	s.attempts.On("IsLocked", mock.Anything, bob.Email, "192.0.2.1").Return(true, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", nil, map[string]string{"email": bob.Email, "password": "whatever"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, apperrors.CodeTooManyAttempts, errorCode(t, rec))
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(0.001, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(limiter.Close)
	s := newTestServer(t, limiter)

	first := s.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, first.Code)

	second := s.do(t, http.MethodPost, "/api/v1/auth/refresh", nil, map[string]string{})
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, second))
}
