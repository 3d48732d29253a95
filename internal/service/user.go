package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lorenzboss/m306-rate-mate/internal/auth"
	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	"github.com/lorenzboss/m306-rate-mate/internal/event"
	"github.com/lorenzboss/m306-rate-mate/internal/repository"
	apperrors "github.com/lorenzboss/m306-rate-mate/pkg/errors"
	"github.com/lorenzboss/m306-rate-mate/pkg/pagination"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// bcrypt ignores everything past 72 bytes, so password plus pepper must fit.
const maxHashInput = 72

func invalidCredentials() error {
	return apperrors.NotAuthenticated("invalid email or password")
}

// UserService implements registration, login and user administration.
type UserService struct {
	users      repository.UserRepository
	attempts   repository.LoginAttemptStore
	jwtManager *auth.JWTManager
	producer   *event.Producer
	metrics    *Metrics
	pepper     string
	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time
}

// NewUserService creates a new user service. pepper is appended to every
// password before hashing.
func NewUserService(
	users repository.UserRepository,
	attempts repository.LoginAttemptStore,
	jwtManager *auth.JWTManager,
	producer *event.Producer,
	metrics *Metrics,
	pepper string,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:      users,
		attempts:   attempts,
		jwtManager: jwtManager,
		producer:   producer,
		metrics:    metrics,
		pepper:     pepper,
		bcryptCost: bcryptCost,
		logger:     logger,
		now:        time.Now,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email    string
	Password string
}

// LoginInput holds the parameters for user login. IP is the client address
// used for lockout bookkeeping.
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// --- Auth Operations ---

// Register creates a new user account with the User role and returns tokens.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.TokenPair, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if err := s.validatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password+s.pepper), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, storeFailure("create user", err)
	}

	tokens, err := s.jwtManager.GeneratePair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	return user, tokens, nil
}

// Login authenticates a user. Failed attempts are counted per email and
// client ip; a locked pair is rejected without checking the password.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	email := normalizeEmail(input.Email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			s.metrics.loginFailures.WithLabelValues("unknown_email").Inc()
			s.trackFailure(ctx, email, input.IP)
			return nil, nil, invalidCredentials()
		}
		return nil, nil, storeFailure("get user", err)
	}

	locked, err := s.attempts.IsLocked(ctx, email, input.IP)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to check login lockout", slog.String("error", err.Error()))
	}
	if locked {
		s.metrics.loginFailures.WithLabelValues("locked").Inc()
		return nil, nil, apperrors.TooManyAttempts()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password+s.pepper)); err != nil {
		s.metrics.loginFailures.WithLabelValues("bad_password").Inc()
		s.trackFailure(ctx, email, input.IP)
		return nil, nil, invalidCredentials()
	}

	if err := s.attempts.Reset(ctx, email, input.IP); err != nil {
		s.logger.WarnContext(ctx, "failed to reset login attempts", slog.String("error", err.Error()))
	}

	tokens, err := s.jwtManager.GeneratePair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return user, tokens, nil
}

// trackFailure records a failed attempt. Bookkeeping errors never block login.
func (s *UserService) trackFailure(ctx context.Context, email, ip string) {
	attempts, locked, err := s.attempts.RecordFailure(ctx, email, ip)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record login attempt", slog.String("error", err.Error()))
		return
	}
	if locked {
		s.metrics.loginLockouts.Inc()
		s.logger.WarnContext(ctx, "login locked",
			slog.String("ip", ip),
			slog.Int64("attempts", attempts),
		)
	}
}

// Refresh issues a new token pair. The user is reloaded so the new access
// token carries their current role.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.NotAuthenticated("invalid or expired refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotFound) {
			return nil, apperrors.NotAuthenticated("invalid or expired refresh token")
		}
		return nil, storeFailure("get user", err)
	}

	tokens, err := s.jwtManager.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	return tokens, nil
}

// --- Profile ---

// Profile returns the caller's own account.
func (s *UserService) Profile(ctx context.Context, caller *domain.Caller) (*domain.User, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fetchFailure("user", err)
	}
	return user, nil
}

// --- Administration ---

// ListUsers returns one page of users. Admin only.
func (s *UserService) ListUsers(ctx context.Context, caller *domain.Caller, page pagination.Params) (*pagination.Result[domain.User], error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	users, total, err := s.users.List(ctx, page.Offset(), page.PerPage)
	if err != nil {
		return nil, fetchFailure("users", err)
	}
	result := pagination.NewResult(users, total, page)
	return &result, nil
}

// ChangeRole sets the role of another user. Admin only.
func (s *UserService) ChangeRole(ctx context.Context, caller *domain.Caller, userID string, role domain.Role) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if !role.IsValid() {
		return apperrors.InvalidInput("role must be 1 (user), 2 (team leader) or 3 (admin)")
	}
	if userID == caller.UserID {
		return apperrors.InvalidInput("you cannot change your own role")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return storeFailure("get user", err)
	}
	if user.Role == role {
		return nil
	}
	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		return storeFailure("update role", err)
	}

	s.logger.InfoContext(ctx, "user role changed",
		slog.String("user_id", userID),
		slog.String("old_role", user.Role.String()),
		slog.String("new_role", role.String()),
	)

	if err := s.producer.PublishUserRoleChanged(ctx, userID, user.Role, role, caller.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.role_changed event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// DeleteUser removes another user together with their reviews. Admin only.
func (s *UserService) DeleteUser(ctx context.Context, caller *domain.Caller, userID string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if userID == caller.UserID {
		return apperrors.InvalidInput("you cannot delete your own account")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return storeFailure("delete user", err)
	}

	s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", userID))

	if err := s.producer.PublishUserDeleted(ctx, userID, caller.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.deleted event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// --- Helpers ---

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePassword checks password strength requirements.
func (s *UserService) validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if len(password)+len(s.pepper) > maxHashInput {
		return apperrors.InvalidInput("password is too long")
	}

	var hasUpper, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsDigit(c):
			hasDigit = true
		case !unicode.IsLetter(c):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasDigit || !hasSpecial {
		return apperrors.InvalidInput("password must include an uppercase letter, a digit and a special character")
	}
	return nil
}
