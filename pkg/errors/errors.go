package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by every AppError kind.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrAlreadyExists   = errors.New("resource already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInternal        = errors.New("internal error")
	ErrConflict        = errors.New("conflict")
	ErrTooManyRequests = errors.New("too many requests")
)

// Error kinds. The code is what clients branch on.
const (
	CodeNotAuthenticated        = "NOT_AUTHENTICATED"
	CodeInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	CodeAccessDenied            = "ACCESS_DENIED"
	CodeForbidden               = "FORBIDDEN"
	CodeNotFound                = "NOT_FOUND"
	CodeAlreadyExists           = "ALREADY_EXISTS"
	CodeDuplicateName           = "DUPLICATE_NAME"
	CodeAspectInUse             = "ASPECT_IN_USE"
	CodeInvalidInput            = "INVALID_INPUT"
	CodeTooManyAttempts         = "TOO_MANY_ATTEMPTS"
	CodeFetchFailed             = "FETCH_FAILED"
	CodeStoreError              = "STORE_ERROR"
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotAuthenticated creates a 401 error for requests without a valid session.
func NotAuthenticated(message string) *AppError {
	return &AppError{
		Code:    CodeNotAuthenticated,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// InsufficientPermissions creates a 403 error for cross-user access without an elevated role.
func InsufficientPermissions() *AppError {
	return &AppError{
		Code:    CodeInsufficientPermissions,
		Message: "insufficient permissions",
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// AccessDenied creates a 403 error for a caller unrelated to the requested resource.
func AccessDenied() *AppError {
	return &AppError{
		Code:    CodeAccessDenied,
		Message: "access denied",
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    CodeAlreadyExists,
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// DuplicateName creates a 409 error for a case-insensitive name collision.
func DuplicateName(resource, name string) *AppError {
	return &AppError{
		Code:    CodeDuplicateName,
		Message: fmt.Sprintf("an %s named %q already exists", resource, name),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// AspectInUse creates a 409 error for deleting an aspect still referenced by ratings.
// A ratings count of zero or less means the count is unknown.
func AspectInUse(id string, ratings int) *AppError {
	msg := fmt.Sprintf("aspect %s is used by %d rating(s) and cannot be deleted", id, ratings)
	if ratings <= 0 {
		msg = fmt.Sprintf("aspect %s is used by ratings and cannot be deleted", id)
	}
	return &AppError{
		Code:    CodeAspectInUse,
		Message: msg,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// TooManyAttempts creates a 429 error for a locked-out login.
func TooManyAttempts() *AppError {
	return &AppError{
		Code:    CodeTooManyAttempts,
		Message: "too many failed login attempts, try again later",
		Status:  http.StatusTooManyRequests,
		Err:     ErrTooManyRequests,
	}
}

// FetchFailed creates a 500 error for a failed read. The cause is kept for logging only.
func FetchFailed(what string, err error) *AppError {
	return &AppError{
		Code:    CodeFetchFailed,
		Message: "failed to fetch " + what,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// StoreError creates a 500 error for a failed write or unexpected store exception.
func StoreError(err error) *AppError {
	return &AppError{
		Code:    CodeStoreError,
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
