package service

import (
	"errors"
	"fmt"

	"github.com/lorenzboss/m306-rate-mate/internal/domain"
	apperrors "github.com/lorenzboss/m306-rate-mate/pkg/errors"
)

// ResolveTarget decides whose data caller may view. An empty target or the
// caller's own id resolves to the caller; anyone else requires an elevated role.
func ResolveTarget(caller *domain.Caller, targetUserID string) (string, error) {
	if caller == nil || caller.UserID == "" {
		return "", apperrors.NotAuthenticated("authentication required")
	}
	if targetUserID == "" || targetUserID == caller.UserID {
		return caller.UserID, nil
	}
	if !caller.Role.IsElevated() {
		return "", apperrors.InsufficientPermissions()
	}
	return targetUserID, nil
}

func requireCaller(caller *domain.Caller) error {
	if caller == nil || caller.UserID == "" {
		return apperrors.NotAuthenticated("authentication required")
	}
	return nil
}

func requireElevated(caller *domain.Caller) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if !caller.Role.IsElevated() {
		return apperrors.Forbidden("only team leaders and admins can do this")
	}
	return nil
}

func requireAdmin(caller *domain.Caller) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if caller.Role != domain.RoleAdmin {
		return apperrors.Forbidden("only admins can do this")
	}
	return nil
}

// storeFailure keeps AppErrors as they are and turns anything else into a
// STORE_ERROR that hides the cause from clients.
func storeFailure(op string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.StoreError(fmt.Errorf("%s: %w", op, err))
}

// fetchFailure is storeFailure for reads.
func fetchFailure(what string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.FetchFailed(what, err)
}
