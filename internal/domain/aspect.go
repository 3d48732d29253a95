package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/lorenzboss/m306-rate-mate/pkg/errors"
)

const (
	MaxAspectNameLength        = 100
	MaxAspectDescriptionLength = 500
)

// Aspect is a named dimension along which a person can be rated.
type Aspect struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	RatingCount int       `json:"rating_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NormalizeAspect trims name and description and checks their lengths.
func NormalizeAspect(name, description string) (string, string, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		return "", "", apperrors.InvalidInput("name is required")
	case n > MaxAspectNameLength:
		return "", "", apperrors.InvalidInput("name must be at most 100 characters")
	}
	switch n := utf8.RuneCountInString(description); {
	case n == 0:
		return "", "", apperrors.InvalidInput("description is required")
	case n > MaxAspectDescriptionLength:
		return "", "", apperrors.InvalidInput("description must be at most 500 characters")
	}
	return name, description, nil
}
