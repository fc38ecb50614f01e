package service

import (
	"chirp/internal/models"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ValidatePage enforces page >= 1 and 1 <= limit <= MaxPageLimit.
func ValidatePage(page, limit int) error {
	var details []models.FieldError
	if page < 1 {
		details = append(details, models.FieldError{Field: "page", Message: "must be at least 1"})
	}
	if limit < 1 || limit > MaxPageLimit {
		details = append(details, models.FieldError{Field: "limit", Message: "must be between 1 and 100"})
	}
	if len(details) > 0 {
		return models.NewFieldValidationError("Validation failed", details...)
	}
	return nil
}
