package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrForbidden       = errors.New("forbidden")
	ErrSelfFollow      = errors.New("you cannot subscribe to yourself")
	ErrInvalidPassword = errors.New("current password is incorrect")
	ErrValidation      = errors.New("validation failed")
)

// invalid builds a validation error naming the offending field
func invalid(field, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, fmt.Sprintf(format, args...))
}

// translate maps gorm errors onto the service sentinels
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %w", what, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s %w", what, ErrAlreadyExists)
	default:
		return err
	}
}
