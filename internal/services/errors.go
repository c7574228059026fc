package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors. Callers match them with errors.Is; services wrap them with
// a description of what failed.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrOutOfStock          = errors.New("product out of stock")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrInsightsUnavailable = errors.New("insights provider not configured")
	ErrChatUnavailable     = errors.New("chat provider not configured")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUserDisabled        = errors.New("user is disabled")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// translateNotFound maps gorm.ErrRecordNotFound to ErrNotFound and leaves
// other errors untouched.
func translateNotFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError("%s %d", what, id)
	}
	return err
}
