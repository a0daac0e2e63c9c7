// internal/core/domain/errors.go
package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicate          = errors.New("resource already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("validation failed")
)

// Token errors. All of them are reported to clients as 401.
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// ValidationError carries every violated constraint found while validating
// an entity or a set of request parameters.
type ValidationError struct {
	Errors []string
}

// NewValidationError returns nil when msgs is empty.
func NewValidationError(msgs ...string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Errors: msgs}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationMessages extracts the individual messages from err, or returns
// nil when err is not a validation error.
func ValidationMessages(err error) []string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Errors
	}
	return nil
}
