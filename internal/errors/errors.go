package errors

import (
	"errors"
	"fmt"
)

// Application-specific errors
var (
	ErrInvalidPackage      = errors.New("invalid package selection")
	ErrInvalidAddonAmount  = errors.New("invalid add-on amount")
	ErrNotFound            = errors.New("session not found")
	ErrSignatureRejected   = errors.New("webhook signature rejected")
	ErrSecretNotConfigured = errors.New("webhook signing secret not configured")
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ProcessorError represents a failure talking to the payment processor:
// transport errors, auth failures, or request rejections.
type ProcessorError struct {
	Op  string
	Err error
}

func (e ProcessorError) Error() string {
	return fmt.Sprintf("processor error during %s: %v", e.Op, e.Err)
}

func (e ProcessorError) Unwrap() error {
	return e.Err
}

// IsProcessorError reports whether err is (or wraps) a ProcessorError.
func IsProcessorError(err error) bool {
	var pe ProcessorError
	return errors.As(err, &pe)
}
