package config

import (
	"errors"
	"fmt"
)

// Sentinel errors for loading and validation.
var (
	// ErrFileNotFound indicates an explicitly named config file doesn't exist.
	ErrFileNotFound = errors.New("config file not found")

	// ErrValidationFailed indicates a setting holds an out-of-range value.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError reports one rejected setting.
type ValidationError struct {
	Path    string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Path, e.Message, e.Value)
}

// Unwrap returns ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

type validator struct {
	errs []error
}

func (v *validator) add(path string, value any, msg string) {
	v.errs = append(v.errs, &ValidationError{Path: path, Message: msg, Value: value})
}

func (v *validator) err() error {
	return errors.Join(v.errs...)
}
