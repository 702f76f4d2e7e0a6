package model

import (
	"errors"
	"fmt"
)

// Common errors for document operations.
var (
	// ErrInvalidContent indicates an edit would leave a node whose children
	// do not match its content expression.
	ErrInvalidContent = errors.New("invalid content")

	// ErrPositionOutOfRange indicates a position outside the document.
	ErrPositionOutOfRange = errors.New("position out of range")

	// ErrEmptyText indicates an attempt to create a text node without text.
	ErrEmptyText = errors.New("empty text node")
)

// ReplaceError is returned when a slice cannot be fitted into a range.
type ReplaceError struct {
	Reason string
	Err    error
}

func (e *ReplaceError) Error() string {
	return fmt.Sprintf("replace: %s", e.Reason)
}

func (e *ReplaceError) Unwrap() error {
	return e.Err
}

func outOfRange(pos, size int) error {
	return fmt.Errorf("%w: %d not in [0, %d]", ErrPositionOutOfRange, pos, size)
}
