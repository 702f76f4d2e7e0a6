package engine

import (
	"errors"

	"github.com/dshills/scribe/internal/engine/history"
)

// Errors returned by engine operations.
var (
	// ErrReadOnly indicates an edit was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")

	// ErrStaleTransaction indicates a transaction built on a document the
	// engine no longer holds.
	ErrStaleTransaction = errors.New("transaction was built on an outdated document")

	// ErrUnknownFormat indicates an unsupported content format.
	ErrUnknownFormat = errors.New("unknown content format")

	// ErrInvalidDocument indicates a document that does not satisfy its
	// schema or belongs to another schema.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = history.ErrNothingToUndo

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = history.ErrNothingToRedo
)
