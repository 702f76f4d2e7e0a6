package engine

import (
	"log/slog"
	"time"

	"github.com/dshills/scribe/internal/engine/history"
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/schema"
	"github.com/dshills/scribe/internal/metrics"
)

// Default configuration values.
const (
	DefaultMaxUndoEntries = history.DefaultMaxEntries
	DefaultNewGroupDelay  = history.DefaultNewGroupDelay
	DefaultTrackingUser   = "Anonymous"
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithID names the engine in logs and events.
func WithID(id string) Option {
	return func(e *Engine) {
		e.id = id
	}
}

// WithSchema sets the document schema. Defaults to schema.Basic().
func WithSchema(s *schema.Schema) Option {
	return func(e *Engine) {
		if s != nil {
			e.schema = s
		}
	}
}

// WithDoc sets the initial document. It must belong to the engine's schema.
func WithDoc(doc *model.Node) Option {
	return func(e *Engine) {
		e.init = func(*schema.Schema) (*model.Node, error) { return doc, nil }
	}
}

// WithContent sets the initial content in the given format.
func WithContent(format Format, data []byte) Option {
	return func(e *Engine) {
		e.init = func(s *schema.Schema) (*model.Node, error) { return Decode(s, format, data) }
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxUndoEntries = max
		}
	}
}

// WithNewGroupDelay sets the window within which consecutive edits are
// merged into one undo step.
func WithNewGroupDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.newGroupDelay = d
		}
	}
}

// WithTracking turns change tracking on and attributes user-originated
// transactions to user.
func WithTracking(enabled bool, user string) Option {
	return func(e *Engine) {
		e.tracking = enabled
		if user != "" {
			e.trackUser = user
		}
	}
}

// WithReadOnly creates a read-only engine.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.editable = false
	}
}

// WithStrictValidation checks the whole document after every transaction
// and rejects transactions that leave it invalid.
func WithStrictValidation(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics enables instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock replaces the clock used to stamp transactions built by
// commands and history.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
