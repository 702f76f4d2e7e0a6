package codec

import (
	"errors"
	"fmt"
)

// ErrMalformed indicates input that is not well-formed for its format.
var ErrMalformed = errors.New("malformed input")

// ParseError represents an error while decoding a document, slice or step.
// Path locates the offending value: a gjson path such as
// "content.1.marks.0" for JSON input, or the failing node's schema path
// when a decoded document does not validate. Name is the offending type or
// field name when there is one.
type ParseError struct {
	Format string
	Path   string
	Name   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "root"
	}
	if e.Name != "" {
		return fmt.Sprintf("parse %s at %s: %s %q", e.Format, loc, e.Reason, e.Name)
	}
	return fmt.Sprintf("parse %s at %s: %s", e.Format, loc, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func jsonError(path, name, reason string, err error) *ParseError {
	return &ParseError{Format: "json", Path: path, Name: name, Reason: reason, Err: err}
}

func htmlError(path, name, reason string, err error) *ParseError {
	return &ParseError{Format: "html", Path: path, Name: name, Reason: reason, Err: err}
}
