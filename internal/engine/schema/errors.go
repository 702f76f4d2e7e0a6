package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned while compiling a schema or validating against it.
var (
	// ErrUnknownType indicates a node type name that the schema does not define.
	ErrUnknownType = errors.New("unknown node type")

	// ErrUnknownMark indicates a mark type name that the schema does not define.
	ErrUnknownMark = errors.New("unknown mark type")

	// ErrMissingAttr indicates a required attribute was not supplied.
	ErrMissingAttr = errors.New("missing required attribute")

	// ErrUnknownAttr indicates an attribute the type does not declare.
	ErrUnknownAttr = errors.New("unsupported attribute")

	// ErrBadContentExpr indicates a content expression that cannot be compiled.
	ErrBadContentExpr = errors.New("invalid content expression")

	// ErrDuplicateName indicates two node or mark specs share a name.
	ErrDuplicateName = errors.New("duplicate type name")
)

// SchemaError reports a tree that does not conform to its schema.
// Path lists the node types from the root down to the deepest failing node,
// each suffixed with its child index, e.g. "doc/paragraph[0]/text[2]".
type SchemaError struct {
	Path   []string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("schema: %s", e.Reason)
	}
	return fmt.Sprintf("schema: %s: %s", strings.Join(e.Path, "/"), e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// PathString returns the slash-joined failing path.
func (e *SchemaError) PathString() string {
	return strings.Join(e.Path, "/")
}

// ExprError describes a content expression compile failure.
type ExprError struct {
	Type    string
	Expr    string
	Message string
}

func (e *ExprError) Error() string {
	return fmt.Sprintf("content expression %q of %s: %s", e.Expr, e.Type, e.Message)
}

func (e *ExprError) Unwrap() error {
	return ErrBadContentExpr
}
