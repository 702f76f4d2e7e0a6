package engine

import (
	"fmt"
	"strings"

	"github.com/dshills/scribe/internal/engine/codec"
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/schema"
)

// Format is a document serialization format.
type Format string

// Supported formats. Text can be produced but not parsed.
const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatText Format = "text"
)

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatHTML, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
}

// Decode parses data in format into a document of s.
func Decode(s *schema.Schema, format Format, data []byte) (*model.Node, error) {
	switch format {
	case FormatJSON:
		return codec.FromJSON(s, data)
	case FormatHTML:
		return codec.FromHTML(s, string(data))
	}
	return nil, fmt.Errorf("decode %q: %w", format, ErrUnknownFormat)
}

// Encode serializes doc in format.
func Encode(doc *model.Node, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return codec.ToJSON(doc)
	case FormatHTML:
		html, err := codec.ToHTML(doc)
		if err != nil {
			return nil, err
		}
		return []byte(html), nil
	case FormatText:
		return []byte(codec.ToText(doc)), nil
	}
	return nil, fmt.Errorf("encode %q: %w", format, ErrUnknownFormat)
}

// ValidationResult is the outcome of a content check.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

func result(errs ...string) ValidationResult {
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// IsEmptyDoc reports whether doc holds nothing but a single empty textblock.
func IsEmptyDoc(doc *model.Node) bool {
	if doc.ChildCount() == 0 {
		return true
	}
	first := doc.Content.Child(0)
	return doc.ChildCount() == 1 && first.IsTextblock() && first.Content.Size() == 0
}

// CountWords counts whitespace-separated words. Block boundaries separate
// words.
func CountWords(doc *model.Node) int {
	return len(strings.Fields(doc.TextBetween(0, doc.Content.Size(), " ", " ")))
}

// ValidateNotEmpty fails for a document without children or with a single
// empty child.
func ValidateNotEmpty(doc *model.Node) ValidationResult {
	if doc.ChildCount() == 0 || (doc.ChildCount() == 1 && doc.Content.Child(0).Content.Size() == 0) {
		return result("Document cannot be empty")
	}
	return result()
}

// ValidateMinWords fails when doc has fewer than min words.
func ValidateMinWords(doc *model.Node, min int) ValidationResult {
	if n := CountWords(doc); n < min {
		return result(fmt.Sprintf("Document must contain at least %d words (current: %d)", min, n))
	}
	return result()
}

// ValidateMaxWords fails when doc has more than max words.
func ValidateMaxWords(doc *model.Node, max int) ValidationResult {
	if n := CountWords(doc); n > max {
		return result(fmt.Sprintf("Document must not exceed %d words (current: %d)", max, n))
	}
	return result()
}
