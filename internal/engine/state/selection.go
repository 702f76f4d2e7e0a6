package state

import (
	"fmt"

	"github.com/dshills/scribe/internal/engine/transform"
)

// Selection represents a selected range of a document.
// Anchor is where the selection started; Head is where typing occurs.
// When Anchor == Head, this is a cursor with no extent.
// Selection is an immutable value type.
type Selection struct {
	Anchor int
	Head   int
}

// NewSelection creates a selection from anchor to head.
func NewSelection(anchor, head int) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// Cursor creates a collapsed selection at pos.
func Cursor(pos int) Selection {
	return Selection{Anchor: pos, Head: pos}
}

// Empty returns true if the selection has no extent.
func (s Selection) Empty() bool {
	return s.Anchor == s.Head
}

// From returns the lower bound of the selection.
func (s Selection) From() int {
	return min(s.Anchor, s.Head)
}

// To returns the upper bound of the selection.
func (s Selection) To() int {
	return max(s.Anchor, s.Head)
}

// IsForward returns true if head is at or after anchor.
func (s Selection) IsForward() bool {
	return s.Head >= s.Anchor
}

// Collapse collapses the selection to a cursor at the head.
func (s Selection) Collapse() Selection {
	return Cursor(s.Head)
}

// Map carries the selection through a document change. Both ends stick to
// the content after them.
func (s Selection) Map(m transform.Mappable) Selection {
	return Selection{Anchor: m.Map(s.Anchor, 1), Head: m.Map(s.Head, 1)}
}

// Clamp returns a selection clamped to [0, size].
func (s Selection) Clamp(size int) Selection {
	return Selection{Anchor: clamp(s.Anchor, size), Head: clamp(s.Head, size)}
}

func clamp(pos, size int) int {
	if pos < 0 {
		return 0
	}
	if pos > size {
		return size
	}
	return pos
}

// String returns a string representation of the selection.
func (s Selection) String() string {
	if s.Empty() {
		return fmt.Sprintf("Cursor(%d)", s.Head)
	}
	return fmt.Sprintf("Selection(%d->%d)", s.Anchor, s.Head)
}
