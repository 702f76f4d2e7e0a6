package model

import "fmt"

// Slice is a piece of a document. OpenStart and OpenEnd count how many
// levels of ancestors are cut open at each side.
type Slice struct {
	Content   *Fragment
	OpenStart int
	OpenEnd   int
}

// EmptySlice has no content.
var EmptySlice = &Slice{Content: EmptyFragment}

// NewSlice creates a slice.
func NewSlice(content *Fragment, openStart, openEnd int) *Slice {
	if content == nil {
		content = EmptyFragment
	}
	return &Slice{Content: content, OpenStart: openStart, OpenEnd: openEnd}
}

// Size returns the number of positions the slice would insert.
func (s *Slice) Size() int {
	return s.Content.Size() - s.OpenStart - s.OpenEnd
}

// Eq compares two slices.
func (s *Slice) Eq(other *Slice) bool {
	return s.Content.Eq(other.Content) && s.OpenStart == other.OpenStart && s.OpenEnd == other.OpenEnd
}

func (s *Slice) String() string {
	return fmt.Sprintf("%s(%d,%d)", s.Content, s.OpenStart, s.OpenEnd)
}

// MaxOpenSlice creates a slice open as deep as the fragment allows.
func MaxOpenSlice(f *Fragment) *Slice {
	openStart, openEnd := 0, 0
	for n := f.FirstChild(); n != nil && !n.IsLeaf(); n = n.FirstChild() {
		openStart++
	}
	for n := f.LastChild(); n != nil && !n.IsLeaf(); n = n.LastChild() {
		openEnd++
	}
	return NewSlice(f, openStart, openEnd)
}
