package model

import (
	"fmt"
	"sort"

	"github.com/dshills/scribe/internal/engine/schema"
)

// Mark is an annotation attached to an inline node. Marks are immutable.
type Mark struct {
	Type  *schema.MarkType
	Attrs map[string]any
}

// NewMark creates a mark, filling attribute defaults.
func NewMark(t *schema.MarkType, attrs map[string]any) (*Mark, error) {
	computed, err := t.ComputeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	return &Mark{Type: t, Attrs: computed}, nil
}

// Eq reports whether two marks have the same type and attributes.
func (m *Mark) Eq(other *Mark) bool {
	if m == other {
		return true
	}
	return m.Type == other.Type && schema.AttrsEqual(m.Attrs, other.Attrs)
}

// AddToSet returns set with m added at its rank position. Marks excluded by
// m are dropped; if a mark in the set excludes m, the set is returned
// unchanged.
func (m *Mark) AddToSet(set []*Mark) []*Mark {
	var result []*Mark
	copied := false
	placed := false
	for i, other := range set {
		if m.Eq(other) {
			return set
		}
		if m.Type.Excludes(other.Type) {
			if !copied {
				result = append([]*Mark(nil), set[:i]...)
				copied = true
			}
			continue
		}
		if other.Type.Excludes(m.Type) {
			return set
		}
		if !placed && other.Type.Rank > m.Type.Rank {
			if !copied {
				result = append([]*Mark(nil), set[:i]...)
				copied = true
			}
			result = append(result, m)
			placed = true
		}
		if copied {
			result = append(result, other)
		}
	}
	if !copied {
		result = append([]*Mark(nil), set...)
	}
	if !placed {
		result = append(result, m)
	}
	return result
}

// RemoveFromSet returns set without m.
func (m *Mark) RemoveFromSet(set []*Mark) []*Mark {
	for i, other := range set {
		if m.Eq(other) {
			out := make([]*Mark, 0, len(set)-1)
			out = append(out, set[:i]...)
			return append(out, set[i+1:]...)
		}
	}
	return set
}

// IsInSet reports whether m is in set.
func (m *Mark) IsInSet(set []*Mark) bool {
	for _, other := range set {
		if m.Eq(other) {
			return true
		}
	}
	return false
}

func (m *Mark) String() string {
	if len(m.Attrs) == 0 {
		return m.Type.Name
	}
	return fmt.Sprintf("%s%v", m.Type.Name, m.Attrs)
}

// SameMarkSet reports whether two mark sets are equal.
func SameMarkSet(a, b []*Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Eq(b[i]) {
			return false
		}
	}
	return true
}

// MarkSetFrom builds a sorted set from arbitrary marks.
func MarkSetFrom(marks ...*Mark) []*Mark {
	if len(marks) == 0 {
		return nil
	}
	set := append([]*Mark(nil), marks...)
	sort.SliceStable(set, func(i, j int) bool { return set[i].Type.Rank < set[j].Type.Rank })
	return set
}

// MarkTypeInSet returns the first mark of type t in set, or nil.
func MarkTypeInSet(t *schema.MarkType, set []*Mark) *Mark {
	for _, m := range set {
		if m.Type == t {
			return m
		}
	}
	return nil
}
