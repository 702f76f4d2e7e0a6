package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dshills/scribe/internal/engine/schema"
)

// Node is an immutable document node. Text nodes carry Text and no
// Content; other nodes carry Content and no Text.
//
// Positions count one for entering and one for leaving a non-leaf node,
// one for a leaf and one per code point of text.
type Node struct {
	Type    *schema.NodeType
	Attrs   map[string]any
	Content *Fragment
	Marks   []*Mark
	Text    string

	textSize int
}

// Create builds a node, filling attribute defaults. The content is not
// checked against the type's content expression; use CreateChecked or
// Check for that.
func Create(t *schema.NodeType, attrs map[string]any, content *Fragment, marks []*Mark) (*Node, error) {
	if t.IsText() {
		return nil, fmt.Errorf("create %s: use NewText", t.Name)
	}
	computed, err := t.ComputeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	return newNode(t, computed, content, MarkSetFrom(marks...)), nil
}

// CreateChecked is like Create but also validates the content.
func CreateChecked(t *schema.NodeType, attrs map[string]any, content *Fragment, marks []*Mark) (*Node, error) {
	n, err := Create(t, attrs, content, marks)
	if err != nil {
		return nil, err
	}
	if err := checkContent(t, n.Content); err != nil {
		return nil, err
	}
	return n, nil
}

// NewText creates a text node in schema s.
func NewText(s *schema.Schema, text string, marks []*Mark) (*Node, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	return &Node{
		Type:     s.TextType(),
		Text:     text,
		Content:  EmptyFragment,
		Marks:    MarkSetFrom(marks...),
		textSize: utf8.RuneCountInString(text),
	}, nil
}

func newNode(t *schema.NodeType, attrs map[string]any, content *Fragment, marks []*Mark) *Node {
	if content == nil {
		content = EmptyFragment
	}
	return &Node{Type: t, Attrs: attrs, Content: content, Marks: marks}
}

// NodeSize returns the size of the node in positions.
func (n *Node) NodeSize() int {
	switch {
	case n.IsText():
		return n.textSize
	case n.IsLeaf():
		return 1
	default:
		return n.Content.Size() + 2
	}
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return n.Content.ChildCount() }

// Child returns the i-th child.
func (n *Node) Child(i int) *Node { return n.Content.Child(i) }

// MaybeChild returns the i-th child or nil.
func (n *Node) MaybeChild(i int) *Node { return n.Content.MaybeChild(i) }

// FirstChild returns the first child or nil.
func (n *Node) FirstChild() *Node { return n.Content.FirstChild() }

// LastChild returns the last child or nil.
func (n *Node) LastChild() *Node { return n.Content.LastChild() }

func (n *Node) IsText() bool        { return n.Type.IsText() }
func (n *Node) IsInline() bool      { return n.Type.IsInline() }
func (n *Node) IsBlock() bool       { return n.Type.IsBlock() }
func (n *Node) IsTextblock() bool   { return n.Type.IsTextblock() }
func (n *Node) InlineContent() bool { return n.Type.InlineContent() }
func (n *Node) IsLeaf() bool        { return n.Type.IsLeaf() }
func (n *Node) IsAtom() bool        { return n.Type.IsAtom() }

// TextContent returns the concatenated text of the node.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	return n.Content.TextBetween(0, n.Content.Size(), "", "")
}

// TextBetween returns the text in [from, to) of the node's content.
func (n *Node) TextBetween(from, to int, blockSep, leafText string) string {
	return n.Content.TextBetween(from, to, blockSep, leafText)
}

// NodesBetween walks the descendants overlapping [from, to).
func (n *Node) NodesBetween(from, to int, fn func(child *Node, pos int, parent *Node, index int) bool) {
	n.Content.NodesBetween(from, to, fn, 0, n)
}

// Descendants walks all descendants.
func (n *Node) Descendants(fn func(child *Node, pos int, parent *Node, index int) bool) {
	n.NodesBetween(0, n.Content.Size(), fn)
}

// Eq compares two nodes structurally.
func (n *Node) Eq(other *Node) bool {
	if n == other {
		return true
	}
	if !n.SameMarkup(other) {
		return false
	}
	if n.IsText() {
		return n.Text == other.Text
	}
	return n.Content.Eq(other.Content)
}

// SameMarkup reports whether the nodes share type, attributes and marks.
func (n *Node) SameMarkup(other *Node) bool {
	return n.HasMarkup(other.Type, other.Attrs, other.Marks)
}

// HasMarkup reports whether the node has the given type, attributes and
// marks.
func (n *Node) HasMarkup(t *schema.NodeType, attrs map[string]any, marks []*Mark) bool {
	return n.Type == t && schema.AttrsEqual(n.Attrs, attrs) && SameMarkSet(n.Marks, marks)
}

// Copy returns a node with the same markup and the given content.
func (n *Node) Copy(content *Fragment) *Node {
	if content == n.Content {
		return n
	}
	return newNode(n.Type, n.Attrs, content, n.Marks)
}

// WithMarks returns a node with the same content and the given marks.
func (n *Node) WithMarks(marks []*Mark) *Node {
	if SameMarkSet(marks, n.Marks) {
		return n
	}
	if n.IsText() {
		return &Node{Type: n.Type, Text: n.Text, Content: EmptyFragment, Marks: marks, textSize: n.textSize}
	}
	return newNode(n.Type, n.Attrs, n.Content, marks)
}

func (n *Node) withText(text string) *Node {
	if text == n.Text {
		return n
	}
	return &Node{Type: n.Type, Text: text, Content: EmptyFragment, Marks: n.Marks, textSize: utf8.RuneCountInString(text)}
}

// Cut returns the node restricted to [from, to) of its content. For text
// nodes the offsets count code points.
func (n *Node) Cut(from, to int) *Node {
	if n.IsText() {
		if from == 0 && to == n.textSize {
			return n
		}
		return n.withText(runeSlice(n.Text, from, to))
	}
	if from == 0 && to == n.Content.Size() {
		return n
	}
	return n.Copy(n.Content.Cut(from, to))
}

// Slice returns the content between two positions as a Slice. Depths
// above the innermost common ancestor are open.
func (n *Node) Slice(from, to int, includeParents bool) (*Slice, error) {
	if from == to {
		return EmptySlice, nil
	}
	rFrom, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	rTo, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	depth := 0
	if !includeParents {
		depth = rFrom.SharedDepth(to)
	}
	start := rFrom.Start(depth)
	node := rFrom.Node(depth)
	content := node.Content.Cut(rFrom.Pos-start, rTo.Pos-start)
	return NewSlice(content, rFrom.Depth-depth, rTo.Depth-depth), nil
}

// Replace replaces [from, to) with slice, returning the new node. The
// receiver is unchanged and untouched subtrees are shared.
func (n *Node) Replace(from, to int, slice *Slice) (*Node, error) {
	rFrom, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	rTo, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	return replace(rFrom, rTo, slice)
}

// NodeAt returns the node starting directly at pos, or nil.
func (n *Node) NodeAt(pos int) *Node {
	for node := n; ; {
		index, offset := node.Content.FindIndex(pos, 0)
		child := node.Content.MaybeChild(index)
		if child == nil {
			return nil
		}
		if offset == pos || child.IsText() {
			return child
		}
		pos -= offset + 1
		node = child
	}
}

// ChildAfter returns the direct child after pos with its index and offset.
func (n *Node) ChildAfter(pos int) (child *Node, index, offset int) {
	index, offset = n.Content.FindIndex(pos, 0)
	return n.Content.MaybeChild(index), index, offset
}

// ChildBefore returns the direct child before pos with its index and
// offset.
func (n *Node) ChildBefore(pos int) (child *Node, index, offset int) {
	if pos == 0 {
		return nil, 0, 0
	}
	index, offset = n.Content.FindIndex(pos, 0)
	if offset < pos {
		return n.Content.Child(index), index, offset
	}
	child = n.Content.Child(index - 1)
	return child, index - 1, offset - child.NodeSize()
}

// RangeHasMark reports whether any inline node in [from, to) carries a mark
// of type t.
func (n *Node) RangeHasMark(from, to int, t *schema.MarkType) bool {
	found := false
	if to > from {
		n.NodesBetween(from, to, func(child *Node, _ int, _ *Node, _ int) bool {
			if MarkTypeInSet(t, child.Marks) != nil {
				found = true
			}
			return !found
		})
	}
	return found
}

// String renders the node in a compact debugging notation.
func (n *Node) String() string {
	if n.IsText() {
		s := strconv.Quote(n.Text)
		for i := len(n.Marks) - 1; i >= 0; i-- {
			s = n.Marks[i].Type.Name + "(" + s + ")"
		}
		return s
	}
	name := n.Type.Name
	if n.Content.ChildCount() > 0 {
		s := n.Content.String()
		name += "(" + s[1:len(s)-1] + ")"
	}
	for i := len(n.Marks) - 1; i >= 0; i-- {
		name = n.Marks[i].Type.Name + "(" + name + ")"
	}
	return name
}

// runeSlice returns s[from:to] counted in code points.
func runeSlice(s string, from, to int) string {
	if from <= 0 && to >= len(s) && utf8.RuneCountInString(s) <= to {
		return s
	}
	var b strings.Builder
	i := 0
	for _, r := range s {
		if i >= to {
			break
		}
		if i >= from {
			b.WriteRune(r)
		}
		i++
	}
	return b.String()
}
