package model

import (
	"fmt"
	"strconv"

	"github.com/dshills/scribe/internal/engine/schema"
)

// MatchFragment runs the children of frag in [start, end) through m and
// returns the resulting state, or nil when they do not match.
func MatchFragment(m *schema.ContentMatch, frag *Fragment, start, end int) *schema.ContentMatch {
	cur := m
	for i := start; cur != nil && i < end; i++ {
		cur = cur.MatchType(frag.Child(i).Type)
	}
	return cur
}

// FillBefore finds the smallest set of generatable nodes that, inserted at
// m, let after (from startIndex) match. With toEnd the result must also
// leave the matcher in a valid end state.
func FillBefore(m *schema.ContentMatch, after *Fragment, toEnd bool, startIndex int) (*Fragment, bool) {
	seen := []*schema.ContentMatch{m}
	var search func(match *schema.ContentMatch, types []*schema.NodeType) (*Fragment, bool)
	search = func(match *schema.ContentMatch, types []*schema.NodeType) (*Fragment, bool) {
		finished := MatchFragment(match, after, startIndex, after.ChildCount())
		if finished != nil && (!toEnd || finished.ValidEnd) {
			nodes := make([]*Node, 0, len(types))
			for _, t := range types {
				n, err := CreateAndFill(t, nil, nil, nil)
				if err != nil {
					return nil, false
				}
				nodes = append(nodes, n)
			}
			return FragmentFrom(nodes...), true
		}
		for i := 0; i < match.EdgeCount(); i++ {
			edge := match.Edge(i)
			if edge.Type.IsText() || edge.Type.HasRequiredAttrs() || containsMatch(seen, edge.Next) {
				continue
			}
			seen = append(seen, edge.Next)
			next := append(append([]*schema.NodeType(nil), types...), edge.Type)
			if found, ok := search(edge.Next, next); ok {
				return found, true
			}
		}
		return nil, false
	}
	return search(m, nil)
}

func containsMatch(list []*schema.ContentMatch, m *schema.ContentMatch) bool {
	for _, x := range list {
		if x == m {
			return true
		}
	}
	return false
}

// CreateAndFill creates a node of type t, adding the minimal content needed
// before and after content to make it valid.
func CreateAndFill(t *schema.NodeType, attrs map[string]any, content *Fragment, marks []*Mark) (*Node, error) {
	computed, err := t.ComputeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	if content == nil {
		content = EmptyFragment
	}
	if content.Size() > 0 {
		before, ok := FillBefore(t.ContentMatch(), content, false, 0)
		if !ok {
			return nil, fmt.Errorf("%w: cannot fill %s", ErrInvalidContent, t.Name)
		}
		content = before.Append(content)
	}
	matched := MatchFragment(t.ContentMatch(), content, 0, content.ChildCount())
	if matched == nil {
		return nil, fmt.Errorf("%w: cannot fill %s", ErrInvalidContent, t.Name)
	}
	after, ok := FillBefore(matched, EmptyFragment, true, 0)
	if !ok {
		return nil, fmt.Errorf("%w: cannot fill %s", ErrInvalidContent, t.Name)
	}
	return newNode(t, computed, content.Append(after), MarkSetFrom(marks...)), nil
}

// checkContent checks a fragment against the content expression and mark
// rules of t.
func checkContent(t *schema.NodeType, content *Fragment) error {
	m := MatchFragment(t.ContentMatch(), content, 0, content.ChildCount())
	if m == nil || !m.ValidEnd {
		return &ReplaceError{
			Reason: fmt.Sprintf("invalid content for node %s: %s", t.Name, abbreviate(content.String())),
			Err:    ErrInvalidContent,
		}
	}
	for i := 0; i < content.ChildCount(); i++ {
		for _, mk := range content.Child(i).Marks {
			if !t.AllowsMarkType(mk.Type) {
				return &ReplaceError{
					Reason: fmt.Sprintf("mark %s not allowed in %s", mk.Type.Name, t.Name),
					Err:    ErrInvalidContent,
				}
			}
		}
	}
	return nil
}

func abbreviate(s string) string {
	if len(s) > 60 {
		return s[:57] + "..."
	}
	return s
}

// ContentMatchAt returns the matcher state after the first index children.
func (n *Node) ContentMatchAt(index int) *schema.ContentMatch {
	return MatchFragment(n.Type.ContentMatch(), n.Content, 0, index)
}

// CanReplace reports whether replacing the children in [from, to) with
// the children of replacement in [start, end) leaves valid content.
func (n *Node) CanReplace(from, to int, replacement *Fragment, start, end int) bool {
	one := MatchFragment(n.ContentMatchAt(from), replacement, start, end)
	if one == nil {
		return false
	}
	two := MatchFragment(one, n.Content, to, n.ChildCount())
	if two == nil || !two.ValidEnd {
		return false
	}
	for i := start; i < end; i++ {
		for _, mk := range replacement.Child(i).Marks {
			if !n.Type.AllowsMarkType(mk.Type) {
				return false
			}
		}
	}
	return true
}

// CanReplaceWith reports whether the children in [from, to) can be
// replaced by a single node of type t.
func (n *Node) CanReplaceWith(from, to int, t *schema.NodeType) bool {
	start := n.ContentMatchAt(from)
	if start == nil {
		return false
	}
	m := start.MatchType(t)
	if m == nil {
		return false
	}
	end := MatchFragment(m, n.Content, to, n.ChildCount())
	return end != nil && end.ValidEnd
}

// Check validates the whole tree against its schema. The error names the
// deepest failing node, since children are checked before their parent.
func (n *Node) Check() error {
	return n.check([]string{n.Type.Name})
}

func (n *Node) check(path []string) error {
	fail := func(reason string, err error) error {
		return &schema.SchemaError{Path: append([]string(nil), path...), Reason: reason, Err: err}
	}

	if n.IsText() {
		if n.Text == "" {
			return fail("empty text node", ErrEmptyText)
		}
	} else {
		for i := 0; i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child.Type.Schema() != n.Type.Schema() {
				return fail(fmt.Sprintf("child %d has type %s from another schema", i, child.Type.Name), schema.ErrUnknownType)
			}
			childPath := append(append([]string(nil), path...), child.Type.Name+"["+strconv.Itoa(i)+"]")
			if err := child.check(childPath); err != nil {
				return err
			}
		}
		if err := checkContent(n.Type, n.Content); err != nil {
			var reason string
			if re, ok := err.(*ReplaceError); ok {
				reason = re.Reason
			} else {
				reason = err.Error()
			}
			return fail(reason, ErrInvalidContent)
		}
		if err := n.Type.CheckAttrs(n.Attrs); err != nil {
			return fail(err.Error(), err)
		}
	}

	var set []*Mark
	for _, m := range n.Marks {
		if m.Type.Schema() != n.Type.Schema() {
			return fail("mark "+m.Type.Name+" from another schema", schema.ErrUnknownMark)
		}
		if err := m.Type.CheckAttrs(m.Attrs); err != nil {
			return fail(err.Error(), err)
		}
		set = m.AddToSet(set)
	}
	if !SameMarkSet(set, n.Marks) {
		return fail("invalid collection of marks", ErrInvalidContent)
	}
	return nil
}
