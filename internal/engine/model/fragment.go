package model

import "strings"

// Fragment is an immutable sequence of child nodes. Adjacent text nodes
// with identical marks are always merged and empty text nodes dropped.
type Fragment struct {
	content []*Node
	size    int
}

// EmptyFragment is the fragment without children.
var EmptyFragment = &Fragment{}

// FragmentFrom builds a normalised fragment from nodes.
func FragmentFrom(nodes ...*Node) *Fragment {
	if len(nodes) == 0 {
		return EmptyFragment
	}
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		out = appendNode(out, n)
	}
	return newFragment(out)
}

// appendNode adds n to nodes, merging it into a trailing text node with the
// same marks.
func appendNode(nodes []*Node, n *Node) []*Node {
	if n.IsText() {
		if n.Text == "" {
			return nodes
		}
		if last := len(nodes) - 1; last >= 0 && nodes[last].IsText() && SameMarkSet(nodes[last].Marks, n.Marks) {
			nodes[last] = nodes[last].withText(nodes[last].Text + n.Text)
			return nodes
		}
	}
	return append(nodes, n)
}

func newFragment(nodes []*Node) *Fragment {
	if len(nodes) == 0 {
		return EmptyFragment
	}
	size := 0
	for _, n := range nodes {
		size += n.NodeSize()
	}
	return &Fragment{content: nodes, size: size}
}

// Size returns the total position size of the children.
func (f *Fragment) Size() int { return f.size }

// ChildCount returns the number of children.
func (f *Fragment) ChildCount() int { return len(f.content) }

// Child returns the i-th child. It panics when i is out of range.
func (f *Fragment) Child(i int) *Node { return f.content[i] }

// MaybeChild returns the i-th child or nil.
func (f *Fragment) MaybeChild(i int) *Node {
	if i < 0 || i >= len(f.content) {
		return nil
	}
	return f.content[i]
}

// FirstChild returns the first child or nil.
func (f *Fragment) FirstChild() *Node { return f.MaybeChild(0) }

// LastChild returns the last child or nil.
func (f *Fragment) LastChild() *Node { return f.MaybeChild(len(f.content) - 1) }

// Children returns a copy of the child list.
func (f *Fragment) Children() []*Node {
	return append([]*Node(nil), f.content...)
}

// ForEach calls fn for each child with its offset and index.
func (f *Fragment) ForEach(fn func(n *Node, offset, index int)) {
	pos := 0
	for i, n := range f.content {
		fn(n, pos, i)
		pos += n.NodeSize()
	}
}

// NodesBetween calls fn for every node overlapping [from, to), descending
// into a node only when fn returns true. pos is absolute, offset by
// nodeStart.
func (f *Fragment) NodesBetween(from, to int, fn func(n *Node, pos int, parent *Node, index int) bool, nodeStart int, parent *Node) {
	pos := 0
	for i := 0; pos < to && i < len(f.content); i++ {
		child := f.content[i]
		end := pos + child.NodeSize()
		if end > from && fn(child, nodeStart+pos, parent, i) && child.Content.Size() > 0 {
			start := pos + 1
			child.Content.NodesBetween(max(0, from-start), min(child.Content.Size(), to-start), fn, nodeStart+start, child)
		}
		pos = end
	}
}

// TextBetween concatenates the text in [from, to). blockSep is inserted
// between textblocks and leafText stands in for inline leaves.
func (f *Fragment) TextBetween(from, to int, blockSep, leafText string) string {
	var b strings.Builder
	first := true
	f.NodesBetween(from, to, func(n *Node, pos int, _ *Node, _ int) bool {
		var text string
		switch {
		case n.IsText():
			text = runeSlice(n.Text, max(from, pos)-pos, to-pos)
		case n.IsLeaf():
			text = leafText
		}
		if blockSep != "" && ((n.IsBlock() && n.IsLeaf() && text != "") || n.IsTextblock()) {
			if first {
				first = false
			} else {
				b.WriteString(blockSep)
			}
		}
		b.WriteString(text)
		return true
	}, 0, nil)
	return b.String()
}

// Append concatenates two fragments, merging text at the joint.
func (f *Fragment) Append(other *Fragment) *Fragment {
	if other.size == 0 {
		return f
	}
	if f.size == 0 {
		return other
	}
	out := make([]*Node, 0, len(f.content)+len(other.content))
	out = append(out, f.content...)
	for _, n := range other.content {
		out = appendNode(out, n)
	}
	return newFragment(out)
}

// Cut returns the part of the fragment between two positions.
func (f *Fragment) Cut(from, to int) *Fragment {
	if from == 0 && to == f.size {
		return f
	}
	var result []*Node
	if to > from {
		pos := 0
		for i := 0; pos < to && i < len(f.content); i++ {
			child := f.content[i]
			end := pos + child.NodeSize()
			if end > from {
				if pos < from || end > to {
					if child.IsText() {
						child = child.Cut(max(0, from-pos), min(child.NodeSize(), to-pos))
					} else {
						child = child.Cut(max(0, from-pos-1), min(child.Content.Size(), to-pos-1))
					}
				}
				result = append(result, child)
			}
			pos = end
		}
	}
	return newFragment(result)
}

// CutByIndex returns the children in [from, to).
func (f *Fragment) CutByIndex(from, to int) *Fragment {
	if from == to {
		return EmptyFragment
	}
	if from == 0 && to == len(f.content) {
		return f
	}
	return newFragment(append([]*Node(nil), f.content[from:to]...))
}

// ReplaceChild returns a fragment with the i-th child replaced.
func (f *Fragment) ReplaceChild(i int, n *Node) *Fragment {
	if f.content[i] == n {
		return f
	}
	out := append([]*Node(nil), f.content...)
	out[i] = n
	return FragmentFrom(out...)
}

// AddToStart prepends a node.
func (f *Fragment) AddToStart(n *Node) *Fragment {
	return FragmentFrom(append([]*Node{n}, f.content...)...)
}

// AddToEnd appends a node.
func (f *Fragment) AddToEnd(n *Node) *Fragment {
	return f.Append(FragmentFrom(n))
}

// Eq compares two fragments structurally.
func (f *Fragment) Eq(other *Fragment) bool {
	if f == other {
		return true
	}
	if len(f.content) != len(other.content) {
		return false
	}
	for i := range f.content {
		if !f.content[i].Eq(other.content[i]) {
			return false
		}
	}
	return true
}

// FindIndex locates the child at pos. It returns the index and the start
// offset of that child. A pos at a child boundary resolves to the child
// after it, or with round > 0 to the end of the child containing pos.
func (f *Fragment) FindIndex(pos, round int) (index, offset int) {
	if pos == 0 {
		return 0, 0
	}
	if pos == f.size {
		return len(f.content), pos
	}
	cur := 0
	for i, child := range f.content {
		end := cur + child.NodeSize()
		if end >= pos {
			if end == pos || round > 0 {
				return i + 1, end
			}
			return i, cur
		}
		cur = end
	}
	return len(f.content), f.size
}

// FindDiffStart returns the first position at which the fragments differ,
// or -1 when they are equal.
func (f *Fragment) FindDiffStart(other *Fragment, pos int) int {
	for i := 0; ; i++ {
		if i == len(f.content) || i == len(other.content) {
			if len(f.content) == len(other.content) {
				return -1
			}
			return pos
		}
		a, b := f.content[i], other.content[i]
		if a == b {
			pos += a.NodeSize()
			continue
		}
		if !a.SameMarkup(b) {
			return pos
		}
		if a.IsText() && a.Text != b.Text {
			ra, rb := []rune(a.Text), []rune(b.Text)
			for j := 0; j < len(ra) && j < len(rb) && ra[j] == rb[j]; j++ {
				pos++
			}
			return pos
		}
		if a.Content.Size() > 0 || b.Content.Size() > 0 {
			if inner := a.Content.FindDiffStart(b.Content, pos+1); inner >= 0 {
				return inner
			}
		}
		pos += a.NodeSize()
	}
}

func (f *Fragment) String() string {
	parts := make([]string, len(f.content))
	for i, n := range f.content {
		parts[i] = n.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
