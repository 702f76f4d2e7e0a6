package model

// ResolvedPos is a position with context: the chain of ancestors it lies
// in, the child index at each level and the offset into its parent.
type ResolvedPos struct {
	Pos          int
	Depth        int
	ParentOffset int

	nodes   []*Node
	indices []int
	offsets []int
}

// Resolve resolves pos within the node's content.
func (n *Node) Resolve(pos int) (*ResolvedPos, error) {
	if pos < 0 || pos > n.Content.Size() {
		return nil, outOfRange(pos, n.Content.Size())
	}
	r := &ResolvedPos{Pos: pos}
	start := 0
	parentOffset := pos
	for node := n; ; {
		index, offset := node.Content.FindIndex(parentOffset, 0)
		rem := parentOffset - offset
		r.nodes = append(r.nodes, node)
		r.indices = append(r.indices, index)
		r.offsets = append(r.offsets, start+offset)
		if rem == 0 {
			break
		}
		node = node.Child(index)
		if node.IsText() {
			break
		}
		parentOffset = rem - 1
		start += offset + 1
	}
	r.Depth = len(r.nodes) - 1
	r.ParentOffset = parentOffset
	return r, nil
}

// Node returns the ancestor at depth. Depth 0 is the root.
func (r *ResolvedPos) Node(depth int) *Node { return r.nodes[depth] }

// Parent returns the innermost ancestor.
func (r *ResolvedPos) Parent() *Node { return r.nodes[r.Depth] }

// Doc returns the root node.
func (r *ResolvedPos) Doc() *Node { return r.nodes[0] }

// Index returns the child index in the ancestor at depth.
func (r *ResolvedPos) Index(depth int) int { return r.indices[depth] }

// IndexAfter returns the index pointing after this position in the
// ancestor at depth.
func (r *ResolvedPos) IndexAfter(depth int) int {
	if depth == r.Depth && r.TextOffset() == 0 {
		return r.indices[depth]
	}
	return r.indices[depth] + 1
}

// Start returns the position at which the content of the ancestor at depth
// starts.
func (r *ResolvedPos) Start(depth int) int {
	if depth == 0 {
		return 0
	}
	return r.offsets[depth-1] + 1
}

// End returns the position at which the content of the ancestor at depth
// ends.
func (r *ResolvedPos) End(depth int) int {
	return r.Start(depth) + r.nodes[depth].Content.Size()
}

// Before returns the position directly before the ancestor at depth.
// depth must be at least 1.
func (r *ResolvedPos) Before(depth int) int {
	if depth == r.Depth+1 {
		return r.Pos
	}
	return r.offsets[depth-1]
}

// After returns the position directly after the ancestor at depth.
// depth must be at least 1.
func (r *ResolvedPos) After(depth int) int {
	if depth == r.Depth+1 {
		return r.Pos
	}
	return r.offsets[depth-1] + r.nodes[depth].NodeSize()
}

// TextOffset returns how far into a text node the position lies.
func (r *ResolvedPos) TextOffset() int {
	return r.Pos - r.offsets[len(r.offsets)-1]
}

// NodeAfter returns the node directly after the position, cutting a text
// node when the position lies inside it.
func (r *ResolvedPos) NodeAfter() *Node {
	parent := r.Parent()
	index := r.indices[r.Depth]
	if index == parent.ChildCount() {
		return nil
	}
	child := parent.Child(index)
	if off := r.TextOffset(); off > 0 {
		return child.Cut(off, child.NodeSize())
	}
	return child
}

// NodeBefore returns the node directly before the position.
func (r *ResolvedPos) NodeBefore() *Node {
	index := r.indices[r.Depth]
	if off := r.TextOffset(); off > 0 {
		return r.Parent().Child(index).Cut(0, off)
	}
	if index == 0 {
		return nil
	}
	return r.Parent().Child(index - 1)
}

// PosAtIndex returns the position of the child at index in the ancestor at
// depth.
func (r *ResolvedPos) PosAtIndex(index, depth int) int {
	node := r.nodes[depth]
	pos := r.Start(depth)
	for i := 0; i < index; i++ {
		pos += node.Child(i).NodeSize()
	}
	return pos
}

// Marks returns the marks that text inserted here would get. A mark that
// is not inclusive is only kept when the node after the position also has
// it.
func (r *ResolvedPos) Marks() []*Mark {
	parent := r.Parent()
	index := r.indices[r.Depth]
	if parent.Content.Size() == 0 {
		return nil
	}
	if r.TextOffset() > 0 {
		return parent.Child(index).Marks
	}
	main := parent.MaybeChild(index - 1)
	other := parent.MaybeChild(index)
	if main == nil {
		main, other = other, main
	}
	if main == nil {
		return nil
	}
	marks := main.Marks
	for i := 0; i < len(marks); i++ {
		m := marks[i]
		if !m.Type.Inclusive() && (other == nil || !m.IsInSet(other.Marks)) {
			marks = m.RemoveFromSet(marks)
			i--
		}
	}
	return marks
}

// SharedDepth returns the depth of the deepest ancestor that also contains
// pos.
func (r *ResolvedPos) SharedDepth(pos int) int {
	for depth := r.Depth; depth > 0; depth-- {
		if r.Start(depth) <= pos && r.End(depth) >= pos {
			return depth
		}
	}
	return 0
}

// SameParent reports whether both positions lie directly in the same node.
func (r *ResolvedPos) SameParent(other *ResolvedPos) bool {
	return r.Pos-r.ParentOffset == other.Pos-other.ParentOffset
}
