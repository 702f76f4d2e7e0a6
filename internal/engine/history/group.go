package history

// BeginGroup starts a transaction group.
// Transactions recorded while grouping are combined into a single undo unit.
func (h *History) BeginGroup(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.grouping {
		// Already grouping, ignore nested calls
		return
	}

	h.grouping = true
	h.groupName = name
	h.groupUnit = nil
}

// EndGroup finishes a transaction group. The next transaction starts a new
// unit.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.grouping {
		return
	}
	h.grouping = false
	h.groupUnit = nil
	h.breakGroup = true
}

// CancelGroup drops the group's undo unit.
// Note: the grouped changes stay in the document; older units are remapped
// over them.
func (h *History) CancelGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.grouping {
		return
	}
	h.grouping = false
	u := h.groupUnit
	h.groupUnit = nil
	h.breakGroup = true

	n := len(h.undoStack)
	if u == nil || n == 0 || h.undoStack[n-1] != u {
		return
	}
	h.undoStack = rebaseStack(h.undoStack[:n-1], forwardMapping(u))
}

// IsGrouping returns true if currently in a transaction group.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.grouping
}

// GroupScope provides a convenient way to group transactions using defer.
// Usage:
//
//	func doComplexEdit(e *engine.Engine) {
//	    defer e.History().GroupScope("Complex Edit").End()
//	    // ... multiple dispatches ...
//	}
type GroupScope struct {
	history *History
	active  bool
}

// GroupScope starts a new group scope.
// Call End() or use with defer to properly close the group.
func (h *History) GroupScope(name string) *GroupScope {
	h.BeginGroup(name)
	return &GroupScope{
		history: h,
		active:  true,
	}
}

// End ends the group scope.
// Safe to call multiple times; only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.history.EndGroup()
		g.active = false
	}
}

// Cancel cancels the group scope without keeping an undo unit.
func (g *GroupScope) Cancel() {
	if g.active {
		g.history.CancelGroup()
		g.active = false
	}
}

// Group runs fn within a grouped undo context.
// If fn returns an error, the group is cancelled.
func (h *History) Group(name string, fn func() error) error {
	h.BeginGroup(name)

	if err := fn(); err != nil {
		h.CancelGroup()
		return err
	}

	h.EndGroup()
	return nil
}

// Checkpoint represents a point in history that can be returned to.
type Checkpoint struct {
	undoDepth int
}

// Depth returns the number of undo units at the checkpoint.
func (c Checkpoint) Depth() int { return c.undoDepth }

// CreateCheckpoint creates a checkpoint at the current history position.
func (h *History) CreateCheckpoint() Checkpoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Checkpoint{undoDepth: len(h.undoStack)}
}
