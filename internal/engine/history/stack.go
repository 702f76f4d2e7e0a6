package history

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

const (
	// DefaultMaxEntries is the undo depth used when none is configured.
	DefaultMaxEntries = 100

	// DefaultNewGroupDelay is the window in which consecutive transactions
	// coalesce into one undo unit.
	DefaultNewGroupDelay = 500 * time.Millisecond

	// MetaDescription is the transaction meta key holding a human-readable
	// label for the undo unit.
	MetaDescription = "description"

	metaUnit = "history.unit"
)

// unit is one undo or redo step: the steps that revert a group of
// transactions, in application order, plus the selection to restore.
type unit struct {
	steps       []transform.Step
	selection   state.Selection
	timestamp   time.Time
	description string
}

// OperationInfo describes an undo or redo unit.
type OperationInfo struct {
	Description string
	Timestamp   time.Time
	Steps       int
}

func (u *unit) info() OperationInfo {
	return OperationInfo{Description: u.description, Timestamp: u.timestamp, Steps: len(u.steps)}
}

// History manages the undo and redo stacks of one document.
type History struct {
	mu sync.Mutex

	undoStack []*unit
	redoStack []*unit

	// Grouping state
	grouping  bool
	groupName string
	groupUnit *unit

	// Coalescing state
	lastTime    time.Time
	breakGroup  bool
	newGroupDel time.Duration

	// Configuration
	maxEntries int
}

// NewHistory creates a new history manager.
func NewHistory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{
		maxEntries:  maxEntries,
		newGroupDel: DefaultNewGroupDelay,
		breakGroup:  true,
	}
}

// SetNewGroupDelay sets the coalescing window. Zero disables time based
// coalescing.
func (h *History) SetNewGroupDelay(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.newGroupDel = d
}

// NewGroupDelay returns the coalescing window.
func (h *History) NewGroupDelay() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.newGroupDel
}

// Record updates the stacks for a transaction that was committed.
//
// Undo and redo transactions move their unit to the opposite stack.
// Transactions with AddToHistory false do not create units; existing units
// are remapped through their changes. Other document changes either join
// the top unit or push a new one and clear the redo stack.
func (h *History) Record(tr *state.Transaction) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch tr.Origin() {
	case state.OriginUndo:
		return h.recordMove(tr, &h.undoStack, &h.redoStack)
	case state.OriginRedo:
		return h.recordMove(tr, &h.redoStack, &h.undoStack)
	}

	if !tr.DocChanged() {
		h.breakGroup = true
		return nil
	}

	if !tr.AddToHistory() {
		m := tr.Mapping()
		h.undoStack = rebaseStack(h.undoStack, m)
		h.redoStack = rebaseStack(h.redoStack, m)
		h.breakGroup = true
		return nil
	}

	inverted, err := transform.InvertSteps(tr.Before(), tr.Steps())
	if err != nil {
		return err
	}

	h.redoStack = nil
	h.pushLocked(inverted, tr)
	return nil
}

// pushLocked adds inverted steps to the undo stack, joining the top unit
// when grouping or within the coalescing window.
func (h *History) pushLocked(inverted []transform.Step, tr *state.Transaction) {
	t := tr.Time()
	defer func() {
		h.lastTime = t
		h.breakGroup = false
	}()

	if h.grouping && h.groupUnit != nil {
		h.groupUnit.steps = append(inverted, h.groupUnit.steps...)
		h.groupUnit.timestamp = t
		return
	}

	if !h.grouping && h.canJoinLocked(t) {
		top := h.undoStack[len(h.undoStack)-1]
		top.steps = append(inverted, top.steps...)
		top.timestamp = t
		return
	}

	u := &unit{
		steps:       inverted,
		selection:   tr.SelectionBefore(),
		timestamp:   t,
		description: describe(tr),
	}
	if h.grouping {
		u.description = h.groupName
		h.groupUnit = u
	}
	h.undoStack = append(h.undoStack, u)
	h.trimLocked()
}

func (h *History) canJoinLocked(t time.Time) bool {
	if h.breakGroup || len(h.undoStack) == 0 || h.newGroupDel <= 0 {
		return false
	}
	return t.Sub(h.lastTime) < h.newGroupDel
}

func (h *History) trimLocked() {
	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// recordMove pops the unit a transaction was built from and pushes the
// inverse of the transaction onto the other stack.
func (h *History) recordMove(tr *state.Transaction, from, to *[]*unit) error {
	v, _ := tr.GetMeta(metaUnit)
	u, _ := v.(*unit)
	n := len(*from)
	if u == nil || n == 0 || (*from)[n-1] != u {
		return nil
	}
	inverted, err := transform.InvertSteps(tr.Before(), tr.Steps())
	if err != nil {
		return err
	}
	*from = (*from)[:n-1]
	*to = append(*to, &unit{
		steps:       inverted,
		selection:   tr.SelectionBefore(),
		timestamp:   u.timestamp,
		description: u.description,
	})
	h.breakGroup = true
	return nil
}

// Undo builds the transaction that reverts the newest unit. The unit moves
// to the redo stack when the transaction is recorded.
func (h *History) Undo(st *state.State) (*state.Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return nil, ErrNothingToUndo
	}
	return buildTransaction(st, h.undoStack[len(h.undoStack)-1], state.OriginUndo)
}

// Redo builds the transaction that reapplies the newest undone unit.
func (h *History) Redo(st *state.State) (*state.Transaction, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}
	return buildTransaction(st, h.redoStack[len(h.redoStack)-1], state.OriginRedo)
}

func buildTransaction(st *state.State, u *unit, origin state.Origin) (*state.Transaction, error) {
	tr := st.Tr()
	for _, s := range u.steps {
		if err := tr.Step(s); err != nil {
			return nil, err
		}
	}
	tr.SetSelection(u.selection)
	tr.SetOrigin(origin)
	tr.SetAddToHistory(false)
	tr.SetMeta(metaUnit, u)
	return tr, nil
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo units available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo units available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// Clear removes all undo/redo history.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = nil
	h.redoStack = nil
	h.grouping = false
	h.groupUnit = nil
	h.breakGroup = true
}

// UndoInfo returns info about available undo units, oldest first.
func (h *History) UndoInfo() []OperationInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return infos(h.undoStack)
}

// RedoInfo returns info about available redo units, oldest first.
func (h *History) RedoInfo() []OperationInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return infos(h.redoStack)
}

func infos(stack []*unit) []OperationInfo {
	result := make([]OperationInfo, len(stack))
	for i, u := range stack {
		result[i] = u.info()
	}
	return result
}

// PeekUndo returns info about the next undo unit without removing it.
func (h *History) PeekUndo() (OperationInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return OperationInfo{}, false
	}
	return h.undoStack[len(h.undoStack)-1].info(), true
}

// PeekRedo returns info about the next redo unit without removing it.
func (h *History) PeekRedo() (OperationInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return OperationInfo{}, false
	}
	return h.redoStack[len(h.redoStack)-1].info(), true
}

// SetMaxEntries changes the maximum number of undo units.
// If the current stack is larger, oldest units are removed.
func (h *History) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.maxEntries = max
	h.trimLocked()
}

// MaxEntries returns the maximum number of undo units.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}

func describe(tr *state.Transaction) string {
	if v, ok := tr.GetMeta(MetaDescription); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
