package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dshills/scribe/internal/engine/commands"
	"github.com/dshills/scribe/internal/engine/history"
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/notify"
	"github.com/dshills/scribe/internal/engine/schema"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/tracking"
	"github.com/dshills/scribe/internal/logging"
	"github.com/dshills/scribe/internal/metrics"
)

// Re-export commonly used types for convenience.
type (
	// Selection is a selected range of the document.
	Selection = state.Selection

	// Transaction is a batch of steps plus selection and metadata.
	Transaction = state.Transaction

	// ChangeRecord is a tracked change.
	ChangeRecord = tracking.ChangeRecord

	// Decoration is a presentation overlay for a tracked change.
	Decoration = tracking.Decoration

	// Event is a content-changed notification.
	Event = notify.Event

	// Checkpoint marks a position in the undo history.
	Checkpoint = history.Checkpoint

	// Command builds a transaction from the current state.
	Command = commands.Command
)

// Engine is the document cell: it owns the current state and runs every
// transaction through validation, history, change tracking, metrics and
// notification.
//
// All operations are thread-safe and can be called from multiple goroutines.
// Observers are called synchronously after the engine lock is released, so
// they may read from the engine.
type Engine struct {
	mu sync.RWMutex

	// Core components
	schema   *schema.Schema
	st       *state.State
	version  uint64
	history  *history.History
	tracker  *tracking.Tracker
	notifier *notify.Notifier
	keymap   *commands.Keymap

	// Ambient
	id      string
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	// Configuration
	editable       bool
	strict         bool
	tracking       bool
	trackUser      string
	maxUndoEntries int
	newGroupDelay  time.Duration

	// Initialization
	init func(*schema.Schema) (*model.Node, error)
}

// New creates an Engine with the given options. Without content options
// the document is the schema's smallest valid document.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		schema:         schema.Basic(),
		editable:       true,
		trackUser:      DefaultTrackingUser,
		maxUndoEntries: DefaultMaxUndoEntries,
		newGroupDelay:  DefaultNewGroupDelay,
		logger:         logging.NewNop(),
		now:            time.Now,
	}

	// Apply options to get configuration
	for _, opt := range opts {
		opt(e)
	}

	doc, err := e.initialDoc()
	if err != nil {
		return nil, err
	}
	if err := e.checkDoc(doc); err != nil {
		return nil, err
	}
	e.st = state.New(doc)

	e.history = history.NewHistory(e.maxUndoEntries)
	e.history.SetNewGroupDelay(e.newGroupDelay)
	e.tracker = tracking.NewTracker(tracking.WithEnabled(e.tracking))
	e.notifier = notify.New()
	e.keymap = e.buildKeymap()
	e.metrics.DocumentReplaced(doc.Content.Size())

	e.logger.Debug("engine created", "id", e.id, "size", doc.Content.Size(), "tracking", e.tracking)
	return e, nil
}

func (e *Engine) initialDoc() (*model.Node, error) {
	if e.init == nil {
		return model.EmptyDoc(e.schema)
	}
	return e.init(e.schema)
}

func (e *Engine) checkDoc(doc *model.Node) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	if doc.Type.Schema() != e.schema {
		return fmt.Errorf("%w: document belongs to another schema", ErrInvalidDocument)
	}
	if err := doc.Check(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return nil
}

// ============================================================================
// State access
// ============================================================================

// ID returns the engine's name.
func (e *Engine) ID() string {
	return e.id
}

// Schema returns the document schema.
func (e *Engine) Schema() *schema.Schema {
	return e.schema
}

// State returns the current state.
func (e *Engine) State() *state.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st
}

// Doc returns the current document.
func (e *Engine) Doc() *model.Node {
	return e.State().Doc
}

// Selection returns the current selection.
func (e *Engine) Selection() Selection {
	return e.State().Selection
}

// Version returns the number of document changes since creation.
func (e *Engine) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// Tr starts a transaction on the current state.
func (e *Engine) Tr() *Transaction {
	return e.State().Tr().SetTime(e.now())
}

// ============================================================================
// Dispatch
// ============================================================================

// Dispatch commits tr. Either the whole transaction applies or the engine
// is left unchanged and the error is returned. Subscribers are notified
// before Dispatch returns.
func (e *Engine) Dispatch(tr *Transaction) error {
	e.mu.Lock()
	ev, err := e.dispatchLocked(tr)
	e.mu.Unlock()

	if err != nil {
		return err
	}
	if ev != nil {
		e.notifier.Notify(*ev)
	}
	return nil
}

// run builds a transaction from the current state with build and commits
// it under one lock.
func (e *Engine) run(build func(st *state.State) (*Transaction, error)) error {
	e.mu.Lock()
	if !e.editable {
		e.mu.Unlock()
		return ErrReadOnly
	}
	tr, err := build(e.st)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	tr.SetTime(e.now())
	ev, err := e.dispatchLocked(tr)
	e.mu.Unlock()

	if err != nil {
		return err
	}
	if ev != nil {
		e.notifier.Notify(*ev)
	}
	return nil
}

func (e *Engine) dispatchLocked(tr *Transaction) (*Event, error) {
	if !e.editable {
		return nil, ErrReadOnly
	}
	if tr.Before() != e.st.Doc {
		return nil, ErrStaleTransaction
	}
	if tr.Origin() == state.OriginUser && e.tracker.Enabled() && tr.TrackChangesUser() == "" {
		tr.SetTrackChangesUser(e.trackUser)
	}

	next, err := e.st.Apply(tr)
	// Steps can apply and still leave the document as it was.
	changed := err == nil && tr.DocChanged() && !next.Doc.Eq(e.st.Doc)
	if changed && e.strict {
		if cerr := next.Doc.Check(); cerr != nil {
			err = fmt.Errorf("%w: %w", ErrInvalidDocument, cerr)
		}
	}
	historyMove := tr.Origin() == state.OriginUndo || tr.Origin() == state.OriginRedo
	if err == nil && (changed || !tr.DocChanged() || historyMove) {
		err = e.history.Record(tr)
	}
	if err != nil {
		e.metrics.TransactionRejected()
		e.logger.Warn("transaction rejected", "id", e.id, "steps", len(tr.Steps()), "origin", tr.Origin(), "error", err)
		return nil, err
	}

	prev := e.st
	var added []ChangeRecord
	if changed {
		e.version++
		var terr error
		added, terr = e.tracker.Record(tr, e.version)
		if terr != nil {
			e.logger.Warn("change tracking failed", "id", e.id, "version", e.version, "error", terr)
		}
	}
	e.st = next

	ev := &Event{
		Kind:      notify.KindContentChanged,
		Version:   e.version,
		Origin:    tr.Origin(),
		Doc:       next.Doc,
		Selection: next.Selection,
		Steps:     len(tr.Steps()),
	}
	for _, r := range added {
		ev.ChangeIDs = append(ev.ChangeIDs, r.ID)
		e.metrics.ChangeRecorded(r.Type.String())
	}

	switch tr.Origin() {
	case state.OriginUndo, state.OriginRedo:
		e.metrics.HistoryOp(tr.Origin().String())
	case state.OriginReject:
		if ids, ok := tr.GetMeta(tracking.MetaRejected); ok {
			ev.ChangeIDs, _ = ids.([]string)
			e.metrics.ChangesResolved("reject", len(ev.ChangeIDs))
		}
	}

	if !changed {
		if next.Selection == prev.Selection {
			return nil, nil
		}
		ev.Kind = notify.KindSelectionChanged
		return ev, nil
	}

	e.metrics.TransactionApplied(len(tr.Steps()), next.Doc.Content.Size())
	e.logger.Debug("transaction applied",
		"id", e.id,
		"version", e.version,
		"steps", len(tr.Steps()),
		"origin", tr.Origin(),
		"tracked", len(added),
	)
	return ev, nil
}

// Execute runs cmd against the current state and commits the result.
// It returns commands.ErrNotApplicable when cmd does not apply.
func (e *Engine) Execute(cmd Command) error {
	return e.run(cmd)
}

// ============================================================================
// Editing helpers
// ============================================================================

// InsertText replaces the selection with text.
func (e *Engine) InsertText(text string) error {
	return e.Execute(commands.InsertText(text))
}

// SetSelection moves the selection. It is clamped to the document.
func (e *Engine) SetSelection(sel Selection) error {
	return e.run(func(st *state.State) (*Transaction, error) {
		return st.Tr().SetSelection(sel), nil
	})
}

// ============================================================================
// Undo/Redo
// ============================================================================

// Undo reverts the most recent history unit.
func (e *Engine) Undo() error {
	return e.run(e.history.Undo)
}

// Redo re-applies the most recently undone unit.
func (e *Engine) Redo() error {
	return e.run(e.history.Redo)
}

// CanUndo returns true if there are operations to undo.
func (e *Engine) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo returns true if there are operations to redo.
func (e *Engine) CanRedo() bool {
	return e.history.CanRedo()
}

// UndoCount returns the number of undoable units.
func (e *Engine) UndoCount() int {
	return e.history.UndoCount()
}

// RedoCount returns the number of redoable units.
func (e *Engine) RedoCount() int {
	return e.history.RedoCount()
}

// BeginUndoGroup merges the following transactions into one undo unit
// until EndUndoGroup.
func (e *Engine) BeginUndoGroup(name string) {
	e.history.BeginGroup(name)
}

// EndUndoGroup closes the current undo group.
func (e *Engine) EndUndoGroup() {
	e.history.EndGroup()
}

// CancelUndoGroup closes the current group and drops it from the history.
// The document keeps its changes.
func (e *Engine) CancelUndoGroup() {
	e.history.CancelGroup()
}

// CreateCheckpoint marks the current undo depth.
func (e *Engine) CreateCheckpoint() Checkpoint {
	return e.history.CreateCheckpoint()
}

// UndoToCheckpoint undoes units until the history is back at cp.
func (e *Engine) UndoToCheckpoint(cp Checkpoint) error {
	for e.history.UndoCount() > cp.Depth() {
		if err := e.Undo(); err != nil {
			return err
		}
	}
	return nil
}

// ClearHistory clears all undo/redo history.
func (e *Engine) ClearHistory() {
	e.history.Clear()
}

// ============================================================================
// Change tracking
// ============================================================================

// SetTracking turns change tracking on or off. Existing records are kept.
func (e *Engine) SetTracking(enabled bool) {
	e.tracker.SetEnabled(enabled)
}

// TrackingEnabled reports whether changes are being tracked.
func (e *Engine) TrackingEnabled() bool {
	return e.tracker.Enabled()
}

// SetTrackingUser sets the user new changes are attributed to.
func (e *Engine) SetTrackingUser(user string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if user == "" {
		user = DefaultTrackingUser
	}
	e.trackUser = user
}

// TrackingUser returns the user new changes are attributed to.
func (e *Engine) TrackingUser() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.trackUser
}

// Changes returns the open change records in creation order.
func (e *Engine) Changes() []ChangeRecord {
	return e.tracker.Records()
}

// ChangesSince returns the change records created after version.
func (e *Engine) ChangesSince(version uint64) []ChangeRecord {
	return e.tracker.ChangesSince(version)
}

// ChangeSummary describes the open change records.
func (e *Engine) ChangeSummary() string {
	return e.tracker.Summary()
}

// Decorations derives the decorations of the open change records over the
// current document.
func (e *Engine) Decorations() []Decoration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tracker.Decorations(e.st.Doc)
}

// Accept makes a tracked change permanent.
func (e *Engine) Accept(id string) error {
	return e.resolve(func() ([]string, error) {
		if err := e.tracker.Accept(id); err != nil {
			return nil, err
		}
		return []string{id}, nil
	})
}

// AcceptAll makes every tracked change permanent and returns how many
// there were.
func (e *Engine) AcceptAll() (int, error) {
	var n int
	err := e.resolve(func() ([]string, error) {
		records := e.tracker.Records()
		var err error
		if n, err = e.tracker.AcceptAll(); err != nil {
			return nil, err
		}
		ids := make([]string, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}
		return ids, nil
	})
	return n, err
}

func (e *Engine) resolve(accept func() ([]string, error)) error {
	e.mu.Lock()
	if !e.editable {
		e.mu.Unlock()
		return ErrReadOnly
	}
	ids, err := accept()
	if err != nil {
		e.mu.Unlock()
		return err
	}
	e.metrics.ChangesResolved("accept", len(ids))
	ev := Event{
		Kind:      notify.KindChangesResolved,
		Version:   e.version,
		Doc:       e.st.Doc,
		Selection: e.st.Selection,
		ChangeIDs: ids,
	}
	e.mu.Unlock()

	if len(ids) > 0 {
		e.notifier.Notify(ev)
	}
	return nil
}

// Reject reverts a tracked change and removes its record. It fails with
// tracking.ErrNotFound for unknown records and tracking.ErrStaleReject when
// later edits made the change unrecoverable.
func (e *Engine) Reject(id string) error {
	err := e.run(func(st *state.State) (*Transaction, error) {
		return e.tracker.Reject(id, st)
	})
	if errors.Is(err, tracking.ErrStaleReject) {
		e.logger.Warn("stale reject", "id", e.id, "change", id)
	}
	return err
}

// RejectAll reverts every tracked change it can and returns the IDs of
// those that could no longer be reverted.
func (e *Engine) RejectAll() ([]string, error) {
	var stale []string
	err := e.run(func(st *state.State) (*Transaction, error) {
		tr, s, err := e.tracker.RejectAll(st)
		stale = s
		return tr, err
	})
	if len(stale) > 0 {
		e.logger.Warn("stale reject", "id", e.id, "changes", stale)
	}
	return stale, err
}

// ExportChanges encodes the open change records as JSON.
func (e *Engine) ExportChanges() ([]byte, error) {
	return tracking.RecordsToJSON(e.tracker.Records())
}

// ImportChanges replaces the change log with records encoded by
// ExportChanges for the current document.
func (e *Engine) ImportChanges(data []byte) error {
	records, err := tracking.RecordsFromJSON(e.schema, data)
	if err != nil {
		return err
	}
	e.tracker.Restore(records)
	return nil
}

// ============================================================================
// Content
// ============================================================================

// Content serializes the current document.
func (e *Engine) Content(format Format) ([]byte, error) {
	return Encode(e.Doc(), format)
}

// ContentJSON returns the document as JSON.
func (e *Engine) ContentJSON() ([]byte, error) {
	return e.Content(FormatJSON)
}

// ContentHTML returns the document as HTML.
func (e *Engine) ContentHTML() (string, error) {
	data, err := e.Content(FormatHTML)
	return string(data), err
}

// Text returns the plain text of the document.
func (e *Engine) Text() string {
	data, _ := e.Content(FormatText)
	return string(data)
}

// IsEmpty reports whether the document holds a single empty textblock.
func (e *Engine) IsEmpty() bool {
	return IsEmptyDoc(e.Doc())
}

// SetContent replaces the document with data in format. History and the
// change log are cleared.
func (e *Engine) SetContent(format Format, data []byte) error {
	doc, err := Decode(e.schema, format, data)
	if err != nil {
		return err
	}
	return e.SetDoc(doc)
}

// SetDoc replaces the document. History and the change log are cleared.
func (e *Engine) SetDoc(doc *model.Node) error {
	if err := e.checkDoc(doc); err != nil {
		return err
	}

	e.mu.Lock()
	e.st = state.New(doc)
	e.version++
	e.history.Clear()
	e.tracker.Clear()
	e.metrics.DocumentReplaced(doc.Content.Size())
	ev := Event{
		Kind:      notify.KindContentReset,
		Version:   e.version,
		Doc:       doc,
		Selection: e.st.Selection,
	}
	e.mu.Unlock()

	e.logger.Debug("content replaced", "id", e.id, "version", ev.Version, "size", doc.Content.Size())
	e.notifier.Notify(ev)
	return nil
}

// Clear replaces the document with the schema's smallest valid document.
func (e *Engine) Clear() error {
	doc, err := model.EmptyDoc(e.schema)
	if err != nil {
		return err
	}
	return e.SetDoc(doc)
}

// ValidateNotEmpty checks that the document has content.
func (e *Engine) ValidateNotEmpty() ValidationResult {
	return ValidateNotEmpty(e.Doc())
}

// ValidateMinWords checks that the document has at least min words.
func (e *Engine) ValidateMinWords(min int) ValidationResult {
	return ValidateMinWords(e.Doc(), min)
}

// ValidateMaxWords checks that the document has at most max words.
func (e *Engine) ValidateMaxWords(max int) ValidationResult {
	return ValidateMaxWords(e.Doc(), max)
}

// ============================================================================
// Editable state and notifications
// ============================================================================

// SetEditable toggles whether edits are accepted.
func (e *Engine) SetEditable(editable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.editable = editable
}

// IsEditable reports whether edits are accepted.
func (e *Engine) IsEditable() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.editable
}

// Subscribe registers an observer for the given event kinds, or all kinds
// when none are given.
func (e *Engine) Subscribe(observer func(Event), kinds ...notify.Kind) *notify.Subscription {
	return e.notifier.Subscribe(observer, kinds...)
}

// Close drops all subscriptions.
func (e *Engine) Close() {
	e.notifier.Close()
}
