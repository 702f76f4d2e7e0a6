package tracking

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/transform"
)

// MetaRejected is the transaction meta key listing the IDs of the records a
// reject transaction reverts.
const MetaRejected = "tracking.rejected"

// Option configures a Tracker.
type Option func(*Tracker)

// WithEnabled sets whether the tracker starts enabled.
func WithEnabled(enabled bool) Option {
	return func(t *Tracker) {
		t.enabled = enabled
	}
}

// WithIDGenerator replaces the record ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(t *Tracker) {
		t.newID = fn
	}
}

// Tracker is the change log of a document. It attributes the steps of
// tracked transactions to users and keeps every record positioned in the
// current document so it can be accepted or rejected later.
// All operations are thread-safe.
type Tracker struct {
	mu sync.RWMutex

	enabled bool
	records []*ChangeRecord
	newID   func() string
	invert  func(step transform.Step, before *model.Node) (transform.Step, error)
}

// NewTracker creates an enabled tracker with an empty log.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		enabled: true,
		newID:   uuid.NewString,
		invert:  transform.Step.Invert,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Enabled reports whether new tracked transactions are recorded.
func (t *Tracker) Enabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// SetEnabled turns recording of new changes on or off. Existing records
// are kept and can still be accepted or rejected.
func (t *Tracker) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

// Record processes a committed transaction. Existing records are carried
// through its steps. When the tracker is enabled and the transaction names
// a tracking user, one record is appended per step that changed content.
// A reject transaction removes the records it reverts and is never itself
// recorded. version is the document version the transaction produced.
func (t *Tracker) Record(tr *state.Transaction, version uint64) ([]ChangeRecord, error) {
	if !tr.DocChanged() {
		return nil, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if tr.Origin() == state.OriginReject {
		if ids, ok := tr.GetMeta(MetaRejected); ok {
			if list, ok := ids.([]string); ok {
				t.removeLocked(list...)
			}
		}
	}

	user := tr.TrackChangesUser()
	track := t.enabled && user != "" && tr.Origin() != state.OriginReject

	var (
		added []ChangeRecord
		errs  []error
	)
	docs := tr.Docs()
	for i, step := range tr.Steps() {
		t.mapLocked(step.GetMap())
		if !track {
			continue
		}
		typ, ok := Classify(step)
		if !ok {
			continue
		}
		rec, err := t.newRecord(docs[i], step, typ)
		if err != nil {
			errs = append(errs, fmt.Errorf("step %d: %w", i, err))
			continue
		}
		rec.User = user
		rec.Timestamp = tr.Time()
		rec.Version = version
		t.records = append(t.records, rec)
		added = append(added, *rec)
	}
	return added, errors.Join(errs...)
}

func (t *Tracker) newRecord(before *model.Node, step transform.Step, typ ChangeType) (*ChangeRecord, error) {
	inverse, err := t.invert(step, before)
	if err != nil {
		return nil, fmt.Errorf("invert %s: %w", step.Kind(), err)
	}
	from, to := transform.Range(step)
	rec := &ChangeRecord{
		ID:      t.newID(),
		Type:    typ,
		Step:    step,
		inverse: inverse,
	}
	if _, ok := step.(*transform.ReplaceStep); ok && to > from {
		rec.deletedText = before.TextBetween(from, to, "\n", "")
	}
	m := step.GetMap()
	rec.from = m.Map(from, -1)
	rec.to = m.Map(to, 1)
	return rec, nil
}

// mapLocked carries every record through one step of a later change.
// A record whose added content is gone loses its inverse: reverting it
// would change nothing, even if equal content is put back later.
func (t *Tracker) mapLocked(m *transform.StepMap) {
	if m.Empty() {
		return
	}
	for _, r := range t.records {
		if r.inverse != nil {
			r.inverse = r.inverse.Map(m)
		}
		if r.from == r.to {
			r.from = m.Map(r.from, -1)
			r.to = r.from
		} else {
			r.from = m.Map(r.from, 1)
			r.to = max(m.Map(r.to, -1), r.from)
		}
		if r.Type != ChangeDelete && (r.from == r.to || (r.inverse != nil && transform.IsNoop(r.inverse))) {
			r.inverse = nil
		}
	}
}

func (t *Tracker) removeLocked(ids ...string) int {
	n := len(t.records)
	t.records = slices.DeleteFunc(t.records, func(r *ChangeRecord) bool {
		return slices.Contains(ids, r.ID)
	})
	return n - len(t.records)
}

func (t *Tracker) findLocked(id string) *ChangeRecord {
	for _, r := range t.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Accept makes a change permanent by removing its record. The document is
// not touched.
func (t *Tracker) Accept(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.removeLocked(id) == 0 {
		return fmt.Errorf("accept %s: %w", id, ErrNotFound)
	}
	return nil
}

// AcceptAll accepts every record and returns how many there were.
func (t *Tracker) AcceptAll() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(t.records)
	t.records = nil
	return n, nil
}

// Reject builds a transaction on st that reverts the change. The record is
// removed once the transaction is committed and passed back to Record.
// The transaction is tagged with state.OriginReject and is not added to
// the undo history.
func (t *Tracker) Reject(id string, st *state.State) (*state.Transaction, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r := t.findLocked(id)
	if r == nil {
		return nil, fmt.Errorf("reject %s: %w", id, ErrNotFound)
	}
	if r.inverse == nil {
		return nil, fmt.Errorf("reject %s: %w", id, ErrStaleReject)
	}
	tr := st.Tr()
	if err := tr.Step(r.inverse); err != nil {
		return nil, fmt.Errorf("reject %s: %w: %v", id, ErrStaleReject, err)
	}
	return rejectTransaction(tr, []string{id}), nil
}

// RejectAll builds one transaction on st that reverts every revertible
// change, newest first. The IDs of records that could not be reverted are
// returned; they stay in the log.
func (t *Tracker) RejectAll(st *state.State) (*state.Transaction, []string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tr := st.Tr()
	var rejected, stale []string
	for _, r := range slices.Backward(t.records) {
		if r.inverse == nil {
			stale = append(stale, r.ID)
			continue
		}
		step := r.inverse.Map(tr.Mapping())
		if step == nil || transform.IsNoop(step) {
			stale = append(stale, r.ID)
			continue
		}
		// A failed Step would reject the whole transaction.
		if _, err := step.Apply(tr.Doc()); err != nil {
			stale = append(stale, r.ID)
			continue
		}
		if err := tr.Step(step); err != nil {
			return nil, nil, err
		}
		rejected = append(rejected, r.ID)
	}
	return rejectTransaction(tr, rejected), stale, nil
}

func rejectTransaction(tr *state.Transaction, ids []string) *state.Transaction {
	tr.SetOrigin(state.OriginReject)
	tr.SetAddToHistory(false)
	tr.SetMeta(MetaRejected, ids)
	return tr
}

// Records returns the log in creation order.
func (t *Tracker) Records() []ChangeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ChangeRecord, len(t.records))
	for i, r := range t.records {
		out[i] = *r
	}
	return out
}

// Get returns the record with the given ID.
func (t *Tracker) Get(id string) (ChangeRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if r := t.findLocked(id); r != nil {
		return *r, true
	}
	return ChangeRecord{}, false
}

// Len returns the number of open records.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// ChangesSince returns the records created after the given version.
func (t *Tracker) ChangesSince(version uint64) []ChangeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []ChangeRecord
	for _, r := range t.records {
		if r.Version > version {
			out = append(out, *r)
		}
	}
	return out
}

// ByUser returns the records attributed to user.
func (t *Tracker) ByUser(user string) []ChangeRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []ChangeRecord
	for _, r := range t.records {
		if r.User == user {
			out = append(out, *r)
		}
	}
	return out
}

// Summary describes the open records.
func (t *Tracker) Summary() string {
	return Summary(t.Records())
}

// Decorations derives the decorations of the open records over doc.
func (t *Tracker) Decorations(doc *model.Node) []Decoration {
	return Decorations(doc, t.Records())
}

// Clear drops every record.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = nil
}

// Restore replaces the log with records, typically loaded from storage.
// The records must be positioned in the current document.
func (t *Tracker) Restore(records []ChangeRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.records = make([]*ChangeRecord, len(records))
	for i := range records {
		r := records[i]
		t.records[i] = &r
	}
}
