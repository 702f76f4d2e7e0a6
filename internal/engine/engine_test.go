package engine

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/scribe/internal/config"
	"github.com/dshills/scribe/internal/engine/commands"
	"github.com/dshills/scribe/internal/engine/history"
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/notify"
	"github.com/dshills/scribe/internal/engine/schema"
	"github.com/dshills/scribe/internal/engine/state"
	"github.com/dshills/scribe/internal/engine/tracking"
	"github.com/dshills/scribe/internal/metrics"
)

// steppingClock advances one second per reading so consecutive edits never
// coalesce in the history.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestEngine(t *testing.T, html string, opts ...Option) *Engine {
	t.Helper()
	base := []Option{WithClock(steppingClock())}
	if html != "" {
		base = append(base, WithContent(FormatHTML, []byte(html)))
	}
	e, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return e
}

// insertAt dispatches a single insertion.
func insertAt(t *testing.T, e *Engine, pos int, text string) {
	t.Helper()
	tr := e.Tr()
	require.NoError(t, tr.InsertTextAt(pos, pos, text))
	require.NoError(t, e.Dispatch(tr))
}

// record collects events delivered to a subscriber.
type record struct {
	mu     sync.Mutex
	events []Event
}

func (r *record) observe(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *record) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Kind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func (r *record) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

// ============================================================================
// Construction
// ============================================================================

func TestNew(t *testing.T) {
	e, err := New()
	require.NoError(t, err)

	assert.True(t, e.IsEmpty())
	assert.Equal(t, "", e.Text())
	assert.Equal(t, uint64(0), e.Version())
	assert.True(t, e.IsEditable())
	assert.False(t, e.TrackingEnabled())
	assert.Equal(t, DefaultTrackingUser, e.TrackingUser())
	assert.Equal(t, 1, e.Selection().Head)
}

func TestNewWithContent(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p><p>world</p>", WithID("doc-1"))

	assert.Equal(t, "doc-1", e.ID())
	assert.Equal(t, "Hello\n\nworld", e.Text())
	assert.False(t, e.IsEmpty())

	html, err := e.ContentHTML()
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello</p><p>world</p>", html)
}

func TestNewRejectsForeignDocument(t *testing.T) {
	letterDoc, err := model.EmptyDoc(schema.Letter())
	require.NoError(t, err)

	_, err = New(WithDoc(letterDoc))
	assert.ErrorIs(t, err, ErrInvalidDocument)

	_, err = New(WithDoc(nil))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestNewWithBadContent(t *testing.T) {
	_, err := New(WithContent(FormatJSON, []byte(`{"type":"nope"}`)))
	assert.Error(t, err)

	_, err = New(WithContent(Format("markdown"), []byte("# hi")))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

// ============================================================================
// Dispatch
// ============================================================================

func TestDispatchInsertUndoRedo(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")

	insertAt(t, e, 6, " world")
	assert.Equal(t, "Hello world", e.Text())
	assert.Equal(t, uint64(1), e.Version())
	assert.True(t, e.CanUndo())
	assert.False(t, e.CanRedo())

	require.NoError(t, e.Undo())
	assert.Equal(t, "Hello", e.Text())
	assert.Equal(t, uint64(2), e.Version())
	assert.True(t, e.CanRedo())

	require.NoError(t, e.Redo())
	assert.Equal(t, "Hello world", e.Text())
	assert.Equal(t, uint64(3), e.Version())
}

func TestUndoRedoEmpty(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")

	assert.ErrorIs(t, e.Undo(), ErrNothingToUndo)
	assert.ErrorIs(t, e.Redo(), ErrNothingToRedo)
	assert.Equal(t, uint64(0), e.Version())
}

func TestStaleTransaction(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")

	first := e.Tr()
	require.NoError(t, first.InsertTextAt(1, 1, "A"))
	second := e.Tr()
	require.NoError(t, second.InsertTextAt(1, 1, "B"))

	require.NoError(t, e.Dispatch(first))
	err := e.Dispatch(second)

	assert.ErrorIs(t, err, ErrStaleTransaction)
	assert.Equal(t, "AHello", e.Text())
	assert.Equal(t, uint64(1), e.Version())
}

func TestFailedCommandLeavesStateUnchanged(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")
	before := e.State()
	boom := errors.New("boom")

	err := e.Execute(func(st *state.State) (*state.Transaction, error) {
		tr := st.Tr()
		if err := tr.InsertTextAt(1, 1, "partial "); err != nil {
			return nil, err
		}
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Same(t, before, e.State())
	assert.Equal(t, uint64(0), e.Version())
	assert.False(t, e.CanUndo())
}

func TestMultiStepTransactionIsOneUndoUnit(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")

	tr := e.Tr()
	require.NoError(t, tr.InsertTextAt(6, 6, "!"))
	require.NoError(t, tr.InsertTextAt(1, 1, "Oh "))
	require.NoError(t, e.Dispatch(tr))
	assert.Equal(t, "Oh Hello!", e.Text())
	assert.Equal(t, 1, e.UndoCount())

	require.NoError(t, e.Undo())
	assert.Equal(t, "Hello", e.Text())
}

func TestSelectionOnlyTransaction(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")

	require.NoError(t, e.SetSelection(state.NewSelection(1, 6)))
	assert.Equal(t, 1, e.Selection().From())
	assert.Equal(t, 6, e.Selection().To())
	assert.Equal(t, uint64(0), e.Version())
	assert.False(t, e.CanUndo())

	require.NoError(t, e.InsertText("Bye"))
	assert.Equal(t, "Bye", e.Text())
}

func TestConcurrentEdits(t *testing.T) {
	e := newTestEngine(t, "<p></p>")

	const n = 20
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, e.InsertText("x"))
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(n), e.Version())
	assert.Len(t, e.Text(), n)
}

// ============================================================================
// Read-only
// ============================================================================

func TestReadOnly(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>", WithReadOnly())
	assert.False(t, e.IsEditable())

	tr := e.Tr()
	require.NoError(t, tr.InsertTextAt(1, 1, "x"))
	assert.ErrorIs(t, e.Dispatch(tr), ErrReadOnly)
	assert.ErrorIs(t, e.InsertText("x"), ErrReadOnly)
	assert.ErrorIs(t, e.Undo(), ErrReadOnly)
	assert.Equal(t, "Hello", e.Text())

	// Replacing the content is still allowed.
	require.NoError(t, e.SetContent(FormatHTML, []byte("<p>Other</p>")))
	assert.Equal(t, "Other", e.Text())

	e.SetEditable(true)
	require.NoError(t, e.InsertText("x"))
	assert.Equal(t, "xOther", e.Text())
}

// ============================================================================
// History grouping
// ============================================================================

func TestCoalescingWithinDelay(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e, err := New(
		WithContent(FormatHTML, []byte("<p></p>")),
		WithClock(func() time.Time { return fixed }),
	)
	require.NoError(t, err)

	require.NoError(t, e.InsertText("a"))
	require.NoError(t, e.InsertText("b"))
	assert.Equal(t, 1, e.UndoCount())

	require.NoError(t, e.Undo())
	assert.Equal(t, "", e.Text())
}

func TestUndoGroup(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")

	e.BeginUndoGroup("greeting")
	insertAt(t, e, 6, " there")
	insertAt(t, e, 12, " friend")
	e.EndUndoGroup()

	assert.Equal(t, "Hello there friend", e.Text())
	assert.Equal(t, 1, e.UndoCount())
	info := e.UndoInfo()
	require.Len(t, info, 1)
	assert.Equal(t, "greeting", info[0].Description)

	require.NoError(t, e.Undo())
	assert.Equal(t, "Hello", e.Text())
}

func TestCheckpoint(t *testing.T) {
	e := newTestEngine(t, "<p></p>")

	require.NoError(t, e.InsertText("a"))
	cp := e.CreateCheckpoint()
	require.NoError(t, e.InsertText("b"))
	require.NoError(t, e.InsertText("c"))
	assert.Equal(t, "abc", e.Text())

	require.NoError(t, e.UndoToCheckpoint(cp))
	assert.Equal(t, "a", e.Text())
	assert.Equal(t, 1, e.UndoCount())
	assert.Equal(t, 2, e.RedoCount())
}

func TestMaxUndoEntries(t *testing.T) {
	e := newTestEngine(t, "<p></p>", WithMaxUndoEntries(2))

	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, e.InsertText(s))
	}
	assert.Equal(t, 2, e.UndoCount())

	require.NoError(t, e.Undo())
	require.NoError(t, e.Undo())
	assert.Equal(t, "a", e.Text())
	assert.ErrorIs(t, e.Undo(), history.ErrNothingToUndo)
}

func TestClearHistory(t *testing.T) {
	e := newTestEngine(t, "<p></p>")
	require.NoError(t, e.InsertText("a"))

	e.ClearHistory()
	assert.False(t, e.CanUndo())
	assert.Equal(t, "a", e.Text())
}

// ============================================================================
// Change tracking
// ============================================================================

func TestTrackedInsertReject(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>", WithTracking(true, "alice"))
	var rec record
	e.Subscribe(rec.observe)

	insertAt(t, e, 6, " world")

	changes := e.Changes()
	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, "alice", c.User)
	assert.Equal(t, tracking.ChangeInsert, c.Type)
	assert.Equal(t, uint64(1), c.Version)
	assert.Equal(t, []string{c.ID}, rec.last().ChangeIDs)

	decos := e.Decorations()
	require.Len(t, decos, 1)
	assert.Equal(t, tracking.DecorationInline, decos[0].Kind)
	assert.Equal(t, 6, decos[0].From)
	assert.Equal(t, 12, decos[0].To)
	assert.Equal(t, tracking.ClassInsert, decos[0].Attrs["class"])

	require.NoError(t, e.Reject(c.ID))
	assert.Equal(t, "Hello", e.Text())
	assert.Empty(t, e.Changes())
	assert.Equal(t, uint64(2), e.Version())

	ev := rec.last()
	assert.Equal(t, state.OriginReject, ev.Origin)
	assert.Equal(t, []string{c.ID}, ev.ChangeIDs)

	assert.ErrorIs(t, e.Reject(c.ID), tracking.ErrNotFound)
}

func TestTrackedAccept(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>", WithTracking(true, "alice"))
	var rec record
	e.Subscribe(rec.observe, notify.KindChangesResolved)

	insertAt(t, e, 6, "!")
	id := e.Changes()[0].ID

	require.NoError(t, e.Accept(id))
	assert.Equal(t, "Hello!", e.Text())
	assert.Empty(t, e.Changes())
	assert.Equal(t, []notify.Kind{notify.KindChangesResolved}, rec.kinds())
	assert.Equal(t, []string{id}, rec.last().ChangeIDs)
}

func TestAcceptAllAndRejectAll(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>", WithTracking(true, "alice"))

	insertAt(t, e, 6, " world")
	e.SetTrackingUser("bob")
	insertAt(t, e, 1, "Oh ")
	assert.Equal(t, "2 inserts by 2 users", e.ChangeSummary())

	stale, err := e.RejectAll()
	require.NoError(t, err)
	assert.Empty(t, stale)
	assert.Equal(t, "Hello", e.Text())
	assert.Empty(t, e.Changes())

	insertAt(t, e, 6, "!")
	insertAt(t, e, 7, "?")
	n, err := e.AcceptAll()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Hello!?", e.Text())
	assert.Empty(t, e.Changes())
}

func TestChangesSince(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>", WithTracking(true, "alice"))

	insertAt(t, e, 6, "!")
	v := e.Version()
	insertAt(t, e, 1, ">")

	since := e.ChangesSince(v)
	require.Len(t, since, 1)
	assert.Equal(t, v+1, since[0].Version)
}

func TestTrackingDisabled(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")

	insertAt(t, e, 6, "!")
	assert.Empty(t, e.Changes())
	assert.ErrorIs(t, e.Accept("missing"), tracking.ErrNotFound)
	assert.ErrorIs(t, e.Reject("missing"), tracking.ErrNotFound)

	e.SetTracking(true)
	insertAt(t, e, 7, "?")
	changes := e.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, DefaultTrackingUser, changes[0].User)
}

func TestResolveAfterTrackingIsTurnedOff(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>", WithTracking(true, "alice"))

	insertAt(t, e, 6, "!")
	insertAt(t, e, 7, "?")
	changes := e.Changes()
	require.Len(t, changes, 2)

	e.SetTracking(false)
	insertAt(t, e, 1, ">")
	require.Len(t, e.Changes(), 2)

	require.NoError(t, e.Accept(changes[0].ID))
	require.NoError(t, e.Reject(changes[1].ID))
	assert.Equal(t, ">Hello!", e.Text())
	assert.Empty(t, e.Changes())
}

func TestRejectAfterUndoRedo(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>", WithTracking(true, "alice"))

	insertAt(t, e, 6, " world")
	id := e.Changes()[0].ID
	require.NoError(t, e.Undo())
	require.NoError(t, e.Redo())
	v := e.Version()

	assert.ErrorIs(t, e.Reject(id), tracking.ErrStaleReject)
	assert.Equal(t, "Hello world", e.Text())
	assert.Len(t, e.Changes(), 1)
	assert.Equal(t, v, e.Version())
}

func TestUndoAfterRejectHasNothingLeft(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>", WithTracking(true, "alice"))
	var rec record
	e.Subscribe(rec.observe)

	insertAt(t, e, 6, " world")
	require.NoError(t, e.Reject(e.Changes()[0].ID))
	assert.Equal(t, "Hello", e.Text())
	v := e.Version()
	events := len(rec.kinds())

	assert.False(t, e.CanUndo())
	assert.ErrorIs(t, e.Undo(), ErrNothingToUndo)
	assert.Equal(t, "Hello", e.Text())
	assert.Equal(t, v, e.Version())
	assert.Len(t, rec.kinds(), events)
	assert.False(t, e.CanRedo())
}

func TestDispatchRejectsTransactionWithFailedStep(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")
	var rec record
	e.Subscribe(rec.observe)

	tr := e.Tr()
	require.NoError(t, tr.InsertTextAt(6, 6, " world"))
	require.Error(t, tr.Delete(0, tr.Doc().Content.Size()))

	err := e.Dispatch(tr)
	var txErr *state.TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, 1, txErr.Index)
	assert.Equal(t, "Hello", e.Text())
	assert.Equal(t, uint64(0), e.Version())
	assert.False(t, e.CanUndo())
	assert.Empty(t, rec.kinds())
}

func TestNoopTransactionKeepsVersion(t *testing.T) {
	e := newTestEngine(t, "<p>Hello world</p>")
	strongType, ok := e.Schema().MarkType("strong")
	require.True(t, ok)
	strong, err := model.NewMark(strongType, nil)
	require.NoError(t, err)

	tr := e.Tr()
	require.NoError(t, tr.AddMark(1, 6, strong))
	require.NoError(t, e.Dispatch(tr))
	v := e.Version()
	undos := e.UndoCount()

	var rec record
	e.Subscribe(rec.observe)
	again := e.Tr()
	require.NoError(t, again.AddMark(2, 4, strong))
	require.NoError(t, e.Dispatch(again))

	assert.Equal(t, v, e.Version())
	assert.Equal(t, undos, e.UndoCount())
	assert.Empty(t, rec.kinds())
}

func TestUndoIsNotTracked(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>", WithTracking(true, "alice"))

	insertAt(t, e, 6, " world")
	require.NoError(t, e.Undo())

	// The undo itself creates no record; the insert's record remains with
	// nothing left to revert.
	changes := e.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, tracking.ChangeInsert, changes[0].Type)
	assert.Empty(t, e.Decorations())
}

func TestExportImportChanges(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>", WithTracking(true, "alice"))
	insertAt(t, e, 6, " world")

	data, err := e.ExportChanges()
	require.NoError(t, err)
	html, err := e.ContentHTML()
	require.NoError(t, err)

	other := newTestEngine(t, html, WithTracking(true, "bob"))
	require.NoError(t, other.ImportChanges(data))
	require.Len(t, other.Changes(), 1)
	assert.Equal(t, "alice", other.Changes()[0].User)

	require.NoError(t, other.Reject(other.Changes()[0].ID))
	assert.Equal(t, "Hello", other.Text())
}

// ============================================================================
// Notifications
// ============================================================================

func TestNotificationsAreSynchronous(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")
	var rec record
	sub := e.Subscribe(rec.observe)

	require.NoError(t, e.InsertText("A"))
	require.Equal(t, []notify.Kind{notify.KindContentChanged}, rec.kinds())
	ev := rec.last()
	assert.Equal(t, uint64(1), ev.Version)
	assert.Equal(t, state.OriginUser, ev.Origin)
	assert.Equal(t, 1, ev.Steps)
	assert.Equal(t, "AHello", ev.Doc.TextContent())

	require.NoError(t, e.SetSelection(state.Cursor(3)))
	assert.Equal(t, notify.KindSelectionChanged, rec.last().Kind)

	// Re-selecting the same position is not an event.
	require.NoError(t, e.SetSelection(state.Cursor(3)))
	assert.Len(t, rec.kinds(), 2)

	require.NoError(t, e.Undo())
	assert.Equal(t, state.OriginUndo, rec.last().Origin)

	sub.Unsubscribe()
	require.NoError(t, e.InsertText("B"))
	assert.Len(t, rec.kinds(), 3)
}

func TestObserverCanReadEngine(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")
	var seen string
	e.Subscribe(func(Event) { seen = e.Text() })

	require.NoError(t, e.InsertText("A"))
	assert.Equal(t, "AHello", seen)
}

func TestFailedDispatchDoesNotNotify(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>", WithReadOnly())
	var rec record
	e.Subscribe(rec.observe)

	assert.Error(t, e.InsertText("x"))
	assert.Empty(t, rec.kinds())
}

func TestClose(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")
	var rec record
	e.Subscribe(rec.observe)

	e.Close()
	require.NoError(t, e.InsertText("x"))
	assert.Empty(t, rec.kinds())
}

// ============================================================================
// Content
// ============================================================================

func TestSetContentResets(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>", WithTracking(true, "alice"))
	var rec record
	e.Subscribe(rec.observe, notify.KindContentReset)

	insertAt(t, e, 6, "!")
	require.True(t, e.CanUndo())
	require.Len(t, e.Changes(), 1)

	doc := `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"Fresh"}]}]}`
	require.NoError(t, e.SetContent(FormatJSON, []byte(doc)))

	assert.Equal(t, "Fresh", e.Text())
	assert.False(t, e.CanUndo())
	assert.Empty(t, e.Changes())
	assert.Equal(t, uint64(2), e.Version())
	assert.Equal(t, []notify.Kind{notify.KindContentReset}, rec.kinds())

	data, err := e.ContentJSON()
	require.NoError(t, err)
	assert.JSONEq(t, doc, string(data))
}

func TestSetContentInvalid(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")

	err := e.SetContent(FormatJSON, []byte(`{"type":"doc","content":[{"type":"text","text":"bare"}]}`))
	assert.Error(t, err)
	assert.Equal(t, "Hello", e.Text())
	assert.Equal(t, uint64(0), e.Version())
}

func TestClearAndIsEmpty(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")
	assert.False(t, e.IsEmpty())

	require.NoError(t, e.Clear())
	assert.True(t, e.IsEmpty())
	assert.Equal(t, "", e.Text())
}

func TestContentFormats(t *testing.T) {
	e := newTestEngine(t, "<h1>Title</h1><p>Body <strong>bold</strong></p>")

	text, err := e.Content(FormatText)
	require.NoError(t, err)
	assert.Equal(t, "Title\n\nBody bold", string(text))

	f, err := ParseFormat("HTML")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)

	_, err = ParseFormat("rtf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

// ============================================================================
// Validation
// ============================================================================

func TestValidation(t *testing.T) {
	e := newTestEngine(t, "<p>Hello world</p>")

	assert.True(t, e.ValidateNotEmpty().Valid)

	res := e.ValidateMinWords(3)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Document must contain at least 3 words (current: 2)"}, res.Errors)
	assert.True(t, e.ValidateMinWords(2).Valid)

	res = e.ValidateMaxWords(1)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Document must not exceed 1 words (current: 2)"}, res.Errors)

	require.NoError(t, e.Clear())
	res = e.ValidateNotEmpty()
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"Document cannot be empty"}, res.Errors)
}

func TestCountWordsAcrossBlocks(t *testing.T) {
	doc, err := Decode(schema.Basic(), FormatHTML, []byte("<p>one</p><p>two three</p>"))
	require.NoError(t, err)
	assert.Equal(t, 3, CountWords(doc))
}

// ============================================================================
// Keys
// ============================================================================

func TestHandleKey(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")
	strong, ok := e.Schema().MarkType("strong")
	require.True(t, ok)

	handled, err := e.HandleKey("Mod-b")
	require.NoError(t, err)
	assert.False(t, handled, "toggle on an empty selection does nothing")

	require.NoError(t, e.SetSelection(state.NewSelection(1, 6)))
	handled, err = e.HandleKey("Mod-b")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.True(t, e.Doc().RangeHasMark(1, 6, strong))

	handled, err = e.HandleKey("Mod-z")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.False(t, e.Doc().RangeHasMark(1, 6, strong))

	handled, err = e.HandleKey("Shift-Mod-z")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.True(t, e.Doc().RangeHasMark(1, 6, strong))

	handled, err = e.HandleKey("Mod-q")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestHandleKeyNothingToUndo(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")

	handled, err := e.HandleKey("Mod-z")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestBindKey(t *testing.T) {
	e := newTestEngine(t, "<p>Hello</p>")

	require.NoError(t, e.BindKey("Ctrl-Enter", commands.InsertText("!")))
	handled, err := e.HandleKey("Ctrl-Enter")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "!Hello", e.Text())

	assert.ErrorIs(t, e.BindKey("", commands.InsertText("?")), commands.ErrInvalidKey)
}

// ============================================================================
// Metrics and configuration
// ============================================================================

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabel(m, label, value) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(m *dto.Metric, name, value string) bool {
	if name == "" {
		return true
	}
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg, "")
	require.NoError(t, err)

	e := newTestEngine(t, "<p>Hello</p>", WithMetrics(m), WithTracking(true, "alice"))
	insertAt(t, e, 6, " world")
	require.NoError(t, e.Reject(e.Changes()[0].ID))
	insertAt(t, e, 6, "!")
	require.NoError(t, e.Undo())
	require.NoError(t, e.Redo())

	assert.Equal(t, 5.0, counterValue(t, reg, "scribe_transactions_total", "result", metrics.ResultApplied))
	assert.Equal(t, 1.0, counterValue(t, reg, "scribe_history_total", "op", "undo"))
	assert.Equal(t, 1.0, counterValue(t, reg, "scribe_history_total", "op", "redo"))
	assert.Equal(t, 2.0, counterValue(t, reg, "scribe_changes_recorded_total", "type", "insert"))
	assert.Equal(t, 1.0, counterValue(t, reg, "scribe_changes_resolved_total", "action", "reject"))
}

func TestConfigOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Schema.Name = "letter"
	cfg.History.Depth = 5
	cfg.Tracking.Enabled = true
	cfg.Tracking.User = "carol"
	cfg.Editor.Editable = false

	reg := schema.NewRegistry()
	opts, err := ConfigOptions(&cfg, reg)
	require.NoError(t, err)

	e, err := New(opts...)
	require.NoError(t, err)

	letter, err := reg.Get("letter")
	require.NoError(t, err)
	assert.Same(t, letter, e.Schema())
	assert.True(t, e.TrackingEnabled())
	assert.Equal(t, "carol", e.TrackingUser())
	assert.False(t, e.IsEditable())
}

func TestResolveSchema(t *testing.T) {
	reg := schema.NewRegistry()

	_, err := ResolveSchema(reg, config.SchemaConfig{Name: "missing"})
	assert.ErrorIs(t, err, schema.ErrUnknownSchema)

	path := filepath.Join(t.TempDir(), "notes.yaml")
	spec := "topNode: doc\nnodes:\n  - name: doc\n    content: note+\n  - name: note\n    content: text*\n  - name: text\n"
	require.NoError(t, os.WriteFile(path, []byte(spec), 0o644))

	s, err := ResolveSchema(reg, config.SchemaConfig{Name: "notes", Path: path})
	require.NoError(t, err)
	_, ok := s.NodeType("note")
	assert.True(t, ok)

	// A second resolution reuses the registered schema.
	again, err := ResolveSchema(reg, config.SchemaConfig{Name: "notes", Path: path})
	require.NoError(t, err)
	assert.Same(t, s, again)
}
