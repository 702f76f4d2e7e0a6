package history

import (
	"errors"
	"testing"
	"time"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/schema"
	"github.com/dshills/scribe/internal/engine/state"
)

// session commits transactions and records them the way the engine does.
type session struct {
	t   *testing.T
	st  *state.State
	h   *History
	now time.Time
}

func newSession(t *testing.T, doc *model.Node) *session {
	return &session{
		t:   t,
		st:  state.New(doc),
		h:   NewHistory(10),
		now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *session) commit(tr *state.Transaction) {
	s.t.Helper()
	next, err := s.st.Apply(tr)
	if err != nil {
		s.t.Fatalf("apply: %v", err)
	}
	if err := s.h.Record(tr); err != nil {
		s.t.Fatalf("record: %v", err)
	}
	s.st = next
}

// edit runs fn on a new transaction stamped gap after the previous one.
func (s *session) edit(gap time.Duration, fn func(tr *state.Transaction) error) {
	s.t.Helper()
	s.now = s.now.Add(gap)
	tr := s.st.Tr().SetTime(s.now)
	if err := fn(tr); err != nil {
		s.t.Fatalf("edit: %v", err)
	}
	s.commit(tr)
}

func (s *session) insert(gap time.Duration, pos int, text string) {
	s.t.Helper()
	s.edit(gap, func(tr *state.Transaction) error { return tr.InsertTextAt(pos, pos, text) })
}

func (s *session) undo() error {
	tr, err := s.h.Undo(s.st)
	if err != nil {
		return err
	}
	s.commit(tr)
	return nil
}

func (s *session) redo() error {
	tr, err := s.h.Redo(s.st)
	if err != nil {
		return err
	}
	s.commit(tr)
	return nil
}

func (s *session) text() string {
	return s.st.Doc.TextContent()
}

func newBuilder() *model.Builder {
	return model.NewBuilder(schema.Basic())
}

func TestUndoRedoRestoresDocument(t *testing.T) {
	b := newBuilder()
	strong := b.Mark("strong", nil)
	doc := b.Doc(b.P("Hello"), b.P("World"))
	s := newSession(t, doc)

	s.edit(time.Second, func(tr *state.Transaction) error {
		if err := tr.InsertTextAt(6, 6, " there"); err != nil {
			return err
		}
		if err := tr.AddMark(1, 6, strong); err != nil {
			return err
		}
		return tr.Delete(13, 20)
	})
	after := s.st.Doc

	if err := s.undo(); err != nil {
		t.Fatal(err)
	}
	if !s.st.Doc.Eq(doc) {
		t.Errorf("undo: got %s, want %s", s.st.Doc, doc)
	}
	if s.st.Selection != state.Cursor(1) {
		t.Errorf("undo selection = %s, want Cursor(1)", s.st.Selection)
	}
	if s.h.UndoCount() != 0 || s.h.RedoCount() != 1 {
		t.Errorf("stacks = %d/%d, want 0/1", s.h.UndoCount(), s.h.RedoCount())
	}

	if err := s.redo(); err != nil {
		t.Fatal(err)
	}
	if !s.st.Doc.Eq(after) {
		t.Errorf("redo: got %s, want %s", s.st.Doc, after)
	}
	if s.h.UndoCount() != 1 || s.h.RedoCount() != 0 {
		t.Errorf("stacks = %d/%d, want 1/0", s.h.UndoCount(), s.h.RedoCount())
	}

	if err := s.undo(); err != nil {
		t.Fatal(err)
	}
	if !s.st.Doc.Eq(doc) {
		t.Errorf("second undo: got %s", s.st.Doc)
	}
}

func TestHistoryRedoClearedOnNewEdit(t *testing.T) {
	b := newBuilder()
	s := newSession(t, b.Doc(b.P("ab")))

	s.insert(time.Second, 3, "c")
	s.insert(time.Second, 4, "d")
	if err := s.undo(); err != nil {
		t.Fatal(err)
	}
	if !s.h.CanRedo() {
		t.Fatal("redo should be available")
	}

	s.insert(time.Second, 1, "x")
	if s.h.CanRedo() {
		t.Error("new edit should clear redo stack")
	}
	if s.text() != "xabc" {
		t.Errorf("text = %q", s.text())
	}
}

func TestHistoryErrors(t *testing.T) {
	b := newBuilder()
	st := state.New(b.Doc(b.P("x")))
	h := NewHistory(0)

	if _, err := h.Undo(st); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo: got %v, want ErrNothingToUndo", err)
	}
	if _, err := h.Redo(st); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo: got %v, want ErrNothingToRedo", err)
	}
	if h.MaxEntries() != DefaultMaxEntries {
		t.Errorf("MaxEntries = %d, want %d", h.MaxEntries(), DefaultMaxEntries)
	}
}

func TestHistoryCoalescing(t *testing.T) {
	b := newBuilder()

	tests := []struct {
		name      string
		gap       time.Duration
		selection bool
		wantUnits int
	}{
		{"within delay", 100 * time.Millisecond, false, 1},
		{"after delay", time.Second, false, 2},
		{"selection change between", 100 * time.Millisecond, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, b.Doc(b.P("")))
			s.insert(time.Second, 1, "a")
			if tt.selection {
				tr := s.st.Tr().SetSelection(state.Cursor(1))
				s.commit(tr)
			}
			s.insert(tt.gap, 2, "b")

			if got := s.h.UndoCount(); got != tt.wantUnits {
				t.Errorf("UndoCount = %d, want %d", got, tt.wantUnits)
			}
			if err := s.undo(); err != nil {
				t.Fatal(err)
			}
			want := "a"
			if tt.wantUnits == 1 {
				want = ""
			}
			if s.text() != want {
				t.Errorf("after undo text = %q, want %q", s.text(), want)
			}
		})
	}
}

func TestHistoryRemapsOverNonHistoryChanges(t *testing.T) {
	b := newBuilder()
	s := newSession(t, b.Doc(b.P("Hello")))

	s.insert(time.Second, 6, " world")
	s.edit(time.Second, func(tr *state.Transaction) error {
		tr.SetAddToHistory(false)
		return tr.InsertTextAt(1, 1, "X")
	})
	if s.h.UndoCount() != 1 {
		t.Fatalf("UndoCount = %d, want 1", s.h.UndoCount())
	}

	if err := s.undo(); err != nil {
		t.Fatal(err)
	}
	if s.text() != "XHello" {
		t.Errorf("text = %q, want %q", s.text(), "XHello")
	}

	s.edit(time.Second, func(tr *state.Transaction) error {
		tr.SetAddToHistory(false)
		return tr.Delete(1, 2)
	})
	if err := s.redo(); err != nil {
		t.Fatal(err)
	}
	if s.text() != "Hello world" {
		t.Errorf("text = %q, want %q", s.text(), "Hello world")
	}
}

func TestHistoryDropsUnitsOverDeletedContent(t *testing.T) {
	b := newBuilder()
	s := newSession(t, b.Doc(b.P("Hello")))

	s.insert(time.Second, 3, "XY")
	s.edit(time.Second, func(tr *state.Transaction) error {
		tr.SetAddToHistory(false)
		return tr.Delete(2, 6)
	})
	if s.h.CanUndo() {
		t.Error("unit over deleted content should be dropped")
	}
}

func TestHistoryDropsUnitsWhenExactContentIsRemoved(t *testing.T) {
	b := newBuilder()
	s := newSession(t, b.Doc(b.P("Hello")))

	s.insert(time.Second, 6, " world")
	s.edit(time.Second, func(tr *state.Transaction) error {
		tr.SetAddToHistory(false)
		return tr.Delete(6, 12)
	})
	if s.text() != "Hello" {
		t.Fatalf("text = %q", s.text())
	}
	if s.h.CanUndo() {
		t.Error("unit whose content was removed should be dropped")
	}
	if err := s.undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("undo: got %v, want ErrNothingToUndo", err)
	}
	if s.h.CanRedo() {
		t.Error("nothing should be redoable")
	}
}

func TestHistoryMaxEntries(t *testing.T) {
	b := newBuilder()
	s := newSession(t, b.Doc(b.P("")))
	s.h.SetMaxEntries(3)

	for i := 0; i < 5; i++ {
		s.insert(time.Second, 1+i, "x")
	}
	if s.h.UndoCount() != 3 {
		t.Fatalf("UndoCount = %d, want 3", s.h.UndoCount())
	}
	for s.h.CanUndo() {
		if err := s.undo(); err != nil {
			t.Fatal(err)
		}
	}
	if s.text() != "xx" {
		t.Errorf("text = %q, want %q", s.text(), "xx")
	}

	s.h.SetMaxEntries(1)
	if s.h.UndoCount() != 0 || s.h.RedoCount() != 3 {
		t.Errorf("redo units should not be evicted: %d/%d", s.h.UndoCount(), s.h.RedoCount())
	}
}

func TestHistoryGrouping(t *testing.T) {
	b := newBuilder()
	s := newSession(t, b.Doc(b.P("")))

	s.h.BeginGroup("typing")
	if !s.h.IsGrouping() {
		t.Error("should be grouping")
	}
	s.insert(time.Minute, 1, "a")
	s.insert(time.Minute, 2, "b")
	s.h.EndGroup()
	s.insert(10*time.Millisecond, 3, "c")

	if s.h.UndoCount() != 2 {
		t.Fatalf("UndoCount = %d, want 2", s.h.UndoCount())
	}
	info := s.h.UndoInfo()
	if info[0].Description != "typing" || info[0].Steps != 2 {
		t.Errorf("group info = %+v", info[0])
	}

	if err := s.undo(); err != nil {
		t.Fatal(err)
	}
	if err := s.undo(); err != nil {
		t.Fatal(err)
	}
	if s.text() != "" {
		t.Errorf("text = %q, want empty", s.text())
	}
}

func TestHistoryCancelGroup(t *testing.T) {
	b := newBuilder()
	s := newSession(t, b.Doc(b.P("Hello")))

	s.insert(time.Second, 6, "!")
	scope := s.h.GroupScope("prefix")
	s.insert(time.Second, 1, ">> ")
	scope.Cancel()
	scope.End()

	if s.h.UndoCount() != 1 {
		t.Fatalf("UndoCount = %d, want 1", s.h.UndoCount())
	}
	if err := s.undo(); err != nil {
		t.Fatal(err)
	}
	if s.text() != ">> Hello" {
		t.Errorf("text = %q, want %q", s.text(), ">> Hello")
	}
}

func TestHistoryGroupFunc(t *testing.T) {
	b := newBuilder()
	s := newSession(t, b.Doc(b.P("")))

	err := s.h.Group("pair", func() error {
		s.insert(time.Minute, 1, "a")
		s.insert(time.Minute, 2, "b")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.h.UndoCount() != 1 {
		t.Errorf("UndoCount = %d, want 1", s.h.UndoCount())
	}

	want := errors.New("boom")
	err = s.h.Group("failed", func() error {
		s.insert(time.Minute, 3, "c")
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("got %v, want %v", err, want)
	}
	if s.h.UndoCount() != 1 || s.h.IsGrouping() {
		t.Error("failed group should leave no unit")
	}
}

func TestHistoryPeekAndCheckpoint(t *testing.T) {
	b := newBuilder()
	s := newSession(t, b.Doc(b.P("")))

	if _, ok := s.h.PeekUndo(); ok {
		t.Error("PeekUndo on empty history")
	}
	cp := s.h.CreateCheckpoint()
	s.edit(time.Second, func(tr *state.Transaction) error {
		tr.SetMeta(MetaDescription, "type a")
		return tr.InsertTextAt(1, 1, "a")
	})
	s.insert(time.Second, 2, "b")

	info, ok := s.h.PeekUndo()
	if !ok || info.Steps != 1 || !info.Timestamp.Equal(s.now) {
		t.Errorf("PeekUndo = %+v, %v", info, ok)
	}
	for s.h.UndoCount() > cp.Depth() {
		if err := s.undo(); err != nil {
			t.Fatal(err)
		}
	}
	if s.text() != "" {
		t.Errorf("text = %q, want empty", s.text())
	}
	redo, ok := s.h.PeekRedo()
	if !ok || redo.Description != "type a" {
		t.Errorf("PeekRedo = %+v, %v", redo, ok)
	}
	if len(s.h.RedoInfo()) != 2 {
		t.Errorf("RedoInfo length = %d, want 2", len(s.h.RedoInfo()))
	}

	s.h.Clear()
	if s.h.CanUndo() || s.h.CanRedo() {
		t.Error("Clear should empty both stacks")
	}
}
