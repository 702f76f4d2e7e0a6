package state

import (
	"time"
	"unicode/utf8"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/transform"
)

// Transaction is a Transform that also carries a selection and metadata.
// Steps are applied to the transaction's working document as they are
// added; the committed document only changes when the owning state applies
// the whole transaction.
type Transaction struct {
	*transform.Transform

	selectionBefore Selection
	selection       Selection
	selectionSet    bool
	meta            meta
	time            time.Time
}

func newTransaction(s *State) *Transaction {
	return &Transaction{
		Transform:       transform.New(s.Doc),
		selectionBefore: s.Selection,
		time:            time.Now(),
	}
}

// Time returns the transaction's timestamp.
func (tr *Transaction) Time() time.Time { return tr.time }

// SetTime overrides the timestamp.
func (tr *Transaction) SetTime(t time.Time) *Transaction {
	tr.time = t
	return tr
}

// SelectionBefore returns the selection of the state the transaction was
// created from.
func (tr *Transaction) SelectionBefore() Selection { return tr.selectionBefore }

// Selection returns the selection after the transaction. Unless set
// explicitly it is the previous selection mapped through the steps.
func (tr *Transaction) Selection() Selection {
	if tr.selectionSet {
		return tr.selection
	}
	return tr.selectionBefore.Map(tr.Mapping()).Clamp(tr.Doc().Content.Size())
}

// SetSelection sets the selection after the transaction.
func (tr *Transaction) SetSelection(sel Selection) *Transaction {
	tr.selection = sel.Clamp(tr.Doc().Content.Size())
	tr.selectionSet = true
	return tr
}

// SelectionSet reports whether the selection was set explicitly.
func (tr *Transaction) SelectionSet() bool { return tr.selectionSet }

// IsSelectionOnly reports whether the transaction only moves the selection.
func (tr *Transaction) IsSelectionOnly() bool {
	return !tr.DocChanged()
}

// SetMeta stores a metadata value. The keys MetaAddToHistory and
// MetaTrackChangesUser are routed to their typed accessors.
func (tr *Transaction) SetMeta(key string, value any) *Transaction {
	tr.meta.set(key, value)
	return tr
}

// GetMeta returns a metadata value.
func (tr *Transaction) GetMeta(key string) (any, bool) {
	return tr.meta.get(key)
}

// AddToHistory reports whether the history should record the transaction.
// Defaults to true.
func (tr *Transaction) AddToHistory() bool {
	return tr.meta.addToHistory == nil || *tr.meta.addToHistory
}

// SetAddToHistory sets the addToHistory flag.
func (tr *Transaction) SetAddToHistory(v bool) *Transaction {
	tr.meta.addToHistory = &v
	return tr
}

// TrackChangesUser returns the user the changes are attributed to, or ""
// when the transaction is not tracked.
func (tr *Transaction) TrackChangesUser() string { return tr.meta.trackChangesUser }

// SetTrackChangesUser attributes the transaction's changes to user.
func (tr *Transaction) SetTrackChangesUser(user string) *Transaction {
	tr.meta.trackChangesUser = user
	return tr
}

// Origin returns where the transaction came from.
func (tr *Transaction) Origin() Origin { return tr.meta.origin }

// SetOrigin sets the transaction's origin.
func (tr *Transaction) SetOrigin(o Origin) *Transaction {
	tr.meta.origin = o
	return tr
}

// InsertText replaces the selection with text. The inserted text takes the
// marks active at the selection start that its parent allows. An empty
// text deletes the selection.
func (tr *Transaction) InsertText(text string) error {
	sel := tr.Selection()
	return tr.InsertTextAt(sel.From(), sel.To(), text)
}

// InsertTextAt replaces [from, to) with text and places the cursor after
// it.
func (tr *Transaction) InsertTextAt(from, to int, text string) error {
	if text == "" {
		return tr.Delete(from, to)
	}
	rp, err := tr.Doc().Resolve(from)
	if err != nil {
		return err
	}
	var marks []*model.Mark
	parent := rp.Parent().Type
	for _, m := range rp.Marks() {
		if parent.AllowsMarkType(m.Type) {
			marks = append(marks, m)
		}
	}
	n, err := model.NewText(tr.Doc().Type.Schema(), text, marks)
	if err != nil {
		return err
	}
	if err := tr.ReplaceWith(from, to, n); err != nil {
		return err
	}
	tr.SetSelection(Cursor(from + utf8.RuneCountInString(text)))
	return nil
}

// DeleteSelection removes the selected content.
func (tr *Transaction) DeleteSelection() error {
	sel := tr.Selection()
	if sel.Empty() {
		return nil
	}
	if err := tr.Delete(sel.From(), sel.To()); err != nil {
		return err
	}
	tr.SetSelection(Cursor(sel.From()))
	return nil
}

// ReplaceSelection replaces the selection with slice.
func (tr *Transaction) ReplaceSelection(slice *model.Slice) error {
	sel := tr.Selection()
	before := len(tr.Steps())
	if err := tr.Replace(sel.From(), sel.To(), slice); err != nil {
		return err
	}
	if len(tr.Steps()) > before {
		tr.SetSelection(Cursor(tr.Steps()[before].GetMap().Map(sel.To(), 1)))
	}
	return nil
}

// Apply folds the transaction's steps over doc. Either every step applies
// and the final document is returned, or a *TransactionError reports the
// first failing step and nothing is applied. A step that already failed
// while the transaction was built rejects the whole transaction.
func (tr *Transaction) Apply(doc *model.Node) (*model.Node, error) {
	if index, err := tr.Failure(); err != nil {
		return nil, &TransactionError{Index: index, Err: err}
	}
	next, index, err := transform.ApplySteps(doc, tr.Steps())
	if err != nil {
		return nil, &TransactionError{Index: index, Err: err}
	}
	return next, nil
}
