package state

import (
	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/schema"
)

// State is an immutable editor snapshot: a document plus a selection.
type State struct {
	Doc       *model.Node
	Selection Selection
}

// New creates a state for doc with the cursor at the first position that
// accepts text, or 0.
func New(doc *model.Node) *State {
	return &State{Doc: doc, Selection: Cursor(firstTextPos(doc))}
}

// Empty creates a state holding the smallest valid document of s.
func Empty(s *schema.Schema) (*State, error) {
	doc, err := model.EmptyDoc(s)
	if err != nil {
		return nil, err
	}
	return New(doc), nil
}

// Schema returns the document's schema.
func (s *State) Schema() *schema.Schema {
	return s.Doc.Type.Schema()
}

// Tr starts a transaction on this state.
func (s *State) Tr() *Transaction {
	return newTransaction(s)
}

// Apply commits tr and returns the new state. The transaction must have
// been started on this state's document. On error the receiver is the
// current state; nothing of tr is applied.
func (s *State) Apply(tr *Transaction) (*State, error) {
	if tr.Before() != s.Doc {
		return nil, ErrMismatchedTransaction
	}
	doc, err := tr.Apply(s.Doc)
	if err != nil {
		return nil, err
	}
	return &State{Doc: doc, Selection: tr.Selection().Clamp(doc.Content.Size())}, nil
}

func firstTextPos(doc *model.Node) int {
	pos := -1
	doc.Descendants(func(n *model.Node, p int, _ *model.Node, _ int) bool {
		if pos >= 0 {
			return false
		}
		if n.Type.InlineContent() {
			pos = p + 1
			return false
		}
		return true
	})
	if pos < 0 {
		return 0
	}
	return pos
}
