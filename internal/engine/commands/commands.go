package commands

import (
	"errors"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/schema"
	"github.com/dshills/scribe/internal/engine/state"
)

// ErrNotApplicable is returned by a command that cannot run in the given
// state, such as toggling a mark on an empty selection.
var ErrNotApplicable = errors.New("command not applicable")

// Command builds a transaction from a state. It never applies it; the
// caller dispatches the result.
type Command func(st *state.State) (*state.Transaction, error)

// ToggleMark removes marks of type mt from the selection when any part of
// it has one, and adds a mark with attrs otherwise.
func ToggleMark(mt *schema.MarkType, attrs map[string]any) Command {
	return func(st *state.State) (*state.Transaction, error) {
		sel := st.Selection
		if sel.Empty() {
			return nil, ErrNotApplicable
		}
		tr := st.Tr()
		if st.Doc.RangeHasMark(sel.From(), sel.To(), mt) {
			if err := tr.RemoveMark(sel.From(), sel.To(), mt); err != nil {
				return nil, err
			}
		} else {
			mark, err := model.NewMark(mt, attrs)
			if err != nil {
				return nil, err
			}
			if err := tr.AddMark(sel.From(), sel.To(), mark); err != nil {
				return nil, err
			}
		}
		if !tr.DocChanged() {
			return nil, ErrNotApplicable
		}
		return tr.SetSelection(sel), nil
	}
}

// SetBlockType turns the textblocks touched by the selection into nt with
// attrs.
func SetBlockType(nt *schema.NodeType, attrs map[string]any) Command {
	return func(st *state.State) (*state.Transaction, error) {
		sel := st.Selection
		tr := st.Tr()
		if err := tr.SetBlockType(sel.From(), sel.To(), nt, attrs); err != nil {
			return nil, err
		}
		if !tr.DocChanged() {
			return nil, ErrNotApplicable
		}
		return tr, nil
	}
}

// InsertText replaces the selection with text.
func InsertText(text string) Command {
	return func(st *state.State) (*state.Transaction, error) {
		tr := st.Tr()
		if err := tr.InsertText(text); err != nil {
			return nil, err
		}
		if !tr.DocChanged() {
			return nil, ErrNotApplicable
		}
		return tr, nil
	}
}

// DeleteSelection removes the selected content.
func DeleteSelection() Command {
	return func(st *state.State) (*state.Transaction, error) {
		if st.Selection.Empty() {
			return nil, ErrNotApplicable
		}
		tr := st.Tr()
		if err := tr.DeleteSelection(); err != nil {
			return nil, err
		}
		return tr, nil
	}
}

// Chain returns a command that runs the first of cmds that applies.
func Chain(cmds ...Command) Command {
	return func(st *state.State) (*state.Transaction, error) {
		for _, cmd := range cmds {
			tr, err := cmd(st)
			if errors.Is(err, ErrNotApplicable) {
				continue
			}
			return tr, err
		}
		return nil, ErrNotApplicable
	}
}
