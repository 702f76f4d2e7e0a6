package engine

import (
	"errors"

	"github.com/dshills/scribe/internal/engine/commands"
	"github.com/dshills/scribe/internal/engine/history"
	"github.com/dshills/scribe/internal/engine/state"
)

// buildKeymap binds the schema's formatting keys plus undo and redo.
func (e *Engine) buildKeymap() *commands.Keymap {
	km := commands.BuildKeymap(e.schema)
	undo := e.historyCommand(e.history.Undo, history.ErrNothingToUndo)
	redo := e.historyCommand(e.history.Redo, history.ErrNothingToRedo)
	_ = km.Bind("Mod-z", undo)
	_ = km.Bind("Mod-y", redo)
	_ = km.Bind("Shift-Mod-z", redo)
	return km
}

func (e *Engine) historyCommand(fn func(*state.State) (*state.Transaction, error), empty error) commands.Command {
	return func(st *state.State) (*state.Transaction, error) {
		tr, err := fn(st)
		if errors.Is(err, empty) {
			return nil, commands.ErrNotApplicable
		}
		return tr, err
	}
}

// HandleKey runs the command bound to spec. It reports whether a command
// was bound and applied.
func (e *Engine) HandleKey(spec string) (bool, error) {
	e.mu.RLock()
	cmd, ok := e.keymap.Lookup(spec)
	e.mu.RUnlock()
	if !ok {
		return false, nil
	}

	err := e.Execute(cmd)
	switch {
	case errors.Is(err, commands.ErrNotApplicable):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

// BindKey binds spec to cmd, replacing an existing binding.
func (e *Engine) BindKey(spec string, cmd Command) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.keymap.Bind(spec, cmd)
}

// UndoInfo describes the undoable units, oldest first.
func (e *Engine) UndoInfo() []history.OperationInfo {
	return e.history.UndoInfo()
}
