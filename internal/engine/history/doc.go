// Package history provides undo/redo for documents edited through
// transactions.
//
// # Units
//
// The history keeps two bounded stacks of units. A unit holds the steps
// that revert one or more transactions together with the selection that
// was active before them. Transactions that arrive within the group delay
// of each other join the same unit:
//
//	h := history.NewHistory(100)
//	h.SetNewGroupDelay(500 * time.Millisecond)
//
//	next, _ := st.Apply(tr)
//	h.Record(tr)
//
// # Undo and Redo
//
// Undo and Redo do not change the stacks themselves. They build a
// transaction from the newest unit; recording that transaction after it
// was applied moves the unit to the other stack:
//
//	tr, err := h.Undo(st)
//	if err != nil {
//		return err
//	}
//	st, _ = st.Apply(tr)
//	h.Record(tr)
//
// # Non-history changes
//
// Transactions with AddToHistory false (remote edits, change rejections)
// never create units. The stored units are remapped over them so they keep
// applying to the right positions.
//
// # Grouping
//
// Multiple transactions can be grouped as a single undo unit:
//
//	h.BeginGroup("Find and Replace")
//	// ... multiple transactions ...
//	h.EndGroup()
package history
