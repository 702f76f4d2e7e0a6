// Package state holds the editor snapshot and the transactions that move
// it forward.
//
// A State pairs an immutable document with a selection. Changes are built
// on a Transaction obtained from State.Tr and committed with State.Apply,
// which either applies every step or returns an error and leaves the state
// untouched:
//
//	tr := st.Tr()
//	if err := tr.InsertText("Hello"); err != nil {
//		return err
//	}
//	next, err := st.Apply(tr)
//
// Transactions carry typed metadata read by the history and change
// tracking layers: AddToHistory, TrackChangesUser and Origin.
package state
