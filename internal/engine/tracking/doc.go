// Package tracking attributes document changes to users so they can be
// reviewed, accepted, or rejected.
//
// A [Tracker] is fed every committed transaction. Transactions that carry a
// tracking user produce one [ChangeRecord] per content-changing step,
// classified as insert, delete, or modify by comparing the removed and
// inserted sizes. Every record is carried through later transactions so
// its range and its inverse step stay valid against the current document.
//
// # Usage
//
//	tracker := tracking.NewTracker()
//
//	tr := st.Tr().SetTrackChangesUser("alice")
//	_ = tr.InsertTextAt(6, 6, " world")
//	next, _ := st.Apply(tr)
//	records, _ := tracker.Record(tr, 1)
//
//	// Revert alice's insertion.
//	rej, err := tracker.Reject(records[0].ID, next)
//	if err == nil {
//	    next, _ = next.Apply(rej)
//	    tracker.Record(rej, 2) // removes the record
//	}
//
// # Decorations
//
// [Decorations] is a pure function of a document and a record list. Insert
// and modify records become inline ranges; deletions become widgets at the
// deletion point carrying the removed text. Nothing is cached.
//
// # Thread Safety
//
// All Tracker methods are safe for concurrent use.
package tracking
