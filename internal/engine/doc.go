// Package engine provides the structured document engine for Scribe.
//
// The engine package serves as the main facade. An [Engine] owns the
// current document and selection and commits every change as an atomic
// transaction, feeding it to the undo history, the change tracker, metrics
// and subscribers in that order.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - schema: node and mark types with content expressions
//   - model: the immutable document tree, slices and resolved positions
//   - transform: invertible, mappable steps
//   - state: selection, transactions and the immutable state snapshot
//   - history: undo/redo with coalescing and remapping
//   - tracking: attributed change records, accept/reject and decorations
//   - codec: JSON and HTML conversion
//   - commands: editing commands and the default keymap
//   - notify: synchronous content-changed notifications
//
// # Thread Safety
//
// All Engine operations are thread-safe. Observers run after the engine
// lock is released and before the call that caused the change returns.
//
// # Basic Usage
//
//	e, err := engine.New(engine.WithContent(engine.FormatHTML, []byte("<p>Hello</p>")))
//	if err != nil {
//	    return err
//	}
//
//	tr := e.Tr()
//	_ = tr.InsertTextAt(6, 6, " world")
//	if err := e.Dispatch(tr); err != nil {
//	    return err // nothing was applied
//	}
//
//	e.Undo() // "Hello"
//
// # Change Tracking
//
//	e, _ := engine.New(engine.WithTracking(true, "alice"))
//	e.InsertText("Dear Bob,")
//	for _, c := range e.Changes() {
//	    fmt.Println(c) // c1 insert by alice at v1
//	}
//	e.RejectAll()
//
// # Keys
//
// HandleKey runs the command bound to a key such as "Mod-b" or
// "Shift-Ctrl-1". Undo and redo are bound to Mod-z, Mod-y and Shift-Mod-z.
package engine
