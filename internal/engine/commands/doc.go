// Package commands provides editing commands and the default keymap.
//
// A [Command] reads a state and returns a transaction for the caller to
// dispatch, or [ErrNotApplicable]. Commands never apply anything
// themselves, so they compose with [Chain] and are easy to test.
//
//	km := commands.BuildKeymap(schema.Basic())
//	if cmd, ok := km.Lookup("Mod-b"); ok {
//	    tr, err := cmd(st)
//	    ...
//	}
package commands
