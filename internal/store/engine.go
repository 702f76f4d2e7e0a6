package store

import (
	"fmt"
	"time"

	"github.com/dshills/scribe/internal/engine"
	"github.com/dshills/scribe/internal/engine/schema"
)

// Capture builds a snapshot of e's document and open change records.
// schemaName is recorded so Restore can find the schema again.
func Capture(e *engine.Engine, id, schemaName string, now time.Time) (Snapshot, error) {
	doc, err := e.ContentJSON()
	if err != nil {
		return Snapshot{}, fmt.Errorf("capture %s: %w", id, err)
	}
	var changes []byte
	if len(e.Changes()) > 0 {
		if changes, err = e.ExportChanges(); err != nil {
			return Snapshot{}, fmt.Errorf("capture %s: %w", id, err)
		}
	}
	return Snapshot{
		ID:      id,
		Version: e.Version(),
		Schema:  schemaName,
		Doc:     doc,
		Changes: changes,
		SavedAt: now,
	}, nil
}

// Restore creates an engine holding the snapshot's document and change
// records. The schema is looked up in reg by the snapshot's schema name;
// opts are applied after the schema and content.
func Restore(snap Snapshot, reg *schema.Registry, opts ...engine.Option) (*engine.Engine, error) {
	if reg == nil {
		reg = schema.NewRegistry()
	}
	name := snap.Schema
	if name == "" {
		name = "basic"
	}
	s, err := reg.Get(name)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", snap.ID, err)
	}

	base := []engine.Option{
		engine.WithID(snap.ID),
		engine.WithSchema(s),
		engine.WithContent(engine.FormatJSON, snap.Doc),
	}
	e, err := engine.New(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", snap.ID, err)
	}
	if len(snap.Changes) > 0 {
		if err := e.ImportChanges(snap.Changes); err != nil {
			return nil, fmt.Errorf("restore %s: %w", snap.ID, err)
		}
	}
	return e, nil
}
