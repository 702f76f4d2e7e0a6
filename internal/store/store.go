// Package store persists document snapshots.
//
// A [Snapshot] holds a document's JSON, its open change records and the
// name of its schema. Backends live in the memory, file and redis
// subpackages and all satisfy [Store].
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	// ErrNotFound is returned when no snapshot is stored under an ID.
	ErrNotFound = errors.New("snapshot not found")

	// ErrInvalidID is returned for empty IDs and IDs that could escape a
	// key namespace or directory.
	ErrInvalidID = errors.New("invalid document id")

	// ErrMalformed is returned when stored bytes are not a snapshot.
	ErrMalformed = errors.New("malformed snapshot")
)

// Store saves and loads snapshots by document ID.
type Store interface {
	Save(ctx context.Context, id string, snap Snapshot) error
	Load(ctx context.Context, id string) (Snapshot, error)
	// List returns the stored IDs in lexical order.
	List(ctx context.Context) ([]string, error)
	// Delete removes a snapshot. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error
	Close() error
}

// Snapshot is a persisted document.
type Snapshot struct {
	ID      string
	Version uint64
	Schema  string
	// Doc is the document JSON.
	Doc []byte
	// Changes is the JSON array of open change records, or nil.
	Changes []byte
	SavedAt time.Time
}

// ValidateID rejects IDs that are empty or contain path separators,
// whitespace or a leading dot.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.HasPrefix(id, ".") || strings.ContainsAny(id, "/\\: \t\n") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// Marshal encodes a snapshot as
// {id, version, schema, savedAt, doc, changes}.
func Marshal(s Snapshot) ([]byte, error) {
	if !gjson.ValidBytes(s.Doc) {
		return nil, fmt.Errorf("%w: document is not JSON", ErrMalformed)
	}
	changes := s.Changes
	if len(changes) == 0 {
		changes = []byte("[]")
	} else if !gjson.ValidBytes(changes) {
		return nil, fmt.Errorf("%w: changes are not JSON", ErrMalformed)
	}

	out := []byte("{}")
	var err error
	for _, kv := range []struct {
		path  string
		value any
	}{
		{"id", s.ID},
		{"version", s.Version},
		{"schema", s.Schema},
		{"savedAt", s.SavedAt.UTC().Format(time.RFC3339Nano)},
	} {
		if out, err = sjson.SetBytes(out, kv.path, kv.value); err != nil {
			return nil, err
		}
	}
	if out, err = sjson.SetRawBytes(out, "doc", s.Doc); err != nil {
		return nil, err
	}
	if out, err = sjson.SetRawBytes(out, "changes", changes); err != nil {
		return nil, err
	}
	return out, nil
}

// Unmarshal decodes a snapshot written by Marshal.
func Unmarshal(data []byte) (Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return Snapshot{}, fmt.Errorf("%w: not JSON", ErrMalformed)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Snapshot{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	doc := root.Get("doc")
	if !doc.IsObject() {
		return Snapshot{}, fmt.Errorf("%w: doc must be an object", ErrMalformed)
	}
	s := Snapshot{
		ID:      root.Get("id").String(),
		Version: root.Get("version").Uint(),
		Schema:  root.Get("schema").String(),
		Doc:     []byte(doc.Raw),
	}
	if ch := root.Get("changes"); ch.IsArray() && len(ch.Array()) > 0 {
		s.Changes = []byte(ch.Raw)
	}
	if ts := root.Get("savedAt").String(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: savedAt: %w", ErrMalformed, err)
		}
		s.SavedAt = t
	}
	return s, nil
}
