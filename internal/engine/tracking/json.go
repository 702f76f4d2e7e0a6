package tracking

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/scribe/internal/engine/codec"
	"github.com/dshills/scribe/internal/engine/schema"
	"github.com/dshills/scribe/internal/engine/transform"
)

// RecordToJSON encodes a record as
// {id, user, timestamp, type, version, step, inverse, from, to, deletedText}.
// inverse is null once the change can no longer be reverted.
func RecordToJSON(r ChangeRecord) ([]byte, error) {
	step, err := codec.StepToJSON(r.Step)
	if err != nil {
		return nil, err
	}
	inverse := []byte("null")
	if r.inverse != nil {
		if inverse, err = codec.StepToJSON(r.inverse); err != nil {
			return nil, err
		}
	}

	out := []byte("{}")
	for _, kv := range []struct {
		path  string
		value any
	}{
		{"id", r.ID},
		{"user", r.User},
		{"timestamp", r.Timestamp.UTC().Format(time.RFC3339Nano)},
		{"type", r.Type.String()},
		{"version", r.Version},
	} {
		if out, err = sjson.SetBytes(out, kv.path, kv.value); err != nil {
			return nil, err
		}
	}
	if out, err = sjson.SetRawBytes(out, "step", step); err != nil {
		return nil, err
	}
	if out, err = sjson.SetRawBytes(out, "inverse", inverse); err != nil {
		return nil, err
	}
	for _, kv := range []struct {
		path  string
		value any
	}{
		{"from", r.from},
		{"to", r.to},
		{"deletedText", r.deletedText},
	} {
		if out, err = sjson.SetBytes(out, kv.path, kv.value); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RecordsToJSON encodes records as a JSON array in order.
func RecordsToJSON(records []ChangeRecord) ([]byte, error) {
	out := []byte("[]")
	for _, r := range records {
		data, err := RecordToJSON(r)
		if err != nil {
			return nil, err
		}
		if out, err = sjson.SetRawBytes(out, "-1", data); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RecordFromJSON decodes a record produced by RecordToJSON. Steps are
// resolved against s.
func RecordFromJSON(s *schema.Schema, data []byte) (ChangeRecord, error) {
	if !gjson.ValidBytes(data) {
		return ChangeRecord{}, fmt.Errorf("change record: invalid JSON: %w", codec.ErrMalformed)
	}
	return decodeRecord(s, gjson.ParseBytes(data))
}

// RecordsFromJSON decodes an array produced by RecordsToJSON.
func RecordsFromJSON(s *schema.Schema, data []byte) ([]ChangeRecord, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("change records: invalid JSON: %w", codec.ErrMalformed)
	}
	v := gjson.ParseBytes(data)
	if !v.IsArray() {
		return nil, fmt.Errorf("change records: expected array: %w", codec.ErrMalformed)
	}
	var out []ChangeRecord
	for i, item := range v.Array() {
		r, err := decodeRecord(s, item)
		if err != nil {
			return nil, fmt.Errorf("change record %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func decodeRecord(s *schema.Schema, v gjson.Result) (ChangeRecord, error) {
	if !v.IsObject() {
		return ChangeRecord{}, fmt.Errorf("change record: expected object: %w", codec.ErrMalformed)
	}
	id := v.Get("id").String()
	if id == "" {
		return ChangeRecord{}, fmt.Errorf("change record: missing id: %w", codec.ErrMalformed)
	}
	typ, ok := ParseChangeType(v.Get("type").String())
	if !ok {
		return ChangeRecord{}, fmt.Errorf("change record %s: unknown type %q: %w", id, v.Get("type").String(), codec.ErrMalformed)
	}
	ts, err := time.Parse(time.RFC3339Nano, v.Get("timestamp").String())
	if err != nil {
		return ChangeRecord{}, fmt.Errorf("change record %s: timestamp: %w", id, err)
	}
	step, err := codec.StepFromJSON(s, []byte(v.Get("step").Raw))
	if err != nil {
		return ChangeRecord{}, fmt.Errorf("change record %s: step: %w", id, err)
	}
	var inverse transform.Step
	if inv := v.Get("inverse"); inv.IsObject() {
		if inverse, err = codec.StepFromJSON(s, []byte(inv.Raw)); err != nil {
			return ChangeRecord{}, fmt.Errorf("change record %s: inverse: %w", id, err)
		}
	}
	return ChangeRecord{
		ID:          id,
		User:        v.Get("user").String(),
		Timestamp:   ts,
		Type:        typ,
		Step:        step,
		Version:     v.Get("version").Uint(),
		inverse:     inverse,
		from:        int(v.Get("from").Int()),
		to:          int(v.Get("to").Int()),
		deletedText: v.Get("deletedText").String(),
	}, nil
}
