package codec

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/schema"
	"github.com/dshills/scribe/internal/engine/transform"
)

type sliceJSON struct {
	Content   []*nodeJSON `json:"content,omitempty"`
	OpenStart int         `json:"openStart,omitempty"`
	OpenEnd   int         `json:"openEnd,omitempty"`
}

type stepJSON struct {
	StepType string     `json:"stepType"`
	From     int        `json:"from"`
	To       int        `json:"to"`
	Slice    *sliceJSON `json:"slice,omitempty"`
	Mark     *markJSON  `json:"mark,omitempty"`
}

func encodeSlice(s *model.Slice) *sliceJSON {
	if s == nil || (s.Content.ChildCount() == 0 && s.OpenStart == 0 && s.OpenEnd == 0) {
		return nil
	}
	return &sliceJSON{Content: encodeFragment(s.Content), OpenStart: s.OpenStart, OpenEnd: s.OpenEnd}
}

// SliceToJSON encodes a slice. The empty slice encodes as null.
func SliceToJSON(s *model.Slice) ([]byte, error) {
	return json.Marshal(encodeSlice(s))
}

// SliceFromJSON decodes a slice; null decodes to the empty slice.
func SliceFromJSON(s *schema.Schema, data []byte) (*model.Slice, error) {
	if !gjson.ValidBytes(data) {
		return nil, jsonError("", "", "invalid JSON", ErrMalformed)
	}
	return decodeSlice(s, gjson.ParseBytes(data), "")
}

func decodeSlice(s *schema.Schema, v gjson.Result, path string) (*model.Slice, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return model.EmptySlice, nil
	}
	if !v.IsObject() {
		return nil, jsonError(path, "", "expected slice object", ErrMalformed)
	}
	content, err := decodeContent(s, v.Get("content"), joinPath(path, "content"))
	if err != nil {
		return nil, err
	}
	openStart, openEnd := int(v.Get("openStart").Int()), int(v.Get("openEnd").Int())
	if openStart < 0 || openEnd < 0 {
		return nil, jsonError(path, "", "negative open depth", ErrMalformed)
	}
	return model.NewSlice(content, openStart, openEnd), nil
}

// StepToJSON encodes a step as {stepType, from, to, slice? | mark?}.
func StepToJSON(step transform.Step) ([]byte, error) {
	out := &stepJSON{StepType: step.Kind()}
	switch st := step.(type) {
	case *transform.ReplaceStep:
		out.From, out.To, out.Slice = st.From, st.To, encodeSlice(st.Slice)
	case *transform.AddMarkStep:
		out.From, out.To, out.Mark = st.From, st.To, encodeMark(st.Mark)
	case *transform.RemoveMarkStep:
		out.From, out.To, out.Mark = st.From, st.To, encodeMark(st.Mark)
	default:
		return nil, fmt.Errorf("codec: unsupported step %T", step)
	}
	return json.Marshal(out)
}

// StepFromJSON decodes a step.
func StepFromJSON(s *schema.Schema, data []byte) (transform.Step, error) {
	if !gjson.ValidBytes(data) {
		return nil, jsonError("", "", "invalid JSON", ErrMalformed)
	}
	return decodeStep(s, gjson.ParseBytes(data), "")
}

func decodeStep(s *schema.Schema, v gjson.Result, path string) (transform.Step, error) {
	if !v.IsObject() {
		return nil, jsonError(path, "", "expected step object", ErrMalformed)
	}
	from, to := v.Get("from"), v.Get("to")
	if from.Type != gjson.Number || to.Type != gjson.Number {
		return nil, jsonError(path, "", "step without from/to", ErrMalformed)
	}
	f, t := int(from.Int()), int(to.Int())

	kind := v.Get("stepType").String()
	switch kind {
	case transform.KindReplace:
		slice, err := decodeSlice(s, v.Get("slice"), joinPath(path, "slice"))
		if err != nil {
			return nil, err
		}
		return transform.NewReplaceStep(f, t, slice), nil
	case transform.KindAddMark, transform.KindRemoveMark:
		m, err := decodeMark(s, v.Get("mark"), joinPath(path, "mark"))
		if err != nil {
			return nil, err
		}
		if kind == transform.KindAddMark {
			return transform.NewAddMarkStep(f, t, m), nil
		}
		return transform.NewRemoveMarkStep(f, t, m), nil
	}
	return nil, jsonError(path, kind, "unknown step type", ErrMalformed)
}
