package codec

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/schema"
)

// nodeJSON is the wire form of a node:
// {type, attrs?, content?, marks?, text?}.
type nodeJSON struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*nodeJSON    `json:"content,omitempty"`
	Marks   []*markJSON    `json:"marks,omitempty"`
	Text    string         `json:"text,omitempty"`
}

type markJSON struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

var nodeKeys = map[string]bool{"type": true, "attrs": true, "content": true, "marks": true, "text": true}

func encodeNode(n *model.Node) *nodeJSON {
	out := &nodeJSON{Type: n.Type.Name, Attrs: n.Attrs, Marks: encodeMarks(n.Marks)}
	if n.IsText() {
		out.Text = n.Text
		return out
	}
	out.Content = encodeFragment(n.Content)
	return out
}

func encodeFragment(f *model.Fragment) []*nodeJSON {
	if f == nil || f.ChildCount() == 0 {
		return nil
	}
	out := make([]*nodeJSON, 0, f.ChildCount())
	for _, child := range f.Children() {
		out = append(out, encodeNode(child))
	}
	return out
}

func encodeMarks(marks []*model.Mark) []*markJSON {
	if len(marks) == 0 {
		return nil
	}
	out := make([]*markJSON, len(marks))
	for i, m := range marks {
		out[i] = encodeMark(m)
	}
	return out
}

func encodeMark(m *model.Mark) *markJSON {
	return &markJSON{Type: m.Type.Name, Attrs: m.Attrs}
}

// ToJSON encodes a node and its subtree.
func ToJSON(n *model.Node) ([]byte, error) {
	return json.Marshal(encodeNode(n))
}

// FromJSON decodes a document and validates it against s. Unknown node or
// mark names are errors, never dropped.
func FromJSON(s *schema.Schema, data []byte) (*model.Node, error) {
	if !gjson.ValidBytes(data) {
		return nil, jsonError("", "", "invalid JSON", ErrMalformed)
	}
	doc, err := decodeNode(s, gjson.ParseBytes(data), "")
	if err != nil {
		return nil, err
	}
	if err := doc.Check(); err != nil {
		path := ""
		if se, ok := err.(*schema.SchemaError); ok {
			path = se.PathString()
		}
		return nil, jsonError(path, "", "document does not match schema", err)
	}
	return doc, nil
}

func joinPath(path string, key any) string {
	var k string
	switch v := key.(type) {
	case int:
		k = strconv.Itoa(v)
	default:
		k = fmt.Sprint(v)
	}
	if path == "" {
		return k
	}
	return path + "." + k
}

func decodeNode(s *schema.Schema, v gjson.Result, path string) (*model.Node, error) {
	if !v.IsObject() {
		return nil, jsonError(path, "", "expected node object", ErrMalformed)
	}
	var unknown string
	v.ForEach(func(key, _ gjson.Result) bool {
		if !nodeKeys[key.String()] {
			unknown = key.String()
			return false
		}
		return true
	})
	if unknown != "" {
		return nil, jsonError(path, unknown, "unexpected field", ErrMalformed)
	}

	typ := v.Get("type")
	if typ.Type != gjson.String {
		return nil, jsonError(path, "", "node without type", ErrMalformed)
	}
	marks, err := decodeMarks(s, v.Get("marks"), joinPath(path, "marks"))
	if err != nil {
		return nil, err
	}

	name := typ.String()
	nt, ok := s.NodeType(name)
	if !ok {
		return nil, jsonError(path, name, "unknown node type", schema.ErrUnknownType)
	}

	if nt.IsText() {
		text := v.Get("text")
		if text.Type != gjson.String || text.String() == "" {
			return nil, jsonError(path, name, "text node without text", model.ErrEmptyText)
		}
		if v.Get("content").Exists() {
			return nil, jsonError(path, name, "text node with content", ErrMalformed)
		}
		return model.NewText(s, text.String(), marks)
	}
	if v.Get("text").Exists() {
		return nil, jsonError(path, name, "text on a non-text node", ErrMalformed)
	}

	attrs, err := decodeAttrs(v.Get("attrs"), joinPath(path, "attrs"))
	if err != nil {
		return nil, err
	}
	content, err := decodeContent(s, v.Get("content"), joinPath(path, "content"))
	if err != nil {
		return nil, err
	}
	n, err := model.Create(nt, attrs, content, marks)
	if err != nil {
		return nil, jsonError(path, name, "invalid attributes", err)
	}
	return n, nil
}

func decodeContent(s *schema.Schema, v gjson.Result, path string) (*model.Fragment, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return model.EmptyFragment, nil
	}
	if !v.IsArray() {
		return nil, jsonError(path, "", "content must be an array", ErrMalformed)
	}
	var nodes []*model.Node
	for i, child := range v.Array() {
		n, err := decodeNode(s, child, joinPath(path, i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return model.FragmentFrom(nodes...), nil
}

func decodeAttrs(v gjson.Result, path string) (map[string]any, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsObject() {
		return nil, jsonError(path, "", "attrs must be an object", ErrMalformed)
	}
	attrs, _ := v.Value().(map[string]any)
	return attrs, nil
}

func decodeMarks(s *schema.Schema, v gjson.Result, path string) ([]*model.Mark, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, jsonError(path, "", "marks must be an array", ErrMalformed)
	}
	var marks []*model.Mark
	for i, mv := range v.Array() {
		m, err := decodeMark(s, mv, joinPath(path, i))
		if err != nil {
			return nil, err
		}
		marks = append(marks, m)
	}
	return marks, nil
}

func decodeMark(s *schema.Schema, v gjson.Result, path string) (*model.Mark, error) {
	if !v.IsObject() {
		return nil, jsonError(path, "", "expected mark object", ErrMalformed)
	}
	typ := v.Get("type")
	if typ.Type != gjson.String {
		return nil, jsonError(path, "", "mark without type", ErrMalformed)
	}
	mt, ok := s.MarkType(typ.String())
	if !ok {
		return nil, jsonError(path, typ.String(), "unknown mark type", schema.ErrUnknownMark)
	}
	attrs, err := decodeAttrs(v.Get("attrs"), joinPath(path, "attrs"))
	if err != nil {
		return nil, err
	}
	m, err := model.NewMark(mt, attrs)
	if err != nil {
		return nil, jsonError(path, mt.Name, "invalid mark attributes", err)
	}
	return m, nil
}

// MarkToJSON encodes a mark as {type, attrs?}.
func MarkToJSON(m *model.Mark) ([]byte, error) {
	return json.Marshal(encodeMark(m))
}

// MarkFromJSON decodes a mark.
func MarkFromJSON(s *schema.Schema, data []byte) (*model.Mark, error) {
	if !gjson.ValidBytes(data) {
		return nil, jsonError("", "", "invalid JSON", ErrMalformed)
	}
	return decodeMark(s, gjson.ParseBytes(data), "")
}
