package schema

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const yamlSpec = `
topNode: doc
nodes:
  - name: doc
    content: block+
  - name: heading
    content: text*
    group: block
    attrs:
      level: {default: 2}
  - name: text
marks:
  - name: em
    inclusive: false
`

const tomlSpec = `
topNode = "doc"

[[nodes]]
name = "doc"
content = "paragraph+"

[[nodes]]
name = "paragraph"
content = "text*"

[[nodes]]
name = "text"

[[marks]]
name = "comment"

[marks.attrs.author]

[marks.attrs.tone]
default = "neutral"
`

func TestLoadSpecYAML(t *testing.T) {
	spec, err := LoadSpec(strings.NewReader(yamlSpec), "yaml")
	if err != nil {
		t.Fatalf("LoadSpec: %v", err)
	}
	s, err := New(spec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	heading, ok := s.NodeType("heading")
	if !ok {
		t.Fatal("heading missing")
	}
	if got := heading.DefaultAttrs()["level"]; got != float64(2) {
		t.Errorf("level default = %#v, want 2", got)
	}
	em, _ := s.MarkType("em")
	if em.Inclusive() {
		t.Error("em should not be inclusive")
	}
}

func TestLoadSpecTOML(t *testing.T) {
	spec, err := LoadSpec(strings.NewReader(tomlSpec), "toml")
	if err != nil {
		t.Fatalf("LoadSpec: %v", err)
	}
	s, err := New(spec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	comment, ok := s.MarkType("comment")
	if !ok {
		t.Fatal("comment mark missing")
	}
	if !comment.HasRequiredAttrs() {
		t.Error("author should be required")
	}
	attrs, err := comment.ComputeAttrs(map[string]any{"author": "bob"})
	if err != nil {
		t.Fatalf("ComputeAttrs: %v", err)
	}
	if attrs["tone"] != "neutral" {
		t.Errorf("tone = %v, want neutral", attrs["tone"])
	}
}

func TestLoadSpecErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format string
	}{
		{"unsupported format", "{}", "ini"},
		{"unknown key", "colour: red\n", "yaml"},
		{"unknown node field", "nodes:\n  - name: doc\n    colour: red\n", "yaml"},
		{"nodes not a list", "nodes: 3\n", "yaml"},
		{"malformed toml", "nodes = [", "toml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSpec(strings.NewReader(tt.input), tt.format); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	if got := r.Names(); len(got) != 2 || got[0] != "basic" || got[1] != "letter" {
		t.Errorf("Names() = %v", got)
	}
	if _, err := r.Get("missing"); !errors.Is(err, ErrUnknownSchema) {
		t.Errorf("got %v, want ErrUnknownSchema", err)
	}

	path := filepath.Join(t.TempDir(), "notes.yaml")
	if err := os.WriteFile(path, []byte(yamlSpec), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := r.LoadFile("notes", path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	got, err := r.Get("notes")
	if err != nil || got != s {
		t.Errorf("Get(notes) = %v, %v", got, err)
	}
	if _, err := r.LoadFile("notes", path); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("got %v, want ErrDuplicateName", err)
	}
}
