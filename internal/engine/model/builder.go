package model

import (
	"fmt"

	"github.com/dshills/scribe/internal/engine/schema"
)

// Builder assembles documents from Go code. It panics on invalid input and
// is meant for fixtures and built-in content.
//
//	b := model.NewBuilder(schema.Basic())
//	doc := b.Doc(b.P("Hello ", b.Marked(b.Mark("strong", nil), "world")))
type Builder struct {
	Schema *schema.Schema
}

// NewBuilder creates a builder for s.
func NewBuilder(s *schema.Schema) *Builder {
	return &Builder{Schema: s}
}

// Node builds a checked node. Children may be *Node, []*Node, string
// (a plain text node) or *Fragment.
func (b *Builder) Node(typeName string, attrs map[string]any, children ...any) *Node {
	t, ok := b.Schema.NodeType(typeName)
	if !ok {
		panic(fmt.Sprintf("builder: %v %q", schema.ErrUnknownType, typeName))
	}
	n, err := CreateChecked(t, attrs, FragmentFrom(b.flatten(children)...), nil)
	if err != nil {
		panic(fmt.Sprintf("builder: %s: %v", typeName, err))
	}
	return n
}

// Doc builds a node of the schema's top type.
func (b *Builder) Doc(children ...any) *Node {
	return b.Node(b.Schema.TopNodeType().Name, nil, children...)
}

// P builds a paragraph.
func (b *Builder) P(children ...any) *Node {
	return b.Node("paragraph", nil, children...)
}

// Text builds a text node with marks.
func (b *Builder) Text(text string, marks ...*Mark) *Node {
	n, err := NewText(b.Schema, text, marks)
	if err != nil {
		panic(fmt.Sprintf("builder: %v", err))
	}
	return n
}

// Mark builds a mark.
func (b *Builder) Mark(name string, attrs map[string]any) *Mark {
	t, ok := b.Schema.MarkType(name)
	if !ok {
		panic(fmt.Sprintf("builder: %v %q", schema.ErrUnknownMark, name))
	}
	m, err := NewMark(t, attrs)
	if err != nil {
		panic(fmt.Sprintf("builder: %v", err))
	}
	return m
}

// Marked adds mark to each inline child.
func (b *Builder) Marked(mark *Mark, children ...any) []*Node {
	nodes := b.flatten(children)
	for i, n := range nodes {
		nodes[i] = n.WithMarks(mark.AddToSet(n.Marks))
	}
	return nodes
}

func (b *Builder) flatten(children []any) []*Node {
	var out []*Node
	for _, c := range children {
		switch v := c.(type) {
		case *Node:
			out = append(out, v)
		case []*Node:
			out = append(out, v...)
		case *Fragment:
			out = append(out, v.content...)
		case string:
			if v != "" {
				out = append(out, b.Text(v))
			}
		default:
			panic(fmt.Sprintf("builder: unsupported child %T", c))
		}
	}
	return out
}

// EmptyDoc returns the smallest valid document of the schema.
func EmptyDoc(s *schema.Schema) (*Node, error) {
	return CreateAndFill(s.TopNodeType(), nil, nil, nil)
}
