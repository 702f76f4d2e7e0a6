package schema

import "sync"

var (
	basicOnce   sync.Once
	basicSchema *Schema
)

// Basic returns the general rich-text schema: paragraphs, headings, lists,
// tables and the common inline marks.
func Basic() *Schema {
	basicOnce.Do(func() {
		basicSchema = MustNew(BasicSpec())
	})
	return basicSchema
}

// BasicSpec returns a fresh copy of the spec behind Basic, for callers that
// want to extend it.
func BasicSpec() Spec {
	cellAttrs := func() map[string]AttrSpec {
		return map[string]AttrSpec{
			"colspan":    Attr(1),
			"rowspan":    Attr(1),
			"background": Attr(nil),
		}
	}
	cellAttrMap := map[string]string{
		"colspan":    "colspan",
		"rowspan":    "rowspan",
		"background": "data-background",
	}

	return Spec{
		TopNode:      "doc",
		DefaultBlock: "paragraph",
		Nodes: []NodeSpec{
			{Name: "doc", Content: "block+"},
			{
				Name:    "paragraph",
				Content: "inline*",
				Group:   "block",
				DOM:     DOMSpec{Tag: "p"},
				Parse:   []ParseRule{{Tag: "p"}},
			},
			{
				Name:     "blockquote",
				Content:  "block+",
				Group:    "block",
				Defining: true,
				DOM:      DOMSpec{Tag: "blockquote"},
				Parse:    []ParseRule{{Tag: "blockquote"}},
			},
			{
				Name:  "horizontal_rule",
				Group: "block",
				DOM:   DOMSpec{Tag: "hr"},
				Parse: []ParseRule{{Tag: "hr"}},
			},
			{
				Name:     "heading",
				Content:  "inline*",
				Group:    "block",
				Defining: true,
				Attrs:    map[string]AttrSpec{"level": Attr(1)},
				DOM:      DOMSpec{Tag: "h", TagAttr: "level"},
				Parse: []ParseRule{
					{Tag: "h1", Attrs: map[string]any{"level": 1}},
					{Tag: "h2", Attrs: map[string]any{"level": 2}},
					{Tag: "h3", Attrs: map[string]any{"level": 3}},
					{Tag: "h4", Attrs: map[string]any{"level": 4}},
					{Tag: "h5", Attrs: map[string]any{"level": 5}},
					{Tag: "h6", Attrs: map[string]any{"level": 6}},
				},
			},
			{
				Name:     "code_block",
				Content:  "text*",
				Marks:    StringPtr(""),
				Group:    "block",
				Code:     true,
				Defining: true,
				DOM:      DOMSpec{Tag: "pre"},
				Parse:    []ParseRule{{Tag: "pre"}},
			},
			{Name: "text", Group: "inline"},
			{
				Name:   "image",
				Inline: true,
				Group:  "inline",
				Attrs: map[string]AttrSpec{
					"src":   Required(),
					"alt":   Attr(nil),
					"title": Attr(nil),
				},
				DOM: DOMSpec{
					Tag:     "img",
					AttrMap: map[string]string{"src": "src", "alt": "alt", "title": "title"},
				},
				Parse: []ParseRule{{Tag: "img", Match: map[string]string{"src": ""}}},
			},
			{
				Name:   "hard_break",
				Inline: true,
				Group:  "inline",
				DOM:    DOMSpec{Tag: "br"},
				Parse:  []ParseRule{{Tag: "br"}},
			},
			{
				Name:    "ordered_list",
				Content: "list_item+",
				Group:   "block",
				Attrs:   map[string]AttrSpec{"order": Attr(1)},
				DOM: DOMSpec{
					Tag:     "ol",
					AttrMap: map[string]string{"order": "start"},
				},
				Parse: []ParseRule{{Tag: "ol"}},
			},
			{
				Name:    "bullet_list",
				Content: "list_item+",
				Group:   "block",
				DOM:     DOMSpec{Tag: "ul"},
				Parse:   []ParseRule{{Tag: "ul"}},
			},
			{
				Name:     "list_item",
				Content:  "paragraph block*",
				Defining: true,
				DOM:      DOMSpec{Tag: "li"},
				Parse:    []ParseRule{{Tag: "li"}},
			},
			{
				Name:      "table",
				Content:   "table_row+",
				Group:     "block",
				Isolating: true,
				DOM:       DOMSpec{Tag: "table"},
				Parse:     []ParseRule{{Tag: "table"}},
			},
			{
				Name:    "table_row",
				Content: "(table_cell | table_header)*",
				DOM:     DOMSpec{Tag: "tr"},
				Parse:   []ParseRule{{Tag: "tr"}},
			},
			{
				Name:      "table_cell",
				Content:   "block+",
				Isolating: true,
				Attrs:     cellAttrs(),
				DOM:       DOMSpec{Tag: "td", AttrMap: cellAttrMap},
				Parse:     []ParseRule{{Tag: "td"}},
			},
			{
				Name:      "table_header",
				Content:   "block+",
				Isolating: true,
				Attrs:     cellAttrs(),
				DOM:       DOMSpec{Tag: "th", AttrMap: cellAttrMap},
				Parse:     []ParseRule{{Tag: "th"}},
			},
		},
		Marks: []MarkSpec{
			{
				Name: "link",
				Attrs: map[string]AttrSpec{
					"href":  Required(),
					"title": Attr(nil),
				},
				Inclusive: BoolPtr(false),
				DOM: DOMSpec{
					Tag:     "a",
					AttrMap: map[string]string{"href": "href", "title": "title"},
				},
				Parse: []ParseRule{{Tag: "a", Match: map[string]string{"href": ""}}},
			},
			{
				Name:  "em",
				DOM:   DOMSpec{Tag: "em"},
				Parse: []ParseRule{{Tag: "em"}, {Tag: "i"}},
			},
			{
				Name:  "strong",
				DOM:   DOMSpec{Tag: "strong"},
				Parse: []ParseRule{{Tag: "strong"}, {Tag: "b"}},
			},
			{
				Name:  "code",
				DOM:   DOMSpec{Tag: "code"},
				Parse: []ParseRule{{Tag: "code"}},
			},
			{
				Name:  "underline",
				DOM:   DOMSpec{Tag: "u"},
				Parse: []ParseRule{{Tag: "u"}},
			},
			{
				Name:  "highlight",
				Attrs: map[string]AttrSpec{"color": Attr("yellow")},
				DOM: DOMSpec{
					Tag:     "mark",
					AttrMap: map[string]string{"color": "data-color"},
				},
				Parse: []ParseRule{{Tag: "mark"}},
			},
		},
	}
}
