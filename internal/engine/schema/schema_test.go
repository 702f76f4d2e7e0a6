package schema

import (
	"errors"
	"strings"
	"testing"
)

func minimalSpec(content string, extra ...NodeSpec) Spec {
	nodes := []NodeSpec{
		{Name: "doc", Content: content},
		{Name: "paragraph", Content: "text*", Group: "block"},
		{Name: "quote", Content: "block+", Group: "block"},
		{Name: "text", Group: "inline"},
	}
	return Spec{Nodes: append(nodes, extra...)}
}

func TestBuiltinSchemasCompile(t *testing.T) {
	for _, s := range []*Schema{Basic(), Letter()} {
		if s.TopNodeType().Name != "doc" {
			t.Errorf("top node = %s, want doc", s.TopNodeType().Name)
		}
		if s.DefaultBlockType() == nil || s.DefaultBlockType().Name != "paragraph" {
			t.Errorf("default block = %v, want paragraph", s.DefaultBlockType())
		}
		if s.TextType() == nil {
			t.Error("missing text type")
		}
	}
}

func TestContentMatchSequence(t *testing.T) {
	s := Basic()
	doc, _ := s.NodeType("doc")
	para, _ := s.NodeType("paragraph")
	text := s.TextType()

	start := doc.ContentMatch()
	if start.ValidEnd {
		t.Error("block+ should not accept empty content")
	}
	after := start.MatchType(para)
	if after == nil {
		t.Fatal("doc should accept paragraph")
	}
	if !after.ValidEnd {
		t.Error("one paragraph should complete block+")
	}
	if after.MatchType(para) == nil {
		t.Error("block+ should accept a second paragraph")
	}
	if start.MatchType(text) != nil {
		t.Error("doc should not accept text")
	}
}

func TestContentMatchOptionalParts(t *testing.T) {
	s := Letter()
	letter, _ := s.NodeType("letter")
	names := []string{"header", "recipient", "date", "salutation", "subject", "body", "signoff"}

	m := letter.ContentMatch()
	for _, name := range names {
		nt, ok := s.NodeType(name)
		if !ok {
			t.Fatalf("missing type %s", name)
		}
		if m = m.MatchType(nt); m == nil {
			t.Fatalf("letter rejected %s", name)
		}
	}
	if !m.ValidEnd {
		t.Error("letter with all required parts should be complete")
	}

	conf, _ := s.NodeType("confidentiality")
	hdr, _ := s.NodeType("header")
	if letter.ContentMatch().MatchType(hdr).MatchType(conf) == nil {
		t.Error("confidentiality should be allowed after header")
	}
}

func TestContentMatchRanges(t *testing.T) {
	tests := []struct {
		name    string
		content string
		counts  map[int]bool
	}{
		{"exact", "paragraph{2}", map[int]bool{0: false, 1: false, 2: true, 3: false}},
		{"open", "paragraph{2,}", map[int]bool{1: false, 2: true, 5: true}},
		{"bounded", "paragraph{1,3}", map[int]bool{0: false, 1: true, 3: true, 4: false}},
		{"star", "paragraph*", map[int]bool{0: true, 4: true}},
		{"optional", "paragraph?", map[int]bool{0: true, 1: true, 2: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(minimalSpec(tt.content))
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			doc, _ := s.NodeType("doc")
			para, _ := s.NodeType("paragraph")
			for n, want := range tt.counts {
				m := doc.ContentMatch()
				for i := 0; i < n && m != nil; i++ {
					m = m.MatchType(para)
				}
				got := m != nil && m.ValidEnd
				if got != want {
					t.Errorf("%d paragraphs: valid = %v, want %v", n, got, want)
				}
			}
		})
	}
}

func TestGroupResolution(t *testing.T) {
	s, err := New(minimalSpec("block+"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc, _ := s.NodeType("doc")
	quote, _ := s.NodeType("quote")
	para, _ := s.NodeType("paragraph")

	if doc.ContentMatch().MatchType(quote) == nil || doc.ContentMatch().MatchType(para) == nil {
		t.Error("group block should resolve to quote and paragraph")
	}
	if !quote.InGroup("block") {
		t.Error("quote should be in group block")
	}
}

func TestContentExpressionErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		msg     string
	}{
		{"unknown name", "nothing+", "no node type or group"},
		{"mixed inline and block", "paragraph text", "mixing inline and block"},
		{"unclosed paren", "(paragraph", "missing closing paren"},
		{"bad range", "paragraph{x}", "expected number"},
		{"trailing", "paragraph )", "trailing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(minimalSpec(tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrBadContentExpr) {
				t.Errorf("error %v should wrap ErrBadContentExpr", err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q should mention %q", err, tt.msg)
			}
		})
	}
}

func TestDeadEndRejected(t *testing.T) {
	spec := minimalSpec("figure", NodeSpec{
		Name:  "figure",
		Attrs: map[string]AttrSpec{"src": Required()},
	})
	if _, err := New(spec); !errors.Is(err, ErrBadContentExpr) {
		t.Errorf("expected dead end error, got %v", err)
	}
}

func TestSchemaErrors(t *testing.T) {
	t.Run("duplicate node", func(t *testing.T) {
		spec := minimalSpec("paragraph+", NodeSpec{Name: "paragraph"})
		if _, err := New(spec); !errors.Is(err, ErrDuplicateName) {
			t.Errorf("got %v, want ErrDuplicateName", err)
		}
	})

	t.Run("missing text", func(t *testing.T) {
		spec := Spec{Nodes: []NodeSpec{{Name: "doc"}}}
		if _, err := New(spec); !errors.Is(err, ErrUnknownType) {
			t.Errorf("got %v, want ErrUnknownType", err)
		}
	})

	t.Run("unknown mark in node", func(t *testing.T) {
		spec := minimalSpec("paragraph+")
		spec.Nodes[1].Marks = StringPtr("bogus")
		if _, err := New(spec); !errors.Is(err, ErrUnknownMark) {
			t.Errorf("got %v, want ErrUnknownMark", err)
		}
	})
}

func TestNodeTypeFlags(t *testing.T) {
	s := Basic()
	tests := []struct {
		name      string
		inline    bool
		textblock bool
		leaf      bool
	}{
		{"paragraph", false, true, false},
		{"heading", false, true, false},
		{"blockquote", false, false, false},
		{"horizontal_rule", false, false, true},
		{"image", true, false, true},
		{"hard_break", true, false, true},
		{"text", true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt, ok := s.NodeType(tt.name)
			if !ok {
				t.Fatalf("missing %s", tt.name)
			}
			if nt.IsInline() != tt.inline {
				t.Errorf("IsInline = %v", nt.IsInline())
			}
			if nt.IsTextblock() != tt.textblock {
				t.Errorf("IsTextblock = %v", nt.IsTextblock())
			}
			if nt.IsLeaf() != tt.leaf {
				t.Errorf("IsLeaf = %v", nt.IsLeaf())
			}
		})
	}
}

func TestComputeAttrs(t *testing.T) {
	s := Basic()
	heading, _ := s.NodeType("heading")
	image, _ := s.NodeType("image")

	attrs, err := heading.ComputeAttrs(nil)
	if err != nil {
		t.Fatalf("ComputeAttrs: %v", err)
	}
	if attrs["level"] != float64(1) {
		t.Errorf("level = %#v, want float64(1)", attrs["level"])
	}

	attrs, err = heading.ComputeAttrs(map[string]any{"level": 3})
	if err != nil {
		t.Fatalf("ComputeAttrs: %v", err)
	}
	if attrs["level"] != float64(3) {
		t.Errorf("level = %#v, want float64(3)", attrs["level"])
	}

	if _, err := image.ComputeAttrs(nil); !errors.Is(err, ErrMissingAttr) {
		t.Errorf("got %v, want ErrMissingAttr", err)
	}
	if _, err := heading.ComputeAttrs(map[string]any{"size": 1}); !errors.Is(err, ErrUnknownAttr) {
		t.Errorf("got %v, want ErrUnknownAttr", err)
	}
	if image.DefaultAttrs() != nil {
		t.Error("image has required attrs and should have no defaults")
	}
}

func TestMarkRules(t *testing.T) {
	s := Basic()
	strong, _ := s.MarkType("strong")
	em, _ := s.MarkType("em")
	link, _ := s.MarkType("link")
	para, _ := s.NodeType("paragraph")
	code, _ := s.NodeType("code_block")

	if !para.AllowsMarkType(strong) {
		t.Error("paragraph should allow strong")
	}
	if code.AllowsMarkType(strong) {
		t.Error("code_block should not allow marks")
	}
	if link.Inclusive() {
		t.Error("link should not be inclusive")
	}
	if !strong.Inclusive() {
		t.Error("strong should be inclusive")
	}
	if !strong.Excludes(strong) || strong.Excludes(em) {
		t.Error("strong should only exclude itself")
	}
	if !(link.Rank < em.Rank && em.Rank < strong.Rank) {
		t.Error("ranks should follow declaration order")
	}
}

func TestFindWrapping(t *testing.T) {
	s := Basic()
	doc, _ := s.NodeType("doc")
	para, _ := s.NodeType("paragraph")
	item, _ := s.NodeType("list_item")
	text := s.TextType()

	wrap, ok := doc.ContentMatch().FindWrapping(para)
	if !ok || len(wrap) != 0 {
		t.Errorf("paragraph fits directly, got %v %v", wrap, ok)
	}

	wrap, ok = doc.ContentMatch().FindWrapping(item)
	if !ok || len(wrap) != 1 || wrap[0].Name != "ordered_list" {
		t.Errorf("list_item wrapping = %v", wrap)
	}

	wrap, ok = doc.ContentMatch().FindWrapping(text)
	if !ok || len(wrap) != 1 || wrap[0].Name != "paragraph" {
		t.Errorf("text wrapping = %v", wrap)
	}
}

func TestDefaultType(t *testing.T) {
	s := Basic()
	doc, _ := s.NodeType("doc")
	if dt := doc.ContentMatch().DefaultType(); dt == nil || dt.Name != "paragraph" {
		t.Errorf("DefaultType = %v, want paragraph", dt)
	}
	para, _ := s.NodeType("paragraph")
	if dt := para.ContentMatch().DefaultType(); dt != nil && dt.IsText() {
		t.Error("DefaultType must never be text")
	}
}
