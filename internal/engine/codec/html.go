package codec

import (
	"bytes"
	"maps"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/schema"
)

// NormalizeSpace is the whitespace rule applied to HTML text outside code
// blocks: every run of whitespace becomes a single space. Leading space at
// the start of a textblock and trailing space at its end are removed.
func NormalizeSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				b.WriteByte(' ')
				space = true
			}
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}

// ToHTML renders the content of doc. Each node and mark is written with
// the tag and attributes its type declares.
func ToHTML(doc *model.Node) (string, error) {
	root := &html.Node{Type: html.DocumentNode}
	renderFragment(doc.Content, root, nil)

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

type openMark struct {
	mark *model.Mark
	elem *html.Node
}

// renderFragment writes f into parent, keeping marks shared by adjacent
// inline nodes open across them. texts, when set, replaces the text of
// each text child; text children left empty are skipped.
func renderFragment(f *model.Fragment, parent *html.Node, texts []string) {
	var active []openMark
	top := func() *html.Node {
		if len(active) == 0 {
			return parent
		}
		return active[len(active)-1].elem
	}

	for i, child := range f.Children() {
		text := child.Text
		if texts != nil && child.IsText() {
			if text = texts[i]; text == "" {
				continue
			}
		}
		keep := 0
		for keep < len(active) && keep < len(child.Marks) && active[keep].mark.Eq(child.Marks[keep]) {
			keep++
		}
		active = active[:keep]
		for _, m := range child.Marks[keep:] {
			elem := element(m.Type.Spec.DOM, m.Type.Name, m.Attrs)
			top().AppendChild(elem)
			active = append(active, openMark{mark: m, elem: elem})
		}
		if child.IsText() {
			top().AppendChild(&html.Node{Type: html.TextNode, Data: text})
			continue
		}
		top().AppendChild(renderNode(child))
	}
}

func renderNode(n *model.Node) *html.Node {
	if n.IsText() {
		return &html.Node{Type: html.TextNode, Data: n.Text}
	}
	elem := element(n.Type.Spec.DOM, n.Type.Name, n.Attrs)
	var texts []string
	if n.IsTextblock() && !n.Type.IsCode() {
		texts = spacedTexts(n.Content)
	}
	renderFragment(n.Content, elem, texts)
	return elem
}

// spacedTexts applies NormalizeSpace across the inline children of a
// textblock. A run split between text nodes keeps one space, the block
// starts without a space and its last text loses trailing space.
func spacedTexts(f *model.Fragment) []string {
	children := f.Children()
	texts := make([]string, len(children))
	space := true
	for i, child := range children {
		if !child.IsText() {
			space = false
			continue
		}
		text := NormalizeSpace(child.Text)
		if space {
			text = strings.TrimLeft(text, " ")
		}
		if text != "" {
			space = strings.HasSuffix(text, " ")
		}
		texts[i] = text
	}
	for i := len(children) - 1; i >= 0 && children[i].IsText(); i-- {
		if texts[i] = strings.TrimRight(texts[i], " "); texts[i] != "" {
			break
		}
	}
	return texts
}

// element builds the HTML element for a node or mark. Types without a tag
// render as a div naming the type.
func element(dom schema.DOMSpec, typeName string, attrs map[string]any) *html.Node {
	tag := dom.Tag
	var out []html.Attribute
	if tag == "" {
		tag = "div"
		out = append(out, html.Attribute{Key: "data-type", Val: typeName})
	}
	if dom.TagAttr != "" {
		if v, ok := attrs[dom.TagAttr]; ok && v != nil {
			tag += formatAttr(v)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(dom.Attrs)) {
		out = append(out, html.Attribute{Key: k, Val: dom.Attrs[k]})
	}
	for _, name := range slices.Sorted(maps.Keys(dom.AttrMap)) {
		v, ok := attrs[name]
		if !ok || v == nil {
			continue
		}
		out = append(out, html.Attribute{Key: dom.AttrMap[name], Val: formatAttr(v)})
	}
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag)), Attr: out}
}

func formatAttr(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}

// parseAttr converts an HTML attribute value for a type attribute whose
// default is numeric or boolean; other values stay strings.
func parseAttr(spec schema.AttrSpec, val string) any {
	switch schema.NormalizeValue(spec.Default).(type) {
	case float64:
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return f
		}
	case bool:
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return val
}

// ToText returns the plain text of doc with blocks separated by blank
// lines.
func ToText(doc *model.Node) string {
	return doc.TextBetween(0, doc.Content.Size(), "\n\n", "")
}
