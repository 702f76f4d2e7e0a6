package codec

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/schema"
)

// Elements whose content is never parsed.
var ignoredTags = map[string]bool{
	"script": true, "style": true, "head": true, "title": true,
	"template": true, "meta": true, "link": true, "noscript": true,
}

// Block-level HTML elements. An unrecognised one is parsed as the
// schema's default block unless it holds further blocks.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"center": true, "dd": true, "details": true, "dialog": true, "dir": true,
	"div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hgroup": true, "hr": true, "li": true, "main": true, "menu": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"summary": true, "table": true, "tbody": true, "td": true, "tfoot": true,
	"th": true, "thead": true, "tr": true, "ul": true,
}

// FromHTML parses markup into a document of s. Elements are matched
// against the parse rules of the schema's types and placed greedily where
// the content expressions allow, opening wrapper nodes when needed.
// Content that fits nowhere is dropped. The result is validated.
func FromHTML(s *schema.Schema, src string) (*model.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return nil, htmlError("", "", err.Error(), ErrMalformed)
	}

	p := newHTMLParser(s)
	for _, n := range nodes {
		p.addDOM(n)
	}
	doc, err := p.finish()
	if err != nil {
		return nil, htmlError("", s.TopNodeType().Name, "cannot build document", err)
	}
	if err := doc.Check(); err != nil {
		path := ""
		if se, ok := err.(*schema.SchemaError); ok {
			path = se.PathString()
		}
		return nil, htmlError(path, "", "document does not match schema", err)
	}
	return doc, nil
}

// parseContext is a node under construction.
type parseContext struct {
	typ     *schema.NodeType
	attrs   map[string]any
	content []*model.Node
	match   *schema.ContentMatch

	// solid contexts were opened by an element; the others are wrappers
	// opened to make content fit.
	solid    bool
	preserve bool
}

type htmlParser struct {
	schema *schema.Schema
	stack  []*parseContext
	marks  []*model.Mark
}

func newHTMLParser(s *schema.Schema) *htmlParser {
	p := &htmlParser{schema: s}
	top := s.TopNodeType()
	p.stack = []*parseContext{{typ: top, match: top.ContentMatch(), solid: true}}
	return p
}

func (p *htmlParser) top() *parseContext {
	return p.stack[len(p.stack)-1]
}

func (p *htmlParser) addDOM(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		p.addText(n.Data)
	case html.ElementNode:
		p.addElement(n)
	case html.DocumentNode:
		p.addChildren(n)
	}
}

func (p *htmlParser) addChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.addDOM(c)
	}
}

func (p *htmlParser) addText(text string) {
	cx := p.top()
	if !cx.preserve {
		text = NormalizeSpace(text)
		if !cx.typ.InlineContent() && strings.TrimSpace(text) == "" {
			return
		}
		if cx.typ.InlineContent() && startsLine(cx) {
			text = strings.TrimLeft(text, " ")
		}
	}
	if text == "" {
		return
	}
	if !p.findPlace(p.schema.TextType()) {
		return
	}
	cx = p.top()
	if !cx.preserve && len(cx.content) == 0 {
		text = strings.TrimLeft(text, " ")
		if text == "" {
			return
		}
	}
	var marks []*model.Mark
	for _, m := range p.marks {
		if cx.typ.AllowsMarkType(m.Type) {
			marks = m.AddToSet(marks)
		}
	}
	n, err := model.NewText(p.schema, text, marks)
	if err != nil {
		return
	}
	p.appendNode(n)
}

// startsLine reports whether text added to cx would begin a line.
func startsLine(cx *parseContext) bool {
	if len(cx.content) == 0 {
		return true
	}
	last := cx.content[len(cx.content)-1]
	if last.IsText() {
		return strings.HasSuffix(last.Text, " ")
	}
	return !last.IsInline()
}

func (p *htmlParser) addElement(e *html.Node) {
	tag := e.Data
	if ignoredTags[tag] {
		return
	}
	if tag == "br" && p.top().preserve {
		p.addText("\n")
		return
	}

	if nt, attrs, ok := p.matchNode(e); ok {
		p.addNodeElement(e, nt, attrs)
		return
	}
	if m, ok := p.matchMark(e); ok {
		saved := p.marks
		p.marks = m.AddToSet(append([]*model.Mark(nil), p.marks...))
		p.addChildren(e)
		p.marks = saved
		return
	}
	if blockTags[tag] && !p.hasBlockChildren(e) {
		p.addNodeElement(e, p.schema.DefaultBlockType(), nil)
		return
	}
	p.addChildren(e)
}

func (p *htmlParser) addNodeElement(e *html.Node, nt *schema.NodeType, attrs map[string]any) {
	if nt.IsLeaf() {
		n, err := model.Create(nt, attrs, nil, nil)
		if err != nil || !p.findPlace(nt) {
			return
		}
		p.appendNode(n)
		return
	}
	if !p.findPlace(nt) {
		p.addChildren(e)
		return
	}
	cx := p.push(nt, attrs, true)
	p.addChildren(e)
	p.closeContext(cx)
}

// hasBlockChildren reports whether any child element is block-level.
func (p *htmlParser) hasBlockChildren(e *html.Node) bool {
	for c := e.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if blockTags[c.Data] {
			return true
		}
		if nt, _, ok := p.matchNode(c); ok && nt.IsBlock() {
			return true
		}
	}
	return false
}

// findPlace makes the top context able to take a node of type t. It tries
// each open context from the innermost out, first directly, then by
// generating required content before t, then through wrapper nodes.
func (p *htmlParser) findPlace(t *schema.NodeType) bool {
	for depth := len(p.stack) - 1; depth >= 0; depth-- {
		cx := p.stack[depth]
		if cx.match.MatchType(t) != nil {
			p.closeTo(depth)
			return true
		}
		if fill := p.fillFor(cx, t); fill != nil {
			p.closeTo(depth)
			for _, n := range fill.Children() {
				p.appendNode(n)
			}
			return true
		}
		if wrap, ok := cx.match.FindWrapping(t); ok {
			p.closeTo(depth)
			for _, w := range wrap {
				p.push(w, nil, false)
			}
			return true
		}
	}
	return false
}

func (p *htmlParser) fillFor(cx *parseContext, t *schema.NodeType) *model.Fragment {
	var probe *model.Node
	var err error
	if t.IsText() {
		probe, err = model.NewText(p.schema, "x", nil)
	} else {
		probe, err = model.CreateAndFill(t, nil, nil, nil)
	}
	if err != nil {
		return nil
	}
	fill, ok := model.FillBefore(cx.match, model.FragmentFrom(probe), false, 0)
	if !ok || fill.ChildCount() == 0 {
		return nil
	}
	return fill
}

func (p *htmlParser) push(t *schema.NodeType, attrs map[string]any, solid bool) *parseContext {
	parent := p.top()
	parent.match = parent.match.MatchType(t)
	cx := &parseContext{
		typ:      t,
		attrs:    attrs,
		match:    t.ContentMatch(),
		solid:    solid,
		preserve: parent.preserve || t.IsCode(),
	}
	p.stack = append(p.stack, cx)
	return cx
}

func (p *htmlParser) appendNode(n *model.Node) {
	cx := p.top()
	cx.match = cx.match.MatchType(n.Type)
	cx.content = append(cx.content, n)
}

// closeContext closes cx and everything opened inside it, if it is still
// open.
func (p *htmlParser) closeContext(cx *parseContext) {
	for i := len(p.stack) - 1; i > 0; i-- {
		if p.stack[i] == cx {
			p.closeTo(i - 1)
			return
		}
	}
}

// closeTo finishes the contexts above depth.
func (p *htmlParser) closeTo(depth int) {
	for len(p.stack)-1 > depth {
		cx := p.top()
		p.stack = p.stack[:len(p.stack)-1]
		n, err := buildNode(cx)
		if err != nil {
			continue
		}
		parent := p.top()
		parent.content = append(parent.content, n)
	}
}

func (p *htmlParser) finish() (*model.Node, error) {
	p.closeTo(0)
	return buildNode(p.stack[0])
}

func buildNode(cx *parseContext) (*model.Node, error) {
	content := cx.content
	if !cx.preserve && cx.typ.InlineContent() && len(content) > 0 {
		last := content[len(content)-1]
		if last.IsText() && strings.HasSuffix(last.Text, " ") {
			content = content[:len(content)-1]
			if trimmed := strings.TrimRight(last.Text, " "); trimmed != "" {
				n, err := model.NewText(last.Type.Schema(), trimmed, last.Marks)
				if err != nil {
					return nil, err
				}
				content = append(content, n)
			}
		}
	}
	frag := model.FragmentFrom(content...)
	if fill, ok := model.FillBefore(cx.match, model.EmptyFragment, true, 0); ok {
		frag = frag.Append(fill)
	}
	return model.Create(cx.typ, cx.attrs, frag, nil)
}

// matchNode finds the node type whose parse rules accept e. Rules that
// require attributes win over plain tag rules.
func (p *htmlParser) matchNode(e *html.Node) (*schema.NodeType, map[string]any, bool) {
	for _, specific := range []bool{true, false} {
		for _, nt := range p.schema.NodeTypes() {
			for _, rule := range nt.Spec.Parse {
				if (len(rule.Match) > 0) != specific || !ruleMatches(rule, e) {
					continue
				}
				return nt, readAttrs(rule, nt.Spec.DOM, nt.Spec.Attrs, e), true
			}
		}
	}
	return nil, nil, false
}

func (p *htmlParser) matchMark(e *html.Node) (*model.Mark, bool) {
	for _, specific := range []bool{true, false} {
		for _, mt := range p.schema.MarkTypes() {
			for _, rule := range mt.Spec.Parse {
				if (len(rule.Match) > 0) != specific || !ruleMatches(rule, e) {
					continue
				}
				m, err := model.NewMark(mt, readAttrs(rule, mt.Spec.DOM, mt.Spec.Attrs, e))
				if err != nil {
					continue
				}
				return m, true
			}
		}
	}
	return nil, false
}

func ruleMatches(rule schema.ParseRule, e *html.Node) bool {
	if rule.Tag != e.Data {
		return false
	}
	for k, want := range rule.Match {
		got, ok := attr(e, k)
		if !ok || (want != "" && got != want) {
			return false
		}
	}
	return true
}

func readAttrs(rule schema.ParseRule, dom schema.DOMSpec, specs map[string]schema.AttrSpec, e *html.Node) map[string]any {
	if len(rule.Attrs) == 0 && len(dom.AttrMap) == 0 {
		return nil
	}
	attrs := make(map[string]any, len(rule.Attrs)+len(dom.AttrMap))
	for k, v := range rule.Attrs {
		attrs[k] = v
	}
	for name, htmlName := range dom.AttrMap {
		if v, ok := attr(e, htmlName); ok {
			attrs[name] = parseAttr(specs[name], v)
		}
	}
	return attrs
}

func attr(e *html.Node, key string) (string, bool) {
	for _, a := range e.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
