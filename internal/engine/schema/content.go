package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MatchEdge is a transition of a content matcher.
type MatchEdge struct {
	Type *NodeType
	Next *ContentMatch
}

// ContentMatch is a state in the finite automaton compiled from a content
// expression. Matchers are immutable once the schema is built and may be
// shared freely.
type ContentMatch struct {
	// ValidEnd is true when the content matched so far is complete.
	ValidEnd bool
	next     []MatchEdge
}

// EmptyMatch accepts only empty content.
var EmptyMatch = &ContentMatch{ValidEnd: true}

// MatchType returns the state reached after a node of type t, or nil.
func (m *ContentMatch) MatchType(t *NodeType) *ContentMatch {
	for _, e := range m.next {
		if e.Type == t {
			return e.Next
		}
	}
	return nil
}

// EdgeCount returns the number of outgoing transitions.
func (m *ContentMatch) EdgeCount() int {
	return len(m.next)
}

// Edge returns the i-th transition.
func (m *ContentMatch) Edge(i int) MatchEdge {
	return m.next[i]
}

// InlineContent reports whether this matcher expects inline nodes.
func (m *ContentMatch) InlineContent() bool {
	return len(m.next) > 0 && m.next[0].Type.IsInline()
}

// DefaultType returns the first type that can appear here and could be
// generated without input: not text and without required attributes.
func (m *ContentMatch) DefaultType() *NodeType {
	for _, e := range m.next {
		if !e.Type.IsText() && !e.Type.HasRequiredAttrs() {
			return e.Type
		}
	}
	return nil
}

// Compatible reports whether two matchers share any acceptable type.
func (m *ContentMatch) Compatible(other *ContentMatch) bool {
	for _, a := range m.next {
		for _, b := range other.next {
			if a.Type == b.Type {
				return true
			}
		}
	}
	return false
}

// FindWrapping finds the shortest chain of wrapper types that, opened at
// this position, would allow a node of type target. It returns an empty
// slice when target fits directly and ok=false when no wrapping exists.
func (m *ContentMatch) FindWrapping(target *NodeType) (wrappers []*NodeType, ok bool) {
	type step struct {
		match *ContentMatch
		typ   *NodeType
		via   *step
	}
	seen := make(map[string]bool)
	active := []*step{{match: m}}
	for len(active) > 0 {
		cur := active[0]
		active = active[1:]
		if cur.match.MatchType(target) != nil {
			var result []*NodeType
			for s := cur; s.typ != nil; s = s.via {
				result = append(result, s.typ)
			}
			for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
				result[i], result[j] = result[j], result[i]
			}
			return result, true
		}
		for _, e := range cur.match.next {
			if e.Type.IsLeaf() || e.Type.HasRequiredAttrs() || seen[e.Type.Name] {
				continue
			}
			if cur.typ != nil && !e.Next.ValidEnd {
				continue
			}
			active = append(active, &step{match: e.Type.contentMatch, typ: e.Type, via: cur})
			seen[e.Type.Name] = true
		}
	}
	return nil, false
}

// String renders the automaton reachable from m, one state per line.
func (m *ContentMatch) String() string {
	var seen []*ContentMatch
	var scan func(*ContentMatch)
	scan = func(c *ContentMatch) {
		for _, s := range seen {
			if s == c {
				return
			}
		}
		seen = append(seen, c)
		for _, e := range c.next {
			scan(e.Next)
		}
	}
	scan(m)

	index := func(c *ContentMatch) int {
		for i, s := range seen {
			if s == c {
				return i
			}
		}
		return -1
	}

	var b strings.Builder
	for i, c := range seen {
		b.WriteString(strconv.Itoa(i))
		if c.ValidEnd {
			b.WriteString("*")
		}
		b.WriteString(" ")
		for j, e := range c.next {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s->%d", e.Type.Name, index(e.Next))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Content expression compilation: tokens -> expression tree -> NFA -> DFA.

type exprKind uint8

const (
	exprChoice exprKind = iota
	exprSeq
	exprPlus
	exprStar
	exprOpt
	exprRange
	exprName
)

type expr struct {
	kind     exprKind
	exprs    []*expr
	sub      *expr
	min, max int
	value    *NodeType
}

type tokenStream struct {
	source   string
	owner    string
	tokens   []string
	pos      int
	inline   *bool
	resolver func(name string) []*NodeType
}

func tokenize(s string) []string {
	var tokens []string
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case isWordByte(c):
			j := i
			for j < len(s) && isWordByte(s[j]) {
				j++
			}
			tokens = append(tokens, s[i:j])
			i = j
		default:
			tokens = append(tokens, s[i:i+1])
			i++
		}
	}
	return tokens
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (s *tokenStream) next() string {
	if s.pos < len(s.tokens) {
		return s.tokens[s.pos]
	}
	return ""
}

func (s *tokenStream) eat(tok string) bool {
	if s.next() == tok {
		s.pos++
		return true
	}
	return false
}

func (s *tokenStream) err(format string, args ...any) error {
	return &ExprError{Type: s.owner, Expr: s.source, Message: fmt.Sprintf(format, args...)}
}

func (s *tokenStream) parseExpr() (*expr, error) {
	var exprs []*expr
	for {
		e, err := s.parseSeq()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if !s.eat("|") {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &expr{kind: exprChoice, exprs: exprs}, nil
}

func (s *tokenStream) parseSeq() (*expr, error) {
	var exprs []*expr
	for {
		e, err := s.parseSubscript()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		n := s.next()
		if n == "" || n == ")" || n == "|" {
			break
		}
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &expr{kind: exprSeq, exprs: exprs}, nil
}

func (s *tokenStream) parseSubscript() (*expr, error) {
	e, err := s.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case s.eat("+"):
			e = &expr{kind: exprPlus, sub: e}
		case s.eat("*"):
			e = &expr{kind: exprStar, sub: e}
		case s.eat("?"):
			e = &expr{kind: exprOpt, sub: e}
		case s.eat("{"):
			e, err = s.parseRange(e)
			if err != nil {
				return nil, err
			}
		default:
			return e, nil
		}
	}
}

func (s *tokenStream) parseNum() (int, error) {
	n, err := strconv.Atoi(s.next())
	if err != nil {
		return 0, s.err("expected number, got %q", s.next())
	}
	s.pos++
	return n, nil
}

func (s *tokenStream) parseRange(sub *expr) (*expr, error) {
	min, err := s.parseNum()
	if err != nil {
		return nil, err
	}
	max := min
	if s.eat(",") {
		if s.next() != "}" {
			if max, err = s.parseNum(); err != nil {
				return nil, err
			}
		} else {
			max = -1
		}
	}
	if !s.eat("}") {
		return nil, s.err("unclosed braced range")
	}
	return &expr{kind: exprRange, sub: sub, min: min, max: max}, nil
}

func (s *tokenStream) parseAtom() (*expr, error) {
	if s.eat("(") {
		e, err := s.parseExpr()
		if err != nil {
			return nil, err
		}
		if !s.eat(")") {
			return nil, s.err("missing closing paren")
		}
		return e, nil
	}
	tok := s.next()
	if tok == "" || !isWordByte(tok[0]) {
		return nil, s.err("unexpected token %q", tok)
	}
	types := s.resolver(tok)
	if len(types) == 0 {
		return nil, s.err("no node type or group %q", tok)
	}
	exprs := make([]*expr, 0, len(types))
	for _, t := range types {
		inline := t.IsInline()
		if s.inline == nil {
			s.inline = &inline
		} else if *s.inline != inline {
			return nil, s.err("mixing inline and block content")
		}
		exprs = append(exprs, &expr{kind: exprName, value: t})
	}
	s.pos++
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &expr{kind: exprChoice, exprs: exprs}, nil
}

type nfaEdge struct {
	term *NodeType
	to   int
}

type nfa struct {
	states [][]*nfaEdge
}

func (n *nfa) node() int {
	n.states = append(n.states, nil)
	return len(n.states) - 1
}

func (n *nfa) edge(from, to int, term *NodeType) *nfaEdge {
	e := &nfaEdge{term: term, to: to}
	n.states[from] = append(n.states[from], e)
	return e
}

func connect(edges []*nfaEdge, to int) {
	for _, e := range edges {
		e.to = to
	}
}

func (n *nfa) compile(e *expr, from int) []*nfaEdge {
	switch e.kind {
	case exprChoice:
		var out []*nfaEdge
		for _, sub := range e.exprs {
			out = append(out, n.compile(sub, from)...)
		}
		return out
	case exprSeq:
		for i := 0; ; i++ {
			next := n.compile(e.exprs[i], from)
			if i == len(e.exprs)-1 {
				return next
			}
			from = n.node()
			connect(next, from)
		}
	case exprStar:
		loop := n.node()
		n.edge(from, loop, nil)
		connect(n.compile(e.sub, loop), loop)
		return []*nfaEdge{n.edge(loop, 0, nil)}
	case exprPlus:
		loop := n.node()
		connect(n.compile(e.sub, from), loop)
		connect(n.compile(e.sub, loop), loop)
		return []*nfaEdge{n.edge(loop, 0, nil)}
	case exprOpt:
		return append([]*nfaEdge{n.edge(from, 0, nil)}, n.compile(e.sub, from)...)
	case exprRange:
		cur := from
		for i := 0; i < e.min; i++ {
			next := n.node()
			connect(n.compile(e.sub, cur), next)
			cur = next
		}
		if e.max == -1 {
			connect(n.compile(e.sub, cur), cur)
		} else {
			for i := e.min; i < e.max; i++ {
				next := n.node()
				n.edge(cur, next, nil)
				connect(n.compile(e.sub, cur), next)
				cur = next
			}
		}
		return []*nfaEdge{n.edge(cur, 0, nil)}
	default:
		return []*nfaEdge{n.edge(from, 0, e.value)}
	}
}

// nullFrom returns the sorted set of states reachable from state through
// epsilon edges.
func (n *nfa) nullFrom(state int) []int {
	var result []int
	contains := func(v int) bool {
		for _, r := range result {
			if r == v {
				return true
			}
		}
		return false
	}
	var scan func(int)
	scan = func(s int) {
		edges := n.states[s]
		if len(edges) == 1 && edges[0].term == nil {
			scan(edges[0].to)
			return
		}
		result = append(result, s)
		for _, e := range edges {
			if e.term == nil && !contains(e.to) {
				scan(e.to)
			}
		}
	}
	scan(state)
	sort.Ints(result)
	return result
}

func stateKey(states []int) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

func (n *nfa) dfa() *ContentMatch {
	labeled := make(map[string]*ContentMatch)
	accept := len(n.states) - 1

	var explore func(states []int) *ContentMatch
	explore = func(states []int) *ContentMatch {
		type group struct {
			term   *NodeType
			states []int
		}
		var out []*group
		for _, s := range states {
			for _, e := range n.states[s] {
				if e.term == nil {
					continue
				}
				var g *group
				for _, o := range out {
					if o.term == e.term {
						g = o
					}
				}
				for _, reached := range n.nullFrom(e.to) {
					if g == nil {
						g = &group{term: e.term}
						out = append(out, g)
					}
					dup := false
					for _, x := range g.states {
						if x == reached {
							dup = true
							break
						}
					}
					if !dup {
						g.states = append(g.states, reached)
					}
				}
			}
		}

		valid := false
		for _, s := range states {
			if s == accept {
				valid = true
			}
		}
		state := &ContentMatch{ValidEnd: valid}
		labeled[stateKey(states)] = state
		for _, g := range out {
			sort.Ints(g.states)
			next, ok := labeled[stateKey(g.states)]
			if !ok {
				next = explore(g.states)
			}
			state.next = append(state.next, MatchEdge{Type: g.term, Next: next})
		}
		return state
	}
	return explore(n.nullFrom(0))
}

// compileContent turns a content expression into a matcher.
func compileContent(owner, source string, resolver func(string) []*NodeType) (*ContentMatch, error) {
	stream := &tokenStream{source: source, owner: owner, tokens: tokenize(source), resolver: resolver}
	if len(stream.tokens) == 0 {
		return EmptyMatch, nil
	}
	e, err := stream.parseExpr()
	if err != nil {
		return nil, err
	}
	if stream.next() != "" {
		return nil, stream.err("unexpected trailing text %q", stream.next())
	}

	automaton := &nfa{states: [][]*nfaEdge{nil}}
	connect(automaton.compile(e, 0), automaton.node())
	match := automaton.dfa()
	if err := checkForDeadEnds(match, stream); err != nil {
		return nil, err
	}
	return match, nil
}

// checkForDeadEnds rejects expressions that can only be satisfied by types
// that cannot be generated, since such documents could never be filled.
func checkForDeadEnds(match *ContentMatch, stream *tokenStream) error {
	work := []*ContentMatch{match}
	for i := 0; i < len(work); i++ {
		state := work[i]
		dead := !state.ValidEnd
		var names []string
		for _, e := range state.next {
			names = append(names, e.Type.Name)
			if dead && !(e.Type.IsText() || e.Type.HasRequiredAttrs()) {
				dead = false
			}
			found := false
			for _, w := range work {
				if w == e.Next {
					found = true
					break
				}
			}
			if !found {
				work = append(work, e.Next)
			}
		}
		if dead {
			return stream.err("only non-generatable nodes (%s) in a required position", strings.Join(names, ", "))
		}
	}
	return nil
}
