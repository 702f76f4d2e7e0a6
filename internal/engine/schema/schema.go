package schema

import (
	"errors"
	"fmt"
	"strings"
)

// NodeType is a compiled node specification. Node types are created by New
// and compared by pointer.
type NodeType struct {
	Name string
	Spec NodeSpec

	schema        *Schema
	groups        []string
	contentMatch  *ContentMatch
	inlineContent bool
	markSet       []*MarkType
	allMarks      bool
	defaults      map[string]any
}

// Schema returns the schema the type belongs to.
func (t *NodeType) Schema() *Schema { return t.schema }

// Groups returns the groups the type belongs to.
func (t *NodeType) Groups() []string { return t.groups }

// InGroup reports whether the type belongs to group g.
func (t *NodeType) InGroup(g string) bool {
	for _, name := range t.groups {
		if name == g {
			return true
		}
	}
	return false
}

// ContentMatch returns the start state of the type's content automaton.
func (t *NodeType) ContentMatch() *ContentMatch { return t.contentMatch }

// IsText reports whether this is the schema's text type.
func (t *NodeType) IsText() bool { return t.Name == "text" }

// IsInline reports whether nodes of this type are inline.
func (t *NodeType) IsInline() bool { return t.Spec.Inline || t.IsText() }

// IsBlock reports whether nodes of this type are block nodes.
func (t *NodeType) IsBlock() bool { return !t.IsInline() }

// InlineContent reports whether the type holds inline content.
func (t *NodeType) InlineContent() bool { return t.inlineContent }

// IsTextblock reports whether this is a block holding inline content.
func (t *NodeType) IsTextblock() bool { return t.IsBlock() && t.inlineContent }

// IsLeaf reports whether the type allows no content.
func (t *NodeType) IsLeaf() bool { return t.contentMatch == EmptyMatch }

// IsAtom reports whether the type is a leaf or explicitly atomic.
func (t *NodeType) IsAtom() bool { return t.IsLeaf() || t.Spec.Atom }

// IsCode reports whether the type holds code, where whitespace is kept.
func (t *NodeType) IsCode() bool { return t.Spec.Code }

// HasRequiredAttrs reports whether any attribute lacks a default.
func (t *NodeType) HasRequiredAttrs() bool { return hasRequired(t.Spec.Attrs) }

// DefaultAttrs returns the default attributes, or nil if some are required.
func (t *NodeType) DefaultAttrs() map[string]any { return t.defaults }

// ComputeAttrs builds a full attribute map from the given values.
func (t *NodeType) ComputeAttrs(given map[string]any) (map[string]any, error) {
	return computeAttrs(t.Name, t.Spec.Attrs, given)
}

// CheckAttrs validates a complete attribute map.
func (t *NodeType) CheckAttrs(attrs map[string]any) error {
	return checkAttrs(t.Name, t.Spec.Attrs, attrs)
}

// AllowsMarkType reports whether children of this type may carry mt.
func (t *NodeType) AllowsMarkType(mt *MarkType) bool {
	if t.allMarks {
		return true
	}
	for _, m := range t.markSet {
		if m == mt {
			return true
		}
	}
	return false
}

// CompatibleContent reports whether content of this type could be moved
// into other.
func (t *NodeType) CompatibleContent(other *NodeType) bool {
	return t == other || t.contentMatch.Compatible(other.contentMatch)
}

// MarkType is a compiled mark specification.
type MarkType struct {
	Name string
	Spec MarkSpec

	// Rank orders marks within a set.
	Rank int

	schema   *Schema
	excluded []*MarkType
	defaults map[string]any
}

// Schema returns the schema the mark type belongs to.
func (m *MarkType) Schema() *Schema { return m.schema }

// Inclusive reports whether the mark extends over text typed at its end.
func (m *MarkType) Inclusive() bool {
	return m.Spec.Inclusive == nil || *m.Spec.Inclusive
}

// Excludes reports whether other cannot coexist with this mark type.
func (m *MarkType) Excludes(other *MarkType) bool {
	for _, e := range m.excluded {
		if e == other {
			return true
		}
	}
	return false
}

// HasRequiredAttrs reports whether any attribute lacks a default.
func (m *MarkType) HasRequiredAttrs() bool { return hasRequired(m.Spec.Attrs) }

// DefaultAttrs returns the default attributes, or nil if some are required.
func (m *MarkType) DefaultAttrs() map[string]any { return m.defaults }

// ComputeAttrs builds a full attribute map from the given values.
func (m *MarkType) ComputeAttrs(given map[string]any) (map[string]any, error) {
	return computeAttrs(m.Name, m.Spec.Attrs, given)
}

// CheckAttrs validates a complete attribute map.
func (m *MarkType) CheckAttrs(attrs map[string]any) error {
	return checkAttrs(m.Name, m.Spec.Attrs, attrs)
}

// Schema is a compiled, immutable set of node and mark types.
type Schema struct {
	Spec Spec

	nodes    map[string]*NodeType
	nodeList []*NodeType
	marks    map[string]*MarkType
	markList []*MarkType

	top          *NodeType
	text         *NodeType
	defaultBlock *NodeType
}

// New compiles a schema. Content expressions and group references are
// resolved once here.
func New(spec Spec) (*Schema, error) {
	s := &Schema{
		Spec:  spec,
		nodes: make(map[string]*NodeType, len(spec.Nodes)),
		marks: make(map[string]*MarkType, len(spec.Marks)),
	}

	for _, ns := range spec.Nodes {
		if ns.Name == "" {
			return nil, errors.New("schema: node spec without name")
		}
		if _, dup := s.nodes[ns.Name]; dup {
			return nil, fmt.Errorf("schema: node %q: %w", ns.Name, ErrDuplicateName)
		}
		t := &NodeType{
			Name:     ns.Name,
			Spec:     ns,
			schema:   s,
			groups:   strings.Fields(ns.Group),
			defaults: defaultAttrs(ns.Attrs),
		}
		s.nodes[ns.Name] = t
		s.nodeList = append(s.nodeList, t)
	}

	for i, ms := range spec.Marks {
		if ms.Name == "" {
			return nil, errors.New("schema: mark spec without name")
		}
		if _, dup := s.marks[ms.Name]; dup {
			return nil, fmt.Errorf("schema: mark %q: %w", ms.Name, ErrDuplicateName)
		}
		m := &MarkType{
			Name:     ms.Name,
			Spec:     ms,
			Rank:     i,
			schema:   s,
			defaults: defaultAttrs(ms.Attrs),
		}
		s.marks[ms.Name] = m
		s.markList = append(s.markList, m)
	}

	text, ok := s.nodes["text"]
	if !ok {
		return nil, fmt.Errorf("schema: text type: %w", ErrUnknownType)
	}
	if len(text.Spec.Attrs) > 0 {
		return nil, errors.New("schema: the text node type should not have attributes")
	}
	s.text = text

	topName := spec.TopNode
	if topName == "" {
		if _, ok := s.nodes["doc"]; ok {
			topName = "doc"
		} else if len(s.nodeList) > 0 {
			topName = s.nodeList[0].Name
		}
	}
	top, ok := s.nodes[topName]
	if !ok {
		return nil, fmt.Errorf("schema: top node %q: %w", topName, ErrUnknownType)
	}
	s.top = top

	for _, t := range s.nodeList {
		match, err := compileContent(t.Name, t.Spec.Content, s.resolveNodeGroup)
		if err != nil {
			return nil, err
		}
		t.contentMatch = match
		t.inlineContent = match.InlineContent()
	}

	for _, t := range s.nodeList {
		if t.Spec.Marks == nil {
			t.allMarks = t.inlineContent
			continue
		}
		marks := *t.Spec.Marks
		if marks == "_" {
			t.allMarks = true
			continue
		}
		set, err := s.gatherMarks(marks)
		if err != nil {
			return nil, fmt.Errorf("schema: node %q: %w", t.Name, err)
		}
		t.markSet = set
	}

	for _, m := range s.markList {
		if m.Spec.Excludes == nil {
			m.excluded = []*MarkType{m}
			continue
		}
		if *m.Spec.Excludes == "" {
			continue
		}
		set, err := s.gatherMarks(*m.Spec.Excludes)
		if err != nil {
			return nil, fmt.Errorf("schema: mark %q: %w", m.Name, err)
		}
		m.excluded = set
	}

	if spec.DefaultBlock != "" {
		db, ok := s.nodes[spec.DefaultBlock]
		if !ok {
			return nil, fmt.Errorf("schema: default block %q: %w", spec.DefaultBlock, ErrUnknownType)
		}
		s.defaultBlock = db
	} else {
		s.defaultBlock = s.findDefaultBlock()
	}

	return s, nil
}

// MustNew is like New but panics on error. It is meant for the built-in
// schemas.
func MustNew(spec Spec) *Schema {
	s, err := New(spec)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) resolveNodeGroup(name string) []*NodeType {
	if t, ok := s.nodes[name]; ok {
		return []*NodeType{t}
	}
	var out []*NodeType
	for _, t := range s.nodeList {
		if t.InGroup(name) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Schema) gatherMarks(names string) ([]*MarkType, error) {
	var found []*MarkType
	for _, name := range strings.Fields(names) {
		if name == "_" {
			return s.markList, nil
		}
		if m, ok := s.marks[name]; ok {
			found = append(found, m)
			continue
		}
		ok := false
		for _, m := range s.markList {
			for _, g := range strings.Fields(m.Spec.Group) {
				if g == name {
					found = append(found, m)
					ok = true
				}
			}
		}
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownMark, name)
		}
	}
	return found, nil
}

func (s *Schema) findDefaultBlock() *NodeType {
	var fallback *NodeType
	for _, t := range s.nodeList {
		if !t.IsTextblock() || t.HasRequiredAttrs() || t.IsCode() {
			continue
		}
		if t.InGroup("block") {
			return t
		}
		if fallback == nil {
			fallback = t
		}
	}
	return fallback
}

// NodeType looks up a node type by name.
func (s *Schema) NodeType(name string) (*NodeType, bool) {
	t, ok := s.nodes[name]
	return t, ok
}

// MarkType looks up a mark type by name.
func (s *Schema) MarkType(name string) (*MarkType, bool) {
	m, ok := s.marks[name]
	return m, ok
}

// NodeTypes returns the node types in declaration order.
func (s *Schema) NodeTypes() []*NodeType { return s.nodeList }

// MarkTypes returns the mark types in rank order.
func (s *Schema) MarkTypes() []*MarkType { return s.markList }

// TopNodeType returns the type of document roots.
func (s *Schema) TopNodeType() *NodeType { return s.top }

// TextType returns the text node type.
func (s *Schema) TextType() *NodeType { return s.text }

// DefaultBlockType returns the block used for unrecognised block content.
// It may be nil for schemas without a suitable textblock.
func (s *Schema) DefaultBlockType() *NodeType { return s.defaultBlock }
