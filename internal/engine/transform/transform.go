package transform

import (
	"fmt"

	"github.com/dshills/scribe/internal/engine/model"
	"github.com/dshills/scribe/internal/engine/schema"
)

// Transform accumulates steps against a document. Each step is applied as
// it is added. A step that fails is not recorded, but the first failure is
// kept and reported by Failure so the whole transform can be rejected.
type Transform struct {
	doc     *model.Node
	steps   []Step
	docs    []*model.Node
	mapping *Mapping

	failIndex int
	failErr   error
}

// New starts a transform on doc.
func New(doc *model.Node) *Transform {
	return &Transform{doc: doc, mapping: NewMapping()}
}

// Doc returns the current document.
func (t *Transform) Doc() *model.Node { return t.doc }

// Before returns the document the transform started from.
func (t *Transform) Before() *model.Node {
	if len(t.docs) > 0 {
		return t.docs[0]
	}
	return t.doc
}

// Steps returns the applied steps.
func (t *Transform) Steps() []Step { return t.steps }

// Docs returns the document before each step.
func (t *Transform) Docs() []*model.Node { return t.docs }

// Mapping returns the combined position map of all steps.
func (t *Transform) Mapping() *Mapping { return t.mapping }

// DocChanged reports whether any step was applied.
func (t *Transform) DocChanged() bool { return len(t.steps) > 0 }

// Failure returns the index and error of the first step that failed to
// apply, or -1 and nil.
func (t *Transform) Failure() (int, error) {
	if t.failErr == nil {
		return -1, nil
	}
	return t.failIndex, t.failErr
}

// Step applies s and records it.
func (t *Transform) Step(s Step) error {
	next, err := s.Apply(t.doc)
	if err != nil {
		if t.failErr == nil {
			t.failIndex = len(t.steps)
			t.failErr = err
		}
		return err
	}
	t.docs = append(t.docs, t.doc)
	t.steps = append(t.steps, s)
	t.mapping.AppendMap(s.GetMap())
	t.doc = next
	return nil
}

// Replace replaces [from, to) with slice. Replacing an empty range with
// an empty slice is a no-op.
func (t *Transform) Replace(from, to int, slice *model.Slice) error {
	if slice == nil {
		slice = model.EmptySlice
	}
	if from == to && slice.Size() == 0 {
		return nil
	}
	return t.Step(NewReplaceStep(from, to, slice))
}

// ReplaceWith replaces [from, to) with nodes.
func (t *Transform) ReplaceWith(from, to int, nodes ...*model.Node) error {
	return t.Replace(from, to, model.NewSlice(model.FragmentFrom(nodes...), 0, 0))
}

// Insert inserts nodes at pos.
func (t *Transform) Insert(pos int, nodes ...*model.Node) error {
	return t.ReplaceWith(pos, pos, nodes...)
}

// Delete removes [from, to).
func (t *Transform) Delete(from, to int) error {
	return t.Replace(from, to, model.EmptySlice)
}

// InsertText inserts text with marks at pos. An empty text is a no-op.
func (t *Transform) InsertText(pos int, text string, marks []*model.Mark) error {
	if text == "" {
		return nil
	}
	n, err := model.NewText(t.doc.Type.Schema(), text, marks)
	if err != nil {
		return err
	}
	return t.Insert(pos, n)
}

// AddMark adds mark to the inline content in [from, to).
func (t *Transform) AddMark(from, to int, mark *model.Mark) error {
	if from >= to {
		return nil
	}
	return t.Step(NewAddMarkStep(from, to, mark))
}

// RemoveMark removes marks of type mt in [from, to). Every distinct mark
// of that type found in the range gets its own step.
func (t *Transform) RemoveMark(from, to int, mt *schema.MarkType) error {
	if from >= to {
		return nil
	}
	var found []*model.Mark
	t.doc.NodesBetween(from, to, func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		if !n.IsInline() {
			return true
		}
		for _, m := range n.Marks {
			if m.Type == mt && !m.IsInSet(found) {
				found = append(found, m)
			}
		}
		return false
	})
	for _, m := range found {
		if err := t.Step(NewRemoveMarkStep(from, to, m)); err != nil {
			return err
		}
	}
	return nil
}

// SetBlockType changes every textblock in [from, to) to typ with attrs.
// Marks the new type does not allow are dropped; blocks that cannot take
// the new type at their position are left alone.
func (t *Transform) SetBlockType(from, to int, typ *schema.NodeType, attrs map[string]any) error {
	if !typ.IsTextblock() {
		return fmt.Errorf("%s: %w", typ.Name, ErrNotTextblock)
	}
	computed, err := typ.ComputeAttrs(attrs)
	if err != nil {
		return err
	}

	type target struct {
		pos  int
		node *model.Node
	}
	var targets []target
	t.doc.NodesBetween(from, to, func(n *model.Node, pos int, _ *model.Node, _ int) bool {
		if n.IsTextblock() {
			if !n.HasMarkup(typ, computed, n.Marks) {
				targets = append(targets, target{pos: pos, node: n})
			}
			return false
		}
		return true
	})

	mapFrom := len(t.steps)
	for _, tg := range targets {
		mapping := t.mapping.Slice(mapFrom, t.mapping.Len())
		start := mapping.Map(tg.pos, 1)
		end := mapping.Map(tg.pos+tg.node.NodeSize(), 1)

		rPos, err := t.doc.Resolve(start)
		if err != nil {
			return err
		}
		index := rPos.Index(rPos.Depth)
		if !rPos.Parent().CanReplaceWith(index, index+1, typ) {
			continue
		}

		content := stripMarks(tg.node.Content, typ)
		replacement, err := model.CreateChecked(typ, computed, content, tg.node.Marks)
		if err != nil {
			continue
		}
		if err := t.ReplaceWith(start, end, replacement); err != nil {
			return err
		}
	}
	return nil
}

func stripMarks(f *model.Fragment, parent *schema.NodeType) *model.Fragment {
	nodes := make([]*model.Node, 0, f.ChildCount())
	for i := 0; i < f.ChildCount(); i++ {
		child := f.Child(i)
		var kept []*model.Mark
		for _, m := range child.Marks {
			if parent.AllowsMarkType(m.Type) {
				kept = append(kept, m)
			}
		}
		nodes = append(nodes, child.WithMarks(kept))
	}
	return model.FragmentFrom(nodes...)
}
