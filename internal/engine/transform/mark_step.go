package transform

import (
	"fmt"

	"github.com/dshills/scribe/internal/engine/model"
)

// AddMarkStep adds Mark to all inline content in [From, To) whose parent
// allows it.
type AddMarkStep struct {
	From int
	To   int
	Mark *model.Mark
}

// RemoveMarkStep removes Mark from all inline content in [From, To).
type RemoveMarkStep struct {
	From int
	To   int
	Mark *model.Mark
}

// mapInline rebuilds a fragment, passing every inline node through fn
// together with its parent.
func mapInline(f *model.Fragment, parent *model.Node, fn func(n, parent *model.Node) *model.Node) *model.Fragment {
	mapped := make([]*model.Node, 0, f.ChildCount())
	for i := 0; i < f.ChildCount(); i++ {
		child := f.Child(i)
		if child.Content.Size() > 0 {
			child = child.Copy(mapInline(child.Content, child, fn))
		}
		if child.IsInline() {
			child = fn(child, parent)
		}
		mapped = append(mapped, child)
	}
	return model.FragmentFrom(mapped...)
}

// remark rewrites the marks of the inline content in [from, to).
func remark(doc *model.Node, s Step, from, to int, fn func(n, parent *model.Node) *model.Node) (*model.Node, error) {
	if from < 0 || to < from || to > doc.Content.Size() {
		return nil, stepFailed(s, fmt.Sprintf("range %d-%d outside document of size %d", from, to, doc.Content.Size()), model.ErrPositionOutOfRange)
	}
	old, err := doc.Slice(from, to, false)
	if err != nil {
		return nil, stepFailed(s, "cannot slice range", err)
	}
	rFrom, err := doc.Resolve(from)
	if err != nil {
		return nil, stepFailed(s, "cannot resolve range", err)
	}
	parent := rFrom.Node(rFrom.SharedDepth(to))
	slice := model.NewSlice(mapInline(old.Content, parent, fn), old.OpenStart, old.OpenEnd)
	out, err := doc.Replace(from, to, slice)
	if err != nil {
		return nil, stepFailed(s, "replace failed", err)
	}
	return out, nil
}

// inlineInRange calls fn for each inline node in [from, to). It stops when
// fn returns false.
func inlineInRange(doc *model.Node, from, to int, fn func(n, parent *model.Node) bool) {
	stop := false
	doc.NodesBetween(from, to, func(n *model.Node, _ int, parent *model.Node, _ int) bool {
		if stop {
			return false
		}
		if n.IsInline() {
			if !fn(n, parent) {
				stop = true
			}
			return false
		}
		return true
	})
}

// NewAddMarkStep creates an add-mark step.
func NewAddMarkStep(from, to int, mark *model.Mark) *AddMarkStep {
	return &AddMarkStep{From: from, To: to, Mark: mark}
}

func (s *AddMarkStep) Kind() string { return KindAddMark }

func (s *AddMarkStep) Apply(doc *model.Node) (*model.Node, error) {
	return remark(doc, s, s.From, s.To, func(n, parent *model.Node) *model.Node {
		if !n.IsAtom() || !parent.Type.AllowsMarkType(s.Mark.Type) {
			return n
		}
		return n.WithMarks(s.Mark.AddToSet(n.Marks))
	})
}

// Invert returns a RemoveMarkStep when no node in the range carried a mark
// of this type before. Otherwise it restores the original slice so that
// replaced or pre-existing marks come back exactly.
func (s *AddMarkStep) Invert(doc *model.Node) (Step, error) {
	clean := true
	inlineInRange(doc, s.From, s.To, func(n, _ *model.Node) bool {
		for _, m := range n.Marks {
			if m.Type == s.Mark.Type || s.Mark.Type.Excludes(m.Type) || m.Type.Excludes(s.Mark.Type) {
				clean = false
				return false
			}
		}
		return true
	})
	if clean {
		return NewRemoveMarkStep(s.From, s.To, s.Mark), nil
	}
	old, err := doc.Slice(s.From, s.To, false)
	if err != nil {
		return nil, stepFailed(s, "cannot slice original content", err)
	}
	return NewReplaceStep(s.From, s.To, old), nil
}

func (s *AddMarkStep) Map(m Mappable) Step {
	from := m.MapResult(s.From, 1)
	to := m.MapResult(s.To, -1)
	if (from.Deleted && to.Deleted) || from.Pos >= to.Pos {
		return nil
	}
	return NewAddMarkStep(from.Pos, to.Pos, s.Mark)
}

func (s *AddMarkStep) GetMap() *StepMap { return EmptyStepMap }

func (s *AddMarkStep) String() string {
	return fmt.Sprintf("addMark(%d, %d, %s)", s.From, s.To, s.Mark)
}

// NewRemoveMarkStep creates a remove-mark step.
func NewRemoveMarkStep(from, to int, mark *model.Mark) *RemoveMarkStep {
	return &RemoveMarkStep{From: from, To: to, Mark: mark}
}

func (s *RemoveMarkStep) Kind() string { return KindRemoveMark }

func (s *RemoveMarkStep) Apply(doc *model.Node) (*model.Node, error) {
	return remark(doc, s, s.From, s.To, func(n, _ *model.Node) *model.Node {
		return n.WithMarks(s.Mark.RemoveFromSet(n.Marks))
	})
}

// Invert returns an AddMarkStep when every inline node in the range that
// can carry the mark had it. Otherwise the original slice is restored.
func (s *RemoveMarkStep) Invert(doc *model.Node) (Step, error) {
	uniform := true
	inlineInRange(doc, s.From, s.To, func(n, parent *model.Node) bool {
		if parent.Type.AllowsMarkType(s.Mark.Type) && !s.Mark.IsInSet(n.Marks) {
			uniform = false
			return false
		}
		return true
	})
	if uniform {
		return NewAddMarkStep(s.From, s.To, s.Mark), nil
	}
	old, err := doc.Slice(s.From, s.To, false)
	if err != nil {
		return nil, stepFailed(s, "cannot slice original content", err)
	}
	return NewReplaceStep(s.From, s.To, old), nil
}

func (s *RemoveMarkStep) Map(m Mappable) Step {
	from := m.MapResult(s.From, 1)
	to := m.MapResult(s.To, -1)
	if (from.Deleted && to.Deleted) || from.Pos >= to.Pos {
		return nil
	}
	return NewRemoveMarkStep(from.Pos, to.Pos, s.Mark)
}

func (s *RemoveMarkStep) GetMap() *StepMap { return EmptyStepMap }

func (s *RemoveMarkStep) String() string {
	return fmt.Sprintf("removeMark(%d, %d, %s)", s.From, s.To, s.Mark)
}
