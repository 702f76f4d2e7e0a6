package transform

import (
	"fmt"

	"github.com/dshills/scribe/internal/engine/model"
)

// ReplaceStep replaces [From, To) with Slice.
type ReplaceStep struct {
	From  int
	To    int
	Slice *model.Slice
}

// NewReplaceStep creates a replace step. A nil slice deletes the range.
func NewReplaceStep(from, to int, slice *model.Slice) *ReplaceStep {
	if slice == nil {
		slice = model.EmptySlice
	}
	return &ReplaceStep{From: from, To: to, Slice: slice}
}

func (s *ReplaceStep) Kind() string { return KindReplace }

func (s *ReplaceStep) Apply(doc *model.Node) (*model.Node, error) {
	if s.From < 0 || s.To < s.From || s.To > doc.Content.Size() {
		return nil, stepFailed(s, fmt.Sprintf("range %d-%d outside document of size %d", s.From, s.To, doc.Content.Size()), model.ErrPositionOutOfRange)
	}
	out, err := doc.Replace(s.From, s.To, s.Slice)
	if err != nil {
		return nil, stepFailed(s, "replace failed", err)
	}
	return out, nil
}

func (s *ReplaceStep) Invert(doc *model.Node) (Step, error) {
	old, err := doc.Slice(s.From, s.To, false)
	if err != nil {
		return nil, stepFailed(s, "cannot slice original content", err)
	}
	return NewReplaceStep(s.From, s.From+s.Slice.Size(), old), nil
}

func (s *ReplaceStep) Map(m Mappable) Step {
	from := m.MapResult(s.From, 1)
	to := m.MapResult(s.To, -1)
	if from.Deleted && to.Deleted {
		return nil
	}
	return NewReplaceStep(from.Pos, max(from.Pos, to.Pos), s.Slice)
}

func (s *ReplaceStep) GetMap() *StepMap {
	return NewStepMap([]int{s.From, s.To - s.From, s.Slice.Size()}, false)
}

func (s *ReplaceStep) String() string {
	return fmt.Sprintf("replace(%d, %d, %s)", s.From, s.To, s.Slice)
}
