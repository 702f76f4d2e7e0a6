package transform

import "github.com/dshills/scribe/internal/engine/model"

// Step kinds as used in serialized steps.
const (
	KindReplace    = "replace"
	KindAddMark    = "addMark"
	KindRemoveMark = "removeMark"
)

// Step is an atomic, invertible document edit.
type Step interface {
	// Kind names the step type.
	Kind() string

	// Apply applies the step to doc, returning the new document or a
	// *StepError. doc itself is never modified.
	Apply(doc *model.Node) (*model.Node, error)

	// Invert returns a step that undoes this one. doc must be the document
	// the step was applied to.
	Invert(doc *model.Node) (Step, error)

	// Map returns the step expressed against a document changed by m, or
	// nil when the content the step applied to was deleted.
	Map(m Mappable) Step

	// GetMap returns the position map of the step.
	GetMap() *StepMap
}

// IsNoop reports whether s is a replace step that neither removes nor
// inserts anything.
func IsNoop(s Step) bool {
	rs, ok := s.(*ReplaceStep)
	return ok && rs.From == rs.To && rs.Slice.Size() == 0
}

// ApplySteps folds steps over doc left to right. On the first failure it
// returns the index of the failing step and its error; doc is unaffected.
func ApplySteps(doc *model.Node, steps []Step) (*model.Node, int, error) {
	cur := doc
	for i, s := range steps {
		next, err := s.Apply(cur)
		if err != nil {
			return nil, i, err
		}
		cur = next
	}
	return cur, -1, nil
}

// InvertSteps returns the inverse of steps applied in order to doc. The
// result is in reverse order, ready to be applied to the final document.
func InvertSteps(doc *model.Node, steps []Step) ([]Step, error) {
	inverted := make([]Step, len(steps))
	cur := doc
	for i, s := range steps {
		inv, err := s.Invert(cur)
		if err != nil {
			return nil, err
		}
		inverted[len(steps)-1-i] = inv
		if cur, err = s.Apply(cur); err != nil {
			return nil, err
		}
	}
	return inverted, nil
}

// Sizes returns how many positions a step removes and inserts. Mark steps
// rewrite their range in place, so they count it as both.
func Sizes(s Step) (removed, inserted int) {
	switch st := s.(type) {
	case *ReplaceStep:
		return st.To - st.From, st.Slice.Size()
	case *AddMarkStep:
		return st.To - st.From, st.To - st.From
	case *RemoveMarkStep:
		return st.To - st.From, st.To - st.From
	}
	return 0, 0
}

// Range returns the span of the step in the document it applies to.
func Range(s Step) (from, to int) {
	switch st := s.(type) {
	case *ReplaceStep:
		return st.From, st.To
	case *AddMarkStep:
		return st.From, st.To
	case *RemoveMarkStep:
		return st.From, st.To
	}
	return 0, 0
}
