package history

import (
	"github.com/dshills/scribe/internal/engine/transform"
)

// rebaseStack carries a stack of units over a change m that was applied to
// the document the top unit reverts. Units are processed from the top down
// because each unit applies to the document the unit above it produces.
// Steps whose content was deleted are dropped, as are units left empty.
func rebaseStack(stack []*unit, m *transform.Mapping) []*unit {
	if len(stack) == 0 {
		return stack
	}
	out := make([]*unit, len(stack))
	cur := m
	for i := len(stack) - 1; i >= 0; i-- {
		u := stack[i]
		steps, next := rebaseSteps(u.steps, cur)
		cur = next
		out[i] = &unit{
			steps:       steps,
			selection:   u.selection.Map(cur),
			timestamp:   u.timestamp,
			description: u.description,
		}
	}
	kept := out[:0]
	for _, u := range out {
		if len(u.steps) > 0 {
			kept = append(kept, u)
		}
	}
	return kept
}

// rebaseSteps maps steps through m and returns the mapping from the
// document they produced before to the one they produce now. Steps left
// with nothing to change are dropped.
func rebaseSteps(steps []transform.Step, m *transform.Mapping) ([]transform.Step, *transform.Mapping) {
	cur := m
	out := make([]transform.Step, 0, len(steps))
	for _, s := range steps {
		mapped := s.Map(cur)
		next := transform.NewMapping(s.GetMap().Invert())
		next.AppendMapping(cur)
		if mapped != nil && !transform.IsNoop(mapped) {
			out = append(out, mapped)
			next.AppendMap(mapped.GetMap())
		}
		cur = next
	}
	return out, cur
}

// forwardMapping returns the mapping of the change a unit reverts.
func forwardMapping(u *unit) *transform.Mapping {
	m := transform.NewMapping()
	for _, s := range u.steps {
		m.AppendMap(s.GetMap())
	}
	return m.Invert()
}
