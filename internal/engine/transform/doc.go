// Package transform implements document steps and position mapping.
//
// A Step is the smallest edit the engine knows: a ReplaceStep replaces a
// range with a slice, an AddMarkStep or RemoveMarkStep changes the marks
// of inline content. Every step can be:
//
//   - applied to a document, producing a new one or a *StepError
//   - inverted against the document it was applied to
//   - mapped through later changes
//
// # Position Mapping
//
// Each step exposes a StepMap describing the ranges it replaced. A
// Mapping chains step maps so that a position in an old document can be
// carried forward:
//
//	m := transform.NewMapping(step1.GetMap(), step2.GetMap())
//	res := m.MapResult(pos, 1)
//	if res.Deleted {
//		// pos was inside deleted content
//	}
//
// # Transforms
//
// Transform is a builder that applies steps eagerly and keeps the
// intermediate documents, which is what inversion needs.
package transform
