package tracking

import (
	"cmp"
	"slices"

	"github.com/dshills/scribe/internal/engine/model"
)

// DecorationKind distinguishes range highlights from point markers.
type DecorationKind uint8

const (
	// DecorationInline highlights the content in [From, To).
	DecorationInline DecorationKind = iota

	// DecorationWidget marks a position where content was removed.
	DecorationWidget
)

// String returns a human-readable representation of the kind.
func (k DecorationKind) String() string {
	if k == DecorationWidget {
		return "widget"
	}
	return "inline"
}

// Decoration is a presentation overlay for one change record. For widgets
// From equals To.
type Decoration struct {
	Kind     DecorationKind
	From     int
	To       int
	ChangeID string
	Attrs    map[string]string
}

// Class names used on decorations.
const (
	ClassInsert = "tracked-insert"
	ClassDelete = "tracked-delete"
	ClassModify = "tracked-modify"
)

// Decorations derives the decorations for records over doc. It has no side
// effects; records whose range fell outside doc or collapsed are skipped.
// The result is ordered by position.
func Decorations(doc *model.Node, records []ChangeRecord) []Decoration {
	size := doc.Content.Size()
	var out []Decoration
	for _, r := range records {
		from, to := r.from, r.to
		if from < 0 || to > size || from > to {
			continue
		}
		attrs := map[string]string{
			"data-user":        r.User,
			"data-change-id":   r.ID,
			"data-change-type": r.Type.String(),
		}
		switch r.Type {
		case ChangeDelete:
			attrs["class"] = ClassDelete
			attrs["data-deleted-text"] = r.deletedText
			out = append(out, Decoration{Kind: DecorationWidget, From: from, To: from, ChangeID: r.ID, Attrs: attrs})
		case ChangeInsert, ChangeModify:
			if from == to {
				continue
			}
			attrs["class"] = ClassInsert
			if r.Type == ChangeModify {
				attrs["class"] = ClassModify
				if r.deletedText != "" {
					attrs["data-deleted-text"] = r.deletedText
				}
			}
			out = append(out, Decoration{Kind: DecorationInline, From: from, To: to, ChangeID: r.ID, Attrs: attrs})
		}
	}
	slices.SortStableFunc(out, func(a, b Decoration) int {
		return cmp.Or(cmp.Compare(a.From, b.From), cmp.Compare(a.To, b.To))
	})
	return out
}
