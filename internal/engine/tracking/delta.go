package tracking

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/scribe/internal/engine/transform"
)

// ChangeType categorizes a change.
type ChangeType uint8

const (
	// ChangeInsert indicates content was added and nothing removed.
	ChangeInsert ChangeType = iota

	// ChangeDelete indicates content was removed and nothing added.
	ChangeDelete

	// ChangeModify indicates content was both removed and added, including
	// mark changes, which rewrite their range in place.
	ChangeModify
)

// String returns a human-readable representation of the change type.
func (ct ChangeType) String() string {
	switch ct {
	case ChangeInsert:
		return "insert"
	case ChangeDelete:
		return "delete"
	case ChangeModify:
		return "modify"
	default:
		return "unknown"
	}
}

// ParseChangeType is the inverse of ChangeType.String.
func ParseChangeType(s string) (ChangeType, bool) {
	switch s {
	case "insert":
		return ChangeInsert, true
	case "delete":
		return ChangeDelete, true
	case "modify":
		return ChangeModify, true
	}
	return 0, false
}

// Classify compares the removed and inserted sizes of a step. It returns
// false for a step that neither removes nor inserts anything.
func Classify(step transform.Step) (ChangeType, bool) {
	removed, inserted := transform.Sizes(step)
	switch {
	case removed == 0 && inserted == 0:
		return 0, false
	case removed == 0:
		return ChangeInsert, true
	case inserted == 0:
		return ChangeDelete, true
	default:
		return ChangeModify, true
	}
}

// ChangeRecord attributes one step of a tracked transaction to a user.
type ChangeRecord struct {
	ID        string
	User      string
	Timestamp time.Time
	Type      ChangeType

	// Step is the change as it was applied, in the positions of the
	// document it was applied to.
	Step transform.Step

	// Version is the document version the step produced.
	Version uint64

	// The fields below are kept in current document positions.

	// inverse reverts Step; nil when it can no longer be reverted.
	inverse transform.Step
	// from and to span the content the step left in the document. They
	// are equal for deletions.
	from, to int
	// deletedText is the plain text the step removed.
	deletedText string
}

// String returns a human-readable representation of the record.
func (r ChangeRecord) String() string {
	return fmt.Sprintf("%s %s by %s at v%d", r.ID, r.Type, r.User, r.Version)
}

// Range returns the span of the change in the current document.
func (r ChangeRecord) Range() (from, to int) {
	return r.from, r.to
}

// Revertible reports whether the change can still be rejected.
func (r ChangeRecord) Revertible() bool {
	return r.inverse != nil
}

// DeletedText returns the plain text the change removed.
func (r ChangeRecord) DeletedText() string {
	return r.deletedText
}

// Summary returns a human-readable summary of the records.
func Summary(records []ChangeRecord) string {
	if len(records) == 0 {
		return "no changes"
	}

	var inserts, deletes, modifies int
	users := make(map[string]bool)
	for _, r := range records {
		users[r.User] = true
		switch r.Type {
		case ChangeInsert:
			inserts++
		case ChangeDelete:
			deletes++
		case ChangeModify:
			modifies++
		}
	}

	var parts []string
	if inserts > 0 {
		parts = append(parts, plural(inserts, "insert"))
	}
	if deletes > 0 {
		parts = append(parts, plural(deletes, "delete"))
	}
	if modifies > 0 {
		parts = append(parts, plural(modifies, "modification"))
	}
	return fmt.Sprintf("%s by %s", strings.Join(parts, ", "), plural(len(users), "user"))
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
