package tracking

import "errors"

// Errors returned by change tracking operations.
var (
	// ErrNotFound indicates a change record that does not exist, or was
	// already accepted or rejected.
	ErrNotFound = errors.New("change record not found")

	// ErrStaleReject indicates a record whose change can no longer be
	// reverted because later edits removed or restructured its region.
	ErrStaleReject = errors.New("change can no longer be rejected")
)
