package state

import (
	"errors"
	"fmt"
)

// ErrMismatchedTransaction is returned when a transaction was built on a
// different document than the one it is applied to.
var ErrMismatchedTransaction = errors.New("transaction was built for another document")

// TransactionError reports a transaction rejected because one of its steps
// failed. Nothing of the transaction was applied.
type TransactionError struct {
	Index int
	Err   error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction rejected at step %d: %v", e.Index, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
