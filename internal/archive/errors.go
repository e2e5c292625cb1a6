package archive

import "fmt"

// FetchError reports a failed or malformed ledger read during assembly.
type FetchError struct {
	UID uint64
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch product %d: %v", e.UID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistError reports a failed store operation, read or write, unrelated
// to the uid uniqueness constraint. No partial record is left behind.
type PersistError struct {
	UID uint64
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist product %d: %v", e.UID, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// NotCompletedError rejects a backfill for a product that has not reached
// the terminal state yet.
type NotCompletedError struct {
	UID   uint64
	State uint8
}

func (e *NotCompletedError) Error() string {
	return fmt.Sprintf("product %d not yet completed (current state: %d)", e.UID, e.State)
}
