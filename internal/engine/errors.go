package engine

import "fmt"

// StoreError wraps a failed read/write against a document or task store.
// It aborts the current pass; the lock is still released and the next
// trigger retries from scratch.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store unavailable: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
