package dedup

import "fmt"

// OpenError means Tier B could not be opened at startup. Fatal, exit code 3.
type OpenError struct{ Err error }

func (e *OpenError) Error() string { return fmt.Sprintf("dedup: opening store: %v", e.Err) }
func (e *OpenError) Unwrap() error { return e.Err }

// LockError means another process already holds the Tier B write lock.
// Fatal, exit code 3.
type LockError struct{ Err error }

func (e *LockError) Error() string { return fmt.Sprintf("dedup: acquiring lock: %v", e.Err) }
func (e *LockError) Unwrap() error { return e.Err }

// ReadError means a membership query against Tier B failed. Fatal mid-run
// per spec.md §7 — we cannot risk emitting duplicates.
type ReadError struct{ Err error }

func (e *ReadError) Error() string { return fmt.Sprintf("dedup: read failed: %v", e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// WriteError means marking an identifier as seen failed. Record-scoped and
// non-fatal: the orchestrator marks a record only after its sink row is
// written, so the row stays in the output and the failure is logged and
// counted.
type WriteError struct{ Err error }

func (e *WriteError) Error() string { return fmt.Sprintf("dedup: write failed: %v", e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }
