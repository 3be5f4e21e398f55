package sink

import "fmt"

// WriteError means an append to the sink file failed partway through.
// Record-scoped per spec.md §7: the caller drops the record and must not
// mark its identifier as seen.
type WriteError struct{ Err error }

func (e *WriteError) Error() string { return fmt.Sprintf("sink: write failed: %v", e.Err) }
func (e *WriteError) Unwrap() error  { return e.Err }
