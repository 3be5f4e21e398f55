package sentiment

import "fmt"

// LoadError means the classifier could not be constructed — e.g. the
// inference endpoint is unreachable at startup. Fatal when sentiment is
// enabled, exit code 4 (spec.md §6/§7).
type LoadError struct{ Err error }

func (e *LoadError) Error() string { return fmt.Sprintf("sentiment: load failed: %v", e.Err) }
func (e *LoadError) Unwrap() error  { return e.Err }

// RuntimeError means a forward/classify call failed mid-run. Batch-scoped:
// the caller substitutes neutral results for the affected batch and
// continues (spec.md §4.3 Failure semantics).
type RuntimeError struct{ Err error }

func (e *RuntimeError) Error() string { return fmt.Sprintf("sentiment: classify failed: %v", e.Err) }
func (e *RuntimeError) Unwrap() error  { return e.Err }
