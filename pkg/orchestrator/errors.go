package orchestrator

// DeadlineExceededError means the configured run deadline elapsed before
// every community was walked. Fatal mid-run, exit code 5 (spec.md §5/§7).
type DeadlineExceededError struct{}

func (e *DeadlineExceededError) Error() string {
	return "orchestrator: run deadline exceeded"
}
