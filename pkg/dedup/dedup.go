// Package dedup implements the C4 two-tier deduplication engine: an
// in-memory probabilistic filter (Tier A) backed by a durable, exact-match
// store (Tier B). See spec.md §4.2.
package dedup

import (
	"log/slog"
	"time"
)

// Store combines Tier A (approximate) and Tier B (exact) into the single
// seen/mark_seen contract the orchestrator uses.
type Store struct {
	a      *tierA
	b      *tierB
	logger *slog.Logger
}

// Options configures Tier A sizing. Zero values fall back to spec.md
// defaults (N=100000, p=0.1%).
type Options struct {
	Capacity          uint
	FalsePositiveRate float64
}

// Open opens Tier B at path and rebuilds Tier A from it, per spec.md §4.2's
// "startup rebuild" rule. Returns *OpenError or *LockError on failure —
// both fatal at startup.
func Open(path string, opts Options, logger *slog.Logger) (*Store, error) {
	b, err := openTierB(path)
	if err != nil {
		return nil, err
	}

	a := newTierA(opts.Capacity, opts.FalsePositiveRate, logger)

	ids, err := b.allIDs()
	if err != nil {
		_ = b.close()
		return nil, &OpenError{Err: err}
	}
	for _, id := range ids {
		a.add(id.ID)
	}

	return &Store{a: a, b: b, logger: logger}, nil
}

// Seen answers "have we seen this before?" with no false negatives. A
// definitive "no" from Tier A short-circuits Tier B; otherwise Tier B
// confirms or refutes the approximate hit.
func (s *Store) Seen(id string) (bool, error) {
	if !s.a.maybeContains(id) {
		return false, nil
	}
	found, err := s.b.contains(id)
	if err != nil {
		return false, err
	}
	return found, nil
}

// MarkSeen inserts id into Tier B first, then Tier A — per spec.md §4.2,
// if the Tier B insert fails Tier A is left untouched and *WriteError is
// returned to the caller.
func (s *Store) MarkSeen(id string, ts time.Time) error {
	if err := s.b.insert(id, ts.Unix()); err != nil {
		return err
	}
	s.a.add(id)
	return nil
}

// Close releases the Tier B file lock.
func (s *Store) Close() error {
	return s.b.close()
}
