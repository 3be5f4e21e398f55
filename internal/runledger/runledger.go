// Package runledger implements the optional run-history ledger
// (SPEC_FULL.md §3.1): an async, buffered Postgres writer recording one row
// per pipeline run. Modeled on the teacher's internal/audit.Writer —
// channel + ticker + batch flush, never blocking the caller — adapted from
// per-request audit entries to per-run summaries.
package runledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is one run's summary row.
type Entry struct {
	RunID             string
	StartedAt         time.Time
	FinishedAt        time.Time
	Communities       []string
	PostsFetched      int64
	PostsDeduplicated int64
	PostsProcessed    int64
	Status            string
	ExitCode          int
}

// Writer is an async, buffered run-ledger writer. Entries are sent to an
// internal channel and flushed by a background goroutine; ledger failures
// are logged, never fatal to the run (SPEC_FULL.md §3.1).
type Writer struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	entries chan Entry
	wg      sync.WaitGroup
}

const (
	bufferSize    = 16
	flushInterval = 2 * time.Second
	flushBatch    = 8
)

// NewWriter creates a run-ledger Writer. Call Start to begin processing.
// pool may be nil — in that case Log is a no-op, used when RUN_LEDGER_DSN
// is unset.
func NewWriter(pool *pgxpool.Pool, logger *slog.Logger) *Writer {
	return &Writer{pool: pool, logger: logger, entries: make(chan Entry, bufferSize)}
}

// Start begins the background flush goroutine. No-op if pool is nil.
func (w *Writer) Start(ctx context.Context) {
	if w.pool == nil {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

// Close waits for all pending entries to be flushed.
func (w *Writer) Close() {
	if w.pool == nil {
		return
	}
	close(w.entries)
	w.wg.Wait()
}

// Log enqueues a run summary for async writing. Never blocks the caller;
// if the buffer is full the entry is dropped and a warning logged.
func (w *Writer) Log(entry Entry) {
	if w.pool == nil {
		return
	}
	select {
	case w.entries <- entry:
	default:
		w.logger.Warn("run ledger buffer full, dropping entry", "run_id", entry.RunID)
	}
}

func (w *Writer) run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]Entry, 0, flushBatch)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		w.flush(batch)
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-w.entries:
			if !ok {
				flush()
				return
			}
			batch = append(batch, entry)
			if len(batch) >= flushBatch {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			for {
				select {
				case entry, ok := <-w.entries:
					if !ok {
						flush()
						return
					}
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}

func (w *Writer) flush(entries []Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, e := range entries {
		_, err := w.pool.Exec(ctx, `
			INSERT INTO runs (run_id, started_at, finished_at, communities, posts_fetched, posts_deduplicated, posts_processed, status, exit_code)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (run_id) DO UPDATE SET
				finished_at = EXCLUDED.finished_at,
				posts_fetched = EXCLUDED.posts_fetched,
				posts_deduplicated = EXCLUDED.posts_deduplicated,
				posts_processed = EXCLUDED.posts_processed,
				status = EXCLUDED.status,
				exit_code = EXCLUDED.exit_code
		`, e.RunID, e.StartedAt, e.FinishedAt, joinCommunities(e.Communities), e.PostsFetched, e.PostsDeduplicated, e.PostsProcessed, e.Status, e.ExitCode)
		if err != nil {
			w.logger.Error("writing run ledger entry", "error", err, "run_id", e.RunID)
		}
	}
}

func joinCommunities(cs []string) string {
	out := ""
	for i, c := range cs {
		if i > 0 {
			out += ","
		}
		out += c
	}
	return out
}
