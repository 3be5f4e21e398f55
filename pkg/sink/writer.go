// Package sink implements the C6 sink writer: an append-only, header-once
// CSV file of EnrichedRecords. See spec.md §4.4.
package sink

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/finsent/ingestor/pkg/submission"
)

// Writer appends EnrichedRecords to a CSV file, writing the header once on
// first use. Safe for sequential use by a single run; the orchestrator is
// single-threaded with respect to the sink (spec.md §5).
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	csv    *csv.Writer
	logger *slog.Logger
}

// Open opens path for appending, creating it (and the header row) if it
// does not exist or is empty. Returns *WriteError on any I/O failure.
func Open(path string, logger *slog.Logger) (*Writer, error) {
	needsHeader, err := isNewOrEmpty(path)
	if err != nil {
		return nil, &WriteError{Err: err}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &WriteError{Err: fmt.Errorf("opening sink file: %w", err)}
	}

	w := &Writer{file: f, csv: csv.NewWriter(f), logger: logger}
	if needsHeader {
		if err := w.writeRow(header); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return w, nil
}

func isNewOrEmpty(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat sink file: %w", err)
	}
	return info.Size() == 0, nil
}

// Append writes one EnrichedRecord as a data row, per spec.md §4.6 step 7's
// per-record commit order. The row is buffered and flushed before this
// returns; on failure no partial row is left in the file's flushed content.
func (w *Writer) Append(r submission.EnrichedRecord) error {
	return w.writeRow(toRow(r))
}

func (w *Writer) writeRow(row []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.csv.Write(row); err != nil {
		return &WriteError{Err: fmt.Errorf("writing row: %w", err)}
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return &WriteError{Err: fmt.Errorf("flushing row: %w", err)}
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Flush()
	return w.file.Close()
}
