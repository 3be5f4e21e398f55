package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/finsent/ingestor/pkg/submission"
)

func sampleRecord(id string) submission.EnrichedRecord {
	return submission.NewEnrichedRecord(
		submission.Submission{ID: id, Title: "t", Body: "b", Score: 5, CreatedUTC: 100, Community: "test", Permalink: "/r/test/" + id, NumComments: 2},
		submission.SentimentResult{Label: submission.LabelPositive, Confidence: 0.9, Positive: 0.9, Negative: 0.05, Neutral: 0.05},
		"run-1",
	)
}

func readAllRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening sink file: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading sink file: %v", err)
	}
	return rows
}

func TestOpen_WritesHeaderOnceOnNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	w, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := w.Append(sampleRecord("a1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	rows := readAllRows(t, path)
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (header + 1 data row)", len(rows))
	}
	if len(rows[0]) != len(header) {
		t.Errorf("header has %d fields, want %d", len(rows[0]), len(header))
	}
	if len(rows[1]) != len(header) {
		t.Errorf("data row has %d fields, want %d (I5)", len(rows[1]), len(header))
	}
}

func TestOpen_ReopenDoesNotRewriteHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	w1, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := w1.Append(sampleRecord("a1")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := w1.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	w2, err := Open(path, nil)
	if err != nil {
		t.Fatalf("reopen Open() error = %v", err)
	}
	if err := w2.Append(sampleRecord("a2")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := w2.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	rows := readAllRows(t, path)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3 (one header + 2 data rows)", len(rows))
	}
	headerCount := 0
	for _, r := range rows {
		if r[0] == "post_id" {
			headerCount++
		}
	}
	if headerCount != 1 {
		t.Errorf("header appears %d times, want exactly 1 (P6)", headerCount)
	}
	if rows[1][0] != "a1" || rows[2][0] != "a2" {
		t.Errorf("rows out of order: %v", rows)
	}
}

func TestOpen_OnDirectoryPathReturnsWriteError(t *testing.T) {
	dir := t.TempDir()
	// A directory can't be opened for writing as a regular file.
	_, err := Open(dir, nil)
	if err == nil {
		t.Fatal("expected error opening a directory as a sink file")
	}
	if _, ok := err.(*WriteError); !ok {
		t.Fatalf("expected *WriteError, got %T: %v", err, err)
	}
}
