package runledger

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

func TestWriter_NilPoolIsNoop(t *testing.T) {
	w := NewWriter(nil, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w.Start(ctx)
	w.Log(Entry{RunID: "run-1", StartedAt: time.Now(), Status: "success"})
	w.Close()
	// No panic and no blocking is the contract here — RUN_LEDGER_DSN unset
	// means the ledger is entirely disabled.
}

func TestJoinCommunities(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"a"}, "a"},
		{[]string{"a", "b", "c"}, "a,b,c"},
	}
	for _, tt := range tests {
		if got := joinCommunities(tt.in); got != tt.want {
			t.Errorf("joinCommunities(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
