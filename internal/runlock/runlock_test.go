package runlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("starting miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestLock_NilClientIsNoop(t *testing.T) {
	l := New(nil, "/data/dupes.db", time.Minute)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() with nil client error = %v", err)
	}
	if err := l.Release(context.Background()); err != nil {
		t.Fatalf("Release() with nil client error = %v", err)
	}
}

func TestLock_SecondAcquireFailsWhileHeld(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	l1 := New(rdb, "/data/dupes.db", time.Minute)
	if err := l1.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}

	l2 := New(rdb, "/data/dupes.db", time.Minute)
	if err := l2.Acquire(ctx); err != ErrHeld {
		t.Fatalf("second Acquire() error = %v, want ErrHeld", err)
	}
}

func TestLock_ReleaseThenAcquireSucceeds(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	l1 := New(rdb, "/data/dupes.db", time.Minute)
	if err := l1.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := l1.Release(ctx); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	l2 := New(rdb, "/data/dupes.db", time.Minute)
	if err := l2.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
}

func TestLock_ReleaseDoesNotStealAnotherHoldersLock(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	l1 := New(rdb, "/data/dupes.db", time.Minute)
	if err := l1.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// A different Lock instance with a different token (e.g. a stale
	// goroutine from an earlier, already-expired attempt) must not be able
	// to release l1's active lock.
	imposter := New(rdb, "/data/dupes.db", time.Minute)
	if err := imposter.Release(ctx); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	l2 := New(rdb, "/data/dupes.db", time.Minute)
	if err := l2.Acquire(ctx); err != ErrHeld {
		t.Fatalf("Acquire() after imposter release = %v, want ErrHeld (lock should still be held)", err)
	}
}
