// Package runlock implements the optional distributed run lock
// (SPEC_FULL.md §3.2): a Redis SET NX guard that extends Tier B's
// single-host file lock to a fleet sharing network storage. Grounded on
// the teacher's auth.RateLimiter INCR/EXPIRE idiom, adapted to a single
// atomic SET NX acquire/release pair.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned by Acquire when another host already holds the lock.
var ErrHeld = errors.New("runlock: lock is held by another run")

// Lock guards a single Tier B path across a fleet of hosts.
type Lock struct {
	redis *redis.Client
	key   string
	token string
	ttl   time.Duration
}

// New builds a Lock keyed by dedupPath. rdb may be nil, in which case
// Acquire/Release are no-ops — callers use this when REDIS_URL is unset
// (SPEC_FULL.md §3.2).
func New(rdb *redis.Client, dedupPath string, ttl time.Duration) *Lock {
	return &Lock{
		redis: rdb,
		key:   fmt.Sprintf("ingestor:runlock:%s", dedupPath),
		token: fmt.Sprintf("%d", time.Now().UnixNano()),
		ttl:   ttl,
	}
}

// Acquire takes the lock with SET NX PX, failing fast with ErrHeld if
// another run already holds it — surfaced by the caller as
// *dedup.LockError, exit code 3.
func (l *Lock) Acquire(ctx context.Context) error {
	if l.redis == nil {
		return nil
	}
	ok, err := l.redis.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquiring distributed run lock: %w", err)
	}
	if !ok {
		return ErrHeld
	}
	return nil
}

// Release drops the lock, but only if this Lock still holds it (its token
// matches) — a held-for-too-long lock that already expired must not be
// released out from under a newer holder.
func (l *Lock) Release(ctx context.Context) error {
	if l.redis == nil {
		return nil
	}
	val, err := l.redis.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading distributed run lock: %w", err)
	}
	if val != l.token {
		return nil
	}
	return l.redis.Del(ctx, l.key).Err()
}
