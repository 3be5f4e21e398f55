package dedup

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/finsent/ingestor/pkg/submission"
)

var seenBucket = []byte("seen_ids")

// lockWaitTimeout bounds how long bbolt waits for its file lock before
// giving up — without this, a concurrent run would hang instead of failing
// fast with DedupLockError (spec.md §5).
const lockWaitTimeout = 2 * time.Second

// tierB is the durable, exact-match store. One writer at a time; every
// insert is fsync'd (bbolt commits each Update in its own fsync'd
// transaction) before insert returns.
type tierB struct {
	db *bolt.DB
}

// openTierB opens (creating if absent) the Tier B file at path, taking an
// exclusive lock for the lifetime of the store.
func openTierB(path string) (*tierB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: lockWaitTimeout})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, &LockError{Err: err}
		}
		return nil, &OpenError{Err: err}
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(seenBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, &OpenError{Err: fmt.Errorf("creating bucket: %w", err)}
	}

	return &tierB{db: db}, nil
}

func (b *tierB) contains(id string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(seenBucket).Get([]byte(id))
		found = v != nil
		return nil
	})
	if err != nil {
		return false, &ReadError{Err: err}
	}
	return found, nil
}

func (b *tierB) insert(id string, ts int64) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(ts))
		return tx.Bucket(seenBucket).Put([]byte(id), buf)
	})
	if err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// allIDs iterates every stored SeenID, used to seed Tier A at startup.
func (b *tierB) allIDs() ([]submission.SeenID, error) {
	var out []submission.SeenID
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(seenBucket).ForEach(func(k, v []byte) error {
			var ts int64
			if len(v) == 8 {
				ts = int64(binary.BigEndian.Uint64(v))
			}
			out = append(out, submission.SeenID{ID: string(k), FirstSeen: ts})
			return nil
		})
	})
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	return out, nil
}

func (b *tierB) close() error {
	return b.db.Close()
}
