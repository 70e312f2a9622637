package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	outcomeBucket     = "probe_outcomes"
	outcomeValueBytes = 16 // expiry unix (8) + status (8)
)

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	outcomeTTL      time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(outcomeBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		outcomeTTL:      opts.OutcomeTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// LastStatus returns the most recent recorded status for the probe. The
// second return value is false when no live entry exists.
func (b *boltStore) LastStatus(probeID string) (int, bool, error) {
	if b == nil || b.db == nil {
		return 0, false, nil
	}

	if err := b.maybeCleanupExpired(time.Now()); err != nil {
		return 0, false, err
	}

	var (
		status int
		found  bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(outcomeBucket))
		if bucket == nil {
			return fmt.Errorf("outcome bucket missing")
		}

		key := []byte(probeID)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		expiry, st, ok := decodeOutcome(value)
		if !ok || !expiry.After(time.Now()) {
			return bucket.Delete(key)
		}

		status = st
		found = true
		return nil
	})
	return status, found, err
}

// RecordStatus stores the observed status for the probe, refreshing its TTL.
func (b *boltStore) RecordStatus(probeID string, status int) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(outcomeBucket))
		if bucket == nil {
			return fmt.Errorf("outcome bucket missing")
		}
		buf := make([]byte, outcomeValueBytes)
		binary.BigEndian.PutUint64(buf[:8], uint64(now.Add(b.outcomeTTL).Unix()))
		binary.BigEndian.PutUint64(buf[8:], uint64(status))
		return bucket.Put([]byte(probeID), buf)
	})
}

// maybeCleanupExpired removes stale probe entries on a fixed cadence so
// retired probes do not accumulate.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(outcomeBucket))
		if bucket == nil {
			return fmt.Errorf("outcome bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, _, ok := decodeOutcome(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeOutcome decodes the expiry time and status from the stored byte slice.
func decodeOutcome(value []byte) (time.Time, int, bool) {
	if len(value) != outcomeValueBytes {
		return time.Time{}, 0, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:8]))
	if unix <= 0 {
		return time.Time{}, 0, false
	}
	status := int(binary.BigEndian.Uint64(value[8:]))
	return time.Unix(unix, 0), status, true
}
