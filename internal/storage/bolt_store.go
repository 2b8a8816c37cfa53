package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	summaryBucket    = []byte("wafer_summaries")
	errBucketMissing = errors.New("wafer_summaries bucket missing")
)

// boltStore keeps summary keys in BoltDB. Each value is the big-endian unix
// second at which the key stops counting as seen.
type boltStore struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time

	sweepEvery time.Duration
	sweepMu    sync.Mutex
	nextSweep  time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(summaryBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	s := &boltStore{
		db:         db,
		ttl:        opts.EntryTTL,
		now:        time.Now,
		sweepEvery: opts.CleanupInterval,
	}
	s.nextSweep = s.now().Add(s.sweepEvery)
	return s, nil
}

func (s *boltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Seen reports whether key was marked and has not yet expired.
func (s *boltStore) Seen(key string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	now := s.now()
	if err := s.maybeSweep(now); err != nil {
		return false, err
	}

	var expiry time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(summaryBucket)
		if b == nil {
			return errBucketMissing
		}
		expiry = decodeExpiry(b.Get([]byte(key)))
		return nil
	})
	if err != nil {
		return false, err
	}
	return expiry.After(now), nil
}

// Mark records key as published until now+TTL.
func (s *boltStore) Mark(key string) error {
	if s == nil || s.db == nil {
		return nil
	}
	now := s.now()
	if err := s.maybeSweep(now); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(summaryBucket)
		if b == nil {
			return errBucketMissing
		}
		return b.Put([]byte(key), encodeExpiry(now.Add(s.ttl)))
	})
}

// maybeSweep deletes expired keys at most once per sweep interval.
func (s *boltStore) maybeSweep(now time.Time) error {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	if now.Before(s.nextSweep) {
		return nil
	}
	if err := s.sweep(now); err != nil {
		return err
	}
	s.nextSweep = now.Add(s.sweepEvery)
	return nil
}

func (s *boltStore) sweep(now time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(summaryBucket)
		if b == nil {
			return errBucketMissing
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if decodeExpiry(v).After(now) {
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

func encodeExpiry(t time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t.Unix()))
	return buf
}

// decodeExpiry returns the zero time for missing or malformed values.
func decodeExpiry(v []byte) time.Time {
	if len(v) != 8 {
		return time.Time{}
	}
	unix := int64(binary.BigEndian.Uint64(v))
	if unix <= 0 {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}
