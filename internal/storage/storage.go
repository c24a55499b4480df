// Package storage implements the NVS-equivalent persisted key/value store
// backing the Schedule module: a single binary blob under a fixed key,
// size-bounded the way the distilled spec requires.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/mezeipetister/irrigation-controller/internal/model"
)

const (
	bucketName    = "storage"
	scheduleKey   = "schedule_bin"
	maxBlobBytes  = 12 * 1024
	openTimeout   = 2 * time.Second
)

// Store wraps a bbolt database as the controller's non-volatile storage
// namespace. bbolt's own page-level commit already gives atomic
// write-then-durable-fsync semantics, the same guarantee the teacher's
// filestore.AtomicWrite provides by writing to a temp file and renaming it.
type Store struct {
	db  *bbolt.DB
	log *zap.Logger
}

// Open opens (creating if absent) the bbolt database at path and ensures the
// storage bucket exists.
func Open(path string, log *zap.Logger) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: create bucket: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadSchedule reads the persisted schedule. found is false if no schedule
// has ever been saved (distilled spec's "Missing schedule at start" case,
// a valid initial state, not an error).
func (s *Store) LoadSchedule() (sched model.Schedule, found bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		data := b.Get([]byte(scheduleKey))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &sched)
	})
	if err != nil {
		s.log.Error("schedule load failed", zap.Error(err))
		return model.Schedule{}, false, err
	}
	return sched, found, nil
}

// SaveSchedule persists sched under the fixed key, enforcing the 12 KiB size
// bound named in the distilled spec.
func (s *Store) SaveSchedule(sched model.Schedule) error {
	data, err := json.Marshal(sched)
	if err != nil {
		return fmt.Errorf("storage: marshal schedule: %w", err)
	}
	if len(data) > maxBlobBytes {
		return fmt.Errorf("storage: schedule blob too large: %d bytes > %d", len(data), maxBlobBytes)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		return b.Put([]byte(scheduleKey), data)
	})
	if err != nil {
		s.log.Error("schedule persist failed", zap.Error(err))
		return err
	}
	return nil
}
