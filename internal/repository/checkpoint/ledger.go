// Package checkpoint keeps a local bbolt ledger of catalog files already
// synced, keyed by absolute path. threadctl sync --resume consults it to skip
// files whose modification time has not changed.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketFiles = []byte("files")

// Entry records the outcome of syncing one file.
type Entry struct {
	Path     string    `json:"path"`
	ModTime  int64     `json:"mod_time"`
	Upserted int       `json:"upserted"`
	Errors   int       `json:"errors"`
	SyncedAt time.Time `json:"synced_at"`
}

// Ledger is a bbolt-backed sync ledger. Safe for concurrent use.
type Ledger struct {
	db *bbolt.DB
}

// Open opens or creates the ledger file.
func Open(path string) (*Ledger, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketFiles)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close releases the file lock.
func (l *Ledger) Close() error { return l.db.Close() }

// Synced reports whether path was fully synced at exactly modTime.
// A file with per-item errors is not considered synced.
func (l *Ledger) Synced(path string, modTime time.Time) (bool, error) {
	e, err := l.Get(path)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return e.ModTime == modTime.UnixNano() && e.Errors == 0, nil
}

// ErrNotFound is returned by Get for unknown paths.
var ErrNotFound = errors.New("checkpoint not found")

// Get returns the entry for path.
func (l *Ledger) Get(path string) (Entry, error) {
	var e Entry
	err := l.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFiles).Get([]byte(path))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &e)
	})
	return e, err
}

// Mark stores the sync outcome for path.
func (l *Ledger) Mark(path string, modTime time.Time, upserted, errs int) error {
	data, err := json.Marshal(Entry{
		Path:     path,
		ModTime:  modTime.UnixNano(),
		Upserted: upserted,
		Errors:   errs,
		SyncedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).Put([]byte(path), data)
	})
}

// List returns all entries ordered by path.
func (l *Ledger) List() ([]Entry, error) {
	var out []Entry
	err := l.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}

// Reset forgets every file.
func (l *Ledger) Reset() error {
	return l.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketFiles); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(bucketFiles)
		return err
	})
}
