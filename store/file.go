package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/rustyeddy/papertrader/ledger"
)

// File keeps the ledger record as one JSON document. Writes go to a temp
// file in the same directory that is then renamed over the record, so a
// reader sees either the old or the new ledger, never a partial one.
//
// Writers take an flock on path+".lock" for the version check and rename,
// so processes sharing the record stay serialized.
type File struct {
	mu   sync.RWMutex
	path string
	lock *flock.Flock
}

// lockRetry is how often a blocked writer polls for the file lock.
const lockRetry = 5 * time.Millisecond

// NewFile returns a backend for the JSON record at path. The directory is
// created if needed; the record itself is created on first write.
func NewFile(path string) (*File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}
	return &File{path: path, lock: flock.New(path + ".lock")}, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Read(ctx context.Context) (Record, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.readLocked()
}

func (f *File) readLocked() (Record, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}

	l, version, err := ledger.UnmarshalRecord(data)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", f.path, err)
	}
	return Record{Ledger: l, Version: version}, nil
}

func (f *File) Write(ctx context.Context, rec Record, expect int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	locked, err := f.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock %s: %w", f.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", f.lock.Path())
	}
	defer f.lock.Unlock()

	cur, err := f.readLocked()
	switch {
	case errors.Is(err, ErrNotFound):
		cur = Record{}
	case err != nil:
		return err
	}
	if cur.Version != expect {
		return ErrVersionConflict
	}

	data, err := ledger.MarshalRecord(rec.Ledger, rec.Version)
	if err != nil {
		return err
	}
	return writeAtomic(f.path, data)
}

func (f *File) Close() error { return f.lock.Close() }

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	// no-op once the rename succeeded
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
