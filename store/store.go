// Package store is the durable home of the ledger. Every mutation goes
// through Transact, which serializes read, validate and write against every
// other Transact and Reset on the same store.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/logger"
)

// DefaultMaxRetries bounds how often Transact re-runs after losing a
// version race to another writer of the same backend.
const DefaultMaxRetries = 5

var (
	// ErrNotFound is returned by a Backend when no ledger has been written yet.
	ErrNotFound = errors.New("ledger record not found")

	// ErrVersionConflict is returned by a Backend when the stored version
	// is not the one the writer read.
	ErrVersionConflict = errors.New("ledger version conflict")
)

// Store owns the persisted ledger.
type Store interface {
	// Load returns the current ledger, creating and persisting a fresh one
	// on first run.
	Load(ctx context.Context) (ledger.Ledger, error)

	// Transact applies fn to a copy of the current ledger and persists the
	// result. If fn fails nothing is written and its error is returned as
	// is. fn may be called more than once and must not have side effects.
	Transact(ctx context.Context, fn func(ledger.Ledger) (ledger.Ledger, error)) (ledger.Ledger, error)

	// Reset replaces the ledger with a fresh one.
	Reset(ctx context.Context) (ledger.Ledger, error)

	Close() error
}

// Record is a ledger together with its write version. Version 0 means the
// record does not exist.
type Record struct {
	Ledger  ledger.Ledger
	Version int64
}

// Backend persists a single ledger record.
type Backend interface {
	// Read returns the stored record or ErrNotFound.
	Read(ctx context.Context) (Record, error)

	// Write stores rec if the stored version equals expect (0 when nothing
	// is stored yet), otherwise it returns ErrVersionConflict.
	Write(ctx context.Context, rec Record, expect int64) error

	Close() error
}

type Option func(*ledgerStore)

// WithClock sets the time source used to stamp fresh ledgers.
func WithClock(now func() time.Time) Option {
	return func(s *ledgerStore) { s.now = now }
}

// WithMaxRetries sets how many version conflicts Transact absorbs.
func WithMaxRetries(n int) Option {
	return func(s *ledgerStore) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(s *ledgerStore) {
		if l != nil {
			s.log = l
		}
	}
}

type ledgerStore struct {
	// mu is held by writers for the whole read-validate-write cycle.
	// Readers go straight to the backend, which only exposes whole records.
	mu sync.Mutex

	backend    Backend
	now        func() time.Time
	maxRetries int
	log        *logger.Logger
}

// New wraps b with the single-writer transaction discipline.
func New(b Backend, opts ...Option) Store {
	s := &ledgerStore{
		backend:    b,
		now:        time.Now,
		maxRetries: DefaultMaxRetries,
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ledgerStore) Load(ctx context.Context) (ledger.Ledger, error) {
	rec, err := s.backend.Read(ctx)
	switch {
	case err == nil:
		return rec.Ledger, nil
	case !errors.Is(err, ErrNotFound):
		return ledger.Ledger{}, storeIO("load", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out ledger.Ledger
	err = s.writeLocked(ctx, "init", func(cur Record) (ledger.Ledger, bool, error) {
		if cur.Version > 0 {
			// someone else initialized it first
			out = cur.Ledger
			return ledger.Ledger{}, false, nil
		}
		out = ledger.New(s.now())
		return out, true, nil
	})
	if err != nil {
		return ledger.Ledger{}, err
	}
	return out, nil
}

func (s *ledgerStore) Transact(ctx context.Context, fn func(ledger.Ledger) (ledger.Ledger, error)) (ledger.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out ledger.Ledger
	err := s.writeLocked(ctx, "transact", func(cur Record) (ledger.Ledger, bool, error) {
		l := cur.Ledger
		if cur.Version == 0 {
			l = ledger.New(s.now())
		}
		next, err := fn(l.Clone())
		if err != nil {
			return ledger.Ledger{}, false, err
		}
		if err := next.Check(); err != nil {
			return ledger.Ledger{}, false, err
		}
		out = next
		return next, true, nil
	})
	if err != nil {
		return ledger.Ledger{}, err
	}
	return out.Clone(), nil
}

func (s *ledgerStore) Reset(ctx context.Context) (ledger.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out ledger.Ledger
	err := s.writeLocked(ctx, "reset", func(Record) (ledger.Ledger, bool, error) {
		out = ledger.New(s.now())
		return out, true, nil
	})
	if err != nil {
		return ledger.Ledger{}, err
	}
	return out, nil
}

func (s *ledgerStore) Close() error {
	if err := s.backend.Close(); err != nil {
		return storeIO("close", err)
	}
	return nil
}

// writeLocked runs one optimistic read-compute-write cycle, retrying on
// version conflicts. compute returns write=false to commit nothing.
func (s *ledgerStore) writeLocked(ctx context.Context, op string,
	compute func(cur Record) (next ledger.Ledger, write bool, err error)) error {

	for attempt := 0; ; attempt++ {
		cur, err := s.backend.Read(ctx)
		if errors.Is(err, ErrNotFound) {
			cur, err = Record{}, nil
		}
		if err != nil {
			return storeIO(op, err)
		}

		next, write, err := compute(cur)
		if err != nil || !write {
			return err
		}

		err = s.backend.Write(ctx, Record{Ledger: next, Version: cur.Version + 1}, cur.Version)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrVersionConflict) && attempt < s.maxRetries {
			s.log.Debug("ledger version conflict, retrying",
				zap.String("op", op),
				zap.Int64("version", cur.Version),
				zap.Int("attempt", attempt+1))
			continue
		}
		return storeIO(op, err)
	}
}

func storeIO(op string, err error) error {
	if errors.Is(err, ledger.ErrStoreIO) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ledger.ErrStoreIO, op, err)
}
