package store

import (
	"context"
	"errors"
	"sync"
)

// Memory keeps the ledger record in process memory.
type Memory struct {
	mu     sync.RWMutex
	rec    *Record
	closed bool
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{}
}

var errClosed = errors.New("backend closed")

func (m *Memory) Read(ctx context.Context) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Record{}, errClosed
	}
	if m.rec == nil {
		return Record{}, ErrNotFound
	}
	return Record{Ledger: m.rec.Ledger.Clone(), Version: m.rec.Version}, nil
}

func (m *Memory) Write(ctx context.Context, rec Record, expect int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed
	}
	var cur int64
	if m.rec != nil {
		cur = m.rec.Version
	}
	if cur != expect {
		return ErrVersionConflict
	}
	m.rec = &Record{Ledger: rec.Ledger.Clone(), Version: rec.Version}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
