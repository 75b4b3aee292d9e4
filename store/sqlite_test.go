package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/ledger"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.sqlite")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	_, path := newTestSQLite(t)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='ledger'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "ledger", name)
}

func TestSQLiteRowHoldsRecord(t *testing.T) {
	b, path := newTestSQLite(t)
	s := New(b, WithClock(clock))

	_, err := s.Transact(ctx, buy("s1", "AAPL", 100, "150"))
	require.NoError(t, err)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var (
		count   int
		version int64
		data    string
	)
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM ledger`).Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, db.QueryRow(`SELECT version, data FROM ledger WHERE id = 1`).Scan(&version, &data))
	assert.Equal(t, int64(1), version)
	assert.Contains(t, data, `"balance": 985000`)
	assert.Contains(t, data, `"type": "stock"`)
}

func TestSQLiteStaleWriteConflicts(t *testing.T) {
	b, _ := newTestSQLite(t)

	require.NoError(t, b.Write(ctx, Record{Ledger: ledger.New(t0), Version: 1}, 0))
	assert.ErrorIs(t, b.Write(ctx, Record{Ledger: ledger.New(t0), Version: 1}, 0), ErrVersionConflict)
	assert.ErrorIs(t, b.Write(ctx, Record{Ledger: ledger.New(t0), Version: 3}, 2), ErrVersionConflict)
	assert.NoError(t, b.Write(ctx, Record{Ledger: ledger.New(t0), Version: 2}, 1))

	rec, err := b.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Version)
}

// Two stores on one database file stand in for two processes: only the
// version column keeps them from overwriting each other.
func TestSQLiteSharedFileStaysSerializable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.sqlite")

	open := func() Store {
		b, err := NewSQLite(path)
		require.NoError(t, err)
		s := New(b, WithClock(clock), WithMaxRetries(1000))
		t.Cleanup(func() { _ = s.Close() })
		return s
	}
	a, b := open(), open()

	_, err := a.Load(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w, s := range []Store{a, b} {
		wg.Add(1)
		go func(w int, s Store) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_, err := s.Transact(ctx, buy(fmt.Sprintf("w%d-%02d", w, i), "AAPL", 1, "100"))
				assert.NoError(t, err)
			}
		}(w, s)
	}
	wg.Wait()

	l, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, l.OpenPositions, 40)
	assert.True(t, l.Balance.Equal(d("996000")))
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.sqlite")

	b, err := NewSQLite(path)
	require.NoError(t, err)
	s := New(b, WithClock(clock))
	_, err = s.Transact(ctx, buy("s1", "AAPL", 100, "150"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	b2, err := NewSQLite(path)
	require.NoError(t, err)
	s2 := New(b2)
	defer s2.Close()

	l, err := s2.Load(ctx)
	require.NoError(t, err)
	assert.True(t, l.Balance.Equal(d("985000")))
	assert.True(t, l.CreatedAt.Equal(t0))
}

func TestSQLiteInMemory(t *testing.T) {
	b, err := NewSQLite(":memory:")
	require.NoError(t, err)
	s := New(b, WithClock(clock))
	defer s.Close()

	_, err = s.Transact(ctx, buy("s1", "AAPL", 1, "10"))
	require.NoError(t, err)
	l, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, l.OpenPositions, 1)
}

func TestSQLiteDSNEscapesPath(t *testing.T) {
	assert.Equal(t, "file:/tmp/a%3fb%23c%25d.db?_busy_timeout=5000&_journal_mode=WAL",
		sqliteDSN("/tmp/a?b#c%d.db"))
}

func TestSQLitePathWithURICharacters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "q?x#y")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "ledger.sqlite")

	b, err := NewSQLite(path)
	require.NoError(t, err)
	s := New(b, WithClock(clock))
	_, err = s.Transact(ctx, buy("s1", "AAPL", 1, "10"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err, "database created at the literal path")
}
