package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/papertrader/ledger"
)

// SQLite keeps the ledger record in a single-row table. Several processes
// may share the database file: writes are compare-and-swap on the version
// column and lose cleanly with ErrVersionConflict.
type SQLite struct {
	db *sql.DB
}

// uriPath escapes the characters that end or re-encode the path part of
// a SQLite URI filename.
var uriPath = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func sqliteDSN(path string) string {
	return "file:" + uriPath.Replace(path) + "?_busy_timeout=5000&_journal_mode=WAL"
}

// NewSQLite opens (and if needed creates) the ledger database at path.
func NewSQLite(path string) (*SQLite, error) {
	dsn := path
	if path != ":memory:" {
		dsn = sqliteDSN(path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Read(ctx context.Context) (Record, error) {
	var (
		version int64
		data    string
	)
	err := s.db.QueryRowContext(ctx, `SELECT version, data FROM ledger WHERE id = 1`).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}

	l, _, err := ledger.UnmarshalRecord([]byte(data))
	if err != nil {
		return Record{}, fmt.Errorf("ledger row: %w", err)
	}
	return Record{Ledger: l, Version: version}, nil
}

func (s *SQLite) Write(ctx context.Context, rec Record, expect int64) error {
	data, err := ledger.MarshalRecord(rec.Ledger, rec.Version)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	var res sql.Result
	if expect == 0 {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO ledger (id, version, data, updated_at)
			VALUES (1, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING`,
			rec.Version, string(data), now,
		)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE ledger SET version = ?, data = ?, updated_at = ?
			WHERE id = 1 AND version = ?`,
			rec.Version, string(data), now, expect,
		)
	}
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
