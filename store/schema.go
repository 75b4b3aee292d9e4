package store

// Schema holds the single ledger row. The CHECK keeps it a singleton; the
// version column backs compare-and-swap writes.
const Schema = `
CREATE TABLE IF NOT EXISTS ledger (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL,
	data TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);
`
