package sequence

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sequences (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`

const contractSequence = "contract"

// SQLite persists the committed value so numbering continues across
// restarts. Exclusivity of reservations is still enforced in-process; one
// database file must not be shared by several bot processes.
type SQLite struct {
	gate gate
	db   *sql.DB
}

// NewSQLite opens the database at path and seeds the counter with start
// when it has never been used.
func NewSQLite(path string, start int) (*SQLite, error) {
	if start < 1 {
		start = 1
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if _, err := db.Exec(
		`INSERT INTO sequences (name, value) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		contractSequence, start,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &SQLite{gate: newGate(), db: db}, nil
}

// Next implements Counter.
func (s *SQLite) Next(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM sequences WHERE name = ?`, contractSequence,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("read sequence: %w", err)
	}
	return n, nil
}

// Reserve implements Counter.
func (s *SQLite) Reserve(ctx context.Context) (*Reservation, error) {
	return s.gate.reserve(ctx,
		func() (int, error) { return s.Next(ctx) },
		func(n int) error {
			// Commit outlives the caller's context: the document already exists.
			res, err := s.db.Exec(
				`UPDATE sequences SET value = value + 1 WHERE name = ? AND value = ?`,
				contractSequence, n,
			)
			if err != nil {
				return fmt.Errorf("commit sequence: %w", err)
			}
			if rows, err := res.RowsAffected(); err == nil && rows != 1 {
				return fmt.Errorf("commit sequence: value moved past %d", n)
			}
			return nil
		},
	)
}

// Close implements Counter.
func (s *SQLite) Close() error {
	return s.db.Close()
}
