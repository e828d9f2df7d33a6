package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS access_records (
	id          TEXT PRIMARY KEY,
	time        INTEGER NOT NULL,
	server      TEXT NOT NULL,
	method      TEXT NOT NULL,
	path        TEXT NOT NULL,
	client_addr TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	outcome     TEXT NOT NULL,
	status      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_access_records_time ON access_records(time);
`

// Store persists access records in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the SQLite database at path, in
// WAL mode for concurrent reads while the recorder writes.
func OpenStore(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database %q: %w", path, err)
	}

	// A single writer goroutine owns all inserts.
	db.SetMaxOpenConns(2)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Insert writes one access record.
func (s *Store) Insert(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO access_records
			(id, time, server, method, path, client_addr, user_id, outcome, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Time.UnixMilli(), rec.Server, rec.Method, rec.Path,
		rec.ClientAddr, rec.UserID, rec.Outcome, rec.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert access record: %w", err)
	}
	return nil
}

// PurgeOlderThan deletes records older than cutoff, returning how many
// rows went away.
func (s *Store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM access_records WHERE time < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge access records: %w", err)
	}
	return res.RowsAffected()
}

// CheckReady probes the database for the readiness endpoint.
func (s *Store) CheckReady(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
