package leaderboard

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/jaminalder/tictactoe-ai/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS leaderboard (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT    NOT NULL UNIQUE,
	wins     INTEGER NOT NULL DEFAULT 0,
	losses   INTEGER NOT NULL DEFAULT 0,
	ties     INTEGER NOT NULL DEFAULT 0
)`

// SQLiteStore persists totals in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the
// schema exists. Use ":memory:" for a throwaway store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases shared and
	// serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create leaderboard table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Record(ctx context.Context, username string, d domain.Delta) error {
	u, err := normalize(username)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO leaderboard (username, wins, losses, ties) VALUES (?, ?, ?, ?)
ON CONFLICT(username) DO UPDATE SET
	wins   = wins   + excluded.wins,
	losses = losses + excluded.losses,
	ties   = ties   + excluded.ties`,
		u, d.Wins, d.Losses, d.Ties)
	if err != nil {
		return fmt.Errorf("record %s: %w", u, err)
	}
	return nil
}

func (s *SQLiteStore) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT username, wins, losses, ties FROM leaderboard
ORDER BY wins DESC, username ASC
LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Username, &e.Wins, &e.Losses, &e.Ties); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
