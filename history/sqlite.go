package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS command_history (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	series_id TEXT NOT NULL,
	line      TEXT NOT NULL,
	at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_command_history_series ON command_history (series_id);
`

// SQLiteLog is a Log backed by a SQLite database.
type SQLiteLog struct {
	db *sql.DB
}

// NewSQLiteLog opens (creating if needed) a SQLite-backed log at dsn.
// Use ":memory:" for an ephemeral database.
func NewSQLiteLog(dsn string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &SQLiteLog{db: db}, nil
}

// Append implements Log.
func (l *SQLiteLog) Append(ctx context.Context, seriesID, line string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO command_history (series_id, line) VALUES (?, ?)`, seriesID, line)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// Lines implements Log.
func (l *SQLiteLog) Lines(ctx context.Context, seriesID string) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT line FROM command_history WHERE series_id = ? ORDER BY id`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// Close implements Log.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
