package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	task       TEXT NOT NULL,
	branch     TEXT NOT NULL DEFAULT '',
	accepted   INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE(user_id, task)
);
`

// SQLiteStore persists acceptance records in a SQLite database. The
// UNIQUE(user_id, task) constraint plus INSERT OR IGNORE gives the single
// atomic append the concurrency model requires.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// submissions table exists. The caller is responsible for calling Close.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Accepted reports whether the task has an accepted record for the user.
func (s *SQLiteStore) Accepted(ctx context.Context, userID, task string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM submissions WHERE user_id = ? AND task = ? AND accepted = 1`,
		userID, task).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query acceptance: %w", err)
	}
	return true, nil
}

// AcceptedTasks returns every task accepted for the user, sorted.
func (s *SQLiteStore) AcceptedTasks(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task FROM submissions WHERE user_id = ? AND accepted = 1 ORDER BY task`, userID)
	if err != nil {
		return nil, fmt.Errorf("query accepted tasks: %w", err)
	}
	defer rows.Close()
	var tasks []string
	for rows.Next() {
		var task string
		if err := rows.Scan(&task); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Append inserts an acceptance record, ignoring duplicates by (user, task).
func (s *SQLiteStore) Append(ctx context.Context, rec *Record) error {
	stamp(rec)
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO submissions
			(id, user_id, task, branch, accepted, created_at)
		VALUES (?,?,?,?,?,?)`,
		rec.ID, rec.UserID, rec.Task, rec.Branch, boolToInt(rec.Accepted), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
