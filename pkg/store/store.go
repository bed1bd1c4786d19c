// Package store is the primary task persistence, an append-only SQLite table.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/harrisonrobin/taskdispatch/pkg/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id            TEXT PRIMARY KEY,
	batch_id      TEXT NOT NULL,
	position      INTEGER NOT NULL,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL,
	priority      TEXT NOT NULL,
	status        TEXT NOT NULL,
	category      TEXT NOT NULL,
	assignee      TEXT NOT NULL DEFAULT '',
	due_date      TEXT,
	dispatched_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS tasks_batch ON tasks (batch_id, position);
`

// Record is a stored task with its row and batch ids.
type Record struct {
	ID           string
	BatchID      string
	Task         model.Task
	DispatchedAt time.Time
}

// SQLiteStore persists tasks in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at dbPath and ensures the schema
// exists. The caller is responsible for calling Close.
func Open(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
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
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Put appends tasks as one batch in a single transaction.
func (s *SQLiteStore) Put(ctx context.Context, tasks []model.Task) error {
	_, err := s.PutBatch(ctx, tasks)
	return err
}

// PutBatch is Put returning the new batch id.
func (s *SQLiteStore) PutBatch(ctx context.Context, tasks []model.Task) (string, error) {
	batchID := uuid.NewString()
	at := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks
			(id, batch_id, position, title, description, priority, status, category, assignee, due_date, dispatched_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return "", fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range tasks {
		var due sql.NullString
		if t.DueDate != nil {
			due = sql.NullString{String: t.DueDate.String(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), batchID, i,
			t.Title, t.Description, string(t.Priority), string(t.Status),
			t.Category, t.Assignee, due, at,
		); err != nil {
			return "", fmt.Errorf("insert task %q: %w", t.Title, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return batchID, nil
}

// Recent returns the most recently stored tasks, newest batch first and in
// original order within a batch.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, title, description, priority, status, category, assignee, due_date, dispatched_at
		FROM tasks
		ORDER BY dispatched_at DESC, batch_id, position
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r                Record
			priority, status string
			due              sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.BatchID, &r.Task.Title, &r.Task.Description, &priority, &status,
			&r.Task.Category, &r.Task.Assignee, &due, &r.DispatchedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		r.Task.Priority = model.Priority(priority)
		r.Task.Status = model.Status(status)
		if due.Valid {
			d, err := model.ParseDate(due.String)
			if err != nil {
				return nil, err
			}
			r.Task.DueDate = &d
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of stored tasks.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	return n, err
}
