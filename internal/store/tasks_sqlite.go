package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"remindsync/internal/model"
	"remindsync/internal/tag"
)

const tasksDBFileName = "index.sqlite"

// SQLiteTasks is the reminder-list adapter backed by a workspace SQLite db.
type SQLiteTasks struct {
	db *sql.DB
}

func TasksDBPath(dir string) string {
	return filepath.Join(dir, tasksDBFileName)
}

// OpenSQLiteTasks opens (creating if needed) the tasks database and runs
// migrations. Callers own Close.
func OpenSQLiteTasks(ctx context.Context, path string) (*SQLiteTasks, error) {
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Pragmas for multi-process local usage.
	// WAL enables one writer + many readers; busy_timeout helps avoid "database is locked" flakiness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateTasks(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteTasks{db: db}, nil
}

func migrateTasks(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			list TEXT NOT NULL,
			name TEXT NOT NULL,
			name_key TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			created_at_unixms INTEGER NOT NULL,
			completed_at_unixms INTEGER
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_list_key ON tasks(list, name_key);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteTasks) Close() error {
	return s.db.Close()
}

func (s *SQLiteTasks) ListTasks(ctx context.Context, list string) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, list, name, completed, created_at_unixms, completed_at_unixms
		FROM tasks WHERE list = ? ORDER BY created_at_unixms, rowid`, list)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		var t model.Task
		var completed int
		var createdMs int64
		var completedMs sql.NullInt64
		if err := rows.Scan(&t.ID, &t.List, &t.Name, &completed, &createdMs, &completedMs); err != nil {
			return nil, err
		}
		t.Completed = completed != 0
		t.CreatedAt = time.UnixMilli(createdMs).UTC()
		if completedMs.Valid {
			ts := time.UnixMilli(completedMs.Int64).UTC()
			t.CompletedAt = &ts
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Task{}
	}
	return out, nil
}

func (s *SQLiteTasks) CreateTask(ctx context.Context, list, name string) (model.Task, error) {
	t := model.Task{
		ID:        uuid.NewString(),
		List:      list,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks(id, list, name, name_key, completed, created_at_unixms)
		VALUES(?, ?, ?, ?, 0, ?)`,
		t.ID, t.List, t.Name, tag.Key(name), t.CreatedAt.UnixMilli())
	if err != nil {
		return model.Task{}, fmt.Errorf("create task %q: %w", name, err)
	}
	return t, nil
}

// CompleteTask marks a task done by name key. This is the CLI's stand-in for
// the external user checking off a reminder; the engine never calls it.
func (s *SQLiteTasks) CompleteTask(ctx context.Context, list, name string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET completed = 1, completed_at_unixms = ?
		WHERE list = ? AND name_key = ? AND completed = 0`,
		time.Now().UTC().UnixMilli(), list, tag.Key(name))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no open task named %q in list %q", name, list)
	}
	return nil
}

// DeleteTask removes a task by name key (external cleanup of finished
// reminders).
func (s *SQLiteTasks) DeleteTask(ctx context.Context, list, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE list = ? AND name_key = ?`, list, tag.Key(name))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no task named %q in list %q", name, list)
	}
	return nil
}
