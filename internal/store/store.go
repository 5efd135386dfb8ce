// Package store persists the task list to a local key-value store backed by
// SQLite. The whole list lives under a single key as a JSON array; the store
// knows nothing about lifecycle states or classification.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	embedsql "github.com/ldi/mission/embed/sql"
	"github.com/ldi/mission/pkg/models"
	_ "modernc.org/sqlite"
)

const tasksKey = "tasks"

// ErrCorrupt wraps parse failures of the persisted task list. Callers are
// expected to recover by treating the list as empty.
var ErrCorrupt = errors.New("task store is corrupt")

type Store struct {
	*sql.DB
	onChange   func(ctx context.Context)
	onChangeMu sync.RWMutex
}

// Open opens the SQLite-backed store at the given path, creating parent
// directories as needed. ":memory:" is supported for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)

	return &Store{DB: db}, nil
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.ExecContext(ctx, embedsql.Schema); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// SetOnChange registers a hook invoked after every successful Save. Hooks are
// best-effort; a hook failure never fails the write that triggered it.
func (s *Store) SetOnChange(fn func(ctx context.Context)) {
	s.onChangeMu.Lock()
	defer s.onChangeMu.Unlock()
	s.onChange = fn
}

func (s *Store) triggerChange(ctx context.Context) {
	s.onChangeMu.RLock()
	fn := s.onChange
	s.onChangeMu.RUnlock()

	if fn != nil {
		fn(ctx)
	}
}

// Load returns the persisted task list in stored order. A missing key yields
// an empty list; a value that fails to parse or shape-check returns an error
// wrapping ErrCorrupt.
func (s *Store) Load(ctx context.Context) ([]*models.Task, error) {
	var value string
	err := s.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", tasksKey).Scan(&value)
	if err == sql.ErrNoRows {
		return []*models.Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task list: %w", err)
	}

	tasks, err := models.DecodeTaskList([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return tasks, nil
}

// Save replaces the persisted task list with the given one. There are no
// retries; the error surfaces to the caller.
func (s *Store) Save(ctx context.Context, tasks []*models.Task) error {
	if tasks == nil {
		tasks = []*models.Task{}
	}

	value, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to serialize task list: %w", err)
	}

	_, err = s.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, tasksKey, string(value))
	if err != nil {
		return fmt.Errorf("failed to save task list: %w", err)
	}

	s.triggerChange(ctx)
	return nil
}
