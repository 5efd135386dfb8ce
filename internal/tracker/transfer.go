package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ldi/mission/pkg/models"
)

// ExportAll writes the whole task list as pretty-printed JSON to
// dir/tasks.json and returns the written path.
func (tr *Tracker) ExportAll(dir string) (string, error) {
	data, err := json.MarshalIndent(tr.tasks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize tasks: %w", err)
	}

	path := filepath.Join(dir, models.TasksExportName)
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// ExportTask writes a single task as pretty-printed JSON, named after its
// sanitized title.
func (tr *Tracker) ExportTask(id, dir string) (string, error) {
	t, err := tr.Get(id)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}

	path := filepath.Join(dir, t.ExportFileName())
	if err := writeFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// ImportAll replaces the whole list with a JSON array of tasks. Every element
// is validated before any state changes; there is no partial import. Ids must
// be unique within the imported list.
func (tr *Tracker) ImportAll(ctx context.Context, data []byte) (int, error) {
	tasks, err := models.DecodeTaskList(data)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			return 0, fmt.Errorf("%w: %s", ErrIDConflict, t.ID)
		}
		seen[t.ID] = true
	}

	tr.backfill(tasks)
	tr.tasks = tasks
	return len(tasks), tr.save(ctx)
}

// ImportOne adds a single task object to the list, rejected without any state
// change if its id collides with an existing task.
func (tr *Tracker) ImportOne(ctx context.Context, data []byte) (*models.Task, error) {
	t, err := models.DecodeTask(data)
	if err != nil {
		return nil, err
	}

	if _, err := tr.Get(t.ID); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrIDConflict, t.ID)
	}

	tr.backfill([]*models.Task{t})
	tr.tasks = append([]*models.Task{t}, tr.tasks...)
	return t, tr.save(ctx)
}

// writeFileAtomic writes via a temp file and rename so a failed export never
// truncates an existing file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "export-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempFile.Name())
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if _, err := tempFile.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	filename := tempFile.Name()
	tempFile = nil // Prevent defer from removing it

	if err := os.Rename(filename, path); err != nil {
		os.Remove(filename)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
