package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Difficulty string

const (
	DifficultyVeryEasy  Difficulty = "Very Easy"
	DifficultyEasy      Difficulty = "Easy"
	DifficultyMedium    Difficulty = "Medium"
	DifficultyTough     Difficulty = "Tough"
	DifficultyVeryTough Difficulty = "Very Tough"
)

// DifficultyLevels is the canonical ordering, easiest first.
var DifficultyLevels = []Difficulty{
	DifficultyVeryEasy,
	DifficultyEasy,
	DifficultyMedium,
	DifficultyTough,
	DifficultyVeryTough,
}

func (d Difficulty) Valid() bool {
	for _, level := range DifficultyLevels {
		if d == level {
			return true
		}
	}
	return false
}

// Task is the sole domain entity. Lifecycle states (active, missed, pending)
// are computed from Completed and DueDate, never stored.
type Task struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Difficulty  Difficulty `json:"difficulty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Icon        string     `json:"icon,omitempty"`
}

// ValidationError reports which required field an imported record is missing
// or has malformed. Expected validation failures are values, not panics.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid task: field %q %s", e.Field, e.Reason)
}

// taskShape mirrors Task with pointer fields so that missing keys can be
// distinguished from zero values during the import shape check.
type taskShape struct {
	ID        *string `json:"id"`
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

// DecodeTask unmarshals and shape-checks a single task object. The minimal
// required shape is a string id, a non-empty string text and a boolean
// completed flag. Difficulty and icon may be absent on legacy records; they
// are backfilled at the load boundary, not rejected here.
func DecodeTask(data []byte) (*Task, error) {
	var shape taskShape
	if err := json.Unmarshal(data, &shape); err != nil {
		return nil, fmt.Errorf("failed to parse task: %w", err)
	}
	if shape.ID == nil || *shape.ID == "" {
		return nil, &ValidationError{Field: "id", Reason: "must be a non-empty string"}
	}
	if shape.Text == nil || strings.TrimSpace(*shape.Text) == "" {
		return nil, &ValidationError{Field: "text", Reason: "must be a non-empty string"}
	}
	if shape.Completed == nil {
		return nil, &ValidationError{Field: "completed", Reason: "must be a boolean"}
	}

	t := &Task{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse task: %w", err)
	}
	return t, nil
}

// DecodeTaskList unmarshals and shape-checks a JSON array of tasks. Every
// element must pass the shape check before any of them is accepted.
func DecodeTaskList(data []byte) ([]*Task, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse task list: %w", err)
	}

	tasks := make([]*Task, 0, len(raw))
	for i, item := range raw {
		t, err := DecodeTask(item)
		if err != nil {
			return nil, fmt.Errorf("task at index %d: %w", i, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// TasksExportName is the fixed file name for whole-list exports.
const TasksExportName = "tasks.json"

// ExportFileName derives the single-task export file name from the task
// title, with whitespace runs replaced by underscores.
func (t *Task) ExportFileName() string {
	name := strings.Join(strings.Fields(t.Text), "_")
	if name == "" {
		name = t.ID
	}
	return name + ".json"
}
