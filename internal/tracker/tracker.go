// Package tracker owns the in-memory task list and serializes every mutation
// against the store. There is exactly one logical owner of the list at a
// time; no ambient state.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ldi/mission/internal/lifecycle"
	"github.com/ldi/mission/internal/rules"
	"github.com/ldi/mission/internal/store"
	"github.com/ldi/mission/pkg/models"
)

var (
	ErrNotFound   = errors.New("task not found")
	ErrEmptyTitle = errors.New("task title must not be empty")
	ErrEditLocked = errors.New("task due date can no longer be edited")
	ErrIDConflict = errors.New("task id already exists")
)

// editLockWindow is how long before the due date the due date becomes
// read-only.
const editLockWindow = 5 * time.Minute

type Tracker struct {
	store *store.Store
	rules *rules.Ruleset
	tasks []*models.Task

	// Now supplies the clock for lifecycle queries and edit-lock checks.
	Now func() time.Time

	// Stderr receives non-fatal warnings (corrupt store recovery).
	Stderr io.Writer
}

func New(st *store.Store, rs *rules.Ruleset) *Tracker {
	return &Tracker{
		store:  st,
		rules:  rs,
		tasks:  []*models.Task{},
		Now:    time.Now,
		Stderr: os.Stderr,
	}
}

// Load pulls the persisted list into memory. A corrupt store is recovered by
// falling back to an empty list; the condition is logged, not fatal. Legacy
// records missing an icon or carrying an unknown difficulty are backfilled
// and the repaired list is re-persisted.
func (tr *Tracker) Load(ctx context.Context) error {
	tasks, err := tr.store.Load(ctx)
	if errors.Is(err, store.ErrCorrupt) {
		fmt.Fprintf(tr.Stderr, "Warning: %v; starting with an empty task list\n", err)
		tasks = []*models.Task{}
	} else if err != nil {
		return err
	}

	migrated := tr.backfill(tasks)
	tr.tasks = tasks

	if migrated {
		if err := tr.store.Save(ctx, tr.tasks); err != nil {
			return fmt.Errorf("failed to persist migrated tasks: %w", err)
		}
	}
	return nil
}

// backfill repairs legacy records in place and reports whether anything
// changed.
func (tr *Tracker) backfill(tasks []*models.Task) bool {
	changed := false
	for _, t := range tasks {
		if t.Icon == "" {
			t.Icon = tr.rules.IconFor(t.Text, t.Description)
			changed = true
		}
		if !t.Difficulty.Valid() {
			t.Difficulty = tr.rules.Analyze(t.Text, t.Description)
			changed = true
		}
	}
	return changed
}

// Add creates a task from the given title, optional description and optional
// due date. Difficulty and icon are derived at creation time; the new task is
// prepended, newest first.
func (tr *Tracker) Add(ctx context.Context, title, description string, due *time.Time) (*models.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	t := &models.Task{
		ID:          uuid.New().String(),
		Text:        title,
		Description: description,
		Difficulty:  tr.rules.Analyze(title, description),
		DueDate:     due,
		Icon:        tr.rules.IconFor(title, description),
	}

	tr.tasks = append([]*models.Task{t}, tr.tasks...)
	return t, tr.save(ctx)
}

// Get returns the task with the given id.
func (tr *Tracker) Get(id string) (*models.Task, error) {
	for _, t := range tr.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, ErrNotFound
}

// Toggle flips the completion flag.
func (tr *Tracker) Toggle(ctx context.Context, id string) (*models.Task, error) {
	t, err := tr.Get(id)
	if err != nil {
		return nil, err
	}
	t.Completed = !t.Completed
	return t, tr.save(ctx)
}

// CanEditDueDate reports whether the due date may still be changed: not once
// the task is completed, and not inside the lock window before the current
// due date.
func (tr *Tracker) CanEditDueDate(t *models.Task) bool {
	if t.Completed {
		return false
	}
	if t.DueDate == nil {
		return true
	}
	return tr.Now().Before(t.DueDate.Add(-editLockWindow))
}

// SetDueDate changes or clears the due date, subject to the edit lock. The
// lock is a disabled action at the interaction boundary, reported as
// ErrEditLocked rather than applied partially.
func (tr *Tracker) SetDueDate(ctx context.Context, id string, due *time.Time) (*models.Task, error) {
	t, err := tr.Get(id)
	if err != nil {
		return nil, err
	}
	if !tr.CanEditDueDate(t) {
		return nil, ErrEditLocked
	}
	t.DueDate = due
	return t, tr.save(ctx)
}

// Delete removes the task with the given id.
func (tr *Tracker) Delete(ctx context.Context, id string) error {
	for i, t := range tr.tasks {
		if t.ID == id {
			tr.tasks = append(tr.tasks[:i], tr.tasks[i+1:]...)
			return tr.save(ctx)
		}
	}
	return ErrNotFound
}

// List returns the lifecycle view of the task list, preserving stored order.
func (tr *Tracker) List(filter lifecycle.Filter) []*models.Task {
	return lifecycle.Apply(filter, tr.tasks, tr.Now())
}

// Counts summarizes the list per lifecycle state.
func (tr *Tracker) Counts() lifecycle.Counts {
	return lifecycle.Count(tr.tasks, tr.Now())
}

// save persists the current list. Failures are not retried; the caller
// surfaces them as a non-fatal warning. The in-memory mutation stands either
// way.
func (tr *Tracker) save(ctx context.Context) error {
	return tr.store.Save(ctx, tr.tasks)
}
