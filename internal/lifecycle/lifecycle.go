// Package lifecycle derives the temporal state of tasks. States are computed
// from the completion flag and due date against a caller-supplied clock,
// never persisted, so they cannot drift against wall time.
//
// For every task exactly one of IsCompleted, IsMissed and IsActive holds;
// IsPending is the union of missed and active.
package lifecycle

import (
	"time"

	"github.com/ldi/mission/pkg/models"
)

func IsCompleted(t *models.Task) bool {
	return t.Completed
}

func IsMissed(t *models.Task, now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

// IsPending reports whether a task is not yet completed, regardless of its
// due date.
func IsPending(t *models.Task) bool {
	return !t.Completed
}

func IsActive(t *models.Task, now time.Time) bool {
	return !t.Completed && (t.DueDate == nil || !t.DueDate.Before(now))
}

// Filter names a lifecycle view of the task list.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
	FilterMissed    Filter = "missed"
)

func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterPending, FilterActive, FilterCompleted, FilterMissed:
		return true
	}
	return false
}

// Apply returns the subsequence of tasks matching the filter, preserving the
// original relative order.
func Apply(f Filter, tasks []*models.Task, now time.Time) []*models.Task {
	if f == FilterAll {
		return tasks
	}

	out := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		var keep bool
		switch f {
		case FilterPending:
			keep = IsPending(t)
		case FilterActive:
			keep = IsActive(t, now)
		case FilterCompleted:
			keep = IsCompleted(t)
		case FilterMissed:
			keep = IsMissed(t, now)
		}
		if keep {
			out = append(out, t)
		}
	}
	return out
}

func Completed(tasks []*models.Task, now time.Time) []*models.Task {
	return Apply(FilterCompleted, tasks, now)
}

func Missed(tasks []*models.Task, now time.Time) []*models.Task {
	return Apply(FilterMissed, tasks, now)
}

func Pending(tasks []*models.Task, now time.Time) []*models.Task {
	return Apply(FilterPending, tasks, now)
}

func Active(tasks []*models.Task, now time.Time) []*models.Task {
	return Apply(FilterActive, tasks, now)
}

// Counts summarizes a task list per lifecycle state.
type Counts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Missed    int `json:"missed"`
}

func Count(tasks []*models.Task, now time.Time) Counts {
	c := Counts{Total: len(tasks)}
	for _, t := range tasks {
		if IsCompleted(t) {
			c.Completed++
			continue
		}
		c.Pending++
		if IsMissed(t, now) {
			c.Missed++
		} else {
			c.Active++
		}
	}
	return c
}
