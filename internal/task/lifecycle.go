package task

import (
	"slices"
	"strings"
	"time"
)

// NewTask is the user input for Create.
type NewTask struct {
	Name       string
	DueDate    time.Time
	Recurrence int
	Notes      string
}

// NextID is one past the largest existing ID, or 1 for an empty list.
func NextID(tasks []Task) int {
	maxID := 0
	for _, t := range tasks {
		if t.ID > maxID {
			maxID = t.ID
		}
	}
	return maxID + 1
}

// Create validates the input and builds the task that would be appended to
// tasks. tasks is not modified.
func Create(tasks []Task, in NewTask) (Task, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Task{}, ErrEmptyName
	}
	if in.Recurrence < 1 {
		return Task{}, ErrInvalidRecurrence
	}
	if in.DueDate.IsZero() {
		return Task{}, ErrInvalidDate
	}
	return Task{
		ID:         NextID(tasks),
		Name:       name,
		DueDate:    Day(in.DueDate),
		Recurrence: in.Recurrence,
		Notes:      in.Notes,
	}, nil
}

// Rollover returns the next due date after completing a task on today.
// A task overdue by a full cycle or more restarts from today, so the result
// is always after today. caughtUp reports that restart.
//
// The restart includes candidate == today: due+recurrence landing exactly on
// today gives today+recurrence, not today. Keep the non-strict comparison.
func Rollover(due time.Time, recurrence int, today time.Time) (next time.Time, caughtUp bool) {
	candidate := AddDays(due, recurrence)
	if !candidate.After(Day(today)) {
		return AddDays(today, recurrence), true
	}
	return candidate, false
}

// Complete returns t with its due date rolled forward.
func Complete(t Task, today time.Time) Task {
	t.DueDate, _ = Rollover(t.DueDate, t.Recurrence, today)
	return t
}

// Delete removes every task named exactly name. Tasks are matched by name,
// not ID, so duplicates are removed together.
func Delete(tasks []Task, name string) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Name != name {
			out = append(out, t)
		}
	}
	return out
}

// SortByDueDate returns a copy ordered by due date, ties kept in input order.
func SortByDueDate(tasks []Task) []Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b Task) int {
		return a.DueDate.Compare(b.DueDate)
	})
	return out
}

// Find returns the index of the task with the given ID.
func Find(tasks []Task, id int) (int, bool) {
	i := slices.IndexFunc(tasks, func(t Task) bool { return t.ID == id })
	return i, i >= 0
}

// Names lists distinct task names in order of first appearance.
func Names(tasks []Task) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		out = append(out, t.Name)
	}
	return out
}
