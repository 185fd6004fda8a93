// Package tasks implements the operations on the user's to-do collection.
// The functions in this file are pure: they take a collection and return a
// new one, leaving the input untouched.
package tasks

import (
	"strings"
	"time"

	"bubbletasks/backend"
	"bubbletasks/internal/utils"
)

// Placement says where a dragged task lands relative to the drop target
type Placement int

const (
	Before Placement = iota
	After
)

func (p Placement) String() string {
	if p == After {
		return "after"
	}
	return "before"
}

func clone(in []backend.Task) []backend.Task {
	out := make([]backend.Task, len(in))
	copy(out, in)
	return out
}

// IndexOf returns the position of the task with the given id, or -1
func IndexOf(list []backend.Task, id string) int {
	for i, t := range list {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the task with the given id
func Find(list []backend.Task, id string) (backend.Task, bool) {
	if i := IndexOf(list, id); i >= 0 {
		return list[i], true
	}
	return backend.Task{}, false
}

// Add appends a new active task. Whitespace-only text is rejected.
func Add(list []backend.Task, text string) ([]backend.Task, backend.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return list, backend.Task{}, utils.ErrEmptyTaskText()
	}

	task := backend.Task{ID: backend.NewTaskID(), Text: text}
	out := make([]backend.Task, 0, len(list)+1)
	out = append(out, list...)
	out = append(out, task)
	return out, task, nil
}

// Edit replaces the text of a task. Empty text leaves the collection
// unchanged and reports false.
func Edit(list []backend.Task, id, text string) ([]backend.Task, bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return list, false, nil
	}

	i := IndexOf(list, id)
	if i < 0 {
		return list, false, utils.ErrTaskNotFound(id)
	}
	if list[i].Text == text {
		return list, false, nil
	}

	out := clone(list)
	out[i].Text = text
	return out, true, nil
}

// Complete marks a task done and stamps it with now. Completion cannot be
// undone; completing an already completed task changes nothing.
func Complete(list []backend.Task, id string, now time.Time) ([]backend.Task, bool, error) {
	i := IndexOf(list, id)
	if i < 0 {
		return list, false, utils.ErrTaskNotFound(id)
	}
	if list[i].Completed {
		return list, false, nil
	}

	out := clone(list)
	stamp := now
	out[i].Completed = true
	out[i].CompletedAt = &stamp
	return out, true, nil
}

// Delete removes a task regardless of its state
func Delete(list []backend.Task, id string) ([]backend.Task, error) {
	i := IndexOf(list, id)
	if i < 0 {
		return list, utils.ErrTaskNotFound(id)
	}

	out := make([]backend.Task, 0, len(list)-1)
	out = append(out, list[:i]...)
	out = append(out, list[i+1:]...)
	return out, nil
}

// Reorder moves the dragged task next to the target among the active tasks.
// The insertion index is computed on the active tasks with the dragged one
// already removed. Completed tasks are untouched and follow all active tasks.
// Dropping a task onto itself, onto a completed task or on an unknown id is
// a no-op.
func Reorder(list []backend.Task, draggedID, targetID string, where Placement) ([]backend.Task, bool) {
	if draggedID == targetID {
		return list, false
	}

	active, done := Partition(list)
	from := IndexOf(active, draggedID)
	target := IndexOf(active, targetID)
	if from < 0 || target < 0 {
		return list, false
	}

	dragged := active[from]
	rest := make([]backend.Task, 0, len(active))
	rest = append(rest, active[:from]...)
	rest = append(rest, active[from+1:]...)

	insert := target
	if from < target {
		insert--
	}
	if where == After {
		insert++
	}
	if insert > len(rest) {
		insert = len(rest)
	}

	out := make([]backend.Task, 0, len(list))
	out = append(out, rest[:insert]...)
	out = append(out, dragged)
	out = append(out, rest[insert:]...)
	out = append(out, done...)

	return out, !sameOrder(list, out)
}

// Partition splits the collection into active and completed tasks, keeping
// the relative order inside each group
func Partition(list []backend.Task) (active, completed []backend.Task) {
	active = make([]backend.Task, 0, len(list))
	completed = make([]backend.Task, 0)
	for _, t := range list {
		if t.Completed {
			completed = append(completed, t)
		} else {
			active = append(active, t)
		}
	}
	return active, completed
}

// ActiveCount returns how many tasks are not yet completed
func ActiveCount(list []backend.Task) int {
	n := 0
	for _, t := range list {
		if !t.Completed {
			n++
		}
	}
	return n
}

// Resolve finds a task by id, by 1-based position, or by a unique
// case-insensitive text prefix
func Resolve(list []backend.Task, ref string) (backend.Task, error) {
	ref = strings.TrimSpace(ref)
	if t, ok := Find(list, ref); ok {
		return t, nil
	}

	if n, ok := parsePosition(ref); ok && n >= 1 && n <= len(list) {
		return list[n-1], nil
	}

	lower := strings.ToLower(ref)
	var matches []backend.Task
	for _, t := range list {
		if lower != "" && strings.HasPrefix(strings.ToLower(t.Text), lower) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return backend.Task{}, utils.ErrTaskNotFound(ref)
	case 1:
		return matches[0], nil
	default:
		return backend.Task{}, utils.ErrAmbiguousTask(ref, len(matches))
	}
}

func parsePosition(s string) (int, bool) {
	if s == "" || len(s) > 6 {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

func sameOrder(a, b []backend.Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
