package backend

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Storage keys of the shared (sync) area
const (
	TasksKey    = "tasks"
	ThemeKey    = "theme"
	PositionKey = "bubble_position"
)

// SessionKey holds the signed-in identity in the local-only area
const SessionKey = "session"

// CompletedAtLayouts lists the timestamp layouts accepted for completedAt, in
// the order they are tried.
var CompletedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// Task is one user-visible to-do item.
type Task struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// IsActive reports whether the task is still to do.
func (t Task) IsActive() bool {
	return !t.Completed
}

func (t Task) String() string {
	mark := "○"
	if t.Completed {
		mark = "✓"
	}
	return fmt.Sprintf("%s %s", mark, t.Text)
}

// NewTaskID returns a fresh opaque task id.
func NewTaskID() string {
	return ulid.Make().String()
}

// Theme is the global UI theme preference.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// ParseTheme returns the theme named by s, or ThemeSystem for anything unknown.
func ParseTheme(s string) Theme {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight
	case ThemeDark:
		return ThemeDark
	default:
		return ThemeSystem
	}
}

// IsValidTheme reports whether s names one of the three themes exactly.
func IsValidTheme(s string) bool {
	switch Theme(s) {
	case ThemeSystem, ThemeLight, ThemeDark:
		return true
	}
	return false
}

// rawTask is the loosest persisted shape we accept for a task. Older
// records stored completedAt as a display string, so it is decoded raw.
type rawTask struct {
	ID          any             `json:"id"`
	Text        any             `json:"text"`
	Completed   any             `json:"completed"`
	CompletedAt json.RawMessage `json:"completedAt"`
}

// DecodeTasks canonicalizes a persisted task collection. It never fails:
// anything that is not a list yields an empty collection, and individual
// entries are repaired or dropped so that the result satisfies the task
// invariants (unique ids, non-empty text, completedAt iff completed).
func DecodeTasks(data []byte, now time.Time) []Task {
	if len(data) == 0 {
		return []Task{}
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return []Task{}
	}

	tasks := make([]Task, 0, len(raws))
	for _, r := range raws {
		var rt rawTask
		if err := json.Unmarshal(r, &rt); err != nil {
			continue
		}
		task, ok := canonicalTask(rt, now)
		if !ok {
			continue
		}
		tasks = append(tasks, task)
	}

	return CanonicalizeTasks(tasks, now)
}

// CanonicalizeTasks enforces the collection invariants on already typed
// tasks: trimmed non-empty text, unique ids and completedAt iff completed.
// The input slice is not modified.
func CanonicalizeTasks(in []Task, now time.Time) []Task {
	out := make([]Task, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t.Text = strings.TrimSpace(t.Text)
		if t.Text == "" {
			continue
		}
		if t.ID == "" || seen[t.ID] {
			t.ID = NewTaskID()
		}
		seen[t.ID] = true

		if !t.Completed {
			t.CompletedAt = nil
		} else if t.CompletedAt == nil {
			stamp := now
			t.CompletedAt = &stamp
		}
		out = append(out, t)
	}
	return out
}

func canonicalTask(rt rawTask, now time.Time) (Task, bool) {
	text, _ := rt.Text.(string)
	if strings.TrimSpace(text) == "" {
		return Task{}, false
	}

	task := Task{Text: text}

	switch id := rt.ID.(type) {
	case string:
		task.ID = id
	case float64:
		// ids generated from a millisecond clock were sometimes stored as numbers
		task.ID = fmt.Sprintf("%.0f", id)
	}

	switch c := rt.Completed.(type) {
	case bool:
		task.Completed = c
	case string:
		task.Completed = strings.EqualFold(c, "true")
	}

	if task.Completed {
		if ts, ok := parseCompletedAt(rt.CompletedAt); ok {
			task.CompletedAt = &ts
		}
	}

	return task, true
}

func parseCompletedAt(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	return ParseTimestamp(s)
}

// ParseTimestamp parses s with the accepted completedAt layouts. The
// space-separated layout is interpreted in local time.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range CompletedAtLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// EncodeTasks serializes a task collection for storage.
func EncodeTasks(tasks []Task) ([]byte, error) {
	if tasks == nil {
		tasks = []Task{}
	}
	return json.Marshal(tasks)
}

// DecodeTheme canonicalizes a persisted theme value.
func DecodeTheme(data []byte) Theme {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ThemeSystem
	}
	return ParseTheme(s)
}
