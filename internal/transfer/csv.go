// Package transfer exports and imports the task collection as CSV.
package transfer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"bubbletasks/backend"
)

// FinishedAtLayout is the timestamp layout of the FinishedAt column. Values
// are written and read in local time.
const FinishedAtLayout = "2006-01-02 15:04:05"

// Header is the first row written by Export
var Header = []string{"Task", "FinishedAt", "Done"}

// ImportResult summarizes an import
type ImportResult struct {
	Imported int
	Skipped  int
}

func (r ImportResult) String() string {
	return fmt.Sprintf("%d imported, %d skipped", r.Imported, r.Skipped)
}

// Export writes the collection as CSV. Text is always quoted with inner
// quotes doubled; FinishedAt is quoted when present.
func Export(w io.Writer, list []backend.Task) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(strings.Join(Header, ",") + "\n"); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, t := range list {
		finished := ""
		if t.Completed && t.CompletedAt != nil {
			finished = quote(t.CompletedAt.In(time.Local).Format(FinishedAtLayout))
		}
		row := fmt.Sprintf("%s,%s,%t\n", quote(t.Text), finished, t.Completed)
		if _, err := bw.WriteString(row); err != nil {
			return fmt.Errorf("failed to write task %s: %w", t.ID, err)
		}
	}

	return bw.Flush()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Import reads CSV rows and appends them to list as new tasks with fresh
// ids. The header row is optional. Rows without a Done column are active;
// rows with empty text are skipped. A completed row without a readable
// FinishedAt is stamped with now.
func Import(r io.Reader, list []backend.Task, now time.Time) ([]backend.Task, ImportResult, error) {
	var result ImportResult

	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	out := make([]backend.Task, 0, len(list))
	out = append(out, list...)

	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return list, result, fmt.Errorf("failed to read CSV: %w", err)
		}

		if first {
			first = false
			if isHeader(rec) {
				continue
			}
		}

		task, ok := parseRow(rec, now)
		if !ok {
			result.Skipped++
			continue
		}
		out = append(out, task)
		result.Imported++
	}

	return out, result, nil
}

// isHeader reports whether the first row is a header. A row whose first
// cell starts with "task" is still data when its Done cell is a boolean or
// its FinishedAt cell is a timestamp, as in "Task A","2024-01-01 10:00:00",true.
func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	cell := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff")))
	if !strings.HasPrefix(cell, "task") {
		return false
	}
	if len(rec) > 1 {
		if _, ok := backend.ParseTimestamp(rec[1]); ok {
			return false
		}
	}
	if len(rec) > 2 {
		switch strings.ToLower(strings.TrimSpace(rec[2])) {
		case "true", "false":
			return false
		}
	}
	return true
}

func parseRow(rec []string, now time.Time) (backend.Task, bool) {
	if len(rec) == 0 {
		return backend.Task{}, false
	}
	text := strings.TrimSpace(rec[0])
	if text == "" {
		return backend.Task{}, false
	}

	task := backend.Task{ID: backend.NewTaskID(), Text: text}

	if len(rec) > 2 {
		task.Completed = strings.EqualFold(strings.TrimSpace(rec[2]), "true")
	}
	if !task.Completed {
		return task, true
	}

	stamp := now
	if len(rec) > 1 {
		if ts, ok := backend.ParseTimestamp(rec[1]); ok {
			stamp = ts
		}
	}
	task.CompletedAt = &stamp
	return task, true
}
