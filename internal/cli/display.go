// Package cli holds the shell-facing helpers shared by the commands: task
// tables and argument completion.
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"bubbletasks/backend"
	"bubbletasks/internal/transfer"
)

// GetTerminalWidth returns the current terminal width, defaulting to 80 if unable to detect
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// TaskRow is one task as shown by `list`. Number is the 1-based position
// accepted by the other task commands.
type TaskRow struct {
	Number     int        `json:"number" yaml:"number"`
	ID         string     `json:"id" yaml:"id"`
	Text       string     `json:"text" yaml:"text"`
	Completed  bool       `json:"completed" yaml:"completed"`
	FinishedAt *time.Time `json:"finishedAt,omitempty" yaml:"finishedAt,omitempty"`
}

// Rows numbers the collection in stored order, optionally leaving out
// completed tasks
func Rows(list []backend.Task, includeCompleted bool) []TaskRow {
	rows := make([]TaskRow, 0, len(list))
	for i, t := range list {
		if t.Completed && !includeCompleted {
			continue
		}
		rows = append(rows, TaskRow{
			Number:     i + 1,
			ID:         t.ID,
			Text:       t.Text,
			Completed:  t.Completed,
			FinishedAt: t.CompletedAt,
		})
	}
	return rows
}

// ShowTasks renders rows as a table. Text is wrapped to fit the terminal.
func ShowTasks(w io.Writer, rows []TaskRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"#", "ID", "TASK", "DONE", "FINISHED"})
	tw.SetAutoWrapText(true)
	tw.SetColWidth(textWidth())
	for _, r := range rows {
		finished := ""
		if r.FinishedAt != nil {
			finished = r.FinishedAt.In(time.Local).Format(transfer.FinishedAtLayout)
		}
		done := ""
		if r.Completed {
			done = "✓"
		}
		tw.Append([]string{strconv.Itoa(r.Number), r.ID, r.Text, done, finished})
	}
	tw.Render()
}

func textWidth() int {
	w := GetTerminalWidth() - 50
	if w < 20 {
		return 20
	}
	return w
}
