package transfer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"bubbletasks/backend"
)

var importTime = time.Date(2024, 7, 1, 9, 0, 0, 0, time.Local)

func TestExport(t *testing.T) {
	done := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	list := []backend.Task{
		{ID: "1", Text: `Say "hi"`},
		{ID: "2", Text: "Task A", Completed: true, CompletedAt: &done},
	}

	var buf bytes.Buffer
	if err := Export(&buf, list); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	want := "Task,FinishedAt,Done\n" +
		`"Say ""hi""",,false` + "\n" +
		`"Task A","2024-01-01 10:00:00",true` + "\n"
	if buf.String() != want {
		t.Errorf("Export =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestImport_ExampleRow(t *testing.T) {
	in := `"Task A","2024-01-01 10:00:00",true` + "\n"

	got, res, err := Import(strings.NewReader(in), nil, importTime)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Imported != 1 || len(got) != 1 {
		t.Fatalf("Expected one task, got %v (%s)", got, res)
	}

	task := got[0]
	if task.Text != "Task A" || !task.Completed {
		t.Errorf("Unexpected task %+v", task)
	}
	want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)
	if task.CompletedAt == nil || !task.CompletedAt.Equal(want) {
		t.Errorf("CompletedAt = %v, want %v", task.CompletedAt, want)
	}
}

func TestImport_HeaderDetection(t *testing.T) {
	tests := []struct {
		name     string
		first    string
		imported int
	}{
		{"exported header", "Task,FinishedAt,Done", 1},
		{"lower case header", "task,finishedat,done", 1},
		{"bom header", "\ufeffTask,FinishedAt,Done", 1},
		{"single cell header", "Task", 1},
		{"data row with done", `"Task list",,false`, 2},
		{"data row with timestamp", `"Tasks to file","2024-01-01 10:00:00",`, 2},
		{"plain data row", `"Buy milk",,false`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.first + "\n" + `"Next",,false` + "\n"
			got, res, err := Import(strings.NewReader(in), nil, importTime)
			if err != nil {
				t.Fatalf("Import failed: %v", err)
			}
			if res.Imported != tt.imported || len(got) != tt.imported {
				t.Errorf("Imported %d (%s), want %d", len(got), res, tt.imported)
			}
			if got[len(got)-1].Text != "Next" {
				t.Errorf("Last task = %q, want Next", got[len(got)-1].Text)
			}
		})
	}
}

func TestImport_Rules(t *testing.T) {
	in := strings.Join([]string{
		"task,finishedat,done",
		`"Only text"`,
		`"",,true`,
		`"Done no time",,true`,
		`"Done bad time","yesterday",TRUE`,
		`"Active with time","2024-01-01 10:00:00",false`,
	}, "\n")

	existing := []backend.Task{{ID: "keep", Text: "Existing"}}
	got, res, err := Import(strings.NewReader(in), existing, importTime)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Imported != 4 || res.Skipped != 1 {
		t.Errorf("result = %s", res)
	}
	if len(got) != 5 || got[0].ID != "keep" {
		t.Fatalf("Imported rows must be appended, got %v", got)
	}

	if got[1].Completed || got[1].CompletedAt != nil {
		t.Errorf("Missing Done column means active, got %+v", got[1])
	}
	for _, i := range []int{2, 3} {
		if !got[i].Completed || got[i].CompletedAt == nil || !got[i].CompletedAt.Equal(importTime) {
			t.Errorf("Row %d should be completed at import time, got %+v", i, got[i])
		}
	}
	if got[4].Completed || got[4].CompletedAt != nil {
		t.Errorf("Active row must not carry completedAt, got %+v", got[4])
	}
	if len(existing) != 1 {
		t.Error("Import must not modify its input")
	}
}

func TestImport_DuplicatesAreAppended(t *testing.T) {
	in := "\"Same\"\n\"Same\"\n"
	got, _, err := Import(strings.NewReader(in), nil, importTime)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(got) != 2 || got[0].ID == got[1].ID {
		t.Errorf("Expected two distinct tasks, got %v", got)
	}
}

func TestRoundTrip(t *testing.T) {
	done := time.Date(2023, 12, 24, 18, 30, 15, 500, time.Local)
	list := []backend.Task{
		{ID: "1", Text: "Plain"},
		{ID: "2", Text: `Comma, "quotes" and more`},
		{ID: "3", Text: "Finished", Completed: true, CompletedAt: &done},
	}

	var buf bytes.Buffer
	if err := Export(&buf, list); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	got, res, err := Import(&buf, nil, importTime)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Imported != len(list) {
		t.Fatalf("Imported %d of %d", res.Imported, len(list))
	}

	for i := range list {
		if got[i].Text != list[i].Text || got[i].Completed != list[i].Completed {
			t.Errorf("row %d: got %+v, want %+v", i, got[i], list[i])
		}
	}
	if !got[2].CompletedAt.Equal(done.Truncate(time.Second)) {
		t.Errorf("CompletedAt = %v, want %v", got[2].CompletedAt, done.Truncate(time.Second))
	}
}
