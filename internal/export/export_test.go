package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/technosprint/timesheet/internal/store"
	"github.com/technosprint/timesheet/internal/timesheet"
)

func sampleData() []store.TimeEntry {
	linked := "p-1"
	return []store.TimeEntry{
		{
			ID:              "e1",
			OwnerID:         "u1",
			ProjectName:     "Alpha",
			Description:     "worked on feature",
			Date:            "2024-03-04",
			DurationMinutes: 125,
			Category:        store.CategoryDevelopment,
			Tags:            []string{"api", "backend"},
		},
		{
			ID:                "e2",
			OwnerID:           "u1",
			ProjectID:         &linked,
			LinkedProjectName: "Portal",
			Description:       "sync",
			Date:              "2024-03-05",
			DurationMinutes:   30,
			Category:          store.CategoryMeeting,
		},
		{
			ID:              "e3",
			OwnerID:         "u1",
			Description:     "misc",
			Date:            "2024-03-20",
			DurationMinutes: 60,
		},
	}
}

func readCSV(t *testing.T, data string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	return records
}

// ============================================================
// CSV
// ============================================================

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleData()); err != nil {
		t.Fatal(err)
	}
	records := readCSV(t, buf.String())

	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}
	if got := strings.Join(records[0], ","); got != "Date,Project,Description,Duration,Category,Tags" {
		t.Fatalf("header = %q", got)
	}

	row := records[1]
	want := []string{"2024-03-04", "Alpha", "worked on feature", "2h 5m", "Development", "api, backend"}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("row[%d] = %q, want %q", i, row[i], want[i])
		}
	}
	if records[2][1] != "Portal" {
		t.Fatalf("linked project name expected, got %q", records[2][1])
	}
	if records[3][1] != "" || records[3][4] != "" || records[3][5] != "" {
		t.Fatalf("unlabelled entry should have empty project, category and tags: %q", records[3])
	}
}

func TestWriteCSVHeaderLineExact(t *testing.T) {
	var buf bytes.Buffer
	WriteCSV(&buf, nil)
	if buf.String() != "Date,Project,Description,Duration,Category,Tags\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

// Tags are joined with ", " and the field is therefore quoted.
func TestWriteCSVQuotesPerRFC4180(t *testing.T) {
	entries := []store.TimeEntry{{
		ID:              "e1",
		ProjectName:     `Project "Special"`,
		Description:     "notes with, commas",
		Date:            "2024-03-04",
		DurationMinutes: 5,
		Tags:            []string{"a", "b"},
	}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, entries); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[1] != `2024-03-04,"Project ""Special""","notes with, commas",0h 5m,,"a, b"` {
		t.Fatalf("row = %s", lines[1])
	}
	records := readCSV(t, buf.String())
	if len(records[1]) != 6 || records[1][5] != "a, b" {
		t.Fatalf("quoted row should parse back to 6 fields: %q", records[1])
	}
}

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")
	if err := ToCSV(sampleData(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(readCSV(t, string(data))) != 4 {
		t.Fatal("expected header and three rows on disk")
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if len(readCSV(t, string(data))) != 1 {
		t.Fatal("expected header only")
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

// The export covers every entry loaded for the period, not just the rows
// the active filter shows.
func TestCSVExportsLoadedSetIgnoringFilter(t *testing.T) {
	w := timesheet.ResolveWindow(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), timesheet.Month)
	view := timesheet.BuildView(sampleData(), w, timesheet.FilterSpec{
		Categories: []store.Category{store.CategoryMeeting},
	})
	if len(view.Entries) != 1 {
		t.Fatalf("filter should narrow the view to 1 entry, got %d", len(view.Entries))
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, view.Loaded); err != nil {
		t.Fatal(err)
	}
	if rows := len(readCSV(t, buf.String())) - 1; rows != 3 {
		t.Fatalf("export should contain all 3 loaded entries, got %d", rows)
	}
}

func TestFileName(t *testing.T) {
	day := time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)
	if got := FileName("csv", day); got != "timesheet_2024-03-04.csv" {
		t.Fatalf("FileName = %q", got)
	}
	if got := FileName("json", day); got != "timesheet_2024-03-04.json" {
		t.Fatalf("FileName = %q", got)
	}
}

// ============================================================
// JSON
// ============================================================

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2024, 3, 21, 9, 0, 0, 0, time.UTC)
	if err := WriteJSON(&buf, sampleData(), now); err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if result.ExportedAt != "2024-03-21T09:00:00Z" {
		t.Fatalf("exported_at = %q", result.ExportedAt)
	}
	if result.Count != 3 || result.TotalMinutes != 215 {
		t.Fatalf("count %d, total %d", result.Count, result.TotalMinutes)
	}

	e := result.Entries[0]
	if e.ID != "e1" || e.Project != "Alpha" || e.Duration != "2h 5m" || e.DurationMinutes != 125 {
		t.Fatalf("unexpected first entry: %+v", e)
	}
	if e.ProjectID != nil {
		t.Fatal("free-text entry should omit project_id")
	}
	if result.Entries[1].ProjectID == nil || *result.Entries[1].ProjectID != "p-1" {
		t.Fatal("linked entry should carry project_id")
	}
	if result.Entries[2].Tags == nil {
		t.Fatal("tags should be an empty list, not null")
	}
}

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")
	if err := ToJSON(sampleData(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := ToJSON(nil, path); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"entries": []`) {
		t.Fatalf("empty export should carry an empty list: %s", data)
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	var buf bytes.Buffer
	WriteJSON(&buf, nil, time.Now())
	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatal("JSON should be indented")
	}
}
