package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/technosprint/timesheet/internal/store"
	"github.com/technosprint/timesheet/internal/timesheet"
)

// CSVHeader is the fixed first row of a timesheet CSV.
var CSVHeader = []string{"Date", "Project", "Description", "Duration", "Category", "Tags"}

// WriteCSV writes one row per entry, in the order given. Fields holding
// commas, quotes or newlines are quoted as RFC 4180 requires.
func WriteCSV(out io.Writer, entries []store.TimeEntry) error {
	w := csv.NewWriter(out)

	if err := w.Write(CSVHeader); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			e.Date,
			projectColumn(e),
			e.Description,
			timesheet.FormatMinutes(e.DurationMinutes),
			string(e.Category),
			strings.Join(e.Tags, ", "),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ToCSV writes entries to a new file at path.
func ToCSV(entries []store.TimeEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, entries); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

// FileName returns timesheet_YYYY-MM-DD.<ext> for the given day.
func FileName(ext string, day time.Time) string {
	return "timesheet_" + day.Format(store.DateLayout) + "." + ext
}

// projectColumn is the display label without the "No Project" placeholder.
func projectColumn(e store.TimeEntry) string {
	if label := timesheet.ProjectLabel(e); label != timesheet.NoProject {
		return label
	}
	return ""
}
