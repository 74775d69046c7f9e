package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/technosprint/timesheet/internal/store"
	"github.com/technosprint/timesheet/internal/timesheet"
)

type jsonExport struct {
	ExportedAt   string      `json:"exported_at"`
	Count        int         `json:"count"`
	TotalMinutes int         `json:"total_minutes"`
	Entries      []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	ID              string   `json:"id"`
	Date            string   `json:"date"`
	Project         string   `json:"project"`
	ProjectID       *string  `json:"project_id,omitempty"`
	Description     string   `json:"description"`
	DurationMinutes int      `json:"duration_minutes"`
	Duration        string   `json:"duration"`
	Category        string   `json:"category,omitempty"`
	Tags            []string `json:"tags"`
}

// WriteJSON writes an indented export document for entries.
func WriteJSON(out io.Writer, entries []store.TimeEntry, now time.Time) error {
	doc := jsonExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		Count:      len(entries),
		Entries:    make([]jsonEntry, 0, len(entries)),
	}

	for _, e := range entries {
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		doc.TotalMinutes += e.DurationMinutes
		doc.Entries = append(doc.Entries, jsonEntry{
			ID:              e.ID,
			Date:            e.Date,
			Project:         projectColumn(e),
			ProjectID:       e.ProjectID,
			Description:     e.Description,
			DurationMinutes: e.DurationMinutes,
			Duration:        timesheet.FormatMinutes(e.DurationMinutes),
			Category:        string(e.Category),
			Tags:            tags,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = out.Write(append(data, '\n'))
	return err
}

// ToJSON writes entries to path as an export document.
func ToJSON(entries []store.TimeEntry, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, entries, time.Now()); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return f.Close()
}
