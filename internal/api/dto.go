package api

import (
	"time"

	"github.com/technosprint/timesheet/internal/store"
	"github.com/technosprint/timesheet/internal/timesheet"
)

// EntryRequest is the body of POST and PUT /api/entries.
type EntryRequest struct {
	OwnerID         string   `json:"owner_id,omitempty"`
	ProjectID       *string  `json:"project_id,omitempty"`
	ProjectName     string   `json:"project_name,omitempty"`
	Description     string   `json:"description" binding:"required"`
	Date            string   `json:"date" binding:"required"`
	DurationMinutes int      `json:"duration_minutes" binding:"required,gt=0"`
	Category        string   `json:"category,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

func (r EntryRequest) input(owner string) store.EntryInput {
	return store.EntryInput{
		OwnerID:         owner,
		ProjectID:       r.ProjectID,
		ProjectName:     r.ProjectName,
		Description:     r.Description,
		Date:            r.Date,
		DurationMinutes: r.DurationMinutes,
		Category:        store.Category(r.Category),
		Tags:            r.Tags,
	}
}

type EntryResponse struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	ProjectID       *string   `json:"project_id"`
	ProjectName     string    `json:"project_name"`
	Project         string    `json:"project"`
	Description     string    `json:"description"`
	Date            string    `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Duration        string    `json:"duration"`
	Category        string    `json:"category,omitempty"`
	Tags            []string  `json:"tags"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toEntryResponse(e store.TimeEntry) EntryResponse {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return EntryResponse{
		ID:              e.ID,
		OwnerID:         e.OwnerID,
		ProjectID:       e.ProjectID,
		ProjectName:     e.ProjectName,
		Project:         timesheet.ProjectLabel(e),
		Description:     e.Description,
		Date:            e.Date,
		DurationMinutes: e.DurationMinutes,
		Duration:        timesheet.FormatMinutes(e.DurationMinutes),
		Category:        string(e.Category),
		Tags:            tags,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

type WindowResponse struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Granularity string `json:"granularity"`
	Label       string `json:"label"`
}

// TimesheetResponse is the body of GET /api/timesheet.
type TimesheetResponse struct {
	Window  WindowResponse  `json:"window"`
	Entries []EntryResponse `json:"entries"`
	Stats   timesheet.Stats `json:"stats"`
	Total   string          `json:"total"`
}

func toTimesheetResponse(v timesheet.View) TimesheetResponse {
	entries := make([]EntryResponse, 0, len(v.Entries))
	for _, e := range v.Entries {
		entries = append(entries, toEntryResponse(e))
	}
	return TimesheetResponse{
		Window: WindowResponse{
			Start:       v.Window.Start.Format(store.DateLayout),
			End:         v.Window.End.Format(store.DateLayout),
			Granularity: v.Window.Granularity.String(),
			Label:       v.Label,
		},
		Entries: entries,
		Stats:   v.Stats,
		Total:   timesheet.FormatMinutes(v.Stats.TotalMinutes),
	}
}

type ProjectResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Team           string `json:"team"`
	ClientName     string `json:"client_name"`
	ClientCategory string `json:"client_category"`
	Status         string `json:"status"`
	Color          string `json:"color"`
}

type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

func toProjectResponse(p store.Project) ProjectResponse {
	return ProjectResponse{
		ID:             p.ID,
		Name:           p.Name,
		Team:           p.Team,
		ClientName:     p.ClientName,
		ClientCategory: p.ClientCategory,
		Status:         string(p.Status),
		Color:          p.Color,
	}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}
