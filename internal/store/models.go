package store

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidEntry = errors.New("invalid time entry")
)

// DateLayout is the calendar-date format used for entry dates.
const DateLayout = "2006-01-02"

// Category labels a time entry. The empty category means "uncategorized".
type Category string

const (
	CategoryDevelopment   Category = "Development"
	CategoryDesign        Category = "Design"
	CategoryPlanning      Category = "Planning"
	CategoryMeeting       Category = "Meeting"
	CategoryResearch      Category = "Research"
	CategoryDocumentation Category = "Documentation"
	CategoryTesting       Category = "Testing"
	CategoryOther         Category = "Other"
)

// Categories lists every valid entry category in display order.
var Categories = []Category{
	CategoryDevelopment,
	CategoryDesign,
	CategoryPlanning,
	CategoryMeeting,
	CategoryResearch,
	CategoryDocumentation,
	CategoryTesting,
	CategoryOther,
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type ProjectStatus string

const (
	StatusOngoing   ProjectStatus = "Ongoing"
	StatusCompleted ProjectStatus = "Completed"
)

var Teams = []string{"TITAN", "NEXUS", "ATHENA", "DYNAMIX"}

var ClientCategories = []string{
	"Healthcare", "E-commerce", "Finance", "Education", "Technology",
	"Manufacturing", "Media", "Retail", "Travel",
}

type Project struct {
	ID             string
	Name           string
	Team           string
	ClientName     string
	ClientDomain   string
	ClientCategory string
	Status         ProjectStatus
	StartDate      string
	EndDate        string
	Description    string
	Color          string
	Archived       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProjectInput carries the writable project fields. Callers holding only
// the simplified shape (name, team, status) leave the rest zero and get
// the column defaults.
type ProjectInput struct {
	Name           string
	Team           string
	ClientName     string
	ClientDomain   string
	ClientCategory string
	Status         ProjectStatus
	StartDate      string
	EndDate        string
	Description    string
	Color          string
}

type TeamMember struct {
	ID           string
	Name         string
	Role         string
	Designation  string
	Team         string
	Email        string
	Avatar       string
	IsLeadership bool
	IsAdmin      bool
	AuthUUID     string
	CreatedAt    time.Time
}

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskDone       TaskStatus = "done"
)

// TaskStatuses is the kanban column order.
var TaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskReview, TaskDone}

// Next returns the following kanban column, wrapping after done.
func (s TaskStatus) Next() TaskStatus {
	for i, st := range TaskStatuses {
		if st == s {
			return TaskStatuses[(i+1)%len(TaskStatuses)]
		}
	}
	return TaskTodo
}

type Task struct {
	ID          string
	ProjectID   string
	Title       string
	Description string
	Status      TaskStatus
	Priority    string // low, medium, high
	AssigneeID  *string
	DueDate     string
	Archived    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TimeEntry is one logged unit of work. Date is kept as the stored text so
// malformed rows survive loading and are skipped by the timesheet core.
type TimeEntry struct {
	ID                string
	OwnerID           string
	ProjectID         *string
	ProjectName       string // free-text label, wins for display
	LinkedProjectName string // name of ProjectID's project, filled on read
	Description       string
	Date              string
	DurationMinutes   int
	Category          Category
	Tags              []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Setting struct {
	Key   string
	Value string
}

// EntryFilter is used to filter time entries in queries. From and To are
// inclusive calendar dates.
type EntryFilter struct {
	OwnerID   string
	ProjectID *string
	From      *time.Time
	To        *time.Time
	Limit     int
}

// DailySummary represents aggregated minutes per display project per day.
type DailySummary struct {
	Date         string
	Project      string
	ProjectColor string
	TotalMinutes int
	EntryCount   int
}
