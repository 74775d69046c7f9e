package timesheet

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/technosprint/timesheet/internal/store"
)

var ErrUnknownCategory = errors.New("unknown category")

// NoProject labels entries with neither a project name nor a linked project.
const NoProject = "No Project"

// FilterSpec narrows the visible entries. Every dimension that is set must
// match (AND); within Projects or Categories any member may match (OR). An
// empty dimension places no restriction.
type FilterSpec struct {
	SearchQuery string
	Projects    []string // project keys, see ProjectKey
	Categories  []store.Category
}

// IsEmpty reports whether f lets every entry through.
func (f FilterSpec) IsEmpty() bool {
	return strings.TrimSpace(f.SearchQuery) == "" && len(f.Projects) == 0 && len(f.Categories) == 0
}

// Validate rejects categories outside the enumerated set.
func (f FilterSpec) Validate() error {
	for _, c := range f.Categories {
		if !c.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
		}
	}
	return nil
}

// ProjectKey identifies an entry's project for filtering: the linked
// project id when set, else the free-text name.
func ProjectKey(e store.TimeEntry) string {
	if e.ProjectID != nil && *e.ProjectID != "" {
		return *e.ProjectID
	}
	return e.ProjectName
}

// ProjectLabel is the name an entry is displayed and aggregated under.
func ProjectLabel(e store.TimeEntry) string {
	switch {
	case strings.TrimSpace(e.ProjectName) != "":
		return e.ProjectName
	case e.LinkedProjectName != "":
		return e.LinkedProjectName
	}
	return NoProject
}

// EntryDate returns the calendar date of e, or false when it does not parse.
func EntryDate(e store.TimeEntry) (time.Time, bool) {
	return ParseDate(e.Date)
}

func wellFormed(e store.TimeEntry) bool {
	return e.ID != "" && strings.TrimSpace(e.Description) != "" && e.DurationMinutes >= 0
}

// IsInWindow reports whether e falls inside w. Malformed entries never do.
func IsInWindow(e store.TimeEntry, w Window) bool {
	if !wellFormed(e) {
		return false
	}
	d, ok := EntryDate(e)
	if !ok {
		return false
	}
	return w.Contains(d)
}

// MatchesFilter reports whether e passes every active dimension of f.
func MatchesFilter(e store.TimeEntry, f FilterSpec) bool {
	if q := strings.TrimSpace(f.SearchQuery); q != "" {
		if !strings.Contains(strings.ToLower(e.Description), strings.ToLower(q)) {
			return false
		}
	}
	if len(f.Projects) > 0 && !slices.Contains(f.Projects, ProjectKey(e)) {
		return false
	}
	if len(f.Categories) > 0 {
		if e.Category == "" || !slices.Contains(f.Categories, e.Category) {
			return false
		}
	}
	return true
}

// SelectEntries returns the entries of w matching f, in input order. The
// result is a new slice and never nil.
func SelectEntries(entries []store.TimeEntry, w Window, f FilterSpec) []store.TimeEntry {
	out := make([]store.TimeEntry, 0, len(entries))
	for _, e := range entries {
		if IsInWindow(e, w) && MatchesFilter(e, f) {
			out = append(out, e)
		}
	}
	return out
}
