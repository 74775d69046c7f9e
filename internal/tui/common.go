package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/technosprint/timesheet/internal/timesheet"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimesheet viewState = iota
	viewProjects
	viewReports
	viewTeam
	viewSettings
)

var viewNames = []string{"Timesheet", "Projects", "Reports", "Team", "Settings"}

// searchDebounce is how long the timesheet waits after the last keystroke
// before re-filtering.
const searchDebounce = 300 * time.Millisecond

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// entrySavedMsg is sent after an entry was created, edited or deleted.
type entrySavedMsg struct {
	text string
}

// searchTickMsg fires once the debounce delay has elapsed. Only the tick
// whose seq matches the latest keystroke applies the search.
type searchTickMsg struct {
	seq int
}

// settingsSavedMsg carries the values other views react to.
type settingsSavedMsg struct {
	weekStart   time.Weekday
	defaultView timesheet.Granularity
}

// --- Helpers ---

// parseDuration turns the hours and minutes form fields into minutes.
// Blank fields count as zero.
func parseDuration(hours, minutes string) (int, error) {
	h, err := atoiOrZero(hours)
	if err != nil {
		return 0, err
	}
	m, err := atoiOrZero(minutes)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

func atoiOrZero(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
