// Package timesheet turns a snapshot of time entries into the timesheet
// view: the visible period, the filtered selection and its statistics.
// Everything here except Service and CachedStore is pure.
package timesheet

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/technosprint/timesheet/internal/store"
)

var ErrUnknownGranularity = errors.New("unknown granularity")

// Granularity is the bucket size of the timesheet view.
type Granularity int

const (
	Day Granularity = iota
	Week
	Month
)

// Granularities lists every granularity in tab order.
var Granularities = []Granularity{Day, Week, Month}

func (g Granularity) String() string {
	switch g {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	}
	return fmt.Sprintf("Granularity(%d)", int(g))
}

// ParseGranularity accepts day, week or month in any case.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

// Direction is the navigation direction for ShiftPeriod.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// Window is an inclusive range of calendar dates. Start and End are UTC
// midnights.
type Window struct {
	Start       time.Time
	End         time.Time
	Granularity Granularity
}

// Contains reports whether the calendar date of d lies in [Start, End].
func (w Window) Contains(d time.Time) bool {
	d = DateOf(d)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns the number of calendar days the window spans.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Dates returns every calendar date of the window in order.
func (w Window) Dates() []time.Time {
	dates := make([]time.Time, 0, w.Days())
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// Label renders the window for the navigation header. Day, week and month
// windows use visibly different shapes.
func (w Window) Label() string {
	switch w.Granularity {
	case Day:
		return w.Start.Format("Monday, January 2, 2006")
	case Week:
		if w.Start.Year() != w.End.Year() {
			return w.Start.Format("Jan 2, 2006") + " – " + w.End.Format("Jan 2, 2006")
		}
		return w.Start.Format("Jan 2") + " – " + w.End.Format("Jan 2, 2006")
	case Month:
		return w.Start.Format("January 2006")
	}
	panic(fmt.Sprintf("timesheet: label for %v", w.Granularity))
}

// Resolver computes period windows for a configurable first day of week.
type Resolver struct {
	WeekStart time.Weekday
}

// DefaultResolver starts weeks on Monday.
var DefaultResolver = Resolver{WeekStart: time.Monday}

// Resolve returns the window of granularity g containing ref. An unknown
// granularity is a caller bug and panics.
func (r Resolver) Resolve(ref time.Time, g Granularity) Window {
	d := DateOf(ref)
	switch g {
	case Day:
		return Window{Start: d, End: d, Granularity: Day}
	case Week:
		offset := (int(d.Weekday()) - int(r.WeekStart) + 7) % 7
		start := d.AddDate(0, 0, -offset)
		return Window{Start: start, End: start.AddDate(0, 0, 6), Granularity: Week}
	case Month:
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: start.AddDate(0, 1, -1), Granularity: Month}
	}
	panic(fmt.Sprintf("timesheet: resolve %v", g))
}

// Shift moves ref one period in dir. Month shifts clamp the day to the
// last day of the target month, so Jan 31 goes to Feb 29 in a leap year.
func (r Resolver) Shift(ref time.Time, g Granularity, dir Direction) time.Time {
	d := DateOf(ref)
	step := int(dir)
	switch g {
	case Day:
		return d.AddDate(0, 0, step)
	case Week:
		return d.AddDate(0, 0, 7*step)
	case Month:
		first := time.Date(d.Year(), d.Month()+time.Month(step), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1).Day()
		day := d.Day()
		if day > last {
			day = last
		}
		return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
	}
	panic(fmt.Sprintf("timesheet: shift %v", g))
}

// ResolveWindow resolves with Monday-start weeks.
func ResolveWindow(ref time.Time, g Granularity) Window {
	return DefaultResolver.Resolve(ref, g)
}

// ShiftPeriod shifts with Monday-start weeks.
func ShiftPeriod(ref time.Time, g Granularity, dir Direction) time.Time {
	return DefaultResolver.Shift(ref, g, dir)
}

func FormatWindowLabel(w Window) string {
	return w.Label()
}

// DateOf drops the time of day, keeping the calendar date t shows in its
// own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date or an RFC 3339 timestamp truncated to
// its calendar date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(store.DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), true
	}
	return time.Time{}, false
}
