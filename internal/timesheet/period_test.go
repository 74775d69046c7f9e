package timesheet

import (
	"errors"
	"testing"
	"time"
)

func date(s string) time.Time {
	d, ok := ParseDate(s)
	if !ok {
		panic("bad test date " + s)
	}
	return d
}

func sameWindow(a, b Window) bool {
	return a.Granularity == b.Granularity && a.Start.Equal(b.Start) && a.End.Equal(b.End)
}

// everyDay yields every date from 2023-01-01 through 2025-12-31.
func everyDay() []time.Time {
	var days []time.Time
	for d := date("2023-01-01"); d.Before(date("2026-01-01")); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// ============================================================
// Window resolution
// ============================================================

func TestResolveDayIsSingleDate(t *testing.T) {
	for _, d := range everyDay() {
		w := ResolveWindow(d, Day)
		if !w.Start.Equal(d) || !w.End.Equal(d) {
			t.Fatalf("day window of %s = [%s, %s]", d.Format("2006-01-02"), w.Start, w.End)
		}
	}
}

func TestResolveWeekSpansSevenDays(t *testing.T) {
	for _, r := range []Resolver{{WeekStart: time.Monday}, {WeekStart: time.Sunday}} {
		for _, d := range everyDay() {
			w := r.Resolve(d, Week)
			if w.Days() != 7 {
				t.Fatalf("week of %s spans %d days", d.Format("2006-01-02"), w.Days())
			}
			if w.Start.Weekday() != r.WeekStart {
				t.Fatalf("week of %s starts on %s, want %s", d.Format("2006-01-02"), w.Start.Weekday(), r.WeekStart)
			}
			if !w.Contains(d) {
				t.Fatalf("week of %s does not contain it", d.Format("2006-01-02"))
			}
		}
	}
}

func TestResolveMonthSpansCalendarMonth(t *testing.T) {
	for _, d := range everyDay() {
		w := ResolveWindow(d, Month)
		if w.Start.Day() != 1 || w.Start.Month() != d.Month() || w.Start.Year() != d.Year() {
			t.Fatalf("month of %s starts %s", d.Format("2006-01-02"), w.Start)
		}
		if w.End.Month() != d.Month() || w.End.AddDate(0, 0, 1).Day() != 1 {
			t.Fatalf("month of %s ends %s", d.Format("2006-01-02"), w.End)
		}
	}
}

func TestResolveMonthLengths(t *testing.T) {
	tests := []struct {
		ref  string
		days int
	}{
		{"2024-02-15", 29},
		{"2023-02-15", 28},
		{"2024-04-30", 30},
		{"2024-12-01", 31},
	}
	for _, tt := range tests {
		if got := ResolveWindow(date(tt.ref), Month).Days(); got != tt.days {
			t.Errorf("month of %s has %d days, want %d", tt.ref, got, tt.days)
		}
	}
}

func TestResolveMondayWeek(t *testing.T) {
	w := ResolveWindow(date("2024-03-10"), Week) // a Sunday
	if !w.Start.Equal(date("2024-03-04")) || !w.End.Equal(date("2024-03-10")) {
		t.Fatalf("week = [%s, %s]", w.Start, w.End)
	}
}

func TestResolveSundayWeek(t *testing.T) {
	r := Resolver{WeekStart: time.Sunday}
	w := r.Resolve(date("2024-03-10"), Week)
	if !w.Start.Equal(date("2024-03-10")) || !w.End.Equal(date("2024-03-16")) {
		t.Fatalf("week = [%s, %s]", w.Start, w.End)
	}
}

func TestResolveIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	ref := time.Date(2024, 3, 4, 23, 30, 0, 0, loc)
	w := ResolveWindow(ref, Day)
	if !w.Start.Equal(date("2024-03-04")) {
		t.Fatalf("expected local calendar date 2024-03-04, got %s", w.Start)
	}
}

func TestResolveUnknownGranularityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	ResolveWindow(date("2024-03-04"), Granularity(42))
}

// ============================================================
// Navigation
// ============================================================

func TestShiftRoundTrip(t *testing.T) {
	for _, g := range Granularities {
		for _, d := range everyDay() {
			back := ShiftPeriod(ShiftPeriod(d, g, Forward), g, Backward)
			if !sameWindow(ResolveWindow(back, g), ResolveWindow(d, g)) {
				t.Fatalf("%s round trip from %s landed in a different window", g, d.Format("2006-01-02"))
			}
		}
	}
}

func TestShiftSteps(t *testing.T) {
	tests := []struct {
		ref  string
		g    Granularity
		dir  Direction
		want string
	}{
		{"2024-03-04", Day, Forward, "2024-03-05"},
		{"2024-03-01", Day, Backward, "2024-02-29"},
		{"2024-03-04", Week, Forward, "2024-03-11"},
		{"2024-01-03", Week, Backward, "2023-12-27"},
		{"2024-03-15", Month, Forward, "2024-04-15"},
		{"2024-01-31", Month, Forward, "2024-02-29"},
		{"2024-03-31", Month, Backward, "2024-02-29"},
		{"2024-12-10", Month, Forward, "2025-01-10"},
	}
	for _, tt := range tests {
		got := ShiftPeriod(date(tt.ref), tt.g, tt.dir)
		if !got.Equal(date(tt.want)) {
			t.Errorf("shift %s %s %d = %s, want %s", tt.ref, tt.g, tt.dir, got.Format("2006-01-02"), tt.want)
		}
	}
}

func TestShiftUnknownGranularityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	ShiftPeriod(date("2024-03-04"), Granularity(-1), Forward)
}

// ============================================================
// Labels
// ============================================================

func TestWindowLabels(t *testing.T) {
	tests := []struct {
		ref  string
		g    Granularity
		want string
	}{
		{"2024-03-04", Day, "Monday, March 4, 2024"},
		{"2024-03-06", Week, "Mar 4 – Mar 10, 2024"},
		{"2024-12-31", Week, "Dec 30, 2024 – Jan 5, 2025"},
		{"2024-03-20", Month, "March 2024"},
	}
	for _, tt := range tests {
		w := ResolveWindow(date(tt.ref), tt.g)
		if got := FormatWindowLabel(w); got != tt.want {
			t.Errorf("label(%s, %s) = %q, want %q", tt.ref, tt.g, got, tt.want)
		}
	}
}

func TestLabelsDeterministicAndDistinct(t *testing.T) {
	ref := date("2024-03-01")
	seen := map[string]Granularity{}
	for _, g := range Granularities {
		w := ResolveWindow(ref, g)
		if ResolveWindow(ref, g).Label() != w.Label() {
			t.Fatal("label not deterministic")
		}
		if other, dup := seen[w.Label()]; dup {
			t.Fatalf("%s and %s render the same label", g, other)
		}
		seen[w.Label()] = g
	}
}

// ============================================================
// Parsing
// ============================================================

func TestParseGranularity(t *testing.T) {
	for in, want := range map[string]Granularity{"day": Day, "Week": Week, " MONTH ": Month, "weekly": Week} {
		got, err := ParseGranularity(in)
		if err != nil || got != want {
			t.Errorf("ParseGranularity(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseGranularity("year"); !errors.Is(err, ErrUnknownGranularity) {
		t.Fatalf("expected ErrUnknownGranularity, got %v", err)
	}
}

func TestGranularityString(t *testing.T) {
	if Day.String() != "day" || Week.String() != "week" || Month.String() != "month" {
		t.Fatal("unexpected granularity names")
	}
	if Granularity(9).String() != "Granularity(9)" {
		t.Fatal("unknown granularity should render its value")
	}
}

func TestParseDate(t *testing.T) {
	if d, ok := ParseDate("2024-03-04"); !ok || !d.Equal(date("2024-03-04")) {
		t.Fatal("plain date not parsed")
	}
	if d, ok := ParseDate("2024-03-04T18:45:00Z"); !ok || !d.Equal(date("2024-03-04")) {
		t.Fatal("timestamp not truncated to its date")
	}
	for _, bad := range []string{"", "yesterday", "2024-13-01", "04/03/2024"} {
		if _, ok := ParseDate(bad); ok {
			t.Errorf("ParseDate(%q) should fail", bad)
		}
	}
}

func TestWindowDates(t *testing.T) {
	dates := ResolveWindow(date("2024-02-10"), Month).Dates()
	if len(dates) != 29 {
		t.Fatalf("expected 29 dates, got %d", len(dates))
	}
	if !dates[28].Equal(date("2024-02-29")) {
		t.Fatalf("last date = %s", dates[28])
	}
}
