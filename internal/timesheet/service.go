package timesheet

import (
	"fmt"
	"sync"
	"time"

	"github.com/technosprint/timesheet/internal/store"
)

// Query is what the presentation layer controls: where the user is, how
// wide the view is, and what they filter on.
type Query struct {
	Reference   time.Time
	Granularity Granularity
	Filter      FilterSpec
}

// View is everything a timesheet screen renders for one Query.
type View struct {
	Window  Window
	Label   string
	Loaded  []store.TimeEntry // every entry fetched for the window
	Entries []store.TimeEntry // Loaded narrowed by the filter
	Stats   Stats
}

// DayTotal is one point of a per-day series.
type DayTotal struct {
	Date    time.Time
	Minutes int
}

// Service loads timesheet views and writes entries through an EntryStore.
// It is safe for concurrent use.
type Service struct {
	entries EntryStore

	mu       sync.RWMutex
	resolver Resolver
}

func NewService(entries EntryStore, resolver Resolver) *Service {
	return &Service{entries: entries, resolver: resolver}
}

func (s *Service) Resolver() Resolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver
}

// SetWeekStart changes the first day of the week for later loads.
func (s *Service) SetWeekStart(d time.Weekday) {
	s.mu.Lock()
	s.resolver.WeekStart = d
	s.mu.Unlock()
}

// Load fetches the owner's entries for the query's window and derives the
// view from them.
func (s *Service) Load(ownerID string, q Query) (View, error) {
	if err := q.Filter.Validate(); err != nil {
		return View{}, err
	}
	w := s.Resolver().Resolve(q.Reference, q.Granularity)
	loaded, err := s.entries.ListEntries(store.EntryFilter{
		OwnerID: ownerID,
		From:    &w.Start,
		To:      &w.End,
	})
	if err != nil {
		return View{}, fmt.Errorf("load timesheet: %w", err)
	}
	return BuildView(loaded, w, q.Filter), nil
}

// BuildView derives a View from entries already fetched for w.
func BuildView(loaded []store.TimeEntry, w Window, f FilterSpec) View {
	if loaded == nil {
		loaded = []store.TimeEntry{}
	}
	selected := SelectEntries(loaded, w, f)
	return View{
		Window:  w,
		Label:   w.Label(),
		Loaded:  loaded,
		Entries: selected,
		Stats:   ComputeStats(selected),
	}
}

// Navigate returns the reference date one period away in dir.
func (s *Service) Navigate(q Query, dir Direction) Query {
	q.Reference = s.Resolver().Shift(q.Reference, q.Granularity, dir)
	return q
}

func (s *Service) Add(in store.EntryInput) (*store.TimeEntry, error) {
	return s.entries.CreateEntry(in)
}

func (s *Service) Edit(id string, in store.EntryInput) (*store.TimeEntry, error) {
	return s.entries.UpdateEntry(id, in)
}

func (s *Service) Remove(id string) error {
	return s.entries.DeleteEntry(id)
}

// DailyTotals sums the view's filtered entries per day of its window,
// including days with nothing logged.
func DailyTotals(v View) []DayTotal {
	dates := v.Window.Dates()
	totals := make([]DayTotal, len(dates))
	index := make(map[string]int, len(dates))
	for i, d := range dates {
		totals[i] = DayTotal{Date: d}
		index[d.Format(store.DateLayout)] = i
	}
	for _, e := range v.Entries {
		d, ok := EntryDate(e)
		if !ok {
			continue
		}
		if i, ok := index[d.Format(store.DateLayout)]; ok {
			totals[i].Minutes += e.DurationMinutes
		}
	}
	return totals
}
