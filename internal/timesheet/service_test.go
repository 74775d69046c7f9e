package timesheet

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/technosprint/timesheet/internal/store"
)

// countingStore wraps an EntryStore and counts list calls.
type countingStore struct {
	EntryStore
	lists int
	err   error
}

func (c *countingStore) ListEntries(f store.EntryFilter) ([]store.TimeEntry, error) {
	c.lists++
	if c.err != nil {
		return nil, c.err
	}
	return c.EntryStore.ListEntries(f)
}

// stallingStore holds its first list after reading, until release is
// closed.
type stallingStore struct {
	EntryStore
	read    chan struct{}
	release chan struct{}
}

func (s *stallingStore) ListEntries(f store.EntryFilter) ([]store.TimeEntry, error) {
	entries, err := s.EntryStore.ListEntries(f)
	if s.release != nil {
		release := s.release
		s.release = nil
		close(s.read)
		<-release
	}
	return entries, err
}

// fixedStore lists the same entries on every call.
type fixedStore struct {
	EntryStore
	entries func() []store.TimeEntry
}

func (s fixedStore) ListEntries(store.EntryFilter) ([]store.TimeEntry, error) {
	return s.entries(), nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustAdd(t *testing.T, svc *Service, owner, date string, minutes int, project string, cat store.Category) *store.TimeEntry {
	t.Helper()
	e, err := svc.Add(store.EntryInput{
		OwnerID:         owner,
		ProjectName:     project,
		Description:     "work " + project,
		Date:            date,
		DurationMinutes: minutes,
		Category:        cat,
	})
	if err != nil {
		t.Fatalf("add entry: %v", err)
	}
	return e
}

// ============================================================
// Service
// ============================================================

func TestServiceLoadScopesOwnerAndWindow(t *testing.T) {
	svc := NewService(newTestStore(t), DefaultResolver)
	mustAdd(t, svc, "u1", "2024-03-04", 60, "Alpha", store.CategoryDevelopment)
	mustAdd(t, svc, "u1", "2024-03-10", 30, "Beta", store.CategoryMeeting)
	mustAdd(t, svc, "u1", "2024-03-11", 99, "Alpha", "")
	mustAdd(t, svc, "u2", "2024-03-05", 500, "Alpha", "")

	v, err := svc.Load("u1", Query{Reference: date("2024-03-06"), Granularity: Week})
	if err != nil {
		t.Fatal(err)
	}
	if v.Label != "Mar 4 – Mar 10, 2024" {
		t.Fatalf("label = %q", v.Label)
	}
	if len(v.Loaded) != 2 || len(v.Entries) != 2 {
		t.Fatalf("loaded %d, selected %d", len(v.Loaded), len(v.Entries))
	}
	if v.Stats.TotalMinutes != 90 || v.Stats.MostActiveProject.Label != "Alpha" {
		t.Fatalf("stats = %+v", v.Stats)
	}
}

func TestServiceLoadFilterKeepsLoadedSet(t *testing.T) {
	svc := NewService(newTestStore(t), DefaultResolver)
	mustAdd(t, svc, "u1", "2024-03-04", 60, "Alpha", store.CategoryDevelopment)
	mustAdd(t, svc, "u1", "2024-03-05", 30, "Beta", store.CategoryMeeting)

	v, err := svc.Load("u1", Query{
		Reference:   date("2024-03-04"),
		Granularity: Month,
		Filter:      FilterSpec{Categories: []store.Category{store.CategoryMeeting}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Loaded) != 2 {
		t.Fatalf("loaded set should ignore the filter, got %d", len(v.Loaded))
	}
	if len(v.Entries) != 1 || v.Entries[0].ProjectName != "Beta" {
		t.Fatalf("filtered set wrong: %+v", v.Entries)
	}
	if v.Stats.TotalMinutes != 30 {
		t.Fatalf("stats should follow the filtered set, got %d", v.Stats.TotalMinutes)
	}
}

func TestServiceLoadRejectsBadFilter(t *testing.T) {
	svc := NewService(newTestStore(t), DefaultResolver)
	_, err := svc.Load("u1", Query{
		Reference: date("2024-03-04"),
		Filter:    FilterSpec{Categories: []store.Category{"Nap"}},
	})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestServiceLoadWrapsStoreError(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(&countingStore{EntryStore: newTestStore(t), err: boom}, DefaultResolver)
	_, err := svc.Load("u1", Query{Reference: date("2024-03-04")})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestServiceLoadEmptyPeriod(t *testing.T) {
	svc := NewService(newTestStore(t), DefaultResolver)
	v, err := svc.Load("u1", Query{Reference: date("2024-03-04"), Granularity: Day})
	if err != nil {
		t.Fatal(err)
	}
	if v.Loaded == nil || v.Entries == nil {
		t.Fatal("empty period should yield empty slices, not nil")
	}
	if v.Stats.MostActiveProject != nil {
		t.Fatal("no most active project in an empty period")
	}
}

func TestServiceEditAndRemove(t *testing.T) {
	svc := NewService(newTestStore(t), DefaultResolver)
	e := mustAdd(t, svc, "u1", "2024-03-04", 60, "Alpha", "")

	_, err := svc.Edit(e.ID, store.EntryInput{
		OwnerID: "u1", ProjectName: "Alpha", Description: "longer", Date: "2024-03-04", DurationMinutes: 90,
	})
	if err != nil {
		t.Fatal(err)
	}
	v, _ := svc.Load("u1", Query{Reference: date("2024-03-04"), Granularity: Day})
	if v.Stats.TotalMinutes != 90 {
		t.Fatalf("edit not visible, total %d", v.Stats.TotalMinutes)
	}

	if err := svc.Remove(e.ID); err != nil {
		t.Fatal(err)
	}
	v, _ = svc.Load("u1", Query{Reference: date("2024-03-04"), Granularity: Day})
	if v.Stats.EntryCount != 0 {
		t.Fatal("removed entry still visible")
	}
}

func TestServiceNavigate(t *testing.T) {
	svc := NewService(newTestStore(t), DefaultResolver)
	q := Query{Reference: date("2024-01-31"), Granularity: Month}
	q = svc.Navigate(q, Forward)
	if !q.Reference.Equal(date("2024-02-29")) {
		t.Fatalf("reference = %s", q.Reference)
	}
}

func TestServiceSetWeekStart(t *testing.T) {
	svc := NewService(newTestStore(t), DefaultResolver)
	svc.SetWeekStart(time.Sunday)
	v, err := svc.Load("u1", Query{Reference: date("2024-03-06"), Granularity: Week})
	if err != nil {
		t.Fatal(err)
	}
	if v.Window.Start.Weekday() != time.Sunday {
		t.Fatalf("week starts on %s", v.Window.Start.Weekday())
	}
}

func TestServiceSetWeekStartDuringLoads(t *testing.T) {
	svc := NewService(newTestStore(t), DefaultResolver)
	q := Query{Reference: date("2024-03-06"), Granularity: Week}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := svc.Load("u1", q); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	for i := 0; i < 20; i++ {
		svc.SetWeekStart(time.Weekday(i % 2))
	}
	wg.Wait()

	svc.SetWeekStart(time.Sunday)
	v, err := svc.Load("u1", q)
	if err != nil {
		t.Fatal(err)
	}
	if v.Window.Start.Weekday() != time.Sunday {
		t.Fatalf("week starts on %s", v.Window.Start.Weekday())
	}
}

func TestDailyTotalsZeroFilled(t *testing.T) {
	entries := []store.TimeEntry{
		entry("a", "2024-03-04", 60, "A", ""),
		entry("b", "2024-03-04", 15, "A", ""),
		entry("c", "2024-03-09", 30, "A", ""),
	}
	v := BuildView(entries, ResolveWindow(date("2024-03-04"), Week), FilterSpec{})
	totals := DailyTotals(v)
	if len(totals) != 7 {
		t.Fatalf("expected 7 points, got %d", len(totals))
	}
	want := []int{75, 0, 0, 0, 0, 30, 0}
	for i, w := range want {
		if totals[i].Minutes != w {
			t.Errorf("day %d = %d, want %d", i, totals[i].Minutes, w)
		}
	}
}

// ============================================================
// CachedStore
// ============================================================

func TestCachedStoreServesRepeatReads(t *testing.T) {
	inner := &countingStore{EntryStore: newTestStore(t)}
	c := NewCachedStore(inner, 8, time.Minute)
	from, to := date("2024-03-04"), date("2024-03-10")
	f := store.EntryFilter{OwnerID: "u1", From: &from, To: &to}

	for i := 0; i < 3; i++ {
		if _, err := c.ListEntries(f); err != nil {
			t.Fatal(err)
		}
	}
	if inner.lists != 1 {
		t.Fatalf("expected 1 underlying list, got %d", inner.lists)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 cached range, got %d", c.Len())
	}
}

func TestCachedStoreBustsOnWrite(t *testing.T) {
	inner := &countingStore{EntryStore: newTestStore(t)}
	c := NewCachedStore(inner, 8, time.Minute)
	svc := NewService(c, DefaultResolver)
	q := Query{Reference: date("2024-03-04"), Granularity: Week}

	v, _ := svc.Load("u1", q)
	if len(v.Loaded) != 0 {
		t.Fatal("expected empty week")
	}
	e := mustAdd(t, svc, "u1", "2024-03-05", 45, "Alpha", "")
	if c.Len() != 0 {
		t.Fatal("create should purge the cache")
	}
	v, _ = svc.Load("u1", q)
	if len(v.Loaded) != 1 {
		t.Fatalf("write not visible after purge, got %d entries", len(v.Loaded))
	}

	svc.Load("u1", q)
	if err := svc.Remove(e.ID); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 0 {
		t.Fatal("delete should purge the cache")
	}
	if inner.lists != 2 {
		t.Fatalf("expected 2 underlying lists, got %d", inner.lists)
	}
}

func TestCachedStoreExpires(t *testing.T) {
	inner := &countingStore{EntryStore: newTestStore(t)}
	c := NewCachedStore(inner, 8, 20*time.Millisecond)
	f := store.EntryFilter{OwnerID: "u1"}

	c.ListEntries(f)
	time.Sleep(60 * time.Millisecond)
	c.ListEntries(f)
	if inner.lists != 2 {
		t.Fatalf("expected expired entry to be refetched, got %d lists", inner.lists)
	}
}

func TestCachedStoreReturnsCopies(t *testing.T) {
	s := newTestStore(t)
	s.CreateEntry(store.EntryInput{OwnerID: "u1", Description: "x", Date: "2024-03-04", DurationMinutes: 5})
	c := NewCachedStore(s, 8, time.Minute)
	f := store.EntryFilter{OwnerID: "u1"}

	first, _ := c.ListEntries(f)
	first[0].Description = "mutated"
	second, _ := c.ListEntries(f)
	if second[0].Description != "x" {
		t.Fatal("cached slice was mutated through a returned copy")
	}
}

func TestCacheKeyDistinguishesRanges(t *testing.T) {
	a, b := date("2024-03-04"), date("2024-03-05")
	k1 := cacheKey(store.EntryFilter{OwnerID: "u1", From: &a})
	k2 := cacheKey(store.EntryFilter{OwnerID: "u1", To: &a})
	k3 := cacheKey(store.EntryFilter{OwnerID: "u1", From: &b})
	k4 := cacheKey(store.EntryFilter{OwnerID: "u2", From: &a})
	seen := map[string]bool{}
	for _, k := range []string{k1, k2, k3, k4} {
		if seen[k] {
			t.Fatalf("duplicate cache key %q", k)
		}
		seen[k] = true
	}
}

func TestCachedStoreSkipsReadOverlappingWrite(t *testing.T) {
	inner := &stallingStore{
		EntryStore: newTestStore(t),
		read:       make(chan struct{}),
		release:    make(chan struct{}),
	}
	c := NewCachedStore(inner, 8, time.Minute)
	f := store.EntryFilter{OwnerID: "u1"}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.ListEntries(f)
	}()
	<-inner.read

	_, err := c.CreateEntry(store.EntryInput{OwnerID: "u1", Description: "x", Date: "2024-03-04", DurationMinutes: 5})
	if err != nil {
		t.Fatal(err)
	}
	close(inner.release)
	<-done

	got, err := c.ListEntries(f)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("writer reads %d entries after its own write", len(got))
	}
}

func TestCachedStoreCopiesTagsAndProjectID(t *testing.T) {
	c := NewCachedStore(fixedStore{entries: func() []store.TimeEntry {
		id := "p1"
		return []store.TimeEntry{{ID: "e1", ProjectID: &id, Tags: []string{"api"}}}
	}}, 8, time.Minute)
	f := store.EntryFilter{OwnerID: "u1"}

	for i := 0; i < 2; i++ {
		got, _ := c.ListEntries(f)
		got[0].Tags[0] = "mutated"
		*got[0].ProjectID = "mutated"
	}
	got, _ := c.ListEntries(f)
	if got[0].Tags[0] != "api" || *got[0].ProjectID != "p1" {
		t.Fatalf("cache shares memory with callers: tags=%v project=%s", got[0].Tags, *got[0].ProjectID)
	}
}
