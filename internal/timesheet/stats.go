package timesheet

import (
	"fmt"
	"strings"

	"github.com/technosprint/timesheet/internal/store"
)

// Bucket is a label with its summed minutes.
type Bucket struct {
	Label   string `json:"label"`
	Minutes int    `json:"minutes"`
}

// Stats summarizes a filtered entry set. ByProject and ByCategory keep the
// order in which labels were first seen. The most-active fields are nil
// when there is nothing to rank.
type Stats struct {
	TotalMinutes       int      `json:"total_minutes"`
	EntryCount         int      `json:"entry_count"`
	ByProject          []Bucket `json:"by_project"`
	ByCategory         []Bucket `json:"by_category"`
	MostActiveProject  *Bucket  `json:"most_active_project"`
	MostActiveCategory *Bucket  `json:"most_active_category"`
}

// ComputeStats aggregates entries. Projects are keyed by display label, so
// distinct projects sharing a name share a bucket. Uncategorized entries
// count toward the total but not toward any category.
func ComputeStats(entries []store.TimeEntry) Stats {
	st := Stats{
		EntryCount: len(entries),
		ByProject:  []Bucket{},
		ByCategory: []Bucket{},
	}
	projectIdx := make(map[string]int)
	categoryIdx := make(map[string]int)

	for _, e := range entries {
		st.TotalMinutes += e.DurationMinutes
		st.ByProject = addTo(st.ByProject, projectIdx, ProjectLabel(e), e.DurationMinutes)
		if e.Category != "" {
			st.ByCategory = addTo(st.ByCategory, categoryIdx, string(e.Category), e.DurationMinutes)
		}
	}

	st.MostActiveProject = argmax(st.ByProject)
	st.MostActiveCategory = argmax(st.ByCategory)
	return st
}

func addTo(buckets []Bucket, idx map[string]int, label string, minutes int) []Bucket {
	if i, ok := idx[label]; ok {
		buckets[i].Minutes += minutes
		return buckets
	}
	idx[label] = len(buckets)
	return append(buckets, Bucket{Label: label, Minutes: minutes})
}

// argmax keeps the first bucket on ties.
func argmax(buckets []Bucket) *Bucket {
	if len(buckets) == 0 {
		return nil
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.Minutes > best.Minutes {
			best = b
		}
	}
	return &best
}

// Project returns the minutes under a project label.
func (s Stats) Project(label string) (int, bool) {
	return lookup(s.ByProject, label)
}

// Category returns the minutes under a category label.
func (s Stats) Category(label string) (int, bool) {
	return lookup(s.ByCategory, label)
}

func lookup(buckets []Bucket, label string) (int, bool) {
	for _, b := range buckets {
		if b.Label == label {
			return b.Minutes, true
		}
	}
	return 0, false
}

// FormatMinutes renders minutes as "Hh Mm".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// FormatHours renders minutes as decimal hours with one digit, e.g. "1.5h".
func FormatHours(minutes int) string {
	s := fmt.Sprintf("%.1f", float64(minutes)/60)
	return strings.TrimSuffix(s, ".0") + "h"
}
