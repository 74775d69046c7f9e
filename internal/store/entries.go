package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EntryInput carries the writable fields of a time entry.
type EntryInput struct {
	OwnerID         string
	ProjectID       *string
	ProjectName     string
	Description     string
	Date            string
	DurationMinutes int
	Category        Category
	Tags            []string
}

// Validate checks the input against the time entry invariants and
// normalizes description, project name and tags in place.
func (in *EntryInput) Validate() error {
	in.Description = strings.TrimSpace(in.Description)
	in.ProjectName = strings.TrimSpace(in.ProjectName)
	in.Tags = NormalizeTags(in.Tags)
	if in.ProjectID != nil && *in.ProjectID == "" {
		in.ProjectID = nil
	}

	if in.OwnerID == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalidEntry)
	}
	if in.Description == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidEntry)
	}
	if _, err := time.Parse(DateLayout, in.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidEntry, in.Date)
	}
	if in.DurationMinutes < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidEntry)
	}
	if in.Category != "" && !in.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidEntry, in.Category)
	}
	return nil
}

// NormalizeTags trims tags, drops empties and removes duplicates while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ParseTags splits a comma-separated tag list.
func ParseTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

const entryColumns = `e.id, e.owner_id, e.project_id, e.project_name, COALESCE(p.name, ''),
	e.description, e.date, e.duration_minutes, e.category, e.tags, e.created_at, e.updated_at`

const entryFrom = ` FROM time_entries e LEFT JOIN projects p ON p.id = e.project_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (TimeEntry, error) {
	var e TimeEntry
	var projectID, category sql.NullString
	var tags, createdAt, updatedAt string

	err := row.Scan(&e.ID, &e.OwnerID, &projectID, &e.ProjectName, &e.LinkedProjectName,
		&e.Description, &e.Date, &e.DurationMinutes, &category, &tags, &createdAt, &updatedAt)
	if err != nil {
		return e, err
	}
	if projectID.Valid {
		e.ProjectID = &projectID.String
	}
	if category.Valid {
		e.Category = Category(category.String)
	}
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		e.Tags = nil
	}
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return e, nil
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	data, _ := json.Marshal(tags)
	return string(data)
}

func nullCategory(c Category) any {
	if c == "" {
		return nil
	}
	return string(c)
}

func (s *Store) CreateEntry(in EntryInput) (*TimeEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id := newID()
	now := s.timestamp()
	_, err := s.db.Exec(
		`INSERT INTO time_entries (id, owner_id, project_id, project_name, description, date,
		 duration_minutes, category, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.OwnerID, in.ProjectID, in.ProjectName, in.Description, in.Date,
		in.DurationMinutes, nullCategory(in.Category), encodeTags(in.Tags), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return s.GetEntry(id)
}

func (s *Store) GetEntry(id string) (*TimeEntry, error) {
	row := s.db.QueryRow(`SELECT `+entryColumns+entryFrom+` WHERE e.id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entry %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	return &e, nil
}

// UpdateEntry replaces the writable fields of entry id. The owner of an
// existing entry never changes.
func (s *Store) UpdateEntry(id string, in EntryInput) (*TimeEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	res, err := s.db.Exec(
		`UPDATE time_entries SET project_id = ?, project_name = ?, description = ?, date = ?,
		 duration_minutes = ?, category = ?, tags = ?, updated_at = ? WHERE id = ?`,
		in.ProjectID, in.ProjectName, in.Description, in.Date,
		in.DurationMinutes, nullCategory(in.Category), encodeTags(in.Tags), s.timestamp(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("update entry %s: %w", id, ErrNotFound)
	}
	return s.GetEntry(id)
}

func (s *Store) DeleteEntry(id string) error {
	res, err := s.db.Exec(`DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete entry %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) ListEntries(f EntryFilter) ([]TimeEntry, error) {
	query := `SELECT ` + entryColumns + entryFrom + ` WHERE 1=1`
	var args []any

	if f.OwnerID != "" {
		query += ` AND e.owner_id = ?`
		args = append(args, f.OwnerID)
	}
	if f.ProjectID != nil {
		query += ` AND e.project_id = ?`
		args = append(args, *f.ProjectID)
	}
	if f.From != nil {
		query += ` AND e.date >= ?`
		args = append(args, f.From.Format(DateLayout))
	}
	if f.To != nil {
		query += ` AND e.date <= ?`
		args = append(args, f.To.Format(DateLayout))
	}
	query += ` ORDER BY e.date DESC, e.rowid DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetDailySummary aggregates an owner's minutes per day and display
// project over the inclusive date range [from, to].
func (s *Store) GetDailySummary(ownerID string, from, to time.Time) ([]DailySummary, error) {
	rows, err := s.db.Query(`
		SELECT e.date,
		       COALESCE(NULLIF(e.project_name, ''), p.name, 'No Project') AS label,
		       COALESCE(MAX(p.color), '#6C63FF'),
		       COALESCE(SUM(e.duration_minutes), 0), COUNT(*)
		FROM time_entries e
		LEFT JOIN projects p ON p.id = e.project_id
		WHERE e.owner_id = ? AND e.date >= ? AND e.date <= ?
		GROUP BY e.date, label
		ORDER BY e.date, label`,
		ownerID, from.Format(DateLayout), to.Format(DateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var ds DailySummary
		if err := rows.Scan(&ds.Date, &ds.Project, &ds.ProjectColor, &ds.TotalMinutes, &ds.EntryCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

// GetDayTotal returns the minutes an owner logged on day.
func (s *Store) GetDayTotal(ownerID string, day time.Time) (int, error) {
	var total int
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(duration_minutes), 0)
		FROM time_entries
		WHERE owner_id = ? AND date = ?`, ownerID, day.Format(DateLayout),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("day total: %w", err)
	}
	return total, nil
}
