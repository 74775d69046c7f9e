package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const taskColumns = `id, project_id, title, description, status, priority, assignee_id, due_date,
	archived, created_at, updated_at`

func scanTask(row rowScanner) (Task, error) {
	var t Task
	var status, createdAt, updatedAt string
	var assignee sql.NullString
	var archived int
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &t.Priority,
		&assignee, &t.DueDate, &archived, &createdAt, &updatedAt)
	if err != nil {
		return t, err
	}
	t.Status = TaskStatus(status)
	if assignee.Valid {
		t.AssigneeID = &assignee.String
	}
	t.Archived = archived == 1
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

func (s *Store) CreateTask(projectID, title, description string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("insert task: title is required")
	}
	id := newID()
	now := s.timestamp()
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, project_id, title, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, projectID, title, description, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(id)
}

func (s *Store) GetTask(id string) (*Task, error) {
	t, err := scanTask(s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return &t, nil
}

func (s *Store) ListTasks(projectID string, includeArchived bool) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY title`

	rows, err := s.db.Query(query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(t Task) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, assignee_id = ?,
		 due_date = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(t.Title), t.Description, string(t.Status), t.Priority, t.AssigneeID,
		t.DueDate, s.timestamp(), t.ID,
	)
	return err
}

func (s *Store) SetTaskStatus(id string, status TaskStatus) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`, string(status), s.timestamp(), id,
	)
	return err
}

func (s *Store) ArchiveTask(id string) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET archived = 1, updated_at = ? WHERE id = ?`, s.timestamp(), id,
	)
	return err
}
