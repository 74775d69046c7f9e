package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const projectColumns = `id, name, team, client_name, client_domain, client_category, status,
	start_date, end_date, description, color, archived, created_at, updated_at`

func scanProject(row rowScanner) (Project, error) {
	var p Project
	var status, createdAt, updatedAt string
	var archived int
	err := row.Scan(&p.ID, &p.Name, &p.Team, &p.ClientName, &p.ClientDomain, &p.ClientCategory,
		&status, &p.StartDate, &p.EndDate, &p.Description, &p.Color, &archived, &createdAt, &updatedAt)
	if err != nil {
		return p, err
	}
	p.Status = ProjectStatus(status)
	p.Archived = archived == 1
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// withDefaults fills the fields the simplified project shape lacks.
func (in ProjectInput) withDefaults() ProjectInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.Status == "" {
		in.Status = StatusOngoing
	}
	if in.Color == "" {
		in.Color = "#6C63FF"
	}
	return in
}

func (s *Store) CreateProject(in ProjectInput) (*Project, error) {
	in = in.withDefaults()
	if in.Name == "" {
		return nil, errors.New("insert project: name is required")
	}
	id := newID()
	now := s.timestamp()
	_, err := s.db.Exec(
		`INSERT INTO projects (id, name, team, client_name, client_domain, client_category, status,
		 start_date, end_date, description, color, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.Name, in.Team, in.ClientName, in.ClientDomain, in.ClientCategory, string(in.Status),
		in.StartDate, in.EndDate, in.Description, in.Color, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(id)
}

func (s *Store) GetProject(id string) (*Project, error) {
	p, err := scanProject(s.db.QueryRow(`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return &p, nil
}

func (s *Store) ListProjects(includeArchived bool) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *Store) UpdateProject(id string, in ProjectInput) error {
	in = in.withDefaults()
	res, err := s.db.Exec(
		`UPDATE projects SET name = ?, team = ?, client_name = ?, client_domain = ?, client_category = ?,
		 status = ?, start_date = ?, end_date = ?, description = ?, color = ?, updated_at = ?
		 WHERE id = ?`,
		in.Name, in.Team, in.ClientName, in.ClientDomain, in.ClientCategory,
		string(in.Status), in.StartDate, in.EndDate, in.Description, in.Color, s.timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update project %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) ArchiveProject(id string) error {
	_, err := s.db.Exec(
		`UPDATE projects SET archived = 1, updated_at = ? WHERE id = ?`, s.timestamp(), id,
	)
	return err
}

func (s *Store) AddProjectMember(projectID, memberID string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO project_members (project_id, member_id) VALUES (?, ?)`,
		projectID, memberID,
	)
	if err != nil {
		return fmt.Errorf("add project member: %w", err)
	}
	return nil
}

func (s *Store) ListProjectMembers(projectID string) ([]TeamMember, error) {
	rows, err := s.db.Query(
		`SELECT `+prefixed("m.", memberColumns)+`
		 FROM team_members m JOIN project_members pm ON pm.member_id = m.id
		 WHERE pm.project_id = ? ORDER BY m.name`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	defer rows.Close()

	var members []TeamMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func prefixed(prefix, columns string) string {
	cols := strings.Split(columns, ",")
	for i, c := range cols {
		cols[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
