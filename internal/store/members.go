package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const memberColumns = `id, name, role, designation, team, email, avatar, is_leadership, is_admin, auth_uuid, created_at`

func scanMember(row rowScanner) (TeamMember, error) {
	var m TeamMember
	var leadership, admin int
	var createdAt string
	err := row.Scan(&m.ID, &m.Name, &m.Role, &m.Designation, &m.Team, &m.Email, &m.Avatar,
		&leadership, &admin, &m.AuthUUID, &createdAt)
	if err != nil {
		return m, err
	}
	m.IsLeadership = leadership == 1
	m.IsAdmin = admin == 1
	m.CreatedAt = parseTime(createdAt)
	return m, nil
}

func (s *Store) CreateMember(m TeamMember) (*TeamMember, error) {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return nil, errors.New("insert member: name is required")
	}
	m.ID = newID()
	_, err := s.db.Exec(
		`INSERT INTO team_members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Role, m.Designation, m.Team, m.Email, m.Avatar,
		boolInt(m.IsLeadership), boolInt(m.IsAdmin), m.AuthUUID, s.timestamp(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return s.GetMember(m.ID)
}

func (s *Store) GetMember(id string) (*TeamMember, error) {
	return s.getMemberBy("id", id)
}

// GetMemberByAuthUUID looks a member up by the identity provider's user id.
func (s *Store) GetMemberByAuthUUID(authUUID string) (*TeamMember, error) {
	return s.getMemberBy("auth_uuid", authUUID)
}

func (s *Store) getMemberBy(column, value string) (*TeamMember, error) {
	m, err := scanMember(s.db.QueryRow(`SELECT `+memberColumns+` FROM team_members WHERE `+column+` = ?`, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get member %s: %w", value, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get member %s: %w", value, err)
	}
	return &m, nil
}

// ListMembers returns members ordered by team then name. An empty team
// lists everyone.
func (s *Store) ListMembers(team string) ([]TeamMember, error) {
	query := `SELECT ` + memberColumns + ` FROM team_members`
	var args []any
	if team != "" {
		query += ` WHERE team = ?`
		args = append(args, team)
	}
	query += ` ORDER BY team, name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
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

func (s *Store) UpdateMember(m TeamMember) error {
	res, err := s.db.Exec(
		`UPDATE team_members SET name = ?, role = ?, designation = ?, team = ?, email = ?, avatar = ?,
		 is_leadership = ?, is_admin = ?, auth_uuid = ? WHERE id = ?`,
		strings.TrimSpace(m.Name), m.Role, m.Designation, m.Team, m.Email, m.Avatar,
		boolInt(m.IsLeadership), boolInt(m.IsAdmin), m.AuthUUID, m.ID,
	)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update member %s: %w", m.ID, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteMember(id string) error {
	res, err := s.db.Exec(`DELETE FROM team_members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete member %s: %w", id, ErrNotFound)
	}
	return nil
}
