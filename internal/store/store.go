package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Debug("store opened", "path", dbPath)
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) timestamp() string {
	return s.now().Format(time.RFC3339)
}

func newID() string {
	return uuid.NewString()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS projects (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL UNIQUE,
		team            TEXT NOT NULL DEFAULT '',
		client_name     TEXT NOT NULL DEFAULT '',
		client_domain   TEXT NOT NULL DEFAULT '',
		client_category TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'Ongoing',
		start_date      TEXT NOT NULL DEFAULT '',
		end_date        TEXT NOT NULL DEFAULT '',
		description     TEXT NOT NULL DEFAULT '',
		color           TEXT NOT NULL DEFAULT '#6C63FF',
		archived        INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS team_members (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT '',
		designation   TEXT NOT NULL DEFAULT '',
		team          TEXT NOT NULL DEFAULT '',
		email         TEXT NOT NULL DEFAULT '',
		avatar        TEXT NOT NULL DEFAULT '',
		is_leadership INTEGER NOT NULL DEFAULT 0,
		is_admin      INTEGER NOT NULL DEFAULT 0,
		auth_uuid     TEXT NOT NULL DEFAULT '',
		created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_members_auth ON team_members(auth_uuid);

	CREATE TABLE IF NOT EXISTS project_members (
		project_id TEXT NOT NULL REFERENCES projects(id),
		member_id  TEXT NOT NULL REFERENCES team_members(id) ON DELETE CASCADE,
		PRIMARY KEY (project_id, member_id)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id),
		title       TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT 'todo',
		priority    TEXT NOT NULL DEFAULT 'medium',
		assignee_id TEXT REFERENCES team_members(id) ON DELETE SET NULL,
		due_date    TEXT NOT NULL DEFAULT '',
		archived    INTEGER NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		UNIQUE(project_id, title)
	);

	CREATE TABLE IF NOT EXISTS time_entries (
		id               TEXT PRIMARY KEY,
		owner_id         TEXT NOT NULL,
		project_id       TEXT REFERENCES projects(id),
		project_name     TEXT NOT NULL DEFAULT '',
		description      TEXT NOT NULL,
		date             TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL DEFAULT 0 CHECK (duration_minutes >= 0),
		category         TEXT,
		tags             TEXT NOT NULL DEFAULT '[]',
		created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
		updated_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_entries_owner_date ON time_entries(owner_id, date);
	CREATE INDEX IF NOT EXISTS idx_entries_project    ON time_entries(project_id);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('week_start',         'monday'),
		('default_view',       'week'),
		('daily_goal_minutes', '480');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns <UserConfigDir>/technosprint/timesheet.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "technosprint", "timesheet.db"), nil
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
