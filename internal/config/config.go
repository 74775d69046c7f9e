// Package config loads runtime settings from the environment.
package config

import (
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"time"

	"github.com/technosprint/timesheet/internal/store"
)

type Config struct {
	DBPath    string
	User      string
	LogLevel  slog.Level
	ExportDir string
	Cache     CacheConfig
	Server    ServerConfig
	JWT       JWTConfig
}

// CacheConfig sizes the entry range cache.
type CacheConfig struct {
	Enabled bool
	Size    int
	TTL     time.Duration
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Environment  string
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// Load reads TIMESHEET_* variables, falling back to defaults for anything
// unset or malformed.
func Load() *Config {
	return &Config{
		DBPath:    getEnv("TIMESHEET_DB_PATH", defaultDBPath()),
		User:      getEnv("TIMESHEET_USER", defaultUser()),
		LogLevel:  parseLevel(getEnv("TIMESHEET_LOG_LEVEL", "info")),
		ExportDir: getEnv("TIMESHEET_EXPORT_DIR", defaultExportDir()),
		Cache: CacheConfig{
			Enabled: getEnvAsBool("TIMESHEET_CACHE_ENABLED", true),
			Size:    getEnvAsInt("TIMESHEET_CACHE_SIZE", 64),
			TTL:     getEnvAsDuration("TIMESHEET_CACHE_TTL", 30*time.Second),
		},
		Server: ServerConfig{
			Addr:         getEnv("TIMESHEET_HTTP_ADDR", "127.0.0.1:8080"),
			ReadTimeout:  getEnvAsDuration("TIMESHEET_HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("TIMESHEET_HTTP_WRITE_TIMEOUT", 15*time.Second),
			Environment:  getEnv("TIMESHEET_ENV", "development"),
		},
		JWT: JWTConfig{
			Secret: getEnv("TIMESHEET_JWT_SECRET", "change-me"),
			Expiry: getEnvAsDuration("TIMESHEET_JWT_EXPIRY", 24*time.Hour),
		},
	}
}

// LogPath is the TUI log file, kept next to the database.
func (c *Config) LogPath() string {
	if c.DBPath == ":memory:" {
		return os.DevNull
	}
	return filepath.Join(filepath.Dir(c.DBPath), "timesheet.log")
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func defaultDBPath() string {
	path, err := store.DefaultDBPath()
	if err != nil {
		return "timesheet.db"
	}
	return path
}

func defaultUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return getEnv("USER", "local")
}

func defaultExportDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
