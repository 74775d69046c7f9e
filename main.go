package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/technosprint/timesheet/internal/api"
	"github.com/technosprint/timesheet/internal/config"
	"github.com/technosprint/timesheet/internal/export"
	"github.com/technosprint/timesheet/internal/store"
	"github.com/technosprint/timesheet/internal/timesheet"
	"github.com/technosprint/timesheet/internal/tui"
)

func main() {
	// Load .env file if it exists (development only)
	_ = godotenv.Load()
	cfg := config.Load()

	command := "tui"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	var err error
	switch command {
	case "tui":
		err = runTUI(cfg)
	case "serve":
		err = runServer(cfg)
	case "token":
		err = issueToken(cfg, os.Args[2:])
	case "export":
		err = exportCSV(cfg, os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`timesheet - Technosprint timesheet

Usage:
  timesheet [command]

Commands:
  tui                        Open the terminal UI (default)
  serve                      Serve the HTTP API
  token <user-id> [--admin]  Issue an API token
  export [day|week|month] [YYYY-MM-DD]
                             Write the period's entries as CSV to stdout
  help                       Show this help message
`)
}

func setupLogger(cfg *config.Config, w io.Writer) {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)
}

// openService opens the database and builds the timesheet service on top
// of it, behind the range cache when enabled.
func openService(cfg *config.Config) (*store.Store, *timesheet.Service, error) {
	s, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	var entries timesheet.EntryStore = s
	if cfg.Cache.Enabled {
		entries = timesheet.NewCachedStore(s, cfg.Cache.Size, cfg.Cache.TTL)
	}
	svc := timesheet.NewService(entries, timesheet.DefaultResolver)
	svc.SetWeekStart(s.WeekStart())
	return s, svc, nil
}

func runTUI(cfg *config.Config) error {
	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	setupLogger(cfg, logFile)

	s, svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	slog.Info("starting timesheet", "user", cfg.User, "db", cfg.DBPath)

	app := tui.NewApp(s, svc, cfg.User, cfg.ExportDir)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runServer(cfg *config.Config) error {
	setupLogger(cfg, os.Stdout)

	s, svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	tokens := api.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiry)
	r := api.NewRouter(api.NewHandler(svc, s), tokens)
	engine := r.Setup(cfg.Server.Environment)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "address", cfg.Server.Addr, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-quit:
	}

	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Server exited properly")
	return nil
}

func issueToken(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: timesheet token <user-id> [--admin]")
	}
	admin := len(args) > 1 && args[1] == "--admin"
	token, err := api.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiry).Issue(args[0], admin)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func exportCSV(cfg *config.Config, args []string) error {
	setupLogger(cfg, os.Stderr)

	q := timesheet.Query{Reference: timesheet.DateOf(time.Now()), Granularity: timesheet.Week}
	if len(args) > 0 {
		g, err := timesheet.ParseGranularity(args[0])
		if err != nil {
			return err
		}
		q.Granularity = g
	}
	if len(args) > 1 {
		ref, ok := timesheet.ParseDate(args[1])
		if !ok {
			return fmt.Errorf("invalid date %q", args[1])
		}
		q.Reference = ref
	}

	s, svc, err := openService(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := svc.Load(cfg.User, q)
	if err != nil {
		return err
	}
	return export.WriteCSV(os.Stdout, v.Loaded)
}
