// Package tui is the interactive terminal front end of the timesheet.
package tui

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/technosprint/timesheet/internal/export"
	"github.com/technosprint/timesheet/internal/store"
	"github.com/technosprint/timesheet/internal/timesheet"
)

var exportFormats = []string{"CSV", "JSON"}

// App is the root Bubble Tea model.
type App struct {
	store     *store.Store
	svc       *timesheet.Service
	owner     string
	exportDir string
	width     int
	height    int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	timesheet timesheetModel
	projects  projectsModel
	reports   reportsModel
	team      teamModel
	settings  settingsModel

	help        help.Model
	status      string
	statusError bool
}

// NewApp builds the UI for owner's timesheet. Exports are written to
// exportDir.
func NewApp(s *store.Store, svc *timesheet.Service, owner, exportDir string) App {
	h := help.New()
	h.ShowAll = false

	g := timesheet.Week
	if v, err := s.GetSetting("default_view"); err == nil {
		if parsed, err := timesheet.ParseGranularity(v); err == nil {
			g = parsed
		}
	}

	return App{
		store:      s,
		svc:        svc,
		owner:      owner,
		exportDir:  exportDir,
		activeView: viewTimesheet,
		timesheet:  newTimesheetModel(s, svc, owner, g),
		projects:   newProjectsModel(s),
		reports:    newReportsModel(s, svc, owner),
		team:       newTeamModel(s),
		settings:   newSettingsModel(s),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return a.timesheet.refresh()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.timesheet.setSize(a.width, contentHeight)
		a.projects.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.team.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewTimesheet)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewProjects)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewReports)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewTeam)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	// The timesheet owns the export source, so its data always reaches it.
	case timesheetDataMsg, searchTickMsg:
		m, isData := msg.(timesheetDataMsg)
		stale := isData && !a.timesheet.current(m)
		var cmd tea.Cmd
		a.timesheet, cmd = a.timesheet.update(msg)
		if isData && !stale && m.err != nil {
			a.status = "Failed to load time entries"
			a.statusError = true
		}
		return a, cmd

	case statusMsg:
		a.status = msg.text
		a.statusError = msg.isError
		return a, nil

	case entrySavedMsg:
		a.status = msg.text
		a.statusError = false
		return a, nil

	case settingsSavedMsg:
		a.svc.SetWeekStart(msg.weekStart)
		a.timesheet.query.Granularity = msg.defaultView
		a.status = "Settings saved"
		a.statusError = false
		return a, tea.Batch(a.settings.refresh(), a.timesheet.refresh())

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusError = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimesheet:
		a.timesheet, cmd = a.timesheet.update(msg)
	case viewProjects:
		a.projects, cmd = a.projects.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewTeam:
		a.team, cmd = a.team.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTimesheet:
		return a.timesheet.capturing() || a.timesheet.confirmDelete
	case viewProjects:
		return a.projects.formActive
	case viewTeam:
		return a.team.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTimesheet:
		return a.timesheet.refresh()
	case viewProjects:
		return a.projects.refresh()
	case viewReports:
		return a.reports.refresh()
	case viewTeam:
		return a.team.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimesheet:
		content = a.timesheet.view()
	case viewProjects:
		content = a.projects.view()
	case viewReports:
		content = a.reports.view()
	case viewTeam:
		content = a.team.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("Technosprint")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusError {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	user := highlightStyle.Render(" " + a.owner)

	left := footerStyle.Render(helpView)
	right := status + user

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("%d entries for %s", len(a.timesheet.data.Loaded), a.timesheet.data.Label)))
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes every entry loaded for the current timesheet period,
// regardless of the active filter.
func (a App) doExport(format int) tea.Cmd {
	entries := a.timesheet.data.Loaded
	loaded := a.timesheet.loaded && a.timesheet.loadErr == nil
	dir := a.exportDir
	return func() tea.Msg {
		if !loaded {
			return statusMsg{text: "Nothing to export yet", isError: true}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		now := time.Now()
		var path string
		if format == 0 {
			path = filepath.Join(dir, export.FileName("csv", now))
			if err := export.ToCSV(entries, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(dir, export.FileName("json", now))
			if err := export.ToJSON(entries, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		slog.Info("exported timesheet", "path", path, "entries", len(entries))
		return exportDoneMsg{path: path}
	}
}
