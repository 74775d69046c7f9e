package tui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/technosprint/timesheet/internal/store"
	"github.com/technosprint/timesheet/internal/timesheet"
)

type settingsModel struct {
	store  *store.Store
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	weekStart   *string
	defaultView *string
	dailyGoal   *string
}

func newSettingsModel(s *store.Store) settingsModel {
	ws, dv, dg := "", "", ""
	return settingsModel{
		store:       s,
		weekStart:   &ws,
		defaultView: &dv,
		dailyGoal:   &dg,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, _ := s.store.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.weekStart = s.getVal("week_start", "monday")
	*s.defaultView = s.getVal("default_view", "week")
	*s.dailyGoal = minutesToHours(s.getVal("daily_goal_minutes", "480"))

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Week starts on").
				Options(
					huh.NewOption("Monday", "monday"),
					huh.NewOption("Sunday", "sunday"),
				).Value(s.weekStart),
			huh.NewSelect[string]().Title("Default view").
				Options(
					huh.NewOption("Day", "day"),
					huh.NewOption("Week", "week"),
					huh.NewOption("Month", "month"),
				).Value(s.defaultView),
			huh.NewInput().Title("Daily goal (hours)").
				Validate(func(v string) error {
					if h, err := strconv.ParseFloat(v, 64); err != nil || h < 0 || h > 24 {
						return fmt.Errorf("enter hours between 0 and 24")
					}
					return nil
				}).
				Value(s.dailyGoal),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		saved, err := s.saveSettings()
		if err != nil {
			return s, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Settings not saved: %v", err), isError: true}
			}
		}
		return s, tea.Batch(s.refresh(), func() tea.Msg { return saved })
	}

	return s, cmd
}

func (s settingsModel) saveSettings() (settingsSavedMsg, error) {
	values := []store.Setting{
		{Key: "week_start", Value: *s.weekStart},
		{Key: "default_view", Value: *s.defaultView},
		{Key: "daily_goal_minutes", Value: hoursToMinutes(*s.dailyGoal)},
	}
	for _, v := range values {
		if err := s.store.SetSetting(v.Key, v.Value); err != nil {
			return settingsSavedMsg{}, fmt.Errorf("save %s: %w", v.Key, err)
		}
	}

	msg := settingsSavedMsg{weekStart: time.Monday, defaultView: timesheet.Week}
	if *s.weekStart == "sunday" {
		msg.weekStart = time.Sunday
	}
	if g, err := timesheet.ParseGranularity(*s.defaultView); err == nil {
		msg.defaultView = g
	}
	return msg, nil
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		formView := s.form.View()
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", formView),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	if k == "daily_goal_minutes" {
		if mins, err := strconv.Atoi(v); err == nil {
			return timesheet.FormatMinutes(mins)
		}
	}
	return v
}

func minutesToHours(s string) string {
	if mins, err := strconv.Atoi(s); err == nil {
		return strconv.FormatFloat(float64(mins)/60, 'f', -1, 64)
	}
	return s
}

func hoursToMinutes(s string) string {
	if hours, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.Itoa(int(hours*60 + 0.5))
	}
	return s
}
