package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/technosprint/timesheet/internal/store"
)

type teamModel struct {
	store  *store.Store
	width  int
	height int

	members []store.TeamMember
	cursor  int

	formActive bool
	form       *huh.Form

	formName        *string
	formRole        *string
	formDesignation *string
	formTeam        *string
	formEmail       *string
	formLeadership  *bool
}

func newTeamModel(s *store.Store) teamModel {
	name, role, designation, team, email := "", "", "", "", ""
	leadership := false
	return teamModel{
		store:           s,
		formName:        &name,
		formRole:        &role,
		formDesignation: &designation,
		formTeam:        &team,
		formEmail:       &email,
		formLeadership:  &leadership,
	}
}

func (t *teamModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type teamDataMsg struct {
	members []store.TeamMember
}

func (t teamModel) refresh() tea.Cmd {
	return func() tea.Msg {
		members, err := t.store.ListMembers("")
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Failed to load team: %v", err), isError: true}
		}
		return teamDataMsg{members: members}
	}
}

func (t teamModel) update(msg tea.Msg) (teamModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case teamDataMsg:
		t.members = msg.members
		if t.cursor >= len(t.members) {
			t.cursor = max(0, len(t.members)-1)
		}
		return t, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(t.members)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.New):
			return t.showForm()
		case key.Matches(msg, keys.Delete):
			if len(t.members) > 0 {
				if err := t.store.DeleteMember(t.members[t.cursor].ID); err != nil {
					return t, func() tea.Msg {
						return statusMsg{text: fmt.Sprintf("Remove failed: %v", err), isError: true}
					}
				}
				return t, t.refresh()
			}
		}
	}
	return t, nil
}

func (t teamModel) showForm() (teamModel, tea.Cmd) {
	*t.formName = ""
	*t.formRole = ""
	*t.formDesignation = ""
	*t.formTeam = store.Teams[0]
	*t.formEmail = ""
	*t.formLeadership = false

	teamOptions := make([]huh.Option[string], len(store.Teams))
	for i, team := range store.Teams {
		teamOptions[i] = huh.NewOption(team, team)
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(t.formName),
			huh.NewInput().Title("Role").Value(t.formRole),
			huh.NewInput().Title("Designation").Value(t.formDesignation),
			huh.NewSelect[string]().Title("Team").Options(teamOptions...).Value(t.formTeam),
			huh.NewInput().Title("Email").Value(t.formEmail),
			huh.NewConfirm().Title("Leadership?").Value(t.formLeadership),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t teamModel) updateForm(msg tea.Msg) (teamModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		if strings.TrimSpace(*t.formName) == "" {
			return t, nil
		}
		_, err := t.store.CreateMember(store.TeamMember{
			Name:         *t.formName,
			Role:         strings.TrimSpace(*t.formRole),
			Designation:  strings.TrimSpace(*t.formDesignation),
			Team:         *t.formTeam,
			Email:        strings.TrimSpace(*t.formEmail),
			IsLeadership: *t.formLeadership,
		})
		if err != nil {
			return t, func() tea.Msg { return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true} }
		}
		return t, t.refresh()
	}

	return t, cmd
}

func (t teamModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := titleStyle.Render("New Team Member")
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", t.form.View()))
	}

	title := titleStyle.Render("Team")
	if len(t.members) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No team members yet. Press n to add one."),
		))
	}

	rows := []string{title}
	currentTeam := "\x00"
	for i, m := range t.members {
		if m.Team != currentTeam {
			currentTeam = m.Team
			name := m.Team
			if name == "" {
				name = "Unassigned"
			}
			rows = append(rows, "", highlightStyle.Render(name))
		}
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		badge := ""
		if m.IsLeadership {
			badge = accentStyle.Render(" ★")
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%-24s %-20s %s",
			cursor, truncate(m.Name, 24), truncate(m.Designation, 20), m.Email))+badge)
	}

	rows = append(rows, "", mutedStyle.Render("  n: add member  d: remove"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
