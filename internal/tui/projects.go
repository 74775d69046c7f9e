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

var projectColors = []string{"#6C63FF", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

var taskStatusLabels = map[store.TaskStatus]string{
	store.TaskTodo:       "To do",
	store.TaskInProgress: "In progress",
	store.TaskReview:     "Review",
	store.TaskDone:       "Done",
}

type projectsModel struct {
	store  *store.Store
	width  int
	height int

	projects     []store.Project
	tasks        []store.Task
	members      []store.TeamMember
	cursor       int
	taskCursor   int
	showArchived bool
	viewingTasks bool // true = viewing tasks of selected project

	formActive bool
	form       *huh.Form
	formType   string // "project", "task", "edit_project"

	// Form field pointers (survive value copies)
	formName           *string
	formTeam           *string
	formClient         *string
	formClientCategory *string
	formStatus         *string
	formColor          *string
	formDescription    *string

	editingID string // project ID being edited
}

func newProjectsModel(s *store.Store) projectsModel {
	name, team, client, clientCat, status, color, desc := "", "", "", "", "", projectColors[0], ""
	return projectsModel{
		store:              s,
		formName:           &name,
		formTeam:           &team,
		formClient:         &client,
		formClientCategory: &clientCat,
		formStatus:         &status,
		formColor:          &color,
		formDescription:    &desc,
	}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type projectsDataMsg struct {
	projects []store.Project
}

type tasksDataMsg struct {
	tasks   []store.Task
	members []store.TeamMember
}

func (p projectsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		projects, err := p.store.ListProjects(p.showArchived)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Failed to load projects: %v", err), isError: true}
		}
		return projectsDataMsg{projects: projects}
	}
}

func (p projectsModel) refreshTasks() tea.Cmd {
	if p.cursor >= len(p.projects) {
		return nil
	}
	pid := p.projects[p.cursor].ID
	return func() tea.Msg {
		tasks, err := p.store.ListTasks(pid, false)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Failed to load tasks: %v", err), isError: true}
		}
		members, _ := p.store.ListProjectMembers(pid)
		return tasksDataMsg{tasks: tasks, members: members}
	}
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case projectsDataMsg:
		p.projects = msg.projects
		if p.cursor >= len(p.projects) {
			p.cursor = max(0, len(p.projects)-1)
		}
		return p, nil

	case tasksDataMsg:
		p.tasks = msg.tasks
		p.members = msg.members
		if p.taskCursor >= len(p.tasks) {
			p.taskCursor = max(0, len(p.tasks)-1)
		}
		return p, nil

	case tea.KeyMsg:
		if p.viewingTasks {
			return p.updateTaskView(msg)
		}
		return p.updateProjectList(msg)
	}
	return p, nil
}

func (p projectsModel) updateProjectList(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.projects)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(p.projects) > 0 {
			p.viewingTasks = true
			p.taskCursor = 0
			return p, p.refreshTasks()
		}
	case key.Matches(msg, keys.New):
		return p.showProjectForm(nil)
	case key.Matches(msg, keys.Edit):
		if len(p.projects) > 0 {
			proj := p.projects[p.cursor]
			return p.showProjectForm(&proj)
		}
	case key.Matches(msg, keys.Delete):
		if len(p.projects) > 0 {
			proj := p.projects[p.cursor]
			if err := p.store.ArchiveProject(proj.ID); err != nil {
				return p, func() tea.Msg {
					return statusMsg{text: fmt.Sprintf("Archive failed: %v", err), isError: true}
				}
			}
			return p, p.refresh()
		}
	}
	return p, nil
}

func (p projectsModel) updateTaskView(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		p.viewingTasks = false
		return p, nil
	case key.Matches(msg, keys.Up):
		if p.taskCursor > 0 {
			p.taskCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.taskCursor < len(p.tasks)-1 {
			p.taskCursor++
		}
	case key.Matches(msg, keys.New):
		return p.showNewTaskForm()
	case key.Matches(msg, keys.Status):
		if len(p.tasks) > 0 {
			task := p.tasks[p.taskCursor]
			if err := p.store.SetTaskStatus(task.ID, task.Status.Next()); err != nil {
				return p, func() tea.Msg {
					return statusMsg{text: fmt.Sprintf("Status change failed: %v", err), isError: true}
				}
			}
			return p, p.refreshTasks()
		}
	case key.Matches(msg, keys.Delete):
		if len(p.tasks) > 0 {
			task := p.tasks[p.taskCursor]
			p.store.ArchiveTask(task.ID)
			return p, p.refreshTasks()
		}
	}
	return p, nil
}

// showProjectForm opens the new project form, or the edit form when proj
// is set.
func (p projectsModel) showProjectForm(proj *store.Project) (projectsModel, tea.Cmd) {
	if proj == nil {
		*p.formName = ""
		*p.formTeam = store.Teams[0]
		*p.formClient = ""
		*p.formClientCategory = ""
		*p.formStatus = string(store.StatusOngoing)
		*p.formColor = projectColors[0]
		*p.formDescription = ""
		p.formType = "project"
		p.editingID = ""
	} else {
		*p.formName = proj.Name
		*p.formTeam = proj.Team
		*p.formClient = proj.ClientName
		*p.formClientCategory = proj.ClientCategory
		*p.formStatus = string(proj.Status)
		*p.formColor = proj.Color
		*p.formDescription = proj.Description
		p.formType = "edit_project"
		p.editingID = proj.ID
	}

	teamOptions := []huh.Option[string]{huh.NewOption("None", "")}
	for _, t := range store.Teams {
		teamOptions = append(teamOptions, huh.NewOption(t, t))
	}
	clientOptions := []huh.Option[string]{huh.NewOption("None", "")}
	for _, c := range store.ClientCategories {
		clientOptions = append(clientOptions, huh.NewOption(c, c))
	}
	colorOptions := make([]huh.Option[string], len(projectColors))
	for i, c := range projectColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(p.formName),
			huh.NewSelect[string]().Title("Team").Options(teamOptions...).Value(p.formTeam),
			huh.NewSelect[string]().Title("Status").
				Options(
					huh.NewOption("Ongoing", string(store.StatusOngoing)),
					huh.NewOption("Completed", string(store.StatusCompleted)),
				).Value(p.formStatus),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(p.formColor),
		),
		huh.NewGroup(
			huh.NewInput().Title("Client").Value(p.formClient),
			huh.NewSelect[string]().Title("Client category").Options(clientOptions...).Value(p.formClientCategory),
			huh.NewText().Title("Description").Value(p.formDescription),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showNewTaskForm() (projectsModel, tea.Cmd) {
	*p.formName = ""
	*p.formDescription = ""
	p.formType = "task"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task Title").Value(p.formName),
			huh.NewText().Title("Description").Value(p.formDescription),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

// projectInput builds the store input from the form, keeping the fields
// the form does not show when editing.
func (p projectsModel) projectInput() store.ProjectInput {
	in := store.ProjectInput{}
	if p.formType == "edit_project" {
		for _, proj := range p.projects {
			if proj.ID == p.editingID {
				in.ClientDomain = proj.ClientDomain
				in.StartDate = proj.StartDate
				in.EndDate = proj.EndDate
				break
			}
		}
	}
	in.Name = *p.formName
	in.Team = *p.formTeam
	in.ClientName = strings.TrimSpace(*p.formClient)
	in.ClientCategory = *p.formClientCategory
	in.Status = store.ProjectStatus(*p.formStatus)
	in.Color = *p.formColor
	in.Description = strings.TrimSpace(*p.formDescription)
	return in
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	// Check for escape to cancel form
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		var err error
		switch p.formType {
		case "project":
			if strings.TrimSpace(*p.formName) != "" {
				_, err = p.store.CreateProject(p.projectInput())
			}
		case "edit_project":
			if strings.TrimSpace(*p.formName) != "" {
				err = p.store.UpdateProject(p.editingID, p.projectInput())
			}
		case "task":
			if strings.TrimSpace(*p.formName) != "" && p.cursor < len(p.projects) {
				_, err = p.store.CreateTask(p.projects[p.cursor].ID, *p.formName, strings.TrimSpace(*p.formDescription))
			}
			if err != nil {
				return p, func() tea.Msg { return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true} }
			}
			return p, p.refreshTasks()
		}
		if err != nil {
			return p, func() tea.Msg { return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true} }
		}
		return p, p.refresh()
	}

	return p, cmd
}

func (p projectsModel) view() string {
	if p.formActive && p.form != nil {
		title := titleStyle.Render("New Project")
		if p.formType == "edit_project" {
			title = titleStyle.Render("Edit Project")
		} else if p.formType == "task" {
			title = titleStyle.Render("New Task")
		}
		formView := p.form.View()
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", formView)
		return panelStyle.Width(p.width - 4).Render(content)
	}

	if p.viewingTasks {
		return p.renderTaskView()
	}
	return p.renderProjectList()
}

func (p projectsModel) renderProjectList() string {
	w := p.width - 4
	title := titleStyle.Render("Projects")

	if len(p.projects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No projects yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	// Table header
	header := mutedStyle.Render(fmt.Sprintf("  %-3s %-24s %-10s %-20s %-10s", "", "Name", "Team", "Client", "Status"))
	rows = append(rows, header)

	for i, proj := range p.projects {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(proj.Color)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		status := string(proj.Status)
		if proj.Status == store.StatusCompleted {
			status = successStyle.Render(status)
		}
		row := style.Render(fmt.Sprintf("%s%s %-24s %-10s %-20s ", cursor, colorDot,
			truncate(proj.Name, 24), proj.Team, truncate(proj.ClientName, 20))) + status
		rows = append(rows, row)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  e: edit  d: archive  enter: tasks"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (p projectsModel) renderTaskView() string {
	w := p.width - 4
	proj := p.projects[p.cursor]
	colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(proj.Color)).Render("●")
	title := titleStyle.Render(fmt.Sprintf("%s %s: Tasks", colorDot, proj.Name))

	var rows []string
	rows = append(rows, title)
	if len(p.members) > 0 {
		names := make([]string, len(p.members))
		for i, m := range p.members {
			names[i] = m.Name
		}
		rows = append(rows, mutedStyle.Render("Members: "+strings.Join(names, ", ")))
	}
	rows = append(rows, "")

	if len(p.tasks) == 0 {
		rows = append(rows, mutedStyle.Render("No tasks. Press n to add one."))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	for i, task := range p.tasks {
		cursor := "  "
		style := normalItemStyle
		if i == p.taskCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		status := mutedStyle.Render(fmt.Sprintf(" [%s]", taskStatusLabels[task.Status]))
		if task.Status == store.TaskDone {
			status = successStyle.Render(fmt.Sprintf(" [%s]", taskStatusLabels[task.Status]))
		}
		rows = append(rows, style.Render(fmt.Sprintf("%s%s", cursor, task.Title))+status)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new task  space: next status  d: archive  esc: back"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
