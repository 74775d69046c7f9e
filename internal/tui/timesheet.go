package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/technosprint/timesheet/internal/store"
	"github.com/technosprint/timesheet/internal/timesheet"
)

var errZeroDuration = errors.New("duration must be greater than zero")

type timesheetModel struct {
	store  *store.Store
	svc    *timesheet.Service
	owner  string
	width  int
	height int

	query    timesheet.Query
	data     timesheet.View
	loaded   bool
	loadErr  error
	projects []store.Project
	cursor   int
	loadSeq  *int // shared across copies; only the latest load is applied

	confirmDelete bool

	searching bool
	search    textinput.Model
	searchSeq int

	formActive bool
	form       *huh.Form
	formType   string // "entry", "edit_entry", "filter"
	editingID  string

	// link of the entry being edited, kept while its project text is unchanged
	editingProject   string
	editingProjectID *string

	// Form field pointers (survive value copies)
	formProject     *string
	formDescription *string
	formDate        *string
	formHours       *string
	formMinutes     *string
	formCategory    *string
	formTags        *string
	formProjects    *[]string
	formCategories  *[]string
}

func newTimesheetModel(s *store.Store, svc *timesheet.Service, owner string, g timesheet.Granularity) timesheetModel {
	project, desc, date, hours, minutes, cat, tags := "", "", "", "", "", "", ""
	var projects, categories []string

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search descriptions"
	search.CharLimit = 100

	return timesheetModel{
		store: s,
		svc:   svc,
		owner: owner,
		query: timesheet.Query{
			Reference:   timesheet.DateOf(time.Now()),
			Granularity: g,
		},
		search:          search,
		loadSeq:         new(int),
		formProject:     &project,
		formDescription: &desc,
		formDate:        &date,
		formHours:       &hours,
		formMinutes:     &minutes,
		formCategory:    &cat,
		formTags:        &tags,
		formProjects:    &projects,
		formCategories:  &categories,
	}
}

func (t *timesheetModel) setSize(w, h int) {
	t.width = w
	t.height = h
	t.search.Width = max(20, w-12)
}

// capturing reports whether keystrokes belong to a form or the search box.
func (t timesheetModel) capturing() bool {
	return t.formActive || t.searching
}

type timesheetDataMsg struct {
	seq      int
	data     timesheet.View
	projects []store.Project
	err      error
}

func (t timesheetModel) refresh() tea.Cmd {
	*t.loadSeq++
	seq := *t.loadSeq
	q := t.query
	return func() tea.Msg {
		v, err := t.svc.Load(t.owner, q)
		if err != nil {
			slog.Error("load time entries", "owner", t.owner, "error", err)
			return timesheetDataMsg{seq: seq, err: err}
		}
		projects, err := t.store.ListProjects(false)
		if err != nil {
			slog.Warn("list projects", "error", err)
		}
		return timesheetDataMsg{seq: seq, data: v, projects: projects}
	}
}

// current reports whether msg answers the most recent refresh.
func (t timesheetModel) current(msg timesheetDataMsg) bool {
	return msg.seq == *t.loadSeq
}

// applyFilter re-derives the view from the already loaded entries.
func (t *timesheetModel) applyFilter() {
	t.data = timesheet.BuildView(t.data.Loaded, t.data.Window, t.query.Filter)
	if t.cursor >= len(t.data.Entries) {
		t.cursor = max(0, len(t.data.Entries)-1)
	}
}

func (t timesheetModel) selected() (store.TimeEntry, bool) {
	if t.cursor < 0 || t.cursor >= len(t.data.Entries) {
		return store.TimeEntry{}, false
	}
	return t.data.Entries[t.cursor], true
}

func (t timesheetModel) update(msg tea.Msg) (timesheetModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case timesheetDataMsg:
		if !t.current(msg) {
			return t, nil
		}
		t.loaded = true
		t.loadErr = msg.err
		if msg.err != nil {
			t.data = timesheet.View{}
			return t, nil
		}
		// The filter may have changed while the load was in flight.
		t.data = timesheet.BuildView(msg.data.Loaded, msg.data.Window, t.query.Filter)
		t.projects = msg.projects
		if t.cursor >= len(t.data.Entries) {
			t.cursor = max(0, len(t.data.Entries)-1)
		}
		return t, nil

	case searchTickMsg:
		if msg.seq != t.searchSeq {
			return t, nil
		}
		t.query.Filter.SearchQuery = t.search.Value()
		t.applyFilter()
		return t, nil

	case tea.KeyMsg:
		if t.searching {
			return t.updateSearch(msg)
		}
		if t.confirmDelete {
			return t.updateConfirm(msg)
		}
		return t.updateKeys(msg)
	}
	return t, nil
}

func (t timesheetModel) updateKeys(msg tea.KeyMsg) (timesheetModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(msg, keys.Down):
		if t.cursor < len(t.data.Entries)-1 {
			t.cursor++
		}
	case key.Matches(msg, keys.Left):
		t.query = t.svc.Navigate(t.query, timesheet.Backward)
		t.cursor = 0
		return t, t.refresh()
	case key.Matches(msg, keys.Right):
		t.query = t.svc.Navigate(t.query, timesheet.Forward)
		t.cursor = 0
		return t, t.refresh()
	case key.Matches(msg, keys.Today):
		t.query.Reference = timesheet.DateOf(time.Now())
		t.cursor = 0
		return t, t.refresh()
	case key.Matches(msg, keys.Granularity):
		t.query.Granularity = nextGranularity(t.query.Granularity)
		t.cursor = 0
		return t, t.refresh()
	case key.Matches(msg, keys.New):
		return t.showEntryForm(nil)
	case key.Matches(msg, keys.Edit):
		if e, ok := t.selected(); ok {
			return t.showEntryForm(&e)
		}
	case key.Matches(msg, keys.Delete):
		if _, ok := t.selected(); ok {
			t.confirmDelete = true
		}
	case key.Matches(msg, keys.Search):
		t.searching = true
		t.search.SetValue(t.query.Filter.SearchQuery)
		cmd := t.search.Focus()
		return t, cmd
	case key.Matches(msg, keys.Filter):
		return t.showFilterForm()
	case key.Matches(msg, keys.Clear):
		if !t.query.Filter.IsEmpty() {
			t.query.Filter = timesheet.FilterSpec{}
			t.search.SetValue("")
			t.applyFilter()
		}
	}
	return t, nil
}

func nextGranularity(g timesheet.Granularity) timesheet.Granularity {
	all := timesheet.Granularities
	for i, candidate := range all {
		if candidate == g {
			return all[(i+1)%len(all)]
		}
	}
	return timesheet.Week
}

func (t timesheetModel) updateConfirm(msg tea.KeyMsg) (timesheetModel, tea.Cmd) {
	t.confirmDelete = false
	if !key.Matches(msg, keys.Confirm) {
		return t, nil
	}
	e, ok := t.selected()
	if !ok {
		return t, nil
	}
	if err := t.svc.Remove(e.ID); err != nil {
		return t, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Delete failed: %v", err), isError: true}
		}
	}
	return t, tea.Batch(
		t.refresh(),
		func() tea.Msg { return entrySavedMsg{text: "Entry deleted"} },
	)
}

func (t timesheetModel) updateSearch(msg tea.KeyMsg) (timesheetModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		t.searching = false
		t.search.Blur()
		t.searchSeq++
		t.query.Filter.SearchQuery = t.search.Value()
		t.applyFilter()
		return t, nil
	case tea.KeyEsc:
		t.searching = false
		t.search.Blur()
		t.searchSeq++
		t.search.SetValue("")
		t.query.Filter.SearchQuery = ""
		t.applyFilter()
		return t, nil
	}

	var cmd tea.Cmd
	t.search, cmd = t.search.Update(msg)
	t.searchSeq++
	seq := t.searchSeq
	return t, tea.Batch(cmd, tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg{seq: seq}
	}))
}

// showEntryForm opens the add form, or the edit form when e is set.
func (t timesheetModel) showEntryForm(e *store.TimeEntry) (timesheetModel, tea.Cmd) {
	if e == nil {
		*t.formProject = ""
		*t.formDescription = ""
		*t.formDate = t.defaultEntryDate().Format(store.DateLayout)
		*t.formHours = "1"
		*t.formMinutes = "0"
		*t.formCategory = ""
		*t.formTags = ""
		t.formType = "entry"
		t.editingID = ""
		t.editingProject = ""
		t.editingProjectID = nil
	} else {
		*t.formProject = e.ProjectName
		if *t.formProject == "" {
			*t.formProject = e.LinkedProjectName
		}
		*t.formDescription = e.Description
		*t.formDate = e.Date
		*t.formHours = strconv.Itoa(e.DurationMinutes / 60)
		*t.formMinutes = strconv.Itoa(e.DurationMinutes % 60)
		*t.formCategory = string(e.Category)
		*t.formTags = strings.Join(e.Tags, ", ")
		t.formType = "edit_entry"
		t.editingID = e.ID
		t.editingProject = *t.formProject
		t.editingProjectID = e.ProjectID
	}

	names := make([]string, len(t.projects))
	for i, p := range t.projects {
		names[i] = p.Name
	}
	catOptions := []huh.Option[string]{huh.NewOption("None", "")}
	for _, c := range store.Categories {
		catOptions = append(catOptions, huh.NewOption(string(c), string(c)))
	}

	hours, minutes := t.formHours, t.formMinutes
	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project").
				Description("Pick a project or type any name").
				Suggestions(names).
				Value(t.formProject),
			huh.NewInput().Title("Description").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("description is required")
					}
					return nil
				}).
				Value(t.formDescription),
			huh.NewInput().Title("Date (YYYY-MM-DD)").
				Validate(func(s string) error {
					if _, err := time.Parse(store.DateLayout, strings.TrimSpace(s)); err != nil {
						return errors.New("use YYYY-MM-DD")
					}
					return nil
				}).
				Value(t.formDate),
		),
		huh.NewGroup(
			huh.NewInput().Title("Hours").
				Validate(validateCount).
				Value(hours),
			huh.NewInput().Title("Minutes").
				Validate(func(s string) error {
					if err := validateCount(s); err != nil {
						return err
					}
					total, _ := parseDuration(*hours, s)
					if total <= 0 {
						return errZeroDuration
					}
					return nil
				}).
				Value(minutes),
			huh.NewSelect[string]().Title("Category").Options(catOptions...).Value(t.formCategory),
			huh.NewInput().Title("Tags (comma-separated)").Value(t.formTags),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

// defaultEntryDate is today when today is in view, else the window start.
func (t timesheetModel) defaultEntryDate() time.Time {
	today := timesheet.DateOf(time.Now())
	if t.data.Window.Start.IsZero() || t.data.Window.Contains(today) {
		return today
	}
	return t.data.Window.Start
}

func validateCount(s string) error {
	n, err := atoiOrZero(s)
	if err != nil || n < 0 {
		return errors.New("enter a whole number")
	}
	return nil
}

func (t timesheetModel) showFilterForm() (timesheetModel, tea.Cmd) {
	*t.formProjects = append([]string(nil), t.query.Filter.Projects...)
	*t.formCategories = (*t.formCategories)[:0]
	for _, c := range t.query.Filter.Categories {
		*t.formCategories = append(*t.formCategories, string(c))
	}
	t.formType = "filter"

	var fields []huh.Field
	if opts := t.projectOptions(); len(opts) > 0 {
		fields = append(fields, huh.NewMultiSelect[string]().
			Title("Projects").
			Options(opts...).
			Value(t.formProjects))
	}
	catOptions := make([]huh.Option[string], len(store.Categories))
	for i, c := range store.Categories {
		catOptions[i] = huh.NewOption(string(c), string(c))
	}
	fields = append(fields, huh.NewMultiSelect[string]().
		Title("Categories").
		Options(catOptions...).
		Value(t.formCategories))

	t.form = huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
	t.formActive = true
	return t, t.form.Init()
}

// projectOptions lists the distinct projects of the loaded period, keyed
// the way the filter matches them.
func (t timesheetModel) projectOptions() []huh.Option[string] {
	seen := make(map[string]bool)
	var opts []huh.Option[string]
	for _, e := range t.data.Loaded {
		k := timesheet.ProjectKey(e)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		opts = append(opts, huh.NewOption(timesheet.ProjectLabel(e), k))
	}
	return opts
}

func (t timesheetModel) updateForm(msg tea.Msg) (timesheetModel, tea.Cmd) {
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
		switch t.formType {
		case "filter":
			t.query.Filter.Projects = append([]string(nil), *t.formProjects...)
			t.query.Filter.Categories = nil
			for _, c := range *t.formCategories {
				t.query.Filter.Categories = append(t.query.Filter.Categories, store.Category(c))
			}
			t.applyFilter()
			return t, nil
		case "entry", "edit_entry":
			return t.saveEntry()
		}
	}

	return t, cmd
}

// entryInput builds the store input from the form fields.
func (t timesheetModel) entryInput() (store.EntryInput, error) {
	minutes, err := parseDuration(*t.formHours, *t.formMinutes)
	if err != nil {
		return store.EntryInput{}, fmt.Errorf("invalid duration: %w", err)
	}
	if minutes <= 0 {
		return store.EntryInput{}, errZeroDuration
	}
	in := store.EntryInput{
		OwnerID:         t.owner,
		ProjectName:     strings.TrimSpace(*t.formProject),
		Description:     *t.formDescription,
		Date:            strings.TrimSpace(*t.formDate),
		DurationMinutes: minutes,
		Category:        store.Category(*t.formCategory),
		Tags:            store.ParseTags(*t.formTags),
	}
	if t.editingProjectID != nil && in.ProjectName == strings.TrimSpace(t.editingProject) {
		id := *t.editingProjectID
		in.ProjectID = &id
		return in, nil
	}
	for _, p := range t.projects {
		if p.Name == in.ProjectName {
			id := p.ID
			in.ProjectID = &id
			break
		}
	}
	return in, nil
}

func (t timesheetModel) saveEntry() (timesheetModel, tea.Cmd) {
	in, err := t.entryInput()
	if err != nil {
		return t, func() tea.Msg { return statusMsg{text: err.Error(), isError: true} }
	}

	text := "Entry added"
	if t.formType == "edit_entry" {
		_, err = t.svc.Edit(t.editingID, in)
		text = "Entry updated"
	} else {
		_, err = t.svc.Add(in)
	}
	if err != nil {
		return t, func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Save failed: %v", err), isError: true}
		}
	}
	return t, tea.Batch(
		t.refresh(),
		func() tea.Msg { return entrySavedMsg{text: text} },
	)
}

func (t timesheetModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		title := titleStyle.Render("New Entry")
		switch t.formType {
		case "edit_entry":
			title = titleStyle.Render("Edit Entry")
		case "filter":
			title = titleStyle.Render("Filter Entries")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", t.form.View())
		return panelStyle.Width(w).Render(content)
	}

	rows := []string{t.renderHeader()}
	if t.searching {
		rows = append(rows, t.search.View())
	} else if line := t.filterSummary(); line != "" {
		rows = append(rows, line)
	}
	rows = append(rows, "", t.renderCards(w), "")

	switch {
	case t.loadErr != nil:
		rows = append(rows, errorStyle.Render("Failed to load time entries"))
	case !t.loaded:
		rows = append(rows, mutedStyle.Render("Loading..."))
	case len(t.data.Loaded) == 0:
		rows = append(rows, mutedStyle.Render("No entries for this period"))
	case len(t.data.Entries) == 0:
		rows = append(rows, mutedStyle.Render("No entries match the current filter"))
	default:
		rows = append(rows, t.renderTable(w))
	}

	if t.confirmDelete {
		rows = append(rows, "", warningStyle.Render("Delete this entry? y: confirm  any other key: cancel"))
	} else {
		rows = append(rows, "", mutedStyle.Render("  n: new  e: edit  d: delete  /: search  f: filter  c: clear  g: granularity  ←/→: navigate"))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (t timesheetModel) renderHeader() string {
	var tabs []string
	for _, g := range timesheet.Granularities {
		name := strings.ToUpper(g.String()[:1]) + g.String()[1:]
		if g == t.query.Granularity {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	label := t.data.Label
	if label == "" {
		label = t.svc.Resolver().Resolve(t.query.Reference, t.query.Granularity).Label()
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Timesheet"), "  ",
		lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...), "  ",
		highlightStyle.Render(label),
	)
}

func (t timesheetModel) filterSummary() string {
	f := t.query.Filter
	if f.IsEmpty() {
		return ""
	}
	var parts []string
	if strings.TrimSpace(f.SearchQuery) != "" {
		parts = append(parts, fmt.Sprintf("search %q", f.SearchQuery))
	}
	if n := len(f.Projects); n > 0 {
		parts = append(parts, fmt.Sprintf("%d project(s)", n))
	}
	if n := len(f.Categories); n > 0 {
		parts = append(parts, fmt.Sprintf("%d category(ies)", n))
	}
	return accentStyle.Render("Filtered: "+strings.Join(parts, ", ")) + mutedStyle.Render("  (c: clear)")
}

func (t timesheetModel) renderCards(w int) string {
	st := t.data.Stats
	mostProject, mostCategory := "N/A", "N/A"
	if st.MostActiveProject != nil {
		mostProject = st.MostActiveProject.Label
	}
	if st.MostActiveCategory != nil {
		mostCategory = st.MostActiveCategory.Label
	}

	cardW := max(14, (w-8)/4-3)
	card := func(title, value string) string {
		return cardStyle.Width(cardW).Render(lipgloss.JoinVertical(lipgloss.Left,
			subtitleStyle.Render(title),
			cardValueStyle.Render(truncate(value, cardW-2)),
		))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total", timesheet.FormatMinutes(st.TotalMinutes)),
		card("Entries", strconv.Itoa(st.EntryCount)),
		card("Top project", mostProject),
		card("Top category", mostCategory),
	)
}

func (t timesheetModel) renderTable(w int) string {
	descW := max(12, w-70)
	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-11s %-20s %-*s %9s  %-13s",
		"Date", "Project", descW, "Description", "Duration", "Category")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, descW+60))))

	// Leave room for header, cards and footer lines.
	visible := max(3, t.height-16)
	start := 0
	if t.cursor >= visible {
		start = t.cursor - visible + 1
	}
	end := min(len(t.data.Entries), start+visible)

	for i := start; i < end; i++ {
		e := t.data.Entries[i]
		day := e.Date
		if d, ok := timesheet.EntryDate(e); ok {
			day = d.Format("Mon Jan 02")
		}
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		row := fmt.Sprintf("%s%-11s %-20s %-*s %9s  %-13s",
			cursor,
			day,
			truncate(timesheet.ProjectLabel(e), 20),
			descW, truncate(e.Description, descW),
			timesheet.FormatMinutes(e.DurationMinutes),
			string(e.Category),
		)
		rows = append(rows, style.Render(row))
	}
	if len(t.data.Entries) > end-start {
		rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %d of %d entries", end-start, len(t.data.Entries))))
	}
	return strings.Join(rows, "\n")
}
