package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/technosprint/timesheet/internal/store"
	"github.com/technosprint/timesheet/internal/timesheet"
)

type reportsModel struct {
	store  *store.Store
	svc    *timesheet.Service
	owner  string
	width  int
	height int

	query     timesheet.Query
	data      timesheet.View
	totals    []timesheet.DayTotal
	summaries []store.DailySummary
	goal      int // daily goal in minutes

	chart barchart.Model
}

func newReportsModel(s *store.Store, svc *timesheet.Service, owner string) reportsModel {
	return reportsModel{
		store: s,
		svc:   svc,
		owner: owner,
		query: timesheet.Query{
			Reference:   timesheet.DateOf(time.Now()),
			Granularity: timesheet.Week,
		},
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	view      timesheet.View
	summaries []store.DailySummary
	goal      int
	err       error
}

func (r reportsModel) refresh() tea.Cmd {
	q := r.query
	return func() tea.Msg {
		v, err := r.svc.Load(r.owner, q)
		if err != nil {
			return reportsDataMsg{err: err}
		}
		summaries, err := r.store.GetDailySummary(r.owner, v.Window.Start, v.Window.End)
		if err != nil {
			return reportsDataMsg{err: err}
		}
		goal := r.store.SettingInt("daily_goal_minutes", 480)
		return reportsDataMsg{view: v, summaries: summaries, goal: goal}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		if msg.err != nil {
			return r, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Failed to load report: %v", msg.err), isError: true}
			}
		}
		r.data = msg.view
		r.summaries = msg.summaries
		r.goal = msg.goal
		r.totals = timesheet.DailyTotals(msg.view)
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.query = r.svc.Navigate(r.query, timesheet.Backward)
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			r.query = r.svc.Navigate(r.query, timesheet.Forward)
			return r, r.refresh()
		case key.Matches(msg, keys.Today):
			r.query.Reference = timesheet.DateOf(time.Now())
			return r, r.refresh()
		case key.Matches(msg, keys.Granularity):
			if r.query.Granularity == timesheet.Week {
				r.query.Granularity = timesheet.Month
			} else {
				r.query.Granularity = timesheet.Week
			}
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	labelFormat := "Mon 02"
	if r.query.Granularity == timesheet.Month {
		labelFormat = "02"
	}

	var bars []barchart.BarData
	for _, d := range r.totals {
		color := colorPrimary
		if r.goal > 0 && d.Minutes >= r.goal {
			color = colorSuccess
		}
		bars = append(bars, barchart.BarData{
			Label: d.Date.Format(labelFormat),
			Values: []barchart.BarValue{{
				Name:  d.Date.Format(store.DateLayout),
				Value: float64(d.Minutes) / 60.0,
				Style: lipgloss.NewStyle().Foreground(color),
			}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

// goalDays counts the days of the period that reached the daily goal.
func goalDays(totals []timesheet.DayTotal, goal int) int {
	if goal <= 0 {
		return 0
	}
	n := 0
	for _, d := range totals {
		if d.Minutes >= goal {
			n++
		}
	}
	return n
}

func (r reportsModel) view() string {
	w := r.width - 4

	weekTab := inactiveTabStyle.Render("Weekly")
	monthTab := inactiveTabStyle.Render("Monthly")
	if r.query.Granularity == timesheet.Month {
		monthTab = activeTabStyle.Render("Monthly")
	} else {
		weekTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, weekTab, monthTab)

	label := r.data.Label
	if label == "" {
		label = r.svc.Resolver().Resolve(r.query.Reference, r.query.Granularity).Label()
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Reports"), "  ", modeTabs, "  ", mutedStyle.Render(label),
	)

	total := highlightStyle.Render(timesheet.FormatHours(r.data.Stats.TotalMinutes))
	goal := mutedStyle.Render(fmt.Sprintf("goal %s/day met on %d of %d days",
		timesheet.FormatHours(r.goal), goalDays(r.totals, r.goal), len(r.totals)))
	overview := fmt.Sprintf("Total %s  %s", total, goal)

	nav := mutedStyle.Render("  ←/→: navigate  g: week/month  t: today")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", overview, "", r.chart.View(), "",
			r.renderCategories(), "", r.renderSummaryTable(w), "", nav,
		),
	)
}

func (r reportsModel) renderCategories() string {
	if len(r.data.Stats.ByCategory) == 0 {
		return ""
	}
	var items []string
	for _, b := range r.data.Stats.ByCategory {
		items = append(items, fmt.Sprintf("%s %s", b.Label, accentStyle.Render(timesheet.FormatHours(b.Minutes))))
	}
	return "  " + strings.Join(items, "  ")
}

func (r reportsModel) renderSummaryTable(w int) string {
	if len(r.summaries) == 0 {
		return mutedStyle.Render("  No data for this period")
	}

	var rows []string
	headerRow := mutedStyle.Render(fmt.Sprintf("  %-12s %-20s %10s %8s", "Date", "Project", "Duration", "Entries"))
	rows = append(rows, headerRow)
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 54))))

	for _, s := range r.summaries {
		colorDot := lipgloss.NewStyle().Foreground(lipgloss.Color(s.ProjectColor)).Render("●")
		rows = append(rows, fmt.Sprintf("  %-12s %s %-18s %10s %8d",
			s.Date, colorDot, truncate(s.Project, 18), timesheet.FormatMinutes(s.TotalMinutes), s.EntryCount,
		))
	}

	return strings.Join(rows, "\n")
}
