// Package tui provides an interactive terminal board for worktrack using Bubble Tea.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/baiirun/worktrack/internal/model"
	"github.com/baiirun/worktrack/internal/policy"
	"github.com/baiirun/worktrack/internal/report"
	"github.com/baiirun/worktrack/internal/tracker"
)

// ViewMode represents the current view state.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewReport
)

// Status icons
const (
	iconPending    = "○"
	iconInProgress = "◐"
	iconCompleted  = "●"
)

const contentPadding = 2

// Model is the Bubble Tea model for the board. The tracker is only touched
// from Update so it never sees concurrent calls.
type Model struct {
	tracker *tracker.Tracker
	session model.Session

	items    []model.WorkItem // visible items after the status filter
	cursor   int
	filter   model.Status // empty shows every status
	viewMode ViewMode
	summary  report.Summary

	width   int
	height  int
	err     error
	fatal   error // ends the program; returned by Run
	message string
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	statusColors = map[model.Status]lipgloss.Color{
		model.StatusPending:    lipgloss.Color("252"),
		model.StatusInProgress: lipgloss.Color("214"),
		model.StatusCompleted:  lipgloss.Color("42"),
	}

	priorityColors = map[model.Priority]lipgloss.Color{
		model.PriorityLow:    lipgloss.Color("245"),
		model.PriorityMedium: lipgloss.Color("39"),
		model.PriorityHigh:   lipgloss.Color("196"),
	}

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	filterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusPending:
		return iconPending
	case model.StatusInProgress:
		return iconInProgress
	case model.StatusCompleted:
		return iconCompleted
	default:
		return "?"
	}
}

// New creates a board for sess.
func New(tr *tracker.Tracker, sess model.Session) Model {
	m := Model{
		tracker:  tr,
		session:  sess,
		viewMode: ViewList,
	}
	m.refresh()
	return m
}

type actionMsg struct {
	message string
	err     error
}

// refresh reloads the collection, picking up changes made by other
// processes, then the visible items, and keeps the cursor in range.
func (m *Model) refresh() {
	if err := m.tracker.Reload(); err != nil {
		m.err = err
		return
	}
	items, err := m.tracker.CurrentVisibleItems(m.session, m.filter)
	if err != nil {
		m.err = err
		return
	}
	m.items = items
	if m.cursor >= len(m.items) {
		m.cursor = max(0, len(m.items)-1)
	}
	if m.viewMode == ViewReport {
		m.loadReport()
	}
}

func (m *Model) loadReport() {
	sum, err := m.tracker.Summarize(m.session)
	if err != nil {
		m.err = err
		m.viewMode = ViewList
		return
	}
	m.summary = sum
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.message = ""
		m.err = nil
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.message = msg.message
		}
		return m, nil
	}

	return m, nil
}

// nextFilter cycles all -> pending -> in-progress -> completed -> all.
func nextFilter(f model.Status) model.Status {
	if f == "" {
		return model.Statuses[0]
	}
	for i, s := range model.Statuses {
		if s == f && i+1 < len(model.Statuses) {
			return model.Statuses[i+1]
		}
	}
	return ""
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.viewMode == ViewReport {
			m.viewMode = ViewList
			return m, nil
		}
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}

	case "g", "home":
		m.cursor = 0

	case "G", "end":
		m.cursor = max(0, len(m.items)-1)

	case "f":
		m.filter = nextFilter(m.filter)
		m.refresh()

	case "0":
		m.filter = ""
		m.refresh()

	case "r":
		if m.viewMode == ViewReport {
			m.viewMode = ViewList
			return m, nil
		}
		if !policy.Allowed(m.session.Role, policy.ActionViewReports) {
			m.message = "Reports are not available for your role"
			return m, nil
		}
		m.viewMode = ViewReport
		m.loadReport()

	case "enter", "a":
		return m.doChange(tracker.Advance())

	case "1":
		return m.doChange(tracker.SetTo(model.StatusPending))
	case "2":
		return m.doChange(tracker.SetTo(model.StatusInProgress))
	case "3":
		return m.doChange(tracker.SetTo(model.StatusCompleted))
	}

	return m, nil
}

func (m Model) selected() (model.WorkItem, bool) {
	if m.viewMode != ViewList || len(m.items) == 0 || m.cursor >= len(m.items) {
		return model.WorkItem{}, false
	}
	return m.items[m.cursor], true
}

func (m Model) doChange(change tracker.StatusChange) (Model, tea.Cmd) {
	item, ok := m.selected()
	if !ok {
		return m, nil
	}
	if change.IsAdvance() && !m.tracker.CanAdvance(m.session, item) {
		m.message = "You can only advance your own unfinished items"
		return m, nil
	}
	if !change.IsAdvance() && !m.tracker.CanSetStatus(m.session, item) {
		m.message = "You cannot set the status of this item"
		return m, nil
	}

	updated, err := m.tracker.UpdateStatus(m.session, item.ID, change)
	m.refresh()
	if err != nil {
		if !tracker.IsRecoverable(err) {
			m.fatal = err
			return m, tea.Quit
		}
		return m, func() tea.Msg { return actionMsg{err: err} }
	}
	text := fmt.Sprintf("%s is now %s", updated.ID, updated.Status)
	return m, func() tea.Msg { return actionMsg{message: text} }
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	switch m.viewMode {
	case ViewList:
		b.WriteString(m.listView())
	case ViewReport:
		b.WriteString(m.reportView())
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	} else if m.message != "" {
		b.WriteString("\n")
		b.WriteString(messageStyle.Render(m.message))
	}

	padStyle := lipgloss.NewStyle().
		PaddingLeft(contentPadding).
		PaddingRight(contentPadding).
		PaddingTop(1)

	return padStyle.Render(b.String())
}

func (m Model) header() string {
	who := dimStyle.Render(fmt.Sprintf("%s (%s)", m.session.Username, m.session.Role))
	return titleStyle.Render("worktrack") + "  " + who
}

func (m Model) listView() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")

	filter := "all"
	if m.filter != "" {
		filter = string(m.filter)
	}
	b.WriteString(filterStyle.Render(fmt.Sprintf("status:%s  %d items", filter, len(m.items))))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(dimStyle.Render("No work items found"))
		b.WriteString("\n")
	}

	for i, item := range m.items {
		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render(formatItemLinePlain(item)))
		} else {
			b.WriteString(formatItemLineStyled(item))
		}
		b.WriteString("\n")
	}

	if item, ok := m.selected(); ok {
		b.WriteString("\n")
		b.WriteString(detailView(item))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m Model) helpLine() string {
	keys := []string{"j/k move", "f filter", "0 all"}
	if policy.Allowed(m.session.Role, policy.ActionUpdateOwnStatus) {
		keys = append(keys, "enter/a advance")
	}
	if policy.Allowed(m.session.Role, policy.ActionUpdateAnyStatus) {
		keys = append(keys, "1/2/3 set status")
	}
	if policy.Allowed(m.session.Role, policy.ActionViewReports) {
		keys = append(keys, "r report")
	}
	keys = append(keys, "q quit")
	return strings.Join(keys, " · ")
}

// formatItemLinePlain returns a plain line for the highlighted row.
func formatItemLinePlain(item model.WorkItem) string {
	return fmt.Sprintf("%s %-40s %-12s %-8s %s", statusIcon(item.Status), truncate(item.Title, 40), item.Status, item.Priority, item.AssignedTo)
}

func formatItemLineStyled(item model.WorkItem) string {
	icon := lipgloss.NewStyle().Foreground(statusColors[item.Status]).Render(statusIcon(item.Status))
	status := lipgloss.NewStyle().Foreground(statusColors[item.Status]).Render(fmt.Sprintf("%-12s", item.Status))
	priority := lipgloss.NewStyle().Foreground(priorityColors[item.Priority]).Render(fmt.Sprintf("%-8s", item.Priority))
	return fmt.Sprintf("%s %-40s %s %s %s", icon, truncate(item.Title, 40), status, priority, dimStyle.Render(item.AssignedTo))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func detailView(item model.WorkItem) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(detailLabelStyle.Render(fmt.Sprintf("%-12s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("ID", item.ID)
	row("Assigned to", item.AssignedTo)
	row("Assigned by", item.AssignedBy)
	row("Updated", item.UpdatedAt.Local().Format("2006-01-02 15:04"))
	if item.Description != "" {
		b.WriteString(dimStyle.Render(item.Description))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) reportView() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	s := m.summary
	b.WriteString(fmt.Sprintf("Total %d  Completed %d  In progress %d  Pending %d  Rate %d%%\n\n",
		s.TotalTasks, s.CompletedTasks, s.InProgressTasks, s.PendingTasks, s.CompletionRate))

	b.WriteString(detailLabelStyle.Render("By status"))
	b.WriteString("\n")
	for _, st := range model.Statuses {
		share := s.ByStatus[st]
		bar := lipgloss.NewStyle().Foreground(statusColors[st]).Render(strings.Repeat("█", int(share.Percent/5)))
		b.WriteString(fmt.Sprintf("  %-12s %3d %s\n", st, share.Count, bar))
	}

	b.WriteString("\n")
	b.WriteString(detailLabelStyle.Render("By priority"))
	b.WriteString("\n")
	for _, p := range model.Priorities {
		share := s.ByPriority[p]
		bar := lipgloss.NewStyle().Foreground(priorityColors[p]).Render(strings.Repeat("█", int(share.Percent/5)))
		b.WriteString(fmt.Sprintf("  %-12s %3d %s\n", p, share.Count, bar))
	}

	if len(s.ByAssignee) > 0 {
		b.WriteString("\n")
		b.WriteString(detailLabelStyle.Render("By assignee"))
		b.WriteString("\n")
		for _, a := range s.ByAssignee {
			b.WriteString(fmt.Sprintf("  %-16s %d/%d done (%d%%)\n", a.Assignee, a.Completed, a.Total, a.CompletionRate))
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("r back · q quit"))
	return b.String()
}

// Run starts the board for sess.
func Run(tr *tracker.Tracker, sess model.Session) error {
	p := tea.NewProgram(New(tr, sess), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.fatal != nil {
		return fm.fatal
	}
	return nil
}
