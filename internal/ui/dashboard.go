package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ldi/mission/internal/lifecycle"
	"github.com/ldi/mission/internal/tracker"
	"github.com/ldi/mission/internal/ui/components"
	"github.com/ldi/mission/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tabStyle    = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTab   = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("12")).Underline(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Strikethrough(true)
	missedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	badgeStyles = map[models.Difficulty]lipgloss.Style{
		models.DifficultyVeryEasy:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.DifficultyEasy:      lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
		models.DifficultyMedium:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		models.DifficultyTough:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		models.DifficultyVeryTough: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

var dashboardFilters = []lifecycle.Filter{
	lifecycle.FilterAll,
	lifecycle.FilterPending,
	lifecycle.FilterActive,
	lifecycle.FilterCompleted,
	lifecycle.FilterMissed,
}

type dashboardMode int

const (
	modeList dashboardMode = iota
	modeAdd
	modeDetail
)

// DashboardModel is the interactive task list.
type DashboardModel struct {
	tracker *tracker.Tracker

	filter    int
	tasks     []*models.Task
	cursor    int
	mode      dashboardMode
	input     textinput.Model
	detail    *components.TaskDetail
	width     int
	height    int
	statusErr string
	quitting  bool
}

func NewDashboardModel(tr *tracker.Tracker) DashboardModel {
	input := textinput.New()
	input.Placeholder = "what needs doing?"
	input.CharLimit = 500

	m := DashboardModel{
		tracker: tr,
		input:   input,
		detail:  components.NewTaskDetail(80, 20),
	}
	m.reload()
	return m
}

func (m *DashboardModel) reload() {
	m.tasks = m.tracker.List(dashboardFilters[m.filter])
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m DashboardModel) Init() tea.Cmd {
	return nil
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeDetail:
			return m.updateDetail(msg)
		default:
			return m.updateList(msg)
		}
	}

	return m, nil
}

func (m DashboardModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.statusErr = ""

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}

	case "tab", "right", "l":
		m.filter = (m.filter + 1) % len(dashboardFilters)
		m.cursor = 0
		m.reload()

	case "shift+tab", "left", "h":
		m.filter = (m.filter + len(dashboardFilters) - 1) % len(dashboardFilters)
		m.cursor = 0
		m.reload()

	case " ":
		if t := m.current(); t != nil {
			if _, err := m.tracker.Toggle(context.Background(), t.ID); err != nil {
				m.statusErr = err.Error()
			}
			m.reload()
		}

	case "d":
		if t := m.current(); t != nil {
			if err := m.tracker.Delete(context.Background(), t.ID); err != nil {
				m.statusErr = err.Error()
			}
			m.reload()
		}

	case "a":
		m.mode = modeAdd
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink

	case "enter":
		if t := m.current(); t != nil {
			m.detail.SetTask(t)
			m.mode = modeDetail
		}
	}

	return m, nil
}

func (m DashboardModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.input.Blur()
		return m, nil

	case "enter":
		if _, err := m.tracker.Add(context.Background(), m.input.Value(), "", nil); err != nil {
			m.statusErr = err.Error()
		}
		m.mode = modeList
		m.input.Blur()
		m.cursor = 0
		m.reload()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m DashboardModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q":
		m.mode = modeList
		return m, nil
	}

	cmd := m.detail.Update(msg)
	return m, cmd
}

func (m DashboardModel) current() *models.Task {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return nil
	}
	return m.tasks[m.cursor]
}

func (m DashboardModel) View() string {
	if m.quitting {
		return ""
	}

	if m.mode == modeDetail {
		return m.detail.View() + "\n" + helpStyle.Render("(esc to go back)") + "\n"
	}

	var s strings.Builder

	counts := m.tracker.Counts()
	s.WriteString(headerStyle.Render("mission"))
	s.WriteString("  ")
	s.WriteString(countStyle.Render(fmt.Sprintf("%d tasks · %d pending · %d completed · %d missed",
		counts.Total, counts.Pending, counts.Completed, counts.Missed)))
	s.WriteString("\n\n")

	for i, f := range dashboardFilters {
		if i == m.filter {
			s.WriteString(activeTab.Render(string(f)))
		} else {
			s.WriteString(tabStyle.Render(string(f)))
		}
	}
	s.WriteString("\n\n")

	now := time.Now()
	if len(m.tasks) == 0 {
		s.WriteString(helpStyle.Render("  nothing here"))
		s.WriteString("\n")
	}
	for i, t := range m.tasks {
		if m.cursor == i {
			s.WriteString(cursorStyle.Render("> "))
		} else {
			s.WriteString("  ")
		}
		s.WriteString(m.renderTask(t, now))
		s.WriteString("\n")
	}

	if m.mode == modeAdd {
		s.WriteString("\n")
		s.WriteString(m.input.View())
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("(enter to add, esc to cancel)"))
		s.WriteString("\n")
	} else {
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("(space toggle · enter detail · a add · d delete · tab filter · q quit)"))
		s.WriteString("\n")
	}

	if m.statusErr != "" {
		s.WriteString(errStyle.Render(m.statusErr))
		s.WriteString("\n")
	}

	return s.String()
}

func (m DashboardModel) renderTask(t *models.Task, now time.Time) string {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}

	badge := string(t.Difficulty)
	if style, ok := badgeStyles[t.Difficulty]; ok {
		badge = style.Render(badge)
	}

	title := t.Text
	switch {
	case t.Completed:
		title = doneStyle.Render(title)
	case lifecycle.IsMissed(t, now):
		title = missedStyle.Render(title)
	}

	line := fmt.Sprintf("%s %s  %s", check, title, badge)
	if t.DueDate != nil {
		line += dueStyle.Render(fmt.Sprintf("  due %s", t.DueDate.Local().Format("2006-01-02 15:04")))
	}
	return line
}

// RunDashboard starts the interactive task list.
func RunDashboard(tr *tracker.Tracker) error {
	p := tea.NewProgram(NewDashboardModel(tr), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
