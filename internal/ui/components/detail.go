package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ldi/mission/pkg/models"
)

var (
	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241")).
				Italic(true)

	detailTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("12"))

	scrollbarTrackStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("236"))

	scrollbarHandleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))
)

// TaskDetail renders a single task's full fields in a scrollable viewport.
type TaskDetail struct {
	viewport viewport.Model
	content  string
	ready    bool
	width    int
	height   int
}

func NewTaskDetail(width, height int) *TaskDetail {
	return &TaskDetail{
		viewport: viewport.New(width, height),
		width:    width,
		height:   height,
	}
}

func (d *TaskDetail) SetSize(width, height int) {
	d.width = width
	d.height = height
	vpWidth := width
	if width > 0 {
		vpWidth = width - 1
	}
	if !d.ready {
		d.viewport = viewport.New(vpWidth, height)
		d.viewport.HighPerformanceRendering = false
		d.ready = true
	} else {
		d.viewport.Width = vpWidth
		d.viewport.Height = height
	}
	d.updateContent()
}

// SetTask replaces the viewport content with the given task's fields.
func (d *TaskDetail) SetTask(t *models.Task) {
	var sb strings.Builder

	sb.WriteString(detailTitleStyle.Render(t.Text))
	sb.WriteString("\n\n")

	sb.WriteString(detailLabelStyle.Render("difficulty "))
	sb.WriteString(string(t.Difficulty))
	sb.WriteString("\n")

	sb.WriteString(detailLabelStyle.Render("icon       "))
	sb.WriteString(t.Icon)
	sb.WriteString("\n")

	sb.WriteString(detailLabelStyle.Render("completed  "))
	sb.WriteString(fmt.Sprintf("%v", t.Completed))
	sb.WriteString("\n")

	sb.WriteString(detailLabelStyle.Render("due        "))
	if t.DueDate != nil {
		sb.WriteString(t.DueDate.Local().Format(time.RFC1123))
	} else {
		sb.WriteString("none")
	}
	sb.WriteString("\n")

	if t.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(t.Description)
	}

	d.content = sb.String()
	d.updateContent()
	d.viewport.GotoTop()
}

func (d *TaskDetail) Reset() {
	d.content = ""
	d.updateContent()
}

func (d *TaskDetail) updateContent() {
	width := d.viewport.Width
	content := d.content
	if width > 0 {
		content = detailTextStyle.Copy().Width(width).Render(content)
	} else {
		content = detailTextStyle.Render(content)
	}
	d.viewport.SetContent(content)
}

func (d *TaskDetail) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return cmd
}

func (d *TaskDetail) View() string {
	if !d.ready {
		return ""
	}

	if d.viewport.TotalLineCount() <= d.viewport.Height {
		return d.viewport.View()
	}

	h := d.viewport.Height
	percent := d.viewport.ScrollPercent()

	handlePos := int(float64(h-1) * percent)

	var sb strings.Builder
	for i := 0; i < h; i++ {
		if i == handlePos {
			sb.WriteString(scrollbarHandleStyle.Render("┃"))
		} else {
			sb.WriteString(scrollbarTrackStyle.Render("│"))
		}
		if i < h-1 {
			sb.WriteString("\n")
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, d.viewport.View(), sb.String())
}
