package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	doneBoxStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("42")).
			Padding(0, 1)

	missedBoxStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(0, 1)

	boardHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Padding(0, 1)

	boxTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	boardPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true).
				Padding(0, 1)
)

// BoardEntry is a single task rendered on the board.
type BoardEntry struct {
	Title  string
	Missed bool
}

// TaskBoard renders finished and missed tasks in bordered boxes.
type TaskBoard struct {
	Done   []BoardEntry
	Missed []BoardEntry
	Width  int
	Title  string
}

func NewTaskBoard(width int) *TaskBoard {
	return &TaskBoard{
		Done:   make([]BoardEntry, 0),
		Missed: make([]BoardEntry, 0),
		Width:  width,
		Title:  "Task Board",
	}
}

// Add places an entry on the board, keeping at most limit entries per box.
func (b *TaskBoard) Add(entry BoardEntry, limit int) {
	if entry.Missed {
		b.Missed = b.appendWithLimit(b.Missed, entry, limit)
	} else {
		b.Done = b.appendWithLimit(b.Done, entry, limit)
	}
}

func (b *TaskBoard) appendWithLimit(slice []BoardEntry, entry BoardEntry, limit int) []BoardEntry {
	slice = append(slice, entry)
	if limit > 0 && len(slice) > limit {
		return slice[len(slice)-limit:]
	}
	return slice
}

func (b *TaskBoard) View() string {
	var boxes []string

	if len(b.Done) > 0 {
		boxes = append(boxes, b.renderBox("Done", b.Done, doneBoxStyle, "✓"))
	}

	if len(b.Missed) > 0 {
		boxes = append(boxes, b.renderBox("Missed", b.Missed, missedBoxStyle, "✗"))
	}

	var content string
	if len(boxes) == 0 {
		content = boardPlaceholderStyle.Render("Nothing finished yet")
	} else {
		content = strings.Join(boxes, "\n")
	}

	result := content
	if b.Title != "" {
		result = boardHeaderStyle.Render(b.Title) + "\n" + content
	}
	return result
}

func (b *TaskBoard) renderBox(title string, entries []BoardEntry, style lipgloss.Style, icon string) string {
	boxWidth := b.Width

	boxTitle := boxTitleStyle.Foreground(style.GetForeground()).Render(title)

	innerWidth := boxWidth - 4
	if innerWidth < 0 {
		innerWidth = 0
	}

	var lines []string
	titleWidth := innerWidth - 2
	if titleWidth < 0 {
		titleWidth = 0
	}

	for _, e := range entries {
		wrapped := lipgloss.NewStyle().Width(titleWidth).Render(e.Title)
		wrappedLines := strings.Split(wrapped, "\n")
		for i, line := range wrappedLines {
			if i == 0 {
				lines = append(lines, fmt.Sprintf("%s %s", icon, line))
			} else {
				lines = append(lines, fmt.Sprintf("  %s", line))
			}
		}
	}

	body := strings.Join(lines, "\n")
	return style.Width(boxWidth).Render(boxTitle + "\n" + body)
}
