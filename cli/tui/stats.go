package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Stat is one labelled value displayed as a box.
type Stat struct {
	Label string
	Value string
}

// StatsModel is a Bubble Tea model showing summary stat boxes.
type StatsModel struct {
	title    string
	stats    []Stat
	width    int
	quitting bool
}

// NewStatsModel creates a stats model.
func NewStatsModel(title string, stats []Stat) StatsModel {
	return StatsModel{title: title, stats: stats, width: 80}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n\n")

	boxes := make([]string, 0, len(m.stats))
	for _, s := range m.stats {
		box := StatBoxStyle.Render(
			StatValueStyle.Render(s.Value) + "\n" + StatLabelStyle.Render(s.Label),
		)
		boxes = append(boxes, box)
	}

	// Wrap boxes into rows that fit the terminal width.
	perRow := m.width / 24
	if perRow < 1 {
		perRow = 1
	}
	for i := 0; i < len(boxes); i += perRow {
		end := i + perRow
		if end > len(boxes) {
			end = len(boxes)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes[i:end]...))
		b.WriteString("\n")
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return b.String() + help
}

// RunStats runs the journal stats TUI.
func RunStats(title string, stats []Stat) error {
	p := tea.NewProgram(NewStatsModel(title, stats), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
