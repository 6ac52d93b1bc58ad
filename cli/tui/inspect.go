package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// InspectModel is a Bubble Tea model scrolling through journal rows.
type InspectModel struct {
	title   string
	headers []string
	rows    [][]string

	cursor       int
	height       int
	quitting     bool
	directionCol int
}

// NewInspectModel creates an inspect model over pre-formatted rows. A
// DIRECTION column, when present, is styled by traffic direction.
func NewInspectModel(title string, headers []string, rows [][]string) InspectModel {
	directionCol := -1
	for i, h := range headers {
		if h == "DIRECTION" {
			directionCol = i
			break
		}
	}
	return InspectModel{title: title, headers: headers, rows: rows, height: 24, directionCol: directionCol}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(HeaderStyle.Render(strings.Join(m.headers, "  ")))
	b.WriteString("\n")

	// Keep the cursor within the visible window.
	visible := m.height - 8
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := start + visible
	if end > len(m.rows) {
		end = len(m.rows)
	}

	for i := start; i < end; i++ {
		if i == m.cursor {
			b.WriteString(SelectedRowStyle.Render(strings.Join(m.rows[i], "  ")))
			b.WriteString("\n")
			continue
		}
		cells := make([]string, len(m.rows[i]))
		for j, cell := range m.rows[i] {
			if j == m.directionCol {
				cells[j] = DirectionStyle(cell).Render(cell)
			} else {
				cells[j] = RowStyle.Render(cell)
			}
		}
		b.WriteString(strings.Join(cells, "  "))
		b.WriteString("\n")
	}

	help := HelpStyle.Render("↑/↓ scroll · q quit")
	return BoxStyle.Render(b.String()) + "\n" + help
}

// RunInspect runs the journal inspect TUI.
func RunInspect(title string, headers []string, rows [][]string) error {
	p := tea.NewProgram(NewInspectModel(title, headers, rows), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
