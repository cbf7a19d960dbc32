package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/nestlayout/pkg/store"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	listOKStyle  = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// RunListModel - Interactive run browser
// =============================================================================

// RunListModel is the bubbletea model for browsing stored runs. Enter opens
// the metrics of the selected run; esc goes back to the list.
type RunListModel struct {
	Runs   []store.Run
	Cursor int
	Height int
	Offset int

	// Detail is true while the selected run's metrics are shown.
	Detail bool
}

// NewRunListModel creates a new run list model.
func NewRunListModel(runs []store.Run) RunListModel {
	return RunListModel{Runs: runs, Height: 15}
}

func (m RunListModel) Init() tea.Cmd {
	return nil
}

func (m RunListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Detail {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "esc", "enter", "backspace":
				m.Detail = false
			}
			return m, nil
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Runs)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Runs) > 0 {
				m.Detail = true
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m RunListModel) View() string {
	if m.Detail {
		return m.detailView()
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Runs"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ metrics  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Runs))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Runs[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		status := "✓"
		if r.Failed {
			status = "✗"
		}
		rows = append(rows, []string{cursor, shortID(r.ID), r.Dataset, describeSettings(r.Settings), status, formatRelativeTime(r.CreatedAt)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Run", "Dataset", "Settings", "OK", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Runs) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 5 {
				base = base.Foreground(colorDim)
			}
			switch {
			case m.Runs[idx].Failed:
				base = base.Foreground(colorDim)
			case col == 4:
				base = base.Foreground(colorGreen)
			}
			if idx == m.Cursor {
				base = base.Bold(true)
				if !m.Runs[idx].Failed && col != 5 {
					base = base.Foreground(colorCyan)
				}
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Runs))))

	return b.String()
}

func (m RunListModel) detailView() string {
	r := m.Runs[m.Cursor]

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Run " + shortID(r.ID)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back  q quit"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s\n", listDimStyle.Render("dataset "), r.Dataset)
	fmt.Fprintf(&b, "%s %s\n", listDimStyle.Render("settings"), describeSettings(r.Settings))
	fmt.Fprintf(&b, "%s %s\n\n", listDimStyle.Render("duration"), r.Duration.Round(time.Millisecond))

	if r.Failed {
		b.WriteString(StyleWarning.Render("layout failed: " + r.Error))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(renderTable([]string{"Metric", "Value"}, reportRows(r.Metrics)))
	b.WriteString("\n")
	b.WriteString(listOKStyle.Render(fmt.Sprintf("  %d metrics", len(r.Metrics))))
	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
