package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	tio "github.com/matzehuels/tabula/pkg/io"
	"github.com/matzehuels/tabula/pkg/series"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// SeriesModel - Interactive series browser
// =============================================================================

// SeriesModel is the bubbletea model of the view command. It lists the
// series; enter opens the points of the selected one, esc goes back.
type SeriesModel struct {
	Series tio.Series
	Cursor int
	Height int
	Offset int

	// Open is the index of the series whose points are shown, or -1.
	Open        int
	PointOffset int
}

// NewSeriesModel creates a browser over s.
func NewSeriesModel(s tio.Series) SeriesModel {
	return SeriesModel{Series: s, Height: 15, Open: -1}
}

func (m SeriesModel) Init() tea.Cmd {
	return nil
}

func (m SeriesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Open >= 0 {
			return m.updatePoints(msg)
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
			if m.Cursor < len(m.Series.Targets)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Series.Targets) > 0 {
				m.Open = m.Cursor
				m.PointOffset = 0
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m SeriesModel) updatePoints(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := m.Series.Targets[m.Open].Len()
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc", "backspace", "left", "h":
		m.Open = -1
	case "up", "k":
		if m.PointOffset > 0 {
			m.PointOffset--
		}
	case "down", "j":
		if m.PointOffset < n-m.Height {
			m.PointOffset++
		}
	}
	return m, nil
}

func (m SeriesModel) View() string {
	if m.Open >= 0 {
		return m.viewPoints()
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Series"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ points  q quit"))
	b.WriteString("\n\n")

	if len(m.Series.Targets) == 0 {
		b.WriteString(listDimStyle.Render("  no series loaded\n"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Series.Targets))
	for i := m.Offset; i < end; i++ {
		t := m.Series.Targets[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		typ := m.Series.Types[t.ID]
		if typ == "" {
			typ = "—"
		}
		line := fmt.Sprintf("%s%-24s %-24s %6d points  %s", cursor, t.ID, listDimStyle.Render(t.IDOrg), t.Len(), typ)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if n := len(m.Series.Categories); n > 0 {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("categories: " + strings.Join(m.Series.Categories, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Series.Targets))))
	return b.String()
}

func (m SeriesModel) viewPoints() string {
	t := m.Series.Targets[m.Open]

	var b strings.Builder
	b.WriteString(StyleTitle.Render(t.ID))
	if t.IDOrg != t.ID {
		b.WriteString(" " + listDimStyle.Render("("+t.IDOrg+")"))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ scroll  esc back  q quit"))
	b.WriteString("\n\n")

	end := min(m.PointOffset+m.Height, t.Len())
	rows := make([][]string, 0, end-m.PointOffset)
	for i := m.PointOffset; i < end; i++ {
		p := t.Values[i]
		rows = append(rows, []string{strconv.Itoa(p.Index), p.X.String(), p.Value.String()})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("index", "x", "value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle.Padding(0, 1)
			case col == 2:
				return StyleNumber.Padding(0, 1)
			default:
				return StyleValue.Padding(0, 1)
			}
		})

	b.WriteString(tbl.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  points %d-%d of %d", min(m.PointOffset+1, end), end, t.Len())))
	return b.String()
}

// summarize returns a one-line description of a series for logs.
func summarize(t series.Target) string {
	if t.Len() == 0 {
		return t.ID + ": empty"
	}
	first, last := t.Values[0], t.Values[t.Len()-1]
	return fmt.Sprintf("%s: %d points, x %s..%s", t.ID, t.Len(), first.X, last.X)
}
