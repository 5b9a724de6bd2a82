package tui

import (
	"strconv"
	"strings"

	"gapdash/internal/view"

	"github.com/charmbracelet/lipgloss"
)

// SimpleTable renders static rows with aligned columns, for non-interactive
// output such as the query command.
type SimpleTable struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// NewSimpleTable creates a SimpleTable with the given title and headers.
func NewSimpleTable(title string, headers []string) *SimpleTable {
	return &SimpleTable{Title: title, Headers: headers}
}

// FromTable wraps a view table.
func FromTable(title string, t view.Table) *SimpleTable {
	st := NewSimpleTable(title, t.Columns)
	for _, r := range t.Rows {
		st.AddRow(r...)
	}
	return st
}

// AddRow adds a row to the table.
func (t *SimpleTable) AddRow(row ...string) {
	t.Rows = append(t.Rows, row)
}

// View renders the table. Columns whose cells are all numeric are
// right-aligned. An empty table renders its header only.
func (t *SimpleTable) View(styles Styles) string {
	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	widths := t.columnWidths()
	numeric := t.numericColumns()
	sep := styles.Muted.Render("|")

	for i, h := range t.Headers {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(cellStyle(styles.Bold, widths[i], numeric[i]).Render(h))
	}
	sb.WriteString("\n")

	ruleWidth := len(t.Headers) - 1
	for _, w := range widths {
		ruleWidth += w
	}
	sb.WriteString(styles.Muted.Render(strings.Repeat("-", max(ruleWidth, 0))))
	sb.WriteString("\n")

	for _, row := range t.Rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if i > 0 {
				sb.WriteString(sep)
			}
			sb.WriteString(cellStyle(styles.Body, widths[i], numeric[i]).Render(row[i]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// columnWidths is the widest cell per column plus one space of padding on
// each side.
func (t *SimpleTable) columnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}
	for i := range widths {
		widths[i] += 2
	}
	return widths
}

// numericColumns reports, per column, whether every non-empty cell parses as
// a number. Null cells do not count against it.
func (t *SimpleTable) numericColumns() []bool {
	numeric := make([]bool, len(t.Headers))
	for i := range numeric {
		seen := false
		numeric[i] = true
		for _, row := range t.Rows {
			if i >= len(row) || row[i] == "" {
				continue
			}
			if _, err := strconv.ParseFloat(row[i], 64); err != nil {
				numeric[i] = false
				break
			}
			seen = true
		}
		numeric[i] = numeric[i] && seen
	}
	return numeric
}

func cellStyle(base lipgloss.Style, width int, right bool) lipgloss.Style {
	st := base.Padding(0, 1).Width(width)
	if right {
		return st.Align(lipgloss.Right)
	}
	return st
}
