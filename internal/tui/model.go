package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gapdash/internal/export"
	"gapdash/internal/logging"
	"gapdash/internal/query"
	"gapdash/internal/view"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Options configures the terminal dashboard.
type Options struct {
	// ExportDir receives CSV files written with the "e" key.
	ExportDir string
	Styles    *Styles
}

// Model is the bubbletea model of the terminal dashboard.
type Model struct {
	ctrl   *view.Controller
	styles Styles
	table  table.Model

	width  int
	height int

	art       view.Artifact
	status    string
	exportDir string
}

// New builds a model showing the controller's current artifact.
func New(ctrl *view.Controller, opts Options) Model {
	styles := DefaultStyles()
	if opts.Styles != nil {
		styles = *opts.Styles
	}
	dir := opts.ExportDir
	if dir == "" {
		dir = "."
	}
	m := Model{
		ctrl:      ctrl,
		styles:    styles,
		table:     table.New(table.WithFocused(true), table.WithHeight(12)),
		width:     100,
		height:    40,
		exportDir: dir,
	}
	m.setArtifact(ctrl.Current())
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Artifact returns the displayed artifact.
func (m Model) Artifact() view.Artifact {
	return m.art
}

// Status returns the last status line.
func (m Model) Status() string {
	return m.status
}

// Update handles key presses and window resizes.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(m.tableHeight())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "right":
			m.apply(func(s view.Selection) view.Selection { s.View = cycle(view.Views, s.View, 1); return s })
			return m, nil
		case "shift+tab", "left":
			m.apply(func(s view.Selection) view.Selection { s.View = cycle(view.Views, s.View, -1); return s })
			return m, nil
		case "c", "C":
			ds := m.ctrl.Generator().Dataset()
			if ds == nil {
				return m, nil
			}
			step := stepFor(msg.String())
			conts := ds.Continents()
			m.apply(func(s view.Selection) view.Selection { s.Continent = cycle(conts, s.Continent, step); return s })
			return m, nil
		case "y", "Y":
			ds := m.ctrl.Generator().Dataset()
			if ds == nil {
				return m, nil
			}
			step := stepFor(msg.String())
			years := ds.Years()
			m.apply(func(s view.Selection) view.Selection { s.Year = cycle(years, s.Year, step); return s })
			return m, nil
		case "v", "V":
			step := stepFor(msg.String())
			m.apply(func(s view.Selection) view.Selection { s.Variable = cycle(variables(), s.Variable, step); return s })
			return m, nil
		case "e":
			m.exportCSV()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func stepFor(key string) int {
	if key == strings.ToUpper(key) {
		return -1
	}
	return 1
}

func variables() []string {
	out := make([]string, len(query.Metrics))
	for i, m := range query.Metrics {
		out[i] = m.Name
	}
	return out
}

// cycle returns the value step positions after cur, wrapping around. An
// unknown cur starts from the first value.
func cycle[T comparable](values []T, cur T, step int) T {
	if len(values) == 0 {
		return cur
	}
	for i, v := range values {
		if v == cur {
			return values[((i+step)%len(values)+len(values))%len(values)]
		}
	}
	return values[0]
}

func (m *Model) apply(fn func(view.Selection) view.Selection) {
	art := m.ctrl.Update(fn)
	logging.TUIDebug("Selection changed to %+v", art.Selection)
	m.status = ""
	m.setArtifact(art)
}

func (m *Model) setArtifact(art view.Artifact) {
	m.art = art

	widths := make([]int, len(art.Table.Columns))
	for i, c := range art.Table.Columns {
		widths[i] = lipgloss.Width(c)
	}
	rows := make([]table.Row, len(art.Table.Rows))
	for i, r := range art.Table.Rows {
		row := make(table.Row, len(widths))
		for j := range widths {
			if j < len(r) {
				row[j] = r[j]
				if w := lipgloss.Width(r[j]); w > widths[j] {
					widths[j] = w
				}
			}
		}
		rows[i] = row
	}
	cols := make([]table.Column, len(widths))
	for i, c := range art.Table.Columns {
		cols[i] = table.Column{Title: c, Width: widths[i]}
	}

	// columns change between views; clear rows first so no row is drawn
	// against the wrong column set
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	m.table.SetHeight(m.tableHeight())
	m.table.GotoTop()
}

func (m Model) tableHeight() int {
	h := m.height / 3
	if m.art.Selection.View == view.ViewDataset {
		h = m.height - 8
	}
	if h < 5 {
		h = 5
	}
	return h
}

func (m *Model) exportCSV() {
	name := export.FileName(m.art.Selection, export.CSV)
	path := filepath.Join(m.exportDir, name)
	f, err := os.Create(path)
	if err != nil {
		m.status = m.styles.Error.Render("export failed: " + err.Error())
		return
	}
	defer f.Close()
	if err := export.WriteCSV(f, m.art.Table); err != nil {
		m.status = m.styles.Error.Render("export failed: " + err.Error())
		return
	}
	m.status = fmt.Sprintf("wrote %s (%d rows)", path, len(m.art.Table.Rows))
}

// View renders the dashboard.
func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(m.tabs())
	sb.WriteString("\n")
	sb.WriteString(m.controls())
	sb.WriteString("\n\n")

	if m.art.Failed() {
		sb.WriteString(m.styles.Error.Render(m.art.Err))
		sb.WriteString("\n\n")
	} else {
		switch m.art.Selection.View {
		case view.ViewPopulation, view.ViewGDP, view.ViewLife:
			sb.WriteString(BarChart(m.art.Main, m.width, m.styles))
			sb.WriteString("\n")
		case view.ViewMap:
			sb.WriteString(ChoroplethSummary(m.art.Main, 10, m.styles))
			sb.WriteString("\n")
		}
	}

	sb.WriteString(m.table.View())
	sb.WriteString("\n")
	if m.status != "" {
		sb.WriteString(m.status)
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Footer.Render("tab/shift+tab view • c/C continent • y/Y year • v/V variable • e export csv • q quit"))
	return sb.String()
}

func (m Model) tabs() string {
	parts := make([]string, len(view.Views))
	for i, v := range view.Views {
		if v == m.art.Selection.View {
			parts[i] = m.styles.Active.Render(v.Label())
		} else {
			parts[i] = m.styles.Inactive.Render(v.Label())
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) controls() string {
	sel := m.art.Selection
	var items []string
	switch sel.View {
	case view.ViewPopulation, view.ViewGDP, view.ViewLife:
		items = append(items, "Continent: "+m.styles.Bold.Render(sel.Continent))
	case view.ViewMap:
		items = append(items, "Variable: "+m.styles.Bold.Render(sel.Variable))
	}
	items = append(items, fmt.Sprintf("Year: %s", m.styles.Bold.Render(fmt.Sprint(sel.Year))))
	return m.styles.Muted.Render("  ") + strings.Join(items, "   ")
}

// Run starts the terminal dashboard and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, ctrl *view.Controller, opts Options) error {
	unsubscribe := ctrl.Subscribe(func(a view.Artifact) {
		logging.TUIDebug("Rendered %s with %d rows", a.Selection.View, len(a.Table.Rows))
	})
	defer unsubscribe()

	p := tea.NewProgram(New(ctrl, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
