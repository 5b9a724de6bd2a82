package view

import (
	"errors"
	"fmt"

	"gapdash/internal/dataset"
	"gapdash/internal/logging"
	"gapdash/internal/query"
)

// Artifact is one rendering of a view: the main figure plus the data table.
// TableFigure is Table drawn as a Plotly table; for a failed artifact it is
// the error table.
type Artifact struct {
	Selection   Selection        `json:"selection"`
	Main        Figure           `json:"main"`
	Table       Table            `json:"table"`
	TableFigure Figure           `json:"table_figure"`
	Records     []dataset.Record `json:"-"`
	Err         string           `json:"error,omitempty"`
}

// Failed reports whether the artifact is the error fallback.
func (a Artifact) Failed() bool {
	return a.Err != ""
}

// Generator regenerates artifacts for one dataset.
type Generator struct {
	ds   *dataset.Dataset
	opts Options
}

// NewGenerator binds a dataset and options. Zero limits fall back to the
// defaults.
func NewGenerator(ds *dataset.Dataset, opts Options) *Generator {
	def := DefaultOptions()
	if opts.TopN <= 0 {
		opts.TopN = def.TopN
	}
	if opts.PreviewN <= 0 {
		opts.PreviewN = def.PreviewN
	}
	if opts.DefaultView == "" {
		opts.DefaultView = def.DefaultView
	}
	if opts.DefaultVariable == "" {
		opts.DefaultVariable = def.DefaultVariable
	}
	return &Generator{ds: ds, opts: opts}
}

// Dataset returns the bound dataset.
func (g *Generator) Dataset() *dataset.Dataset {
	return g.ds
}

// Options returns the effective options.
func (g *Generator) Options() Options {
	return g.opts
}

// Normalize applies the generator's defaults to sel.
func (g *Generator) Normalize(sel Selection) Selection {
	return Normalize(g.ds, sel, g.opts)
}

// Regenerate is shorthand for NewGenerator(ds, DefaultOptions()).Regenerate(sel).
func Regenerate(ds *dataset.Dataset, sel Selection) Artifact {
	return NewGenerator(ds, DefaultOptions()).Regenerate(sel)
}

// Regenerate builds the artifact for sel. It never fails: errors and panics
// become an empty main figure next to a one-cell error table.
func (g *Generator) Regenerate(sel Selection) Artifact {
	art := safeBuild(g, sel, (*Generator).build)
	art.TableFigure = art.Table.Figure()
	return art
}

type buildFunc func(*Generator, Selection) (Artifact, error)

func safeBuild(g *Generator, sel Selection, fn buildFunc) (art Artifact) {
	defer func() {
		if r := recover(); r != nil {
			art = Failure(sel, fmt.Errorf("%v", r))
		}
	}()

	timer := logging.StartTimer(logging.CategoryRender, "regenerate "+string(sel.View))
	defer timer.Stop()

	art, err := fn(g, sel)
	if err != nil {
		return Failure(sel, err)
	}
	return art
}

// Failure is the artifact shown in place of sel when rendering it failed: an
// empty main figure and a one-cell error table.
func Failure(sel Selection, err error) Artifact {
	logging.RenderError("Regeneration failed for %+v: %v", sel, err)
	table := ErrorTable(err)
	return Artifact{
		Selection:   sel,
		Main:        EmptyFigure(),
		Table:       table,
		TableFigure: table.Figure(),
		Err:         err.Error(),
	}
}

var errNoDataset = errors.New("dataset not loaded")

func (g *Generator) build(sel Selection) (Artifact, error) {
	if g == nil || g.ds == nil {
		return Artifact{}, errNoDataset
	}
	sel = g.Normalize(sel)

	switch sel.View {
	case ViewDataset:
		recs := query.Filter(g.ds, query.ByYear(sel.Year))
		table := g.table(recs, 500)
		return Artifact{Selection: sel, Main: table.Figure(), Table: table, Records: recs}, nil

	case ViewPopulation, ViewGDP, ViewLife:
		m, _ := sel.View.Metric()
		recs := query.Rank(g.ds, sel.Continent, sel.Year, m, g.opts.TopN)
		return Artifact{
			Selection: sel,
			Main:      g.barFigure(recs, m, sel),
			Table:     g.table(recs, 320),
			Records:   recs,
		}, nil

	case ViewMap:
		m, err := query.MetricByName(sel.Variable)
		if err != nil {
			return Artifact{}, err
		}
		choro := query.Choropleth(g.ds, sel.Year, m)
		preview := query.TopN(g.ds, query.ByYear(sel.Year), nil, g.opts.PreviewN)
		return Artifact{
			Selection: sel,
			Main:      choroplethFigure(choro),
			Table:     g.table(preview, 300),
			Records:   preview,
		}, nil
	}
	return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownView, sel.View)
}

func (g *Generator) table(recs []dataset.Record, height int) Table {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = g.ds.Cells(r)
	}
	return Table{
		Columns: append([]string(nil), dataset.Columns...),
		Rows:    rows,
		Height:  height,
	}
}

// BarTitle is the chart title of a ranking view.
func BarTitle(n int, m query.Metric, continent string, year int) string {
	return fmt.Sprintf("Top %d %s — %s — %d", n, m.Name, continent, year)
}

// barFigure draws one trace per country so each bar gets its own color and
// legend entry.
func (g *Generator) barFigure(recs []dataset.Record, m query.Metric, sel Selection) Figure {
	traces := make([]Trace, len(recs))
	for i, r := range recs {
		traces[i] = Trace{
			Type:         "bar",
			Name:         r.Country,
			X:            []string{r.Country},
			Y:            []float64{m.Value(r)},
			TextTemplate: "%{y}",
			TextPosition: "auto",
		}
	}
	return Figure{
		Data: traces,
		Layout: Layout{
			Title:        &Title{Text: BarTitle(g.opts.TopN, m, sel.Continent, sel.Year)},
			Height:       500,
			PaperBGColor: paperColor,
			Margin:       &Margin{T: 40},
		},
	}
}

func choroplethFigure(c query.ChoroplethData) Figure {
	mode := "ISO-3"
	if c.Mode == query.LocationCountry {
		mode = "country names"
	}
	return Figure{
		Data: []Trace{{
			Type:         "choropleth",
			Locations:    c.Locations,
			Z:            c.Values,
			LocationMode: mode,
			HoverText:    c.Names,
			ColorScale:   "RdYlBu",
			ColorBar:     &ColorBar{Title: c.Metric.Name},
		}},
		Layout: Layout{
			Title:        &Title{Text: c.Title()},
			Height:       500,
			PaperBGColor: paperColor,
			Margin:       &Margin{T: 40},
		},
	}
}
