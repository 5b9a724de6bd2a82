// Package render draws ranking views as static PNG bar charts for
// clients without a JavaScript plotting runtime.
package render

import (
	"errors"
	"fmt"
	"io"

	"gapdash/internal/logging"
	"gapdash/internal/view"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	// ErrNotChartable is returned for views without a bar chart.
	ErrNotChartable = errors.New("view has no bar chart")
	// ErrNoData is returned when the selection matched no rows.
	ErrNoData = errors.New("no rows to chart")
)

const (
	DefaultWidth  = 1200
	DefaultHeight = 500

	// MaxSide caps either dimension; the canvas is width*height RGBA pixels.
	MaxSide = 4096
)

// Size is the PNG canvas size in pixels.
type Size struct {
	Width  int
	Height int
}

// orDefault fills zero or negative sides with the defaults and clamps large
// ones to MaxSide.
func (s Size) orDefault() Size {
	s.Width = side(s.Width, DefaultWidth)
	s.Height = side(s.Height, DefaultHeight)
	return s
}

func side(v, def int) int {
	switch {
	case v <= 0:
		return def
	case v > MaxSide:
		return MaxSide
	}
	return v
}

var paper = drawing.ColorFromHex("e5ecf6")

// BarChart returns the chart for a ranking artifact. The Y range always
// starts at zero so equal values still render.
func BarChart(art view.Artifact, size Size) (chart.BarChart, error) {
	if art.Failed() {
		return chart.BarChart{}, errors.New(art.Err)
	}
	m, ok := art.Selection.View.Metric()
	if !ok {
		return chart.BarChart{}, fmt.Errorf("%w: %s", ErrNotChartable, art.Selection.View)
	}
	if len(art.Records) == 0 {
		return chart.BarChart{}, ErrNoData
	}
	size = size.orDefault()

	bars := make([]chart.Value, len(art.Records))
	max := 0.0
	for i, r := range art.Records {
		v := m.Value(r)
		if v > max {
			max = v
		}
		bars[i] = chart.Value{Label: r.Country, Value: v}
	}
	if max <= 0 {
		max = 1
	}

	// keep the bars inside the canvas for any row count
	slot := (size.Width - 120) / len(bars)
	barWidth := slot * 3 / 4
	if barWidth < 4 {
		barWidth = 4
	}

	title := view.BarTitle(len(art.Records), m, art.Selection.Continent, art.Selection.Year)
	if art.Main.Layout.Title != nil {
		title = art.Main.Layout.Title.Text
	}

	return chart.BarChart{
		Title:      title,
		Width:      size.Width,
		Height:     size.Height,
		BarWidth:   barWidth,
		BarSpacing: slot - barWidth,
		Background: chart.Style{
			FillColor: paper,
			Padding:   chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.Style{FontSize: 8},
		YAxis: chart.YAxis{
			Name:  m.Name,
			Range: &chart.ContinuousRange{Min: 0, Max: max * 1.05},
		},
		Bars: bars,
	}, nil
}

// PNG renders the ranking chart of art to w.
func PNG(w io.Writer, art view.Artifact, size Size) error {
	timer := logging.StartTimer(logging.CategoryRender, "render.PNG")
	defer timer.Stop()

	bc, err := BarChart(art, size)
	if err != nil {
		return err
	}
	if err := bc.Render(chart.PNG, w); err != nil {
		logging.RenderError("Bar chart render failed: %v", err)
		return fmt.Errorf("render bar chart: %w", err)
	}
	logging.RenderDebug("Rendered %d bars for %s", len(bc.Bars), art.Selection.View)
	return nil
}
