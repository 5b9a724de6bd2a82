// Package view turns a (dataset, selection) pair into the figure and table
// the dashboard shows. Regeneration is pure: the same inputs always produce
// the same artifact.
package view

import (
	"errors"
	"fmt"
	"strings"

	"gapdash/internal/dataset"
	"gapdash/internal/query"
)

// View identifies one dashboard tab.
type View string

const (
	ViewDataset    View = "Dataset"
	ViewPopulation View = "Population"
	ViewGDP        View = "GDP"
	ViewLife       View = "Life"
	ViewMap        View = "Map"
)

// Views lists the tabs in menu order.
var Views = []View{ViewDataset, ViewPopulation, ViewGDP, ViewLife, ViewMap}

// ErrUnknownView is returned by ParseView.
var ErrUnknownView = errors.New("unknown view")

// Label is the menu text of a view.
func (v View) Label() string {
	switch v {
	case ViewGDP:
		return "GDP per Capita"
	case ViewLife:
		return "Life Expectancy"
	case ViewMap:
		return "Choropleth Map"
	}
	return string(v)
}

// Metric is the ranking metric of a bar-chart view.
func (v View) Metric() (query.Metric, bool) {
	switch v {
	case ViewPopulation:
		return query.Population, true
	case ViewGDP:
		return query.GDPPerCapita, true
	case ViewLife:
		return query.LifeExpectancy, true
	}
	return query.Metric{}, false
}

// ParseView resolves a view id case-insensitively.
func ParseView(s string) (View, error) {
	for _, v := range Views {
		if strings.EqualFold(strings.TrimSpace(s), string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownView, s)
}

// Selection is the set of control values a view is drawn with. Zero values
// mean "not chosen" and are replaced by defaults before querying.
type Selection struct {
	View      View   `json:"view"`
	Continent string `json:"continent,omitempty"`
	Year      int    `json:"year,omitempty"`
	Variable  string `json:"variable,omitempty"`
}

// Options holds the query sizes and fallbacks used by regeneration.
type Options struct {
	TopN            int
	PreviewN        int
	DefaultView     View
	DefaultVariable string
}

// DefaultOptions matches the original dashboard.
func DefaultOptions() Options {
	return Options{
		TopN:            query.RankLimit,
		PreviewN:        query.PreviewLimit,
		DefaultView:     ViewDataset,
		DefaultVariable: dataset.ColLifeExpectancy,
	}
}

// Normalize replaces missing or unknown values with the first available
// option: first continent, first year, the default variable and view.
func Normalize(ds *dataset.Dataset, sel Selection, opts Options) Selection {
	out := sel
	if v, err := ParseView(string(sel.View)); err == nil {
		out.View = v
	} else if opts.DefaultView != "" {
		out.View = opts.DefaultView
	} else {
		out.View = ViewDataset
	}

	if ds != nil {
		if !ds.HasContinent(out.Continent) {
			out.Continent = ""
			if cs := ds.Continents(); len(cs) > 0 {
				out.Continent = cs[0]
			}
		}
		if !ds.HasYear(out.Year) {
			out.Year = 0
			if ys := ds.Years(); len(ys) > 0 {
				out.Year = ys[0]
			}
		}
	}

	if m, err := query.MetricByName(out.Variable); err == nil {
		out.Variable = m.Name
	} else {
		out.Variable = opts.DefaultVariable
		if _, err := query.MetricByName(out.Variable); err != nil {
			out.Variable = dataset.ColLifeExpectancy
		}
	}
	return out
}
