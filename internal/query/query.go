// Package query implements the filter-and-rank and choropleth selections
// shared by every dashboard view.
package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gapdash/internal/dataset"
	"gapdash/internal/logging"
)

const (
	// RankLimit is the row count of the ranking views.
	RankLimit = 15
	// PreviewLimit is the row count of the map-table preview.
	PreviewLimit = 50
)

// ErrUnknownMetric is returned by MetricByName.
var ErrUnknownMetric = errors.New("unknown metric")

// Predicate selects records.
type Predicate func(dataset.Record) bool

// All matches every record.
func All(dataset.Record) bool { return true }

// ByYear matches records of one year.
func ByYear(year int) Predicate {
	return func(r dataset.Record) bool { return r.Year == year }
}

// ByContinentYear matches records of one continent and year.
func ByContinentYear(continent string, year int) Predicate {
	return func(r dataset.Record) bool {
		return r.Continent == continent && r.Year == year
	}
}

// And matches records accepted by every predicate.
func And(preds ...Predicate) Predicate {
	return func(r dataset.Record) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Metric is a numeric column that views rank or color by.
type Metric struct {
	Name  string // canonical column label
	Short string // view id used by the original radio list
	Value func(dataset.Record) float64
}

var (
	Population = Metric{
		Name:  dataset.ColPopulation,
		Short: "Population",
		Value: func(r dataset.Record) float64 { return float64(r.Population) },
	}
	GDPPerCapita = Metric{
		Name:  dataset.ColGDPPerCapita,
		Short: "GDP",
		Value: func(r dataset.Record) float64 { return r.GDPPerCapita },
	}
	LifeExpectancy = Metric{
		Name:  dataset.ColLifeExpectancy,
		Short: "Life",
		Value: func(r dataset.Record) float64 { return r.LifeExpectancy },
	}
)

// Metrics lists the selectable variables in dropdown order.
var Metrics = []Metric{Population, GDPPerCapita, LifeExpectancy}

// MetricByName resolves a column label or short view id, case-insensitively.
func MetricByName(name string) (Metric, error) {
	n := strings.TrimSpace(name)
	for _, m := range Metrics {
		if strings.EqualFold(n, m.Name) || strings.EqualFold(n, m.Short) {
			return m, nil
		}
	}
	return Metric{}, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
}

// TopN filters ds by pred, orders the matches by key descending and keeps
// the first n. Ties keep dataset order. A nil key keeps dataset order for
// every row; n <= 0 keeps all matches. No matches yields an empty slice.
func TopN(ds *dataset.Dataset, pred Predicate, key func(dataset.Record) float64, n int) []dataset.Record {
	if pred == nil {
		pred = All
	}
	out := make([]dataset.Record, 0)
	for i := 0; i < ds.Len(); i++ {
		if r := ds.At(i); pred(r) {
			out = append(out, r)
		}
	}
	if key != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return key(out[i]) > key(out[j])
		})
	}
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	logging.QueryDebug("TopN matched %d rows (limit %d)", len(out), n)
	return out
}

// Rank is TopN for a metric within one continent and year.
func Rank(ds *dataset.Dataset, continent string, year int, m Metric, n int) []dataset.Record {
	return TopN(ds, ByContinentYear(continent, year), m.Value, n)
}

// Filter returns the records matching pred in dataset order.
func Filter(ds *dataset.Dataset, pred Predicate) []dataset.Record {
	return TopN(ds, pred, nil, 0)
}
