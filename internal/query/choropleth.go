package query

import (
	"fmt"

	"gapdash/internal/dataset"
)

// LocationMode says how choropleth locations are matched to map shapes.
type LocationMode string

const (
	LocationISO3    LocationMode = "ISO-3"
	LocationCountry LocationMode = "country names"
)

// ChoroplethData is the per-year selection behind the map view.
type ChoroplethData struct {
	Year      int
	Metric    Metric
	Mode      LocationMode
	Records   []dataset.Record
	Locations []string
	Values    []float64
	Names     []string
}

// Title is the figure title for the map.
func (c ChoroplethData) Title() string {
	return fmt.Sprintf("%s Choropleth — %d", c.Metric.Name, c.Year)
}

// Choropleth selects every record of year. The location key is ISO-3 when
// any of those records carries a code, otherwise the country name. The choice
// is made on each call because coverage can differ between years.
func Choropleth(ds *dataset.Dataset, year int, m Metric) ChoroplethData {
	recs := Filter(ds, ByYear(year))

	mode := LocationCountry
	for _, r := range recs {
		if r.HasISO3() {
			mode = LocationISO3
			break
		}
	}

	c := ChoroplethData{
		Year:      year,
		Metric:    m,
		Mode:      mode,
		Records:   recs,
		Locations: make([]string, len(recs)),
		Values:    make([]float64, len(recs)),
		Names:     make([]string, len(recs)),
	}
	for i, r := range recs {
		if mode == LocationISO3 {
			c.Locations[i] = r.ISO3
		} else {
			c.Locations[i] = r.Country
		}
		c.Values[i] = m.Value(r)
		c.Names[i] = r.Country
	}
	return c
}
