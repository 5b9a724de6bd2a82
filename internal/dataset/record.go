// Package dataset loads the Gapminder table into an immutable, ordered
// collection of country/year records.
package dataset

import "strconv"

// Canonical column names, in table order.
const (
	ColCountry        = "Country"
	ColContinent      = "Continent"
	ColYear           = "Year"
	ColLifeExpectancy = "Life Expectancy"
	ColPopulation     = "Population"
	ColGDPPerCapita   = "GDP per Capita"
	ColISO3           = "ISO-3"
	ColISONumeric     = "ISO Numeric"
)

// Columns lists the canonical columns in the order tables and exports use.
var Columns = []string{
	ColCountry,
	ColContinent,
	ColYear,
	ColLifeExpectancy,
	ColPopulation,
	ColGDPPerCapita,
	ColISO3,
	ColISONumeric,
}

// aliases maps source column names onto canonical ones.
var aliases = map[string]string{
	"country":    ColCountry,
	"continent":  ColContinent,
	"year":       ColYear,
	"lifeExp":    ColLifeExpectancy,
	"pop":        ColPopulation,
	"gdpPercap":  ColGDPPerCapita,
	"iso_alpha":  ColISO3,
	"iso_num":    ColISONumeric,
	"ISO-3":      ColISO3,
	"iso_alpha3": ColISO3,
}

// CanonicalName returns the canonical column for a source header, or "".
func CanonicalName(header string) string {
	if c, ok := aliases[header]; ok {
		return c
	}
	for _, c := range Columns {
		if c == header {
			return c
		}
	}
	return ""
}

// Record is one (Country, Year) observation.
// An empty ISO3 and a zero ISONumeric mean the code is absent.
type Record struct {
	Country        string  `json:"country"`
	Continent      string  `json:"continent"`
	Year           int     `json:"year"`
	LifeExpectancy float64 `json:"life_expectancy"`
	Population     int64   `json:"population"`
	GDPPerCapita   float64 `json:"gdp_per_capita"`
	ISO3           string  `json:"iso3,omitempty"`
	ISONumeric     int     `json:"iso_numeric,omitempty"`
}

// HasISO3 reports whether the record carries an ISO-3 code.
func (r Record) HasISO3() bool {
	return r.ISO3 != ""
}

// Value returns the string form of one canonical column.
func (r Record) Value(column string) string {
	switch column {
	case ColCountry:
		return r.Country
	case ColContinent:
		return r.Continent
	case ColYear:
		return strconv.Itoa(r.Year)
	case ColLifeExpectancy:
		return formatFloat(r.LifeExpectancy)
	case ColPopulation:
		return strconv.FormatInt(r.Population, 10)
	case ColGDPPerCapita:
		return formatFloat(r.GDPPerCapita)
	case ColISO3:
		return r.ISO3
	case ColISONumeric:
		if r.ISONumeric == 0 {
			return ""
		}
		return strconv.Itoa(r.ISONumeric)
	}
	return ""
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
