package dataset

import "sort"

// Dataset is an ordered, read-only collection of records. It is safe for
// concurrent reads; nothing mutates it after construction.
type Dataset struct {
	records    []Record
	nulls      map[string]bool
	continents []string
	years      []int
}

// New builds a Dataset from records. nullColumns names canonical columns
// that were missing in the source and are rendered as empty cells.
func New(records []Record, nullColumns ...string) *Dataset {
	d := &Dataset{
		records: append([]Record(nil), records...),
		nulls:   make(map[string]bool, len(nullColumns)),
	}
	for _, c := range nullColumns {
		d.nulls[c] = true
	}

	seenC := make(map[string]bool)
	seenY := make(map[int]bool)
	for _, r := range d.records {
		if !seenC[r.Continent] {
			seenC[r.Continent] = true
			d.continents = append(d.continents, r.Continent)
		}
		if !seenY[r.Year] {
			seenY[r.Year] = true
			d.years = append(d.years, r.Year)
		}
	}
	sort.Strings(d.continents)
	sort.Ints(d.years)
	return d
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// At returns the i-th record in source order.
func (d *Dataset) At(i int) Record {
	return d.records[i]
}

// Records returns a copy of all records in source order.
func (d *Dataset) Records() []Record {
	return append([]Record(nil), d.records...)
}

// Continents returns the sorted distinct continents.
func (d *Dataset) Continents() []string {
	return append([]string(nil), d.continents...)
}

// Years returns the sorted distinct years.
func (d *Dataset) Years() []int {
	return append([]int(nil), d.years...)
}

// HasContinent reports whether c occurs in the dataset.
func (d *Dataset) HasContinent(c string) bool {
	i := sort.SearchStrings(d.continents, c)
	return i < len(d.continents) && d.continents[i] == c
}

// HasYear reports whether y occurs in the dataset.
func (d *Dataset) HasYear(y int) bool {
	i := sort.SearchInts(d.years, y)
	return i < len(d.years) && d.years[i] == y
}

// IsNull reports whether a canonical column was substituted with nulls.
func (d *Dataset) IsNull(column string) bool {
	return d.nulls[column]
}

// NullColumns returns the substituted columns in canonical order.
func (d *Dataset) NullColumns() []string {
	var out []string
	for _, c := range Columns {
		if d.nulls[c] {
			out = append(out, c)
		}
	}
	return out
}

// Cells renders r in canonical column order, blanking null columns.
func (d *Dataset) Cells(r Record) []string {
	out := make([]string, len(Columns))
	for i, c := range Columns {
		if d.nulls[c] {
			continue
		}
		out[i] = r.Value(c)
	}
	return out
}
