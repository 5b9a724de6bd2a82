package view

// Figure is a Plotly figure description. The browser hands it straight to
// Plotly.newPlot; the server never draws it.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is the subset of Plotly trace attributes the dashboard uses.
type Trace struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`

	// bar
	X            []string    `json:"x,omitempty"`
	Y            []float64   `json:"y,omitempty"`
	TextTemplate string      `json:"texttemplate,omitempty"`
	TextPosition string      `json:"textposition,omitempty"`
	Marker       *MarkerSpec `json:"marker,omitempty"`

	// choropleth
	Locations    []string  `json:"locations,omitempty"`
	Z            []float64 `json:"z,omitempty"`
	LocationMode string    `json:"locationmode,omitempty"`
	HoverText    []string  `json:"hovertext,omitempty"`
	ColorScale   string    `json:"colorscale,omitempty"`
	ColorBar     *ColorBar `json:"colorbar,omitempty"`

	// table
	Header *TableSpec `json:"header,omitempty"`
	Cells  *TableSpec `json:"cells,omitempty"`
}

// ColorBar titles a choropleth scale.
type ColorBar struct {
	Title string `json:"title,omitempty"`
}

// MarkerSpec colors bars.
type MarkerSpec struct {
	Color string `json:"color,omitempty"`
}

// TableSpec is the header or cell block of a table trace. Values are
// column-major, as Plotly expects.
type TableSpec struct {
	Values [][]string `json:"values"`
	Align  string     `json:"align,omitempty"`
	Fill   *Fill      `json:"fill,omitempty"`
}

// Fill is a background color.
type Fill struct {
	Color string `json:"color"`
}

// Layout is the subset of Plotly layout attributes the dashboard uses.
type Layout struct {
	Title        *Title  `json:"title,omitempty"`
	Height       int     `json:"height,omitempty"`
	PaperBGColor string  `json:"paper_bgcolor,omitempty"`
	Margin       *Margin `json:"margin,omitempty"`
	ShowLegend   *bool   `json:"showlegend,omitempty"`
}

// Title is a layout title.
type Title struct {
	Text string `json:"text"`
}

// Margin holds layout margins in pixels.
type Margin struct {
	T int `json:"t"`
	L int `json:"l"`
	R int `json:"r"`
	B int `json:"b"`
}

const (
	paperColor  = "#e5ecf6"
	headerColor = "#dfe6f0"
	tableColor  = "#ffffff"
)

// EmptyFigure is the blank main figure shown next to error tables.
func EmptyFigure() Figure {
	return Figure{
		Data:   []Trace{},
		Layout: Layout{Height: 400, PaperBGColor: paperColor},
	}
}

// Table is the tabular artifact: what the data grid shows and what export
// writes.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Height  int        `json:"height"`
}

// Figure renders the table as a Plotly table trace.
func (t Table) Figure() Figure {
	header := make([][]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = []string{c}
	}
	cells := make([][]string, len(t.Columns))
	for i := range t.Columns {
		col := make([]string, len(t.Rows))
		for j, row := range t.Rows {
			if i < len(row) {
				col[j] = row[i]
			}
		}
		cells[i] = col
	}
	return Figure{
		Data: []Trace{{
			Type:   "table",
			Header: &TableSpec{Values: header, Align: "left", Fill: &Fill{Color: headerColor}},
			Cells:  &TableSpec{Values: cells, Align: "left", Fill: &Fill{Color: tableColor}},
		}},
		Layout: Layout{
			Height:       t.Height,
			PaperBGColor: tableColor,
			Margin:       &Margin{},
		},
	}
}

// ErrorTable is the single-column table shown when regeneration fails.
func ErrorTable(err error) Table {
	return Table{
		Columns: []string{"Error"},
		Rows:    [][]string{{err.Error()}},
		Height:  200,
	}
}
