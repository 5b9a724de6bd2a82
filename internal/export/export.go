// Package export serializes dashboard tables for download.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gapdash/internal/dataset"
	"gapdash/internal/logging"
	"gapdash/internal/view"

	"github.com/xuri/excelize/v2"
)

// Format is an export file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat resolves a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "csv":
		return CSV, nil
	case "xlsx", "excel":
		return XLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName names an export of a normalized selection:
// {view}_{continent|variable}_{year}.{ext}. The dataset view has no
// qualifier and uses "all".
func FileName(sel view.Selection, f Format) string {
	var qualifier string
	switch sel.View {
	case view.ViewPopulation, view.ViewGDP, view.ViewLife:
		qualifier = sel.Continent
	case view.ViewMap:
		qualifier = sel.Variable
	default:
		qualifier = "all"
	}
	parts := []string{slug(string(sel.View)), slug(qualifier), strconv.Itoa(sel.Year)}
	return strings.Join(parts, "_") + "." + string(f)
}

// FullDatasetFileName names an export of the unfiltered dataset.
func FullDatasetFileName(f Format) string {
	return "dataset_all." + string(f)
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, s)
}

// FullTable is the table of every record, in dataset order.
func FullTable(ds *dataset.Dataset) view.Table {
	rows := make([][]string, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		rows[i] = ds.Cells(ds.At(i))
	}
	return view.Table{Columns: append([]string(nil), dataset.Columns...), Rows: rows}
}

// WriteCSV writes a header row and one line per table row, without an
// index column.
func WriteCSV(w io.Writer, t view.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	logging.Export("Wrote CSV with %d rows", len(t.Rows))
	return nil
}

// WriteXLSX writes the table to a single-sheet workbook.
func WriteXLSX(w io.Writer, sheet string, t view.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	write := func(rowIdx int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = typedCell(v)
		}
		return f.SetSheetRow(sheet, cell, &row)
	}

	if err := write(1, t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range t.Rows {
		if err := write(i+2, r); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	logging.Export("Wrote XLSX sheet %q with %d rows", sheet, len(t.Rows))
	return nil
}

// typedCell stores numeric strings as numbers so spreadsheets can sort them.
func typedCell(v string) interface{} {
	if v == "" {
		return nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

// Write serializes t in the given format.
func Write(w io.Writer, f Format, sheet string, t view.Table) error {
	if f == XLSX {
		return WriteXLSX(w, sheet, t)
	}
	return WriteCSV(w, t)
}
