package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gapdash/internal/export"
	"gapdash/internal/view"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportSel    selectionFlags
	exportFormat string
	exportOut    string
	exportFull   bool
)

// exportCmd writes a view's table to a file
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a view's table (or the full dataset) to CSV or XLSX",
	Long: `Writes the rows of the selected view to a file named
{view}_{continent|variable}_{year}.csv, the same name the download button
uses. --full exports every record instead.

Example:
  gapdash export --view GDP --continent Europe --year 2007
  gapdash export --full --format xlsx --out exports/`,
	RunE: runExport,
}

func init() {
	exportSel.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "File format: csv or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "Output directory, or a file path ending in .csv/.xlsx")
	exportCmd.Flags().BoolVar(&exportFull, "full", false, "Export the full dataset instead of the selected view")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	gen, err := newGenerator(commandContext(cmd))
	if err != nil {
		return err
	}

	var (
		table view.Table
		name  string
		sheet string
	)
	if exportFull {
		table = export.FullTable(gen.Dataset())
		name = export.FullDatasetFileName(format)
		sheet = string(view.ViewDataset)
	} else {
		art := gen.Regenerate(exportSel.selection())
		if art.Failed() {
			return fmt.Errorf("regenerate %s: %s", art.Selection.View, art.Err)
		}
		table = art.Table
		name = export.FileName(art.Selection, format)
		sheet = string(art.Selection.View)
	}

	path := exportPath(exportOut, name)
	var buf bytes.Buffer
	if err := export.Write(&buf, format, sheet, table); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("Exported", zap.String("path", path), zap.Int("rows", len(table.Rows)))
	fmt.Printf("Wrote %d rows to %s\n", len(table.Rows), path)
	return nil
}

// exportPath treats out as a file when it has an export extension and as a
// directory otherwise.
func exportPath(out, name string) string {
	if out == "" {
		return name
	}
	switch filepath.Ext(out) {
	case ".csv", ".xlsx":
		return out
	}
	return filepath.Join(out, name)
}
