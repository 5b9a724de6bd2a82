package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gapdash/internal/export"
	"gapdash/internal/tui"
	"gapdash/internal/view"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	querySel    selectionFlags
	queryFormat string
)

// queryCmd prints one view's table
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print the table of a dashboard view",
	Long: `Regenerates one view for the given selection and prints its table.
Missing or unknown values fall back to the first continent, the first year
and the default variable, exactly as the web page does.

Example:
  gapdash query --view Population --continent Asia --year 1952
  gapdash query --view Map --variable "GDP per Capita" --format csv`,
	RunE: runQuery,
}

func init() {
	querySel.register(queryCmd)
	queryCmd.Flags().StringVarP(&queryFormat, "format", "f", "table", "Output format: table, csv or json")
}

func runQuery(cmd *cobra.Command, args []string) error {
	gen, err := newGenerator(commandContext(cmd))
	if err != nil {
		return err
	}
	art := gen.Regenerate(querySel.selection())
	logger.Debug("Query", zap.Any("selection", art.Selection), zap.Int("rows", len(art.Table.Rows)))
	if art.Failed() {
		return fmt.Errorf("regenerate %s: %s", art.Selection.View, art.Err)
	}
	return printArtifact(os.Stdout, art, queryFormat)
}

func printArtifact(w io.Writer, art view.Artifact, format string) error {
	switch format {
	case "csv":
		return export.WriteCSV(w, art.Table)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(art)
	case "table", "":
		fmt.Fprint(w, tui.FromTable(artifactTitle(art), art.Table).View(tui.DefaultStyles()))
		fmt.Fprintf(w, "%d rows\n", len(art.Table.Rows))
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

func artifactTitle(art view.Artifact) string {
	if t := art.Main.Layout.Title; t != nil {
		return t.Text
	}
	return fmt.Sprintf("%s — %d", art.Selection.View.Label(), art.Selection.Year)
}
