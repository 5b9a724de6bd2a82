package main

import (
	"gapdash/internal/tui"
	"gapdash/internal/view"

	"github.com/spf13/cobra"
)

var (
	tuiSel       selectionFlags
	tuiExportDir string
)

// tuiCmd runs the terminal dashboard
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the dashboard views in the terminal",
	Long: `Shows the dashboard views in the terminal. Ranking views draw text bar
charts, the map view lists its highest values, and every view shows its
data table.

Keys: tab/shift+tab view, c/C continent, y/Y year, v/V variable,
e export CSV, q quit.`,
	RunE: runTUI,
}

func init() {
	tuiSel.register(tuiCmd)
	tuiCmd.Flags().StringVar(&tuiExportDir, "export-dir", ".", "Directory for CSV files written with the e key")
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(commandContext(cmd))
	defer cancel()

	gen, err := newGenerator(ctx)
	if err != nil {
		return err
	}
	ctrl := view.NewController(gen, tuiSel.selection())
	return tui.Run(ctx, ctrl, tui.Options{ExportDir: tuiExportDir})
}
