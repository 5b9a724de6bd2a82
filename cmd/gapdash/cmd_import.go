package main

import (
	"fmt"
	"path/filepath"

	"gapdash/internal/dataset"
	"gapdash/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importDB string

// importCmd snapshots a CSV source into SQLite
var importCmd = &cobra.Command{
	Use:   "import [source]",
	Short: "Snapshot a dataset source into a SQLite file",
	Long: `Loads a dataset (embedded sample, CSV path or http(s) URL), normalizes
it and stores it in SQLite. Serve it afterwards with --source sqlite://<db>.

Example:
  gapdash import https://example.org/gapminder.csv
  gapdash import data/gapminder.csv --db .gapdash/gapminder.db`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importDB, "db", "", "SQLite file (default: <workspace>/.gapdash/gapminder.db)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	src := cfg.Dataset.Source
	if len(args) == 1 {
		src = args[0]
	}
	if _, ok := store.ParseSource(src); ok {
		return fmt.Errorf("import source must be a CSV, not %s", src)
	}

	db := importDB
	if db == "" {
		db = filepath.Join(workspace, ".gapdash", "gapminder.db")
	}

	ds, err := dataset.Open(ctx, src)
	if err != nil {
		return err
	}
	if err := store.SaveDataset(ctx, db, ds); err != nil {
		return err
	}
	logger.Info("Imported dataset", zap.String("source", src), zap.String("db", db), zap.Int("records", ds.Len()))
	fmt.Printf("Imported %d records into %s\n", ds.Len(), db)
	fmt.Printf("Serve it with: gapdash serve --source %s%s\n", store.SourcePrefix, db)
	return nil
}
