package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gapdash/internal/config"
	"gapdash/internal/dataset"
	"gapdash/internal/server"
	"gapdash/internal/store"
	"gapdash/internal/view"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// loadDataset opens the configured source. sqlite:// sources come from the
// snapshot store; everything else goes through the CSV loader.
func loadDataset(ctx context.Context, src string) (*dataset.Dataset, error) {
	if path, ok := store.ParseSource(src); ok {
		logger.Debug("Loading dataset snapshot", zap.String("path", path))
		return store.LoadDataset(ctx, path)
	}
	return dataset.Open(ctx, src)
}

// viewOptions maps the dashboard section of the config.
func viewOptions(c *config.Config) view.Options {
	opts := view.Options{
		TopN:            c.Dashboard.TopN,
		PreviewN:        c.Dashboard.PreviewN,
		DefaultVariable: c.Dashboard.DefaultVariable,
	}
	if v, err := view.ParseView(c.Dashboard.DefaultView); err == nil {
		opts.DefaultView = v
	}
	return opts
}

// newGenerator loads the dataset and binds it to the configured options.
func newGenerator(ctx context.Context) (*view.Generator, error) {
	ds, err := loadDataset(ctx, cfg.Dataset.Source)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	if nulls := ds.NullColumns(); len(nulls) > 0 {
		logger.Warn("Dataset is missing columns; they are shown as empty", zap.Strings("columns", nulls))
	}
	return view.NewGenerator(ds, viewOptions(cfg)), nil
}

// serverOptions maps the server section of the config.
func serverOptions(c *config.Config) server.Options {
	return server.Options{
		Addr:            c.Addr(),
		MaxConnections:  c.Server.MaxConnections,
		ReadTimeout:     c.GetReadTimeout(),
		WriteTimeout:    c.GetWriteTimeout(),
		ShutdownTimeout: c.GetShutdownTimeout(),
	}
}

// selectionFlags binds --view, --continent, --year and --variable.
type selectionFlags struct {
	view      string
	continent string
	year      int
	variable  string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.view, "view", "", "View: Dataset, Population, GDP, Life or Map")
	cmd.Flags().StringVar(&f.continent, "continent", "", "Continent for ranking views")
	cmd.Flags().IntVar(&f.year, "year", 0, "Year")
	cmd.Flags().StringVar(&f.variable, "variable", "", "Map variable: Population, GDP per Capita or Life Expectancy")
}

func (f *selectionFlags) selection() view.Selection {
	return view.Selection{
		View:      view.View(f.view),
		Continent: f.continent,
		Year:      f.year,
		Variable:  f.variable,
	}
}
