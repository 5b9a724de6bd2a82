package main

import (
	"context"
	"fmt"

	"gapdash/internal/config"
	"gapdash/internal/logging"
	"gapdash/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveNoWatch bool

// serveCmd runs the dashboard web server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard over HTTP",
	Long: `Loads the dataset once and serves the dashboard page, the JSON view
API and the CSV/XLSX/PNG endpoints until interrupted.

Logging settings in the config file are reloaded live while serving.

Example:
  gapdash serve
  gapdash serve --source sqlite://.gapdash/gapminder.db`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not reload logging settings when the config file changes")
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(commandContext(cmd))
	defer cancel()

	gen, err := newGenerator(ctx)
	if err != nil {
		return err
	}

	if !serveNoWatch {
		stop, err := watchConfig(ctx, configPath)
		if err != nil {
			logger.Warn("Config watcher disabled", zap.Error(err))
		} else {
			defer stop()
		}
	}

	srv := server.New(gen, serverOptions(cfg))
	logger.Info("Serving dashboard", zap.String("addr", cfg.Addr()), zap.String("url", cfg.LocalURL()))
	fmt.Printf("Dashboard running on %s\n", cfg.LocalURL())
	return srv.ListenAndServe(ctx)
}

// watchConfig reloads file logging whenever the config file changes.
func watchConfig(ctx context.Context, path string) (func(), error) {
	w, err := config.NewWatcher(path, func(c *config.Config) {
		if err := logging.ReloadConfig(); err != nil {
			logger.Warn("Logging reload failed", zap.Error(err))
			return
		}
		if c.Logging.Level != "" {
			logging.SetLevel(c.Logging.Level)
		}
		logger.Info("Reloaded logging settings", zap.String("level", c.Logging.Level))
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return nil, err
	}
	return w.Stop, nil
}
