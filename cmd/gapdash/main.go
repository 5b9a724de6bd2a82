package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gapdash/internal/config"
	"gapdash/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Global flags
	verbose    bool
	workspace  string
	configPath string
	source     string

	// Logger
	logger *zap.Logger

	// cfg is loaded once per command invocation
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "gapdash",
	Short: "gapdash - Gapminder dashboard server, exporter and tunnel launcher",
	Long: `gapdash serves a single-page dashboard over the Gapminder dataset:
ranking bar charts per continent and year, a choropleth map, a data table
and CSV/XLSX downloads.

The same views are available from the terminal (query, export, tui), and
launch exposes the dashboard through a LocalTunnel public URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return loadConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

// loadConfig resolves the workspace, starts file logging and reads the
// YAML configuration.
func loadConfig() error {
	if workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve workspace: %w", err)
		}
		workspace = wd
	}
	ws, err := filepath.Abs(workspace)
	if err != nil {
		return fmt.Errorf("resolve workspace: %w", err)
	}
	workspace = ws

	path := configPath
	if path == "" {
		path = config.DefaultPath(workspace)
	}
	configPath = path

	if err := logging.Initialize(workspace, path); err != nil {
		logger.Warn("File logging disabled", zap.Error(err))
	}
	if !fileExists(path) {
		logging.BootWarn("No config at %s; using defaults", path)
	}

	cfg, err = config.Load(path)
	if err != nil {
		return err
	}
	if source != "" {
		cfg.Dataset.Source = source
	}
	if cfg.Logging.Level != "" {
		logging.SetLevel(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	logging.Boot("gapdash %s starting in %s (config %s)", version, workspace, path)
	return nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: <workspace>/.gapdash/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&source, "source", "", "Dataset source: embedded, CSV path, http(s) URL or sqlite://path")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(launchCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(screenshotCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
