package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all gapdash configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// HTTP dashboard
	Server ServerConfig `yaml:"server"`

	// Where the dataset is loaded from
	Dataset DatasetConfig `yaml:"dataset"`

	// Query limits and defaults
	Dashboard DashboardConfig `yaml:"dashboard"`

	// Public tunnel launcher
	Tunnel TunnelConfig `yaml:"tunnel"`

	// Headless browser capture
	Screenshot ScreenshotConfig `yaml:"screenshot"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP dashboard.
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	MaxConnections  int    `yaml:"max_connections"` // 0 = unlimited
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// DatasetConfig selects the dataset source.
//
// Source forms:
//   - "" or "embedded": bundled Gapminder sample
//   - a local CSV path
//   - an http(s):// URL to a CSV file
//   - sqlite://path/to/snapshot.db
type DatasetConfig struct {
	Source string `yaml:"source"`
}

// DashboardConfig holds query sizes and selection defaults.
type DashboardConfig struct {
	TopN            int    `yaml:"top_n"`
	PreviewN        int    `yaml:"preview_n"`
	DefaultView     string `yaml:"default_view"`
	DefaultVariable string `yaml:"default_variable"`
}

// TunnelConfig configures the launcher.
type TunnelConfig struct {
	Binary       string   `yaml:"binary"`
	ExtraArgs    []string `yaml:"extra_args"`
	URLPattern   string   `yaml:"url_pattern"`
	StartupDelay string   `yaml:"startup_delay"`
	KillStale    bool     `yaml:"kill_stale"`
}

// ScreenshotConfig configures the headless browser.
type ScreenshotConfig struct {
	BrowserBin string `yaml:"browser_bin"` // empty = let rod download/find one
	Headless   bool   `yaml:"headless"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Timeout    string `yaml:"timeout"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "gapdash",
		Version: "0.3.0",

		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8050,
			MaxConnections:  256,
			ReadTimeout:     "15s",
			WriteTimeout:    "30s",
			ShutdownTimeout: "5s",
		},

		Dataset: DatasetConfig{
			Source: "embedded",
		},

		Dashboard: DashboardConfig{
			TopN:            15,
			PreviewN:        50,
			DefaultView:     "Dataset",
			DefaultVariable: "Life Expectancy",
		},

		Tunnel: TunnelConfig{
			Binary:       "lt",
			URLPattern:   `(https://[^\s]+\.loca\.lt)`,
			StartupDelay: "2s",
		},

		Screenshot: ScreenshotConfig{
			Headless: true,
			Width:    1440,
			Height:   1000,
			Timeout:  "30s",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the config location inside a workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(workspace, ".gapdash", "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Defaults if the file doesn't exist
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("GAPDASH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("GAPDASH_DATASET"); v != "" {
		c.Dataset.Source = v
	}
	if v := os.Getenv("GAPDASH_TUNNEL_BIN"); v != "" {
		c.Tunnel.Binary = v
	}
	if v := os.Getenv("GAPDASH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Addr returns the listen address for the dashboard.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// LocalURL returns the loopback URL of the dashboard.
func (c *Config) LocalURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d/", c.Server.Port)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// GetReadTimeout returns the server read timeout.
func (c *Config) GetReadTimeout() time.Duration {
	return parseDuration(c.Server.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout returns the server write timeout.
func (c *Config) GetWriteTimeout() time.Duration {
	return parseDuration(c.Server.WriteTimeout, 30*time.Second)
}

// GetShutdownTimeout returns the graceful shutdown budget.
func (c *Config) GetShutdownTimeout() time.Duration {
	return parseDuration(c.Server.ShutdownTimeout, 5*time.Second)
}

// GetStartupDelay returns how long the launcher waits before opening the tunnel.
func (c *Config) GetStartupDelay() time.Duration {
	return parseDuration(c.Tunnel.StartupDelay, 2*time.Second)
}

// GetScreenshotTimeout returns the page capture timeout.
func (c *Config) GetScreenshotTimeout() time.Duration {
	return parseDuration(c.Screenshot.Timeout, 30*time.Second)
}

// ValidViews lists the dashboard views.
var ValidViews = []string{"Dataset", "Population", "GDP", "Life", "Map"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Dashboard.TopN <= 0 {
		return fmt.Errorf("dashboard.top_n must be positive, got %d", c.Dashboard.TopN)
	}
	if c.Dashboard.PreviewN <= 0 {
		return fmt.Errorf("dashboard.preview_n must be positive, got %d", c.Dashboard.PreviewN)
	}
	valid := false
	for _, v := range ValidViews {
		if c.Dashboard.DefaultView == v {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid default view: %s (valid: %v)", c.Dashboard.DefaultView, ValidViews)
	}
	if c.Tunnel.Binary == "" {
		return fmt.Errorf("tunnel.binary must not be empty")
	}
	return nil
}
