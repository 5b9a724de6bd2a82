package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetState(t *testing.T) {
	t.Helper()
	CloseAll()
	logsDir = ""
	workspace = ""
	configPath = ""
	configMu.Lock()
	config = loggingConfig{}
	configMu.Unlock()
	t.Cleanup(CloseAll)
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, ".gapdash")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

// TestAllCategoriesLog tests that all categories create log files when debug_mode is true
func TestAllCategoriesLog(t *testing.T) {
	resetState(t)
	tempDir := t.TempDir()
	writeConfig(t, tempDir, `
logging:
  level: debug
  debug_mode: true
  format: json
`)

	if err := Initialize(tempDir, ""); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if !IsDebugMode() {
		t.Fatal("Expected debug mode to be enabled")
	}

	categories := []Category{
		CategoryBoot, CategoryConfig, CategoryDataset, CategoryQuery, CategoryRender,
		CategoryServer, CategoryExport, CategoryStore, CategoryLauncher, CategoryTUI,
	}
	for _, cat := range categories {
		logger := Get(cat)
		logger.Info("info for %s", cat)
		logger.Debug("debug for %s", cat)
		logger.StructuredLog("warn", "structured", map[string]interface{}{"cat": string(cat)})
	}
	CloseAll()

	logsPath := filepath.Join(tempDir, ".gapdash", "logs")
	entries, err := os.ReadDir(logsPath)
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}
	for _, cat := range categories {
		found := false
		for _, entry := range entries {
			if strings.HasSuffix(entry.Name(), "_"+string(cat)+".log") {
				found = true
				content, err := os.ReadFile(filepath.Join(logsPath, entry.Name()))
				if err != nil {
					t.Errorf("Failed to read log file for %s: %v", cat, err)
				} else if len(content) == 0 {
					t.Errorf("Log file for %s is empty", cat)
				}
			}
		}
		if !found {
			t.Errorf("No log file found for category: %s", cat)
		}
	}
}

// TestDebugModeDisabled tests that no logs are created when debug_mode is false
func TestDebugModeDisabled(t *testing.T) {
	resetState(t)
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "logging:\n  debug_mode: false\n")

	if err := Initialize(tempDir, ""); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	Boot("should not be written")
	Server("should not be written")
	CloseAll()

	if _, err := os.Stat(filepath.Join(tempDir, ".gapdash", "logs")); !os.IsNotExist(err) {
		t.Errorf("logs directory should not exist in production mode, stat err=%v", err)
	}
}

func TestCategoryToggle(t *testing.T) {
	resetState(t)
	tempDir := t.TempDir()
	writeConfig(t, tempDir, `
logging:
  debug_mode: true
  categories:
    server: false
`)
	if err := Initialize(tempDir, ""); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if IsCategoryEnabled(CategoryServer) {
		t.Error("server category should be disabled")
	}
	if !IsCategoryEnabled(CategoryDataset) {
		t.Error("unlisted categories default to enabled")
	}
}

func TestReloadConfigChangesLevel(t *testing.T) {
	resetState(t)
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "logging:\n  debug_mode: true\n  level: error\n")
	if err := Initialize(tempDir, ""); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if got := level.Level().String(); got != "error" {
		t.Fatalf("expected level error, got %s", got)
	}

	writeConfig(t, tempDir, "logging:\n  debug_mode: true\n  level: debug\n")
	if err := ReloadConfig(); err != nil {
		t.Fatalf("ReloadConfig failed: %v", err)
	}
	if got := level.Level().String(); got != "debug" {
		t.Fatalf("expected level debug after reload, got %s", got)
	}
}

func TestInitializeRequiresWorkspace(t *testing.T) {
	if err := Initialize("", ""); err == nil {
		t.Fatal("expected error for empty workspace")
	}
}

func TestReloadConfigEnablesFileLogging(t *testing.T) {
	resetState(t)
	tempDir := t.TempDir()
	writeConfig(t, tempDir, "logging:\n  debug_mode: false\n")
	if err := Initialize(tempDir, ""); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	writeConfig(t, tempDir, "logging:\n  debug_mode: true\n")
	if err := ReloadConfig(); err != nil {
		t.Fatalf("ReloadConfig failed: %v", err)
	}
	Server("written after reload")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, ".gapdash", "logs"))
	if err != nil {
		t.Fatalf("logs directory missing after reload: %v", err)
	}
	found := false
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), "_server.log") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a server log file, got %v", entries)
	}
}

func TestCustomConfigPathIsReloaded(t *testing.T) {
	resetState(t)
	tempDir := t.TempDir()
	// The workspace default says production; the custom file must win.
	writeConfig(t, tempDir, "logging:\n  debug_mode: false\n")
	custom := filepath.Join(t.TempDir(), "dash.yaml")
	if err := os.WriteFile(custom, []byte("logging:\n  debug_mode: true\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	if err := Initialize(tempDir, custom); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	if !IsDebugMode() {
		t.Fatal("expected debug mode from the custom config")
	}

	if err := os.WriteFile(custom, []byte("logging:\n  debug_mode: true\n  level: error\n"), 0644); err != nil {
		t.Fatalf("rewrite custom config: %v", err)
	}
	if err := ReloadConfig(); err != nil {
		t.Fatalf("ReloadConfig failed: %v", err)
	}
	if got := level.Level().String(); got != "error" {
		t.Errorf("expected level error from the custom config, got %s", got)
	}
}
