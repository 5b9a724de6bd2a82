package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gapdash/internal/config"
	"gapdash/internal/logging"
	"gapdash/internal/view"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) {
	t.Helper()
	logger = zap.NewNop()
	workspace = t.TempDir()
	cfg = config.DefaultConfig()
}

func TestRunQueryCSV(t *testing.T) {
	setup(t)
	querySel = selectionFlags{view: "Population", continent: "Asia", year: 1952}
	queryFormat = "csv"

	output := captureOutput(t, func() {
		require.NoError(t, runQuery(&cobra.Command{}, nil))
	})

	lines, err := csv.NewReader(strings.NewReader(output)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, lines, 16)
	assert.Equal(t, "China", lines[1][0])
}

func TestRunQueryTable(t *testing.T) {
	setup(t)
	querySel = selectionFlags{view: "Map", variable: "Population", year: 2007}
	queryFormat = "table"

	output := captureOutput(t, func() {
		require.NoError(t, runQuery(&cobra.Command{}, nil))
	})
	assert.Contains(t, output, "Population Choropleth — 2007")
	assert.Contains(t, output, "49 rows")
}

func TestRunQueryUnknownFormat(t *testing.T) {
	setup(t)
	querySel = selectionFlags{}
	queryFormat = "yaml"
	captureOutput(t, func() {
		assert.Error(t, runQuery(&cobra.Command{}, nil))
	})
}

func TestRunExportWritesNamedFile(t *testing.T) {
	setup(t)
	exportSel = selectionFlags{view: "GDP", continent: "Europe", year: 2007}
	exportFormat = "csv"
	exportOut = t.TempDir()
	exportFull = false

	captureOutput(t, func() {
		require.NoError(t, runExport(&cobra.Command{}, nil))
	})

	data, err := os.ReadFile(filepath.Join(exportOut, "gdp_europe_2007.csv"))
	require.NoError(t, err)
	lines, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, lines, 12)
}

func TestRunExportFull(t *testing.T) {
	setup(t)
	exportSel = selectionFlags{}
	exportFormat = "xlsx"
	exportOut = filepath.Join(t.TempDir(), "all.xlsx")
	exportFull = true

	captureOutput(t, func() {
		require.NoError(t, runExport(&cobra.Command{}, nil))
	})
	info, err := os.Stat(exportOut)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestImportThenLoadSnapshot(t *testing.T) {
	setup(t)
	importDB = filepath.Join(workspace, "snap.db")

	output := captureOutput(t, func() {
		require.NoError(t, runImport(&cobra.Command{}, nil))
	})
	assert.Contains(t, output, "Imported 98 records")

	ds, err := loadDataset(context.Background(), "sqlite://"+importDB)
	require.NoError(t, err)
	assert.Equal(t, 98, ds.Len())
}

func TestImportRejectsSnapshotSource(t *testing.T) {
	setup(t)
	err := runImport(&cobra.Command{}, []string{"sqlite:///tmp/x.db"})
	assert.Error(t, err)
}

func TestExportPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "a.csv"), exportPath("out", "a.csv"))
	assert.Equal(t, "mine.xlsx", exportPath("mine.xlsx", "a.xlsx"))
	assert.Equal(t, "a.csv", exportPath("", "a.csv"))
}

func TestViewOptions(t *testing.T) {
	c := config.DefaultConfig()
	c.Dashboard.TopN = 5
	c.Dashboard.DefaultView = "map"
	opts := viewOptions(c)
	assert.Equal(t, 5, opts.TopN)
	assert.Equal(t, view.ViewMap, opts.DefaultView)
}

func TestInitWritesConfig(t *testing.T) {
	setup(t)
	initForce = false
	var buf bytes.Buffer
	initCmd.SetOut(&buf)
	require.NoError(t, initCmd.RunE(initCmd, nil))
	assert.FileExists(t, config.DefaultPath(workspace))

	buf.Reset()
	require.NoError(t, initCmd.RunE(initCmd, nil))
	assert.Contains(t, buf.String(), "already exists")
}

func TestLoadConfigUsesCustomConfigForLogging(t *testing.T) {
	setup(t)
	custom := filepath.Join(t.TempDir(), "dash.yaml")
	require.NoError(t, os.WriteFile(custom, []byte("logging:\n  debug_mode: true\n  level: info\n"), 0644))
	configPath = custom
	source = ""
	t.Cleanup(func() {
		_ = os.WriteFile(custom, []byte("logging:\n  debug_mode: false\n"), 0644)
		_ = logging.ReloadConfig()
		logging.CloseAll()
		configPath = ""
	})

	require.NoError(t, loadConfig())
	assert.True(t, logging.IsDebugMode())
	assert.DirExists(t, filepath.Join(workspace, ".gapdash", "logs"))
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.True(t, strings.HasPrefix(buf.String(), "gapdash dev"))
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
