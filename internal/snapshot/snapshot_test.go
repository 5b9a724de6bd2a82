package snapshot

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureRequiresURL(t *testing.T) {
	_, err := Capture(context.Background(), "", DefaultOptions())
	assert.True(t, errors.Is(err, ErrNoURL))
}

func TestWithDefaults(t *testing.T) {
	o := Options{Width: 800}.withDefaults()
	assert.Equal(t, 800, o.Width)
	assert.Equal(t, 1000, o.Height)
	assert.Equal(t, 30*time.Second, o.Timeout)
	assert.Empty(t, o.WaitSelector)
}

func TestCaptureMissingBrowser(t *testing.T) {
	opts := DefaultOptions()
	opts.BrowserBin = filepath.Join(t.TempDir(), "no-chrome")
	opts.Timeout = 5 * time.Second

	_, err := Capture(context.Background(), "http://127.0.0.1:1/", opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "launch browser")
}
