// Package snapshot captures PNG screenshots of a served dashboard with a
// headless Chrome.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gapdash/internal/logging"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// PlotSelector appears once Plotly drew the main graph.
const PlotSelector = "#main-graph .main-svg"

// Options configures a capture.
type Options struct {
	// BrowserBin is the Chrome executable. Empty lets rod find or download one.
	BrowserBin string
	// ControlURL attaches to a running browser instead of launching one.
	ControlURL string
	Headless   bool
	Width      int
	Height     int
	Timeout    time.Duration
	// WaitSelector is awaited before the screenshot; empty skips the wait.
	WaitSelector string
	FullPage     bool
}

// DefaultOptions captures a 1440x1000 viewport after the plot renders.
func DefaultOptions() Options {
	return Options{
		Headless:     true,
		Width:        1440,
		Height:       1000,
		Timeout:      30 * time.Second,
		WaitSelector: PlotSelector,
		FullPage:     true,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	return o
}

// ErrNoURL is returned by Capture for an empty address.
var ErrNoURL = errors.New("snapshot: url is required")

// Capture opens url in a fresh browser page and returns a PNG screenshot.
func Capture(ctx context.Context, url string, opts Options) ([]byte, error) {
	if url == "" {
		return nil, ErrNoURL
	}
	opts = opts.withDefaults()

	timer := logging.StartTimer(logging.CategoryRender, "snapshot.Capture")
	defer timer.Stop()

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	controlURL := opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(opts.Headless).Context(ctx)
		if opts.BrowserBin != "" {
			l = l.Bin(opts.BrowserBin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		defer l.Cleanup()
		defer l.Kill()
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.Width,
		Height:            opts.Height,
		DeviceScaleFactor: 1.0,
	}).Call(page); err != nil {
		logging.Get(logging.CategoryRender).Warn("Failed to set viewport: %v", err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("load %s: %w", url, err)
	}
	if opts.WaitSelector != "" {
		if _, err := page.Element(opts.WaitSelector); err != nil {
			return nil, fmt.Errorf("wait for %s: %w", opts.WaitSelector, err)
		}
	}

	img, err := page.Screenshot(opts.FullPage, nil)
	if err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	logging.Render("Captured %s (%d bytes)", url, len(img))
	return img, nil
}
