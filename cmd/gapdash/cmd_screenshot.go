package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"gapdash/internal/server"
	"gapdash/internal/snapshot"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	shotSel selectionFlags
	shotURL string
	shotOut string
)

// screenshotCmd captures the rendered dashboard with headless Chrome
var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Capture a PNG of the rendered dashboard",
	Long: `Opens the dashboard in headless Chrome and saves a screenshot once
the main graph is drawn. Without --url a temporary server is started on a
free loopback port.

Example:
  gapdash screenshot --view Map --variable Population --out map.png
  gapdash screenshot --url https://brave-fox-12.loca.lt/ --out live.png`,
	RunE: runScreenshot,
}

func init() {
	shotSel.register(screenshotCmd)
	screenshotCmd.Flags().StringVar(&shotURL, "url", "", "Dashboard URL to capture (default: start a local server)")
	screenshotCmd.Flags().StringVarP(&shotOut, "out", "o", "dashboard.png", "Output PNG file")
}

func runScreenshot(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(commandContext(cmd))
	defer cancel()

	opts := snapshot.DefaultOptions()
	opts.BrowserBin = cfg.Screenshot.BrowserBin
	opts.Headless = cfg.Screenshot.Headless
	opts.Width = cfg.Screenshot.Width
	opts.Height = cfg.Screenshot.Height
	opts.Timeout = cfg.GetScreenshotTimeout()

	query := server.Query(shotSel.selection()).Encode()
	if shotURL != "" {
		return capture(ctx, shotURL+"?"+query, opts)
	}

	gen, err := newGenerator(ctx)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	srv := server.New(gen, serverOptions(cfg))

	g, gctx := errgroup.WithContext(ctx)
	srvCtx, stopServer := context.WithCancel(gctx)
	g.Go(func() error { return srv.Serve(srvCtx, ln) })
	g.Go(func() error {
		defer stopServer()
		return capture(gctx, fmt.Sprintf("http://%s/?%s", ln.Addr(), query), opts)
	})
	return g.Wait()
}

func capture(ctx context.Context, url string, opts snapshot.Options) error {
	logger.Info("Capturing dashboard", zap.String("url", url))
	img, err := snapshot.Capture(ctx, url, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	if err := os.WriteFile(shotOut, img, 0644); err != nil {
		return fmt.Errorf("write %s: %w", shotOut, err)
	}
	fmt.Printf("Saved screenshot to %s\n", shotOut)
	return nil
}
