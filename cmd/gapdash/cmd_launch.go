package main

import (
	"context"
	"os"

	"gapdash/internal/launcher"
	"gapdash/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var launchKillStale bool

// launchCmd serves the dashboard and opens a LocalTunnel to it
var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Serve the dashboard and expose it through LocalTunnel",
	Long: `Starts the dashboard in a background worker on the configured port,
waits for it to come up, then runs the LocalTunnel client ("lt --port <port>")
and echoes its output until the public https://*.loca.lt URL appears.

Requires the lt binary: npm install -g localtunnel

Runs until interrupted. There is no timeout while waiting for the URL.`,
	RunE: runLaunch,
}

func init() {
	launchCmd.Flags().BoolVar(&launchKillStale, "kill-stale", false, "pkill leftover tunnel processes for this port first")
}

func runLaunch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(commandContext(cmd))
	defer cancel()

	gen, err := newGenerator(ctx)
	if err != nil {
		return err
	}
	srv := server.New(gen, serverOptions(cfg))

	l, err := launcher.New(launcher.Options{
		Port:         cfg.Server.Port,
		Binary:       cfg.Tunnel.Binary,
		ExtraArgs:    cfg.Tunnel.ExtraArgs,
		URLPattern:   cfg.Tunnel.URLPattern,
		StartupDelay: cfg.GetStartupDelay(),
		KillStale:    launchKillStale || cfg.Tunnel.KillStale,
		Out:          os.Stdout,
		OnURL: func(u string) {
			logger.Info("Dashboard is public", zap.String("url", u))
		},
	})
	if err != nil {
		return err
	}

	return l.Run(ctx, func(ctx context.Context) error {
		return srv.ListenAndServe(ctx)
	})
}
