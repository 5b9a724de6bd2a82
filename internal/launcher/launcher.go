// Package launcher runs the dashboard in a background worker and exposes it
// through a LocalTunnel process, reporting the public URL once the tunnel
// prints it.
package launcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"gapdash/internal/logging"

	"golang.org/x/sync/errgroup"
)

// DefaultURLPattern matches the public address printed by `lt`.
const DefaultURLPattern = `(https://[^\s]+\.loca\.lt)`

// Remediation is shown when the tunnel binary is missing.
const Remediation = "install it with: npm install -g localtunnel"

var (
	// ErrTunnelNotFound is returned when the tunnel binary is not on PATH.
	ErrTunnelNotFound = errors.New("tunnel executable not found")
	// ErrTunnelExited is returned when the tunnel process stops on its own.
	ErrTunnelExited = errors.New("tunnel process exited")
	// ErrDashboardExited is returned when the dashboard worker stops on its own.
	ErrDashboardExited = errors.New("dashboard stopped")
)

// Dashboard serves the dashboard until ctx is cancelled.
type Dashboard func(ctx context.Context) error

// Options configures one launch.
type Options struct {
	Port         int
	Binary       string
	ExtraArgs    []string
	URLPattern   string
	StartupDelay time.Duration
	// KillStale runs `pkill -f` for StalePatterns before starting.
	KillStale     bool
	StalePatterns []string
	Out           io.Writer
	// OnURL is called once with the public URL.
	OnURL func(string)
}

// Launcher supervises the dashboard worker and the tunnel process.
type Launcher struct {
	opts    Options
	pattern *regexp.Regexp

	lookPath func(string) (string, error)
	command  func(ctx context.Context, name string, args ...string) *exec.Cmd

	mu  sync.Mutex
	url string
}

// New validates opts and compiles the URL pattern.
func New(opts Options) (*Launcher, error) {
	if opts.Port <= 0 {
		return nil, fmt.Errorf("invalid port %d", opts.Port)
	}
	if opts.Binary == "" {
		opts.Binary = "lt"
	}
	if opts.URLPattern == "" {
		opts.URLPattern = DefaultURLPattern
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.KillStale && len(opts.StalePatterns) == 0 {
		opts.StalePatterns = []string{opts.Binary + " --port " + strconv.Itoa(opts.Port)}
	}
	re, err := regexp.Compile(opts.URLPattern)
	if err != nil {
		return nil, fmt.Errorf("compile url pattern: %w", err)
	}
	return &Launcher{
		opts:     opts,
		pattern:  re,
		lookPath: exec.LookPath,
		command:  exec.CommandContext,
	}, nil
}

// URL returns the public URL, or "" before the tunnel reported one.
func (l *Launcher) URL() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.url
}

// TunnelArgs are the arguments passed to the tunnel binary.
func (l *Launcher) TunnelArgs() []string {
	return append([]string{"--port", strconv.Itoa(l.opts.Port)}, l.opts.ExtraArgs...)
}

// Run resolves the tunnel binary, starts the dashboard worker, waits the
// startup delay, then starts the tunnel and echoes its output until the URL
// appears. It keeps both running until ctx is cancelled or either stops.
// There is no timeout on the URL search.
func (l *Launcher) Run(ctx context.Context, dashboard Dashboard) error {
	bin, err := l.lookPath(l.opts.Binary)
	if err != nil {
		logging.LauncherError("Tunnel binary %q not found: %v", l.opts.Binary, err)
		return fmt.Errorf("%w: %s (%s)", ErrTunnelNotFound, l.opts.Binary, Remediation)
	}
	logging.Launcher("Resolved tunnel binary %s", bin)

	if l.opts.KillStale {
		l.killStale(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Fprintf(l.opts.Out, "Starting dashboard on port %d...\n", l.opts.Port)
		err := dashboard(gctx)
		if gctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = ErrDashboardExited
		}
		return fmt.Errorf("dashboard worker: %w", err)
	})
	g.Go(func() error {
		if l.opts.StartupDelay > 0 {
			t := time.NewTimer(l.opts.StartupDelay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-gctx.Done():
				return nil
			}
		}
		return l.runTunnel(gctx, bin)
	})
	return g.Wait()
}

func (l *Launcher) killStale(ctx context.Context) {
	for _, p := range l.opts.StalePatterns {
		cmd := l.command(ctx, "pkill", "-f", p)
		if err := cmd.Run(); err != nil {
			// pkill exits 1 when nothing matched
			logging.LauncherDebug("pkill -f %q: %v", p, err)
		}
	}
}

func (l *Launcher) runTunnel(ctx context.Context, bin string) error {
	fmt.Fprintln(l.opts.Out, "Starting LocalTunnel...")
	cmd := l.command(ctx, bin, l.TunnelArgs()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("tunnel stdout: %w", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start tunnel: %w", err)
	}
	logging.Launcher("Tunnel started: %s %s (pid %d)", bin, strings.Join(l.TunnelArgs(), " "), cmd.Process.Pid)

	found := l.scan(stdout)
	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return nil
	}
	if !found {
		return fmt.Errorf("%w before printing a URL: %v", ErrTunnelExited, waitErr)
	}
	if waitErr != nil {
		return fmt.Errorf("%w: %v", ErrTunnelExited, waitErr)
	}
	return ErrTunnelExited
}

// scan echoes lines until the URL matches, then drains the rest so the
// tunnel never blocks on a full pipe.
func (l *Launcher) scan(r io.Reader) bool {
	sc := bufio.NewScanner(r)
	found := false
	for sc.Scan() {
		line := sc.Text()
		if found {
			logging.LauncherDebug("tunnel: %s", line)
			continue
		}
		fmt.Fprintln(l.opts.Out, strings.TrimSpace(line))
		if url := l.match(line); url != "" {
			found = true
			l.mu.Lock()
			l.url = url
			l.mu.Unlock()
			logging.Launcher("Tunnel URL: %s", url)
			fmt.Fprintf(l.opts.Out, "\nDashboard is live at: %s\n", url)
			if l.opts.OnURL != nil {
				l.opts.OnURL(url)
			}
		}
	}
	return found
}

func (l *Launcher) match(line string) string {
	m := l.pattern.FindStringSubmatch(line)
	switch {
	case m == nil:
		return ""
	case len(m) > 1:
		return m[1]
	}
	return m[0]
}
