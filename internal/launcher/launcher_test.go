package launcher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// syncBuffer is a bytes.Buffer safe for the launcher goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func fakeTunnel(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "lt")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func waitDashboard(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func TestMissingTunnelFailsImmediately(t *testing.T) {
	l, err := New(Options{Port: 8050, Binary: "definitely-not-lt", Out: &syncBuffer{}})
	require.NoError(t, err)
	l.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	started := false
	err = l.Run(context.Background(), func(context.Context) error {
		started = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTunnelNotFound))
	assert.Contains(t, err.Error(), Remediation)
	assert.False(t, started)
}

func TestRunReportsURL(t *testing.T) {
	script := fakeTunnel(t, `echo "connecting on port $2"
echo "your url is: https://brave-fox-12.loca.lt" 1>&2
exec sleep 30`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	var got string
	l, err := New(Options{
		Port: 8050,
		Out:  out,
		OnURL: func(u string) {
			got = u
			cancel()
		},
	})
	require.NoError(t, err)
	l.lookPath = func(string) (string, error) { return script, nil }

	require.NoError(t, l.Run(ctx, waitDashboard))
	assert.Equal(t, "https://brave-fox-12.loca.lt", got)
	assert.Equal(t, got, l.URL())

	text := out.String()
	assert.Contains(t, text, "Starting dashboard on port 8050")
	assert.Contains(t, text, "connecting on port 8050")
	assert.Contains(t, text, "Dashboard is live at: https://brave-fox-12.loca.lt")
}

func TestTunnelExitWithoutURL(t *testing.T) {
	script := fakeTunnel(t, `echo "error: connection refused"
exit 1`)

	l, err := New(Options{Port: 9000, Out: &syncBuffer{}})
	require.NoError(t, err)
	l.lookPath = func(string) (string, error) { return script, nil }

	err = l.Run(context.Background(), waitDashboard)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTunnelExited))
	assert.Empty(t, l.URL())
}

func TestDashboardFailureStopsTunnel(t *testing.T) {
	script := fakeTunnel(t, "exec sleep 30")

	l, err := New(Options{Port: 9001, Out: &syncBuffer{}})
	require.NoError(t, err)
	l.lookPath = func(string) (string, error) { return script, nil }

	boom := errors.New("address already in use")
	start := time.Now()
	err = l.Run(context.Background(), func(context.Context) error { return boom })
	assert.True(t, errors.Is(err, boom))
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestCancelDuringStartupDelay(t *testing.T) {
	l, err := New(Options{Port: 9002, StartupDelay: time.Hour, Out: &syncBuffer{}})
	require.NoError(t, err)
	l.lookPath = func(string) (string, error) { return "/bin/true", nil }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, l.Run(ctx, waitDashboard))
}

func TestKillStaleRunsPkill(t *testing.T) {
	l, err := New(Options{Port: 8050, KillStale: true, Out: &syncBuffer{}})
	require.NoError(t, err)
	assert.Equal(t, []string{"lt --port 8050"}, l.opts.StalePatterns)

	var calls []string
	l.command = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, name+" "+strings.Join(args, " "))
		return exec.CommandContext(ctx, "true")
	}
	l.killStale(context.Background())
	assert.Equal(t, []string{"pkill -f lt --port 8050"}, calls)
}

func TestNewValidates(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)

	_, err = New(Options{Port: 1, URLPattern: "("})
	assert.Error(t, err)

	l, err := New(Options{Port: 8050, ExtraArgs: []string{"--subdomain", "gap"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"--port", "8050", "--subdomain", "gap"}, l.TunnelArgs())
}

func TestMatchWithoutGroup(t *testing.T) {
	l, err := New(Options{Port: 1, URLPattern: `https://\S+\.example\.dev`})
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.dev", l.match("url: https://a.example.dev now"))
	assert.Empty(t, l.match("nothing here"))
}
