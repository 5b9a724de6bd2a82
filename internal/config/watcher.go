package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"gapdash/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes on disk and hands the new
// configuration to a callback. It watches the parent directory so editors
// that replace the file on save are still seen.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	onChange    func(*Config)
	debounceDur time.Duration
	pending     time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	reloads     int
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     w,
		path:        filepath.Clean(path),
		onChange:    onChange,
		debounceDur: 200 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. It does not block.
func (cw *Watcher) Start(ctx context.Context) error {
	cw.mu.Lock()
	if cw.running {
		cw.mu.Unlock()
		return nil
	}
	cw.running = true
	cw.mu.Unlock()

	dir := filepath.Dir(cw.path)
	if err := cw.watcher.Add(dir); err != nil {
		cw.mu.Lock()
		cw.running = false
		cw.mu.Unlock()
		return err
	}
	logging.Get(logging.CategoryConfig).Info("Watching config file %s", cw.path)

	go cw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its loop to exit.
func (cw *Watcher) Stop() {
	cw.mu.Lock()
	wasRunning := cw.running
	cw.running = false
	cw.mu.Unlock()

	if wasRunning {
		close(cw.stopCh)
		<-cw.doneCh
	}
	if err := cw.watcher.Close(); err != nil {
		logging.Get(logging.CategoryConfig).Error("Config watcher close: %v", err)
	}
}

// Reloads returns how many times the callback ran.
func (cw *Watcher) Reloads() int {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.reloads
}

func (cw *Watcher) run(ctx context.Context) {
	defer close(cw.doneCh)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopCh:
			return

		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logging.Get(logging.CategoryConfig).Debug("Config event %s on %s", event.Op, event.Name)
			cw.mu.Lock()
			cw.pending = time.Now()
			cw.mu.Unlock()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryConfig).Error("Config watcher error: %v", err)

		case <-ticker.C:
			cw.flush()
		}
	}
}

// flush reloads once the last event is older than the debounce window.
func (cw *Watcher) flush() {
	cw.mu.Lock()
	if cw.pending.IsZero() || time.Since(cw.pending) < cw.debounceDur {
		cw.mu.Unlock()
		return
	}
	cw.pending = time.Time{}
	cw.mu.Unlock()

	cfg, err := Load(cw.path)
	if err != nil {
		logging.Get(logging.CategoryConfig).Warn("Ignoring invalid config change: %v", err)
		return
	}
	logging.Get(logging.CategoryConfig).Info("Config reloaded from %s", cw.path)

	cw.mu.Lock()
	cw.reloads++
	cw.mu.Unlock()
	if cw.onChange != nil {
		cw.onChange(cfg)
	}
}
