// Package watch detects edits to the properties files of loaded builds.
// The build orchestrator registers each build's root directory after
// loading; when its properties file settles after a change, the watcher
// fires a callback so the caller can unload and reload that build's
// properties.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"buildnerd/internal/buildtree"
	"buildnerd/internal/properties"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher watches registered properties files and reports settled
// changes per build.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	onChange    func(buildtree.BuildID)
	logger      *zap.Logger
	builds      map[string]buildtree.BuildID // properties file path -> build
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// Stats tracks watcher activity for debugging and tests.
type Stats struct {
	EventsSeen    int
	ChangesFired  int
	Errors        int
	LastEventPath string
	LastEventTime time.Time
}

// NewWatcher creates a watcher firing onChange for each settled change.
// A zero debounce means the default of 500ms; tests use shorter windows.
func NewWatcher(onChange func(buildtree.BuildID), debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		watcher:     fsw,
		onChange:    onChange,
		logger:      logger,
		builds:      make(map[string]buildtree.BuildID),
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// AddBuild registers a loaded build's root directory. The directory is
// watched rather than the file itself so that a properties file created
// after registration is still seen.
func (w *Watcher) AddBuild(id buildtree.BuildID, rootDir string) error {
	path := filepath.Join(filepath.Clean(rootDir), properties.FileName)

	w.mu.Lock()
	w.builds[path] = id
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Clean(rootDir)); err != nil {
		return err
	}
	w.logger.Debug("watching properties file",
		zap.Stringer("build", id),
		zap.String("path", path))
	return nil
}

// Start begins the event loop in a goroutine. Calling Start on a running
// watcher is a no-op.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
}

// Stop stops the event loop and closes the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("error closing properties watcher", zap.Error(err))
	}
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats returns a copy of the current statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(w.debounceDur / 4)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("properties watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.fireSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	path := filepath.Clean(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, registered := w.builds[path]; !registered {
		return
	}

	w.stats.EventsSeen++
	w.stats.LastEventPath = path
	w.stats.LastEventTime = time.Now()
	w.debounceMap[path] = time.Now()
}

// fireSettled fires the callback for paths whose events have settled past
// the debounce window. Rapid saves collapse into one change.
func (w *Watcher) fireSettled() {
	now := time.Now()

	w.mu.Lock()
	var fired []buildtree.BuildID
	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.debounceDur {
			delete(w.debounceMap, path)
			fired = append(fired, w.builds[path])
			w.stats.ChangesFired++
		}
	}
	w.mu.Unlock()

	for _, id := range fired {
		w.logger.Info("properties file changed", zap.Stringer("build", id))
		w.onChange(id)
	}
}
