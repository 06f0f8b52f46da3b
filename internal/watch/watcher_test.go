package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildnerd/internal/buildtree"
	"buildnerd/internal/properties"
)

// goleak is deliberately not used here: fsnotify owns background
// goroutines that it cannot reliably account for.

func TestWatcherStartStop(t *testing.T) {
	w, err := NewWatcher(func(buildtree.BuildID) {}, 50*time.Millisecond, nil)
	require.NoError(t, err)

	assert.False(t, w.IsWatching())
	w.Start(context.Background())
	assert.True(t, w.IsWatching())

	// Start on a running watcher is a no-op.
	w.Start(context.Background())

	w.Stop()
	assert.False(t, w.IsWatching())

	// Stop on a stopped watcher is a no-op.
	w.Stop()
}

func TestWatcherFiresOnSettledChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, properties.FileName)
	require.NoError(t, os.WriteFile(path, []byte("a=1\n"), 0644))

	changed := make(chan buildtree.BuildID, 8)
	w, err := NewWatcher(func(id buildtree.BuildID) { changed <- id }, 50*time.Millisecond, nil)
	require.NoError(t, err)

	buildID := buildtree.RootBuild()
	require.NoError(t, w.AddBuild(buildID, dir))

	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("a=2\n"), 0644))

	select {
	case id := <-changed:
		assert.Equal(t, buildID, id)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}

	stats := w.GetStats()
	assert.GreaterOrEqual(t, stats.EventsSeen, 1)
	assert.GreaterOrEqual(t, stats.ChangesFired, 1)
	assert.Equal(t, path, stats.LastEventPath)
}

func TestWatcherSeesFileCreatedAfterRegistration(t *testing.T) {
	dir := t.TempDir()

	changed := make(chan buildtree.BuildID, 8)
	w, err := NewWatcher(func(id buildtree.BuildID) { changed <- id }, 50*time.Millisecond, nil)
	require.NoError(t, err)

	require.NoError(t, w.AddBuild(buildtree.RootBuild(), dir))
	w.Start(context.Background())
	defer w.Stop()

	// The properties file did not exist when the build was registered.
	path := filepath.Join(dir, properties.FileName)
	require.NoError(t, os.WriteFile(path, []byte("late=yes\n"), 0644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}
}

func TestWatcherIgnoresUnregisteredFiles(t *testing.T) {
	dir := t.TempDir()

	changed := make(chan buildtree.BuildID, 8)
	w, err := NewWatcher(func(id buildtree.BuildID) { changed <- id }, 50*time.Millisecond, nil)
	require.NoError(t, err)

	require.NoError(t, w.AddBuild(buildtree.RootBuild(), dir))
	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644))

	select {
	case id := <-changed:
		t.Fatalf("unexpected change callback for build %s", id)
	case <-time.After(300 * time.Millisecond):
	}

	assert.Zero(t, w.GetStats().EventsSeen)
}

func TestWatcherStopsOnContextCancel(t *testing.T) {
	w, err := NewWatcher(func(buildtree.BuildID) {}, 50*time.Millisecond, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	// The loop exits on its own; Stop must not hang waiting for it.
	select {
	case <-w.doneCh:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher loop did not exit on context cancel")
	}

	// Stop still cleans up the underlying watcher.
	w.Stop()
}
