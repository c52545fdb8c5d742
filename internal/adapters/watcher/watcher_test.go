package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/watcher"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// collect forwards watcher events to a channel.
func collect(w ports.Watcher) <-chan ports.WatchEvent {
	ch := make(chan ports.WatchEvent, 64)
	go func() {
		defer close(ch)
		for event := range w.Events() {
			ch <- event
		}
	}()
	return ch
}

// waitFor returns the first event for path or fails after a timeout.
func waitFor(t *testing.T, ch <-chan ports.WatchEvent, path string) ports.WatchEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-ch:
			require.True(t, ok, "event stream closed before %s", path)
			if event.Path == path {
				return event
			}
		case <-timeout:
			t.Fatalf("no event for %s", path)
		}
	}
}

func TestWatcher_ReportsWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	root := t.TempDir()
	nested := filepath.Join(root, "lib")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	w, err := watcher.NewWatcher(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, root))
	events := collect(w)

	target := filepath.Join(nested, "util.js")
	require.NoError(t, os.WriteFile(target, []byte("export {}"), 0o600))

	event := waitFor(t, events, target)
	assert.Contains(t, []ports.WatchOp{ports.OpCreate, ports.OpWrite}, event.Operation)
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	root := t.TempDir()
	w, err := watcher.NewWatcher(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx, root))
	events := collect(w)

	dir := filepath.Join(root, "img")
	require.NoError(t, os.Mkdir(dir, 0o750))
	waitFor(t, events, dir)

	// The new directory is registered right after its create event.
	require.Eventually(t, func() bool {
		target := filepath.Join(dir, "logo.svg")
		_ = os.WriteFile(target, []byte("<svg/>"), 0o600)
		select {
		case event := <-events:
			return event.Path == target
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcher_StopEndsEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	w, err := watcher.NewWatcher(log)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background(), t.TempDir()))
	events := collect(w)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "stop is idempotent")

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("event stream did not end")
	}
}

func TestWatcher_Start_MissingRoot(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	w, err := watcher.NewWatcher(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	err = w.Start(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.ErrorContains(t, err, "failed to start file watcher")
}

func TestWatcher_Start_NotADirectory(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	file := filepath.Join(t.TempDir(), "main.js")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	w, err := watcher.NewWatcher(log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	require.ErrorContains(t, w.Start(context.Background(), file), "failed to start file watcher")
}

func TestFactory_NewWatcher(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := watcher.NewFactory(mocks.NewMockLogger(ctrl))

	a, err := f.NewWatcher()
	require.NoError(t, err)
	b, err := f.NewWatcher()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Stop()
		_ = b.Stop()
	})

	assert.NotSame(t, a, b)
}
