package app_test

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/forge/internal/adapters/telemetry"
	"go.trai.ch/forge/internal/app"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/core/ports/mocks"
	"go.trai.ch/forge/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

type appMocks struct {
	loader   *mocks.MockConfigLoader
	logger   *mocks.MockLogger
	bundler  *mocks.MockBundler
	cleaner  *mocks.MockCleaner
	copier   *mocks.MockCopier
	server   *mocks.MockDevServer
	watchers *mocks.MockWatcherFactory
}

// setupApp creates an App backed by mocks and a real scheduler.
// The logger accepts every informational call.
func setupApp(t *testing.T) (*app.App, appMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := appMocks{
		loader:   mocks.NewMockConfigLoader(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		bundler:  mocks.NewMockBundler(ctrl),
		cleaner:  mocks.NewMockCleaner(ctrl),
		copier:   mocks.NewMockCopier(ctrl),
		server:   mocks.NewMockDevServer(ctrl),
		watchers: mocks.NewMockWatcherFactory(ctrl),
	}
	m.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	m.logger.EXPECT().Success(gomock.Any()).AnyTimes()
	m.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	sched := scheduler.NewScheduler(telemetry.NewNoOpTracer())
	a := app.New(m.loader, m.logger, m.bundler, m.cleaner, m.copier, m.server, m.watchers, sched).
		WithInteractive(func() bool { return false })
	return a, m
}

// projectConfig returns the default configuration anchored at a temp project
// with existing source and static directories.
func projectConfig(t *testing.T) domain.Config {
	t.Helper()
	cfg := domain.DefaultConfig()
	cfg.Layout = cfg.Layout.Resolve(t.TempDir())
	require.NoError(t, os.MkdirAll(cfg.Layout.Source, 0o750))
	require.NoError(t, os.MkdirAll(cfg.Layout.Static, 0o750))
	return cfg
}

func okBundle(cfg domain.Config) domain.BundleResult {
	return domain.BundleResult{Artifacts: []domain.Artifact{
		{Path: cfg.Layout.BundlePath(), Kind: domain.ArtifactBundle, Size: 2048},
		{Path: cfg.Layout.SourceMapPath(), Kind: domain.ArtifactSourceMap, Size: 4096},
	}}
}

func TestApp_Run_CleanBuild(t *testing.T) {
	a, m := setupApp(t)
	cfg := projectConfig(t)

	m.loader.EXPECT().Load("").Return(cfg, nil)
	gomock.InOrder(
		m.logger.EXPECT().Step("Starting CLEAN BUILD..."),
		m.logger.EXPECT().Step("  - removing all files"),
		m.cleaner.EXPECT().Clean(gomock.Any(), cfg.Layout.Output, gomock.Nil()).
			Return(domain.CleanReport{Removed: 3}, nil),
		m.logger.EXPECT().Step("  - copying all static files"),
		m.copier.EXPECT().Copy(gomock.Any(), cfg.Layout.Static, cfg.Layout.Output, domain.CopyOptions{}).
			Return(domain.CopyReport{Copied: 2}, nil),
		m.logger.EXPECT().Step("  - building"),
		m.bundler.EXPECT().Bundle(gomock.Any(), cfg.BundleRequest(domain.ModeDevelopment)).
			Return(okBundle(cfg)),
	)

	require.NoError(t, a.Run(context.Background(), app.TaskCleanBuild, app.RunOptions{}))
}

func TestApp_Run_Production(t *testing.T) {
	a, m := setupApp(t)
	cfg := projectConfig(t)
	cfg.Static.Minify = true

	m.loader.EXPECT().Load("forge.yaml").Return(cfg, nil)
	m.cleaner.EXPECT().Clean(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.CleanReport{}, nil)
	m.copier.EXPECT().Copy(gomock.Any(), gomock.Any(), gomock.Any(), domain.CopyOptions{Minify: true}).
		Return(domain.CopyReport{Copied: 1, Minified: 1}, nil)
	m.bundler.EXPECT().Bundle(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.BundleRequest) domain.BundleResult {
			assert.Equal(t, domain.ModeProduction, req.Mode)
			return domain.BundleResult{Artifacts: []domain.Artifact{
				{Path: cfg.Layout.BundlePath(), Kind: domain.ArtifactBundle, Size: 512},
			}}
		})
	m.logger.EXPECT().Step(gomock.Any()).Times(4)

	err := a.Run(context.Background(), app.TaskCleanBuild, app.RunOptions{ConfigPath: "forge.yaml", Production: true})
	require.NoError(t, err)
}

func TestApp_Run_MinifyOnlyInProduction(t *testing.T) {
	a, m := setupApp(t)
	cfg := projectConfig(t)
	cfg.Static.Minify = true

	m.loader.EXPECT().Load("").Return(cfg, nil)
	m.cleaner.EXPECT().Clean(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.CleanReport{}, nil)
	m.copier.EXPECT().Copy(gomock.Any(), gomock.Any(), gomock.Any(), domain.CopyOptions{}).
		Return(domain.CopyReport{}, nil)

	require.NoError(t, a.Run(context.Background(), app.TaskCopyStatic, app.RunOptions{}))
}

func TestApp_Run_BuildFailureStopsDependants(t *testing.T) {
	a, m := setupApp(t)
	cfg := projectConfig(t)

	m.loader.EXPECT().Load("").Return(cfg, nil)
	m.cleaner.EXPECT().Clean(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.CleanReport{}, nil)
	m.copier.EXPECT().Copy(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.CopyReport{}, nil)
	m.bundler.EXPECT().Bundle(gomock.Any(), gomock.Any()).Return(domain.BundleResult{
		Err: &domain.BuildError{Messages: []domain.Message{{Text: "Unexpected end of file"}}},
	})
	// The clean build is announced before any of its steps run.
	m.logger.EXPECT().Step(gomock.Any()).Times(4)

	err := a.Run(context.Background(), app.TaskCleanBuild, app.RunOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBuildExecutionFailed))

	var buildErr *domain.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "Unexpected end of file", buildErr.Messages[0].Text)
}

func TestApp_Run_CleanFailure(t *testing.T) {
	a, m := setupApp(t)
	cfg := projectConfig(t)

	m.loader.EXPECT().Load("").Return(cfg, nil)
	m.cleaner.EXPECT().Clean(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.CleanReport{}, domain.ErrCleanFailed)

	err := a.Run(context.Background(), app.TaskCopyStatic, app.RunOptions{})
	assert.True(t, errors.Is(err, domain.ErrBuildExecutionFailed))
	assert.True(t, errors.Is(err, domain.ErrCleanFailed))
}

func TestApp_Run_UnknownTask(t *testing.T) {
	a, m := setupApp(t)
	m.loader.EXPECT().Load("").Return(projectConfig(t), nil)

	err := a.Run(context.Background(), "deploy", app.RunOptions{})
	require.ErrorContains(t, err, "task not found")
	assert.False(t, errors.Is(err, domain.ErrBuildExecutionFailed))
}

func TestApp_Run_ConfigError(t *testing.T) {
	a, m := setupApp(t)
	m.loader.EXPECT().Load("bad.yaml").Return(domain.Config{}, domain.ErrConfigParseFailed)

	err := a.Run(context.Background(), app.TaskBuild, app.RunOptions{ConfigPath: "bad.yaml"})
	require.ErrorContains(t, err, "failed to load configuration")
}

func TestApp_Run_InvalidPort(t *testing.T) {
	a, m := setupApp(t)
	m.loader.EXPECT().Load("").Return(projectConfig(t), nil)

	err := a.Run(context.Background(), app.TaskServe, app.RunOptions{Port: 70000})
	require.ErrorContains(t, err, "invalid configuration")
}

func TestApp_Tasks(t *testing.T) {
	a, m := setupApp(t)
	m.loader.EXPECT().Load("").Return(projectConfig(t), nil)

	tasks, err := a.Tasks(app.RunOptions{})
	require.NoError(t, err)

	names := make([]string, len(tasks))
	deps := make(map[string][]string, len(tasks))
	for i, task := range tasks {
		names[i] = task.Name
		deps[task.Name] = task.Dependencies
		assert.NotEmpty(t, task.Description)
	}

	assert.Equal(t, []string{
		"build", "remove-all-files", "copy-static", "clean-build",
		"watch-js", "watch-static", "serve", "default",
	}, names)
	assert.Equal(t, []string{"remove-all-files", "copy-static", "build"}, deps["clean-build"])
	assert.Equal(t, []string{"serve"}, deps["default"])
}

func TestApp_Graph_ServePlan(t *testing.T) {
	a, _ := setupApp(t)

	g, err := a.Graph(domain.DefaultConfig())
	require.NoError(t, err)

	plan, err := g.Plan(app.TaskServe)
	require.NoError(t, err)
	names := make([]string, len(plan))
	for i, task := range plan {
		names[i] = task.Name
	}
	assert.Equal(t, []string{"remove-all-files", "copy-static", "build", "clean-build", "serve"}, names)
}

// fakeWatcher replays events pushed by the test.
type fakeWatcher struct {
	events chan ports.WatchEvent
	once   sync.Once
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{events: make(chan ports.WatchEvent, 16)}
}

func (w *fakeWatcher) Start(context.Context, string) error { return nil }

func (w *fakeWatcher) Stop() error {
	w.once.Do(func() { close(w.events) })
	return nil
}

func (w *fakeWatcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// serveHarness starts the serve task with fake watchers and a blocking server.
type serveHarness struct {
	cfg    domain.Config
	m      appMocks
	source *fakeWatcher
	static *fakeWatcher
	cancel context.CancelFunc
	done   chan error
}

func startServe(t *testing.T) *serveHarness {
	t.Helper()
	a, m := setupApp(t)
	cfg := projectConfig(t)
	h := &serveHarness{cfg: cfg, m: m, source: newFakeWatcher(), static: newFakeWatcher(), done: make(chan error, 1)}

	m.loader.EXPECT().Load("").Return(cfg, nil)
	m.cleaner.EXPECT().Clean(gomock.Any(), cfg.Layout.Output, gomock.Nil()).Return(domain.CleanReport{}, nil)
	m.copier.EXPECT().Copy(gomock.Any(), gomock.Any(), gomock.Any(), domain.CopyOptions{}).Return(domain.CopyReport{}, nil)
	m.bundler.EXPECT().Bundle(gomock.Any(), gomock.Any()).Return(okBundle(cfg))
	m.logger.EXPECT().Step(gomock.Any()).Times(4)
	gomock.InOrder(
		m.watchers.EXPECT().NewWatcher().Return(h.source, nil),
		m.watchers.EXPECT().NewWatcher().Return(h.static, nil),
	)
	m.server.EXPECT().Serve(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, opts ports.ServeOptions) error {
			assert.Equal(t, cfg.Layout.Output, opts.Root)
			assert.Equal(t, 3000, opts.Port)
			assert.False(t, opts.Open, "never opens outside a terminal")
			<-ctx.Done()
			return nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.done <- a.Run(ctx, app.TaskDefault, app.RunOptions{})
	}()
	synctest.Wait()
	return h
}

func (h *serveHarness) stop(t *testing.T) {
	t.Helper()
	h.cancel()
	require.NoError(t, <-h.done)
}

func TestApp_Serve_SourceChangeRebuildsAndReloads(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := startServe(t)

		h.m.bundler.EXPECT().Bundle(gomock.Any(), gomock.Any()).Return(okBundle(h.cfg))
		h.m.server.EXPECT().Reload()

		h.source.events <- ports.WatchEvent{Path: filepath.Join(h.cfg.Layout.Source, "main.js"), Operation: ports.OpWrite}
		h.source.events <- ports.WatchEvent{Path: filepath.Join(h.cfg.Layout.Source, "notes.txt"), Operation: ports.OpWrite}
		time.Sleep(200 * time.Millisecond)
		synctest.Wait()

		h.stop(t)
	})
}

func TestApp_Serve_IgnoresUnmatchedSourceFiles(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := startServe(t)

		h.source.events <- ports.WatchEvent{Path: filepath.Join(h.cfg.Layout.Source, "style.css"), Operation: ports.OpWrite}
		time.Sleep(200 * time.Millisecond)
		synctest.Wait()

		h.stop(t)
	})
}

func TestApp_Serve_StaticChangeKeepsOutput(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := startServe(t)

		gomock.InOrder(
			h.m.cleaner.EXPECT().Clean(gomock.Any(), h.cfg.Layout.Output, gomock.Not(gomock.Nil())).DoAndReturn(
				func(_ context.Context, _ string, keep *domain.Suppression) (domain.CleanReport, error) {
					assert.True(t, keep.Consume(), "a fresh token is armed for every static change")
					return domain.CleanReport{Skipped: true}, nil
				}),
			h.m.copier.EXPECT().Copy(gomock.Any(), gomock.Any(), gomock.Any(), domain.CopyOptions{SkipUnchanged: true}).
				Return(domain.CopyReport{Copied: 1, Unchanged: 4}, nil),
			h.m.server.EXPECT().Reload(),
		)

		h.static.events <- ports.WatchEvent{Path: filepath.Join(h.cfg.Layout.Static, "index.html"), Operation: ports.OpWrite}
		time.Sleep(200 * time.Millisecond)
		synctest.Wait()

		h.stop(t)
	})
}

func TestApp_Serve_BuildFailureKeepsServing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := startServe(t)

		buildErr := &domain.BuildError{Messages: []domain.Message{{Text: "Unexpected \"}\""}}}
		gomock.InOrder(
			h.m.bundler.EXPECT().Bundle(gomock.Any(), gomock.Any()).Return(domain.BundleResult{Err: buildErr}),
			h.m.server.EXPECT().NotifyError(buildErr.Error()),
			h.m.bundler.EXPECT().Bundle(gomock.Any(), gomock.Any()).Return(okBundle(h.cfg)),
			h.m.server.EXPECT().Reload(),
		)

		main := filepath.Join(h.cfg.Layout.Source, "main.js")
		h.source.events <- ports.WatchEvent{Path: main, Operation: ports.OpWrite}
		time.Sleep(200 * time.Millisecond)
		synctest.Wait()

		h.source.events <- ports.WatchEvent{Path: main, Operation: ports.OpWrite}
		time.Sleep(200 * time.Millisecond)
		synctest.Wait()

		h.stop(t)
	})
}

func TestApp_Serve_CopyFailureIsLogged(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := startServe(t)

		h.m.cleaner.EXPECT().Clean(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.CleanReport{Skipped: true}, nil)
		h.m.copier.EXPECT().Copy(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(domain.CopyReport{}, domain.ErrCopyFailed)
		h.m.logger.EXPECT().Error(gomock.Any())

		h.static.events <- ports.WatchEvent{Path: filepath.Join(h.cfg.Layout.Static, "logo.svg"), Operation: ports.OpCreate}
		time.Sleep(200 * time.Millisecond)
		synctest.Wait()

		h.stop(t)
	})
}
