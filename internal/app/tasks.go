package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"go.trai.ch/forge/internal/adapters/detector" //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// Task names.
const (
	TaskBuild          = "build"
	TaskRemoveAllFiles = "remove-all-files"
	TaskCopyStatic     = "copy-static"
	TaskCleanBuild     = "clean-build"
	TaskWatchJS        = "watch-js"
	TaskWatchStatic    = "watch-static"
	TaskServe          = "serve"
	TaskDefault        = "default"
)

// pipeline binds the task bodies to one resolved configuration.
type pipeline struct {
	*App
	cfg   domain.Config
	graph *domain.Graph
}

// Graph registers the task table for cfg.
func (a *App) Graph(cfg domain.Config) (*domain.Graph, error) {
	p := &pipeline{App: a, cfg: cfg, graph: domain.NewGraph()}

	tasks := []domain.Task{
		{
			Name:        TaskBuild,
			Description: "Bundle the entry module into the scripts directory",
			Run:         p.build,
		},
		{
			Name:        TaskRemoveAllFiles,
			Description: "Empty the build output directory",
			Run:         p.removeAllFiles,
		},
		{
			Name:         TaskCopyStatic,
			Description:  "Copy static assets into the build output",
			Dependencies: []string{TaskRemoveAllFiles},
			Run:          p.copyStatic,
		},
		{
			Name:             TaskCleanBuild,
			Description:      "Rebuild the output directory from scratch",
			Dependencies:     []string{TaskRemoveAllFiles, TaskCopyStatic, TaskBuild},
			Start:            p.startCleanBuild,
			BeforeDependency: p.cleanBuildStep,
		},
		{
			Name:         TaskWatchJS,
			Description:  "Rebuild the bundle and reload connected browsers",
			Dependencies: []string{TaskBuild},
			Run:          p.reload,
		},
		{
			Name:         TaskWatchStatic,
			Description:  "Refresh static assets and reload connected browsers",
			Dependencies: []string{TaskCopyStatic},
			Run:          p.reload,
		},
		{
			Name:         TaskServe,
			Description:  "Serve the build output with live reload",
			Dependencies: []string{TaskCleanBuild},
			Run:          p.serve,
		},
		{
			Name:         TaskDefault,
			Description:  "Alias for serve",
			Dependencies: []string{TaskServe},
		},
	}

	for _, task := range tasks {
		if err := p.graph.AddTask(task); err != nil {
			return nil, err
		}
	}
	if err := p.graph.Validate(); err != nil {
		return nil, err
	}
	return p.graph, nil
}

func (p *pipeline) build(ctx context.Context, rc *domain.RunContext) error {
	res := p.bundler.Bundle(ctx, p.cfg.BundleRequest(rc.Mode))
	if !res.OK() {
		return res.Err
	}

	for _, a := range res.Artifacts {
		p.logger.Info(fmt.Sprintf("  %s  %s", p.relative(a.Path), humanize.Bytes(uint64(max(a.Size, 0)))))
	}
	p.logger.Success(fmt.Sprintf("Bundled %s in %s", p.cfg.Layout.Bundle, res.Duration.Round(time.Millisecond)))
	return nil
}

func (p *pipeline) removeAllFiles(ctx context.Context, rc *domain.RunContext) error {
	report, err := p.cleaner.Clean(ctx, p.cfg.Layout.Output, rc.KeepFiles)
	if err != nil {
		return err
	}
	if report.Skipped {
		p.logger.Info("Keeping build output for incremental copy")
	}
	return nil
}

func (p *pipeline) copyStatic(ctx context.Context, rc *domain.RunContext) error {
	opts := domain.CopyOptions{
		SkipUnchanged: rc.Incremental,
		Minify:        rc.Mode.IsProduction() && p.cfg.Static.Minify,
	}
	report, err := p.copier.Copy(ctx, p.cfg.Layout.Static, p.cfg.Layout.Output, opts)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("Copied %d static file(s)", report.Copied)
	if report.Unchanged > 0 {
		msg += fmt.Sprintf(", %d unchanged", report.Unchanged)
	}
	if report.Minified > 0 {
		msg += fmt.Sprintf(", %d minified", report.Minified)
	}
	p.logger.Info(msg)
	return nil
}

// cleanBuildSteps labels the steps of a clean build.
var cleanBuildSteps = map[string]string{
	TaskRemoveAllFiles: "removing all files",
	TaskCopyStatic:     "copying all static files",
	TaskBuild:          "building",
}

func (p *pipeline) startCleanBuild(context.Context, *domain.RunContext) error {
	p.logger.Step("Starting CLEAN BUILD...")
	return nil
}

func (p *pipeline) cleanBuildStep(_ context.Context, _ *domain.RunContext, dep string) error {
	if label, ok := cleanBuildSteps[dep]; ok {
		p.logger.Step("  - " + label)
	}
	return nil
}

func (p *pipeline) reload(context.Context, *domain.RunContext) error {
	p.server.Reload()
	return nil
}

// serve runs the development server and both watch trees until ctx ends or
// one of them fails.
func (p *pipeline) serve(ctx context.Context, rc *domain.RunContext) error {
	opts := ports.ServeOptions{
		Root: p.cfg.Layout.Output,
		Host: p.cfg.Server.Host,
		Port: p.cfg.Server.Port,
		Open: detector.ResolveOpen(p.cfg.Server.Open, false, p.interactive()),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The watchers only live as long as the server.
		defer cancel()
		return p.server.Serve(ctx, opts)
	})
	g.Go(func() error {
		return p.watch(ctx, rc.Mode)
	})
	return g.Wait()
}

// relative shortens path against the working directory for display.
func (p *pipeline) relative(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil {
		return rel
	}
	return path
}
