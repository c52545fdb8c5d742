// Package app implements the application layer for forge.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/forge/internal/adapters/detector" //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine/scheduler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	bundler      ports.Bundler
	cleaner      ports.Cleaner
	copier       ports.Copier
	server       ports.DevServer
	watchers     ports.WatcherFactory
	scheduler    *scheduler.Scheduler
	interactive  func() bool
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	bundler ports.Bundler,
	cleaner ports.Cleaner,
	copier ports.Copier,
	server ports.DevServer,
	watchers ports.WatcherFactory,
	sched *scheduler.Scheduler,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		bundler:      bundler,
		cleaner:      cleaner,
		copier:       copier,
		server:       server,
		watchers:     watchers,
		scheduler:    sched,
		interactive:  detector.IsInteractive,
	}
}

// WithInteractive overrides terminal detection used to decide whether a
// browser may be opened. It is primarily used for testing.
func (a *App) WithInteractive(fn func() bool) *App {
	a.interactive = fn
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// ConfigPath is the forge.yaml to load. Empty means ./forge.yaml if present.
	ConfigPath string
	Production bool
	// JSONLogs switches the logger to JSON output.
	JSONLogs bool
	// Port overrides the configured server port when positive.
	Port int
	// NoOpen keeps the browser closed regardless of configuration.
	NoOpen bool
}

// Run executes target and its dependencies.
func (a *App) Run(ctx context.Context, target string, opts RunOptions) error {
	a.configureLogger(opts)

	cfg, err := a.loadConfig(opts)
	if err != nil {
		return err
	}

	graph, err := a.Graph(cfg)
	if err != nil {
		return err
	}

	if _, ok := graph.GetTask(target); !ok {
		return zerr.With(domain.ErrTaskNotFound, "task", target)
	}

	rc := &domain.RunContext{Mode: domain.ResolveMode(opts.Production)}
	if err := a.scheduler.Run(ctx, graph, target, rc); err != nil {
		return errors.Join(domain.ErrBuildExecutionFailed, err)
	}
	return nil
}

// Tasks returns the registered tasks in declaration order.
func (a *App) Tasks(opts RunOptions) ([]domain.Task, error) {
	cfg, err := a.loadConfig(opts)
	if err != nil {
		return nil, err
	}

	graph, err := a.Graph(cfg)
	if err != nil {
		return nil, err
	}

	var tasks []domain.Task
	for task := range graph.Tasks() {
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (a *App) loadConfig(opts RunOptions) (domain.Config, error) {
	cfg, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return domain.Config{}, zerr.Wrap(err, "failed to load configuration")
	}

	if opts.Port > 0 {
		if opts.Port > 65535 {
			return domain.Config{}, zerr.With(domain.ErrConfigInvalid, "port", fmt.Sprint(opts.Port))
		}
		cfg.Server.Port = opts.Port
	}
	if opts.NoOpen {
		cfg.Server.Open = false
	}
	return cfg, nil
}

// jsonSwitcher is implemented by loggers that can emit JSON.
type jsonSwitcher interface {
	SetJSON(enable bool)
}

func (a *App) configureLogger(opts RunOptions) {
	if !opts.JSONLogs {
		return
	}
	if l, ok := a.logger.(jsonSwitcher); ok {
		l.SetJSON(true)
	}
}
