package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"go.trai.ch/forge/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/zerr"
)

// job is one queued task run.
type job struct {
	target string
	rc     *domain.RunContext
}

// runQueue serializes watch-triggered runs. A target already waiting in the
// queue is not queued twice; a running target may be queued again.
type runQueue struct {
	mu      sync.Mutex
	pending []job
	queued  map[string]bool
	wake    chan struct{}
}

func newRunQueue() *runQueue {
	return &runQueue{
		queued: make(map[string]bool),
		wake:   make(chan struct{}, 1),
	}
}

// push enqueues j unless a run of the same target is already pending.
func (q *runQueue) push(j job) {
	q.mu.Lock()
	if q.queued[j.target] {
		q.mu.Unlock()
		return
	}
	q.queued[j.target] = true
	q.pending = append(q.pending, j)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *runQueue) pop() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		return job{}, false
	}
	j := q.pending[0]
	q.pending = q.pending[1:]
	delete(q.queued, j.target)
	return j, true
}

// run executes queued jobs one at a time until ctx is cancelled.
func (q *runQueue) run(ctx context.Context, fn func(context.Context, job)) {
	for {
		for {
			if ctx.Err() != nil {
				return
			}
			j, ok := q.pop()
			if !ok {
				break
			}
			fn(ctx, j)
		}

		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}
	}
}

// watchTree binds a watched directory to the run it triggers.
type watchTree struct {
	name   string
	root   string
	filter watcher.Filter
	next   func() job
}

// watch starts the source and static watchers and runs their triggered
// tasks through one serial queue until ctx is cancelled.
func (p *pipeline) watch(ctx context.Context, mode domain.Mode) error {
	q := newRunQueue()

	trees := []watchTree{
		{
			name:   "source",
			root:   p.cfg.Layout.Source,
			filter: watcher.NewFilter(p.cfg.Watch.SourcePatterns...),
			next: func() job {
				return job{target: TaskWatchJS, rc: &domain.RunContext{Mode: mode}}
			},
		},
		{
			name:   "static",
			root:   p.cfg.Layout.Static,
			filter: watcher.NewFilter(),
			next: func() job {
				return job{target: TaskWatchStatic, rc: &domain.RunContext{
					Mode:        mode,
					KeepFiles:   domain.NewSuppression(),
					Incremental: true,
				}}
			},
		},
	}

	for _, tree := range trees {
		stop, err := p.startTree(ctx, tree, q)
		if err != nil {
			return err
		}
		defer stop()
	}

	q.run(ctx, p.runJob)
	return nil
}

// startTree watches one tree and feeds debounced batches into q.
func (p *pipeline) startTree(ctx context.Context, tree watchTree, q *runQueue) (func(), error) {
	if _, err := os.Stat(tree.root); errors.Is(err, fs.ErrNotExist) {
		p.logger.Warn(fmt.Sprintf("not watching %s files: %s does not exist", tree.name, tree.root))
		return func() {}, nil
	}

	w, err := p.watchers.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx, tree.root); err != nil {
		_ = w.Stop()
		return nil, zerr.With(err, "tree", tree.name)
	}

	d := watcher.NewDebouncer(p.cfg.Watch.Debounce, func(paths []string) {
		p.logger.Info(fmt.Sprintf("%d %s file(s) changed", len(paths), tree.name))
		q.push(tree.next())
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range w.Events() {
			if tree.filter.Match(event.Path) {
				d.Add(event.Path)
			}
		}
	}()

	return func() {
		_ = w.Stop()
		<-done
		d.Stop()
	}, nil
}

// runJob executes one watch-triggered run. Failures are reported and the
// loop keeps serving.
func (p *pipeline) runJob(ctx context.Context, j job) {
	err := p.scheduler.Run(ctx, p.graph, j.target, j.rc)
	if err == nil || ctx.Err() != nil {
		return
	}

	var buildErr *domain.BuildError
	if errors.As(err, &buildErr) {
		// The bundler already logged the failure.
		p.server.NotifyError(buildErr.Error())
		return
	}
	p.logger.Error(err)
}
