// Package scheduler runs task plans in dependency order.
package scheduler

import (
	"context"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

// Scheduler executes the plan of a target sequentially, one span per task.
type Scheduler struct {
	tracer ports.Tracer
}

// NewScheduler creates a new Scheduler with the given tracer.
func NewScheduler(tracer ports.Tracer) *Scheduler {
	return &Scheduler{tracer: tracer}
}

// Run executes target and its transitive dependencies. Every task runs after
// all of its dependencies succeeded; the first failure stops the run and no
// later task executes. Task hooks run in schedule order without spans of
// their own. A nil rc runs in development mode without suppression.
func (s *Scheduler) Run(ctx context.Context, graph *domain.Graph, target string, rc *domain.RunContext) error {
	steps, err := graph.Schedule(target)
	if err != nil {
		return err
	}
	if rc == nil {
		rc = &domain.RunContext{}
	}

	ctx, root := s.tracer.Start(ctx, "run:"+target, ports.WithQuiet())
	defer root.End()

	names := make([]string, 0, len(steps))
	for _, step := range steps {
		if !step.IsHook() {
			names = append(names, step.Task.Name)
		}
	}
	s.tracer.EmitPlan(ctx, names, target)

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.runStep(ctx, step, rc); err != nil {
			root.RecordError(err)
			return err
		}
	}
	return nil
}

func (s *Scheduler) runStep(ctx context.Context, step domain.Step, rc *domain.RunContext) error {
	if !step.IsHook() {
		return s.runTask(ctx, step.Task, rc)
	}
	if err := step.Hook(ctx, rc); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrTaskExecutionFailed.Error()), "task", step.Task.Name)
	}
	return nil
}

func (s *Scheduler) runTask(ctx context.Context, task domain.Task, rc *domain.RunContext) error {
	ctx, span := s.tracer.Start(ctx, task.Name)
	defer span.End()

	span.SetAttribute("forge.mode", rc.Mode.String())
	span.SetAttribute("forge.incremental", rc.Incremental)

	if task.Run == nil {
		return nil
	}

	if err := task.Run(ctx, rc); err != nil {
		span.RecordError(err)
		return zerr.With(zerr.Wrap(err, domain.ErrTaskExecutionFailed.Error()), "task", task.Name)
	}
	return nil
}
