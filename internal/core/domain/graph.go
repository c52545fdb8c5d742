// Package domain contains the core domain models of the build pipeline.
package domain

import (
	"context"
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Graph is a registry of named tasks with explicit dependency lists.
type Graph struct {
	tasks map[string]Task
	order []string
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		tasks: make(map[string]Task),
	}
}

// AddTask adds a task to the graph.
// It returns an error if a task with the same name already exists.
func (g *Graph) AddTask(t Task) error {
	if _, exists := g.tasks[t.Name]; exists {
		return zerr.With(ErrTaskAlreadyExists, "task_name", t.Name)
	}
	g.tasks[t.Name] = t
	g.order = append(g.order, t.Name)
	return nil
}

// GetTask returns the task registered under name.
func (g *Graph) GetTask(name string) (Task, bool) {
	t, ok := g.tasks[name]
	return t, ok
}

// Tasks yields tasks in registration order.
func (g *Graph) Tasks() iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for _, name := range g.order {
			if !yield(g.tasks[name]) {
				return
			}
		}
	}
}

// Validate checks that every dependency exists and that the graph is acyclic.
func (g *Graph) Validate() error {
	for _, name := range g.order {
		if _, err := g.Plan(name); err != nil {
			return err
		}
	}
	return nil
}

// Plan returns the execution order for target: every transitive dependency
// exactly once, depth-first in declaration order, followed by target itself.
func (g *Graph) Plan(target string) ([]Task, error) {
	steps, err := g.Schedule(target)
	if err != nil {
		return nil, err
	}

	plan := make([]Task, 0, len(steps))
	for _, step := range steps {
		if !step.IsHook() {
			plan = append(plan, step.Task)
		}
	}
	return plan, nil
}

// Schedule returns the plan of target interleaved with task hooks. A task's
// Start hook precedes its first dependency, and its BeforeDependency hook
// precedes each dependency that first runs on its behalf.
func (g *Graph) Schedule(target string) ([]Step, error) {
	if _, ok := g.tasks[target]; !ok {
		return nil, zerr.With(ErrTaskNotFound, "task", target)
	}

	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(g.tasks))
	steps := make([]Step, 0, len(g.tasks))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		task, ok := g.tasks[name]
		if !ok {
			return zerr.With(zerr.With(ErrMissingDependency, "dependency", name), "required_by", path[len(path)-1])
		}

		state[name] = visiting
		path = append(path, name)

		if task.Start != nil {
			steps = append(steps, Step{Task: task, Hook: task.Start})
		}

		for _, dep := range task.Dependencies {
			switch state[dep] {
			case visiting:
				return g.buildCycleError(path, dep)
			case unvisited:
				if task.BeforeDependency != nil {
					steps = append(steps, Step{Task: task, Hook: announce(task.BeforeDependency, dep)})
				}
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		state[name] = visited
		path = path[:len(path)-1]
		steps = append(steps, Step{Task: task})
		return nil
	}

	if err := visit(target); err != nil {
		return nil, err
	}
	return steps, nil
}

func announce(hook func(context.Context, *RunContext, string) error, dep string) TaskFunc {
	return func(ctx context.Context, rc *RunContext) error {
		return hook(ctx, rc, dep)
	}
}

// buildCycleError constructs an error with cycle path metadata.
func (g *Graph) buildCycleError(path []string, dep string) error {
	start := slices.Index(path, dep)
	cycle := append(slices.Clone(path[start:]), dep)
	return zerr.With(ErrCycleDetected, "cycle", strings.Join(cycle, " -> "))
}
