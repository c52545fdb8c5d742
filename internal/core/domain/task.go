package domain

import "context"

// TaskFunc is the body of a task. It runs after all dependencies succeeded.
type TaskFunc func(ctx context.Context, rc *RunContext) error

// Task represents a named unit of work in the task graph.
type Task struct {
	Name         string
	Description  string
	Dependencies []string
	Run          TaskFunc

	// Start runs when the task is reached, before any of its dependencies.
	Start TaskFunc
	// BeforeDependency runs right before each dependency that executes on
	// behalf of this task. Dependencies already run earlier in the plan are
	// not announced again.
	BeforeDependency func(ctx context.Context, rc *RunContext, dep string) error
}

// Step is one entry of a schedule. A step with a Hook runs that hook on
// behalf of Task; a step without one runs the body of Task.
type Step struct {
	Task Task
	Hook TaskFunc
}

// IsHook reports whether the step runs a hook instead of a task body.
func (s Step) IsHook() bool {
	return s.Hook != nil
}

// RunContext carries the per-invocation state threaded through every task of a run.
type RunContext struct {
	// Mode is derived once from the --production flag.
	Mode Mode
	// KeepFiles, when armed, makes the next clean step skip deletion.
	KeepFiles *Suppression
	// Incremental copies skip destination files whose content is unchanged.
	Incremental bool
}
