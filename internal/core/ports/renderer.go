package ports

import "time"

// Renderer is the abstraction for task progress output.
// It decouples telemetry collection from presentation logic.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// OnPlanEmit is called when the scheduler has planned a run.
	// tasks: task names in execution order
	// target: the task the user asked for
	OnPlanEmit(tasks []string, target string)

	// OnTaskStart is called when a task begins execution.
	// spanID: unique identifier for this task execution
	// parentID: spanID of the parent span (empty if root)
	// name: human-readable task name
	// startTime: when the task started
	OnTaskStart(spanID, parentID, name string, startTime time.Time)

	// OnTaskComplete is called when a task finishes execution.
	// spanID: identifier for the task
	// endTime: when the task completed
	// err: nil if successful, error otherwise
	OnTaskComplete(spanID string, endTime time.Time, err error)
}
