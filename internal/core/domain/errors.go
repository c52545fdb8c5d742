package domain

import "go.trai.ch/zerr"

var (
	// ErrTaskAlreadyExists is returned when attempting to add a task with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not found in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrTaskExecutionFailed is returned when a task body fails.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrBuildExecutionFailed is returned when a task run fails as a whole.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrBundleFailed is returned when module resolution or transformation fails.
	ErrBundleFailed = zerr.New("bundle failed")

	// ErrBundleWriteFailed is returned when a bundle artifact cannot be written.
	ErrBundleWriteFailed = zerr.New("failed to write bundle artifact")

	// ErrSourceMapMissing is returned when an artifact carries no inline source map.
	ErrSourceMapMissing = zerr.New("no inline source map found")

	// ErrSourceMapDecode is returned when an inline source map payload cannot be decoded.
	ErrSourceMapDecode = zerr.New("failed to decode inline source map")

	// ErrCleanFailed is returned when the build output root cannot be emptied.
	ErrCleanFailed = zerr.New("failed to remove build output")

	// ErrCopyFailed is returned when a static file cannot be copied.
	ErrCopyFailed = zerr.New("failed to copy static file")

	// ErrMinifyFailed is returned when a static file cannot be minified.
	ErrMinifyFailed = zerr.New("failed to minify static file")

	// ErrServerFailed is returned when the development server stops unexpectedly.
	ErrServerFailed = zerr.New("development server failed")

	// ErrWatchFailed is returned when a file watcher cannot be started.
	ErrWatchFailed = zerr.New("failed to start file watcher")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when the config file holds invalid values.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrInvalidLayout is returned when the path layout is inconsistent.
	ErrInvalidLayout = zerr.New("invalid path layout")
)
