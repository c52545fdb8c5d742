package ports

// Logger defines the interface for logging.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Info(msg string)
	Warn(msg string)
	// Step logs a pipeline stage header.
	Step(msg string)
	// Success logs a completed stage.
	Success(msg string)
	// Notice logs a message that deserves attention without being a warning.
	Notice(msg string)
	Error(err error)
}
