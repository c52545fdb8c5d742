package ports

import "context"

// ServeOptions configures the development server.
type ServeOptions struct {
	// Root is the directory served over HTTP.
	Root string
	Host string
	Port int
	// Open opens a browser tab once the server is listening.
	Open bool
	// Ready, if set, receives the server URL once it is listening.
	Ready func(url string)
}

// Reloader notifies connected browser clients.
//
//go:generate mockgen -source=devserver.go -destination=mocks/mock_devserver.go -package=mocks
type Reloader interface {
	// Reload tells every connected client to refresh.
	Reload()
	// NotifyError shows a failed build in every connected client.
	NotifyError(msg string)
}

// DevServer serves the build output with live reload.
type DevServer interface {
	Reloader
	// Serve blocks until ctx is cancelled or the listener fails.
	Serve(ctx context.Context, opts ServeOptions) error
}
