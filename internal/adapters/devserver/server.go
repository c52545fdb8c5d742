// Package devserver serves the build output over HTTP and pushes live reload
// notifications to connected browsers.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/browser"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/zerr"
)

const shutdownTimeout = 5 * time.Second

var _ ports.DevServer = (*Server)(nil)

// Option configures a Server.
type Option func(*Server)

// WithBrowserOpener replaces the function used to open the browser.
func WithBrowserOpener(open func(url string) error) Option {
	return func(s *Server) {
		s.openBrowser = open
	}
}

// Server is the development HTTP server. It embeds the live reload hub.
type Server struct {
	*Hub
	logger      ports.Logger
	openBrowser func(url string) error
}

// NewServer creates a new Server.
func NewServer(logger ports.Logger, hub *Hub, opts ...Option) *Server {
	s := &Server{
		Hub:         hub,
		logger:      logger,
		openBrowser: browser.OpenURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler serving root with live reload.
func (s *Server) Handler(root string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(SocketPath, s.Hub)
	mux.HandleFunc(ScriptPath, serveScript)
	mux.Handle("/", newStaticHandler(root))
	return mux
}

// Serve listens on opts.Host:opts.Port and serves opts.Root until ctx is
// cancelled. A listener failure ends Serve with an error.
func (s *Server) Serve(ctx context.Context, opts ports.ServeOptions) error {
	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrServerFailed.Error()), "addr", addr)
	}

	port := opts.Port
	if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
		port = tcp.Port
	}
	url := "http://" + net.JoinHostPort(displayHost(opts.Host), strconv.Itoa(port))

	srv := &http.Server{
		Handler:           s.Handler(opts.Root),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Success(fmt.Sprintf("Serving %s at %s", opts.Root, url))
	if opts.Ready != nil {
		opts.Ready(url)
	}
	if opts.Open {
		if err := s.openBrowser(url); err != nil {
			s.logger.Warn(fmt.Sprintf("could not open browser: %v", err))
		}
	}

	select {
	case <-ctx.Done():
		// Hijacked websocket connections are not closed by Shutdown.
		s.Close()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return zerr.Wrap(err, domain.ErrServerFailed.Error())
		}
		return nil
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrServerFailed.Error()), "addr", addr)
	}
}

// displayHost maps wildcard bind addresses to a host a browser can reach.
func displayHost(host string) string {
	switch host {
	case "", "0.0.0.0", "::":
		return "localhost"
	}
	return host
}
