// Package server serves the dashboard page and its JSON, CSV, XLSX and PNG
// endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"gapdash/internal/logging"
	"gapdash/internal/view"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
)

// Options configures the HTTP listener.
type Options struct {
	Addr            string
	MaxConnections  int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Title           string
}

// DefaultOptions listens on the Dash default port.
func DefaultOptions() Options {
	return Options{
		Addr:            "0.0.0.0:8050",
		MaxConnections:  256,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		Title:           "Gapminder Dashboard",
	}
}

// Server is the dashboard HTTP server. The dataset behind gen is shared
// read-only by every request.
type Server struct {
	gen  *view.Generator
	opts Options
	mux  *http.ServeMux
}

// New builds the server and its routes.
func New(gen *view.Generator, opts Options) *Server {
	def := DefaultOptions()
	if opts.Addr == "" {
		opts.Addr = def.Addr
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = def.ShutdownTimeout
	}
	if opts.Title == "" {
		opts.Title = def.Title
	}
	s := &Server{gen: gen, opts: opts, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /api/options", s.handleOptions)
	s.mux.HandleFunc("GET /api/view", s.handleView)
	s.mux.HandleFunc("GET /export.csv", s.handleExport)
	s.mux.HandleFunc("GET /export.xlsx", s.handleExport)
	s.mux.HandleFunc("GET /chart.png", s.handleChart)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return withRequestID(s.mux)
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.opts.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.opts.MaxConnections)
	}
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Server("Dashboard listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		logging.Server("Shutting down dashboard server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
