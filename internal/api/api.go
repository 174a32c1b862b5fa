// Package api provides HTTP handlers and the main API server logic for the
// dual thermostat config wizard.
//
// It exposes RESTful endpoints for driving wizard flows (create, edit,
// reconfigure) and for inspecting committed config records. The API
// integrates with the flow engine and the store modules.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/swingerman/dual-thermostat-config/internal/flow"
	"github.com/swingerman/dual-thermostat-config/internal/store"
)

// DefaultServerAddr is the address the API listens on when none is configured.
const DefaultServerAddr = ":8080"

// Timeouts applied to the HTTP server.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Opts holds server configuration applied via functional options.
type Opts struct {
	Addr string
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// Server wires the flow engine and the store to the HTTP surface.
type Server struct {
	engine *flow.Engine
	st     store.Store
	addr   string
	httpd  *http.Server
}

// NewServer creates an API server around the given store.
func NewServer(st store.Store, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultServerAddr
	}
	slog.Debug("Creating API server", "addr", cfg.Addr)
	return &Server{
		engine: flow.NewEngine(st),
		st:     st,
		addr:   cfg.Addr,
	}
}

// Handler builds the route table. Split from Run so tests can mount it on
// httptest servers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /flows", s.startFlowHandler)
	mux.HandleFunc("GET /flows/{id}", s.resumeFlowHandler)
	mux.HandleFunc("POST /flows/{id}/steps", s.submitStepHandler)
	mux.HandleFunc("DELETE /flows/{id}", s.abortFlowHandler)

	mux.HandleFunc("GET /records", s.listRecordsHandler)
	mux.HandleFunc("GET /records/{id}", s.getRecordHandler)
	mux.HandleFunc("DELETE /records/{id}", s.deleteRecordHandler)

	return mux
}

// Run starts the HTTP server and blocks until the context is canceled, then
// shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpd = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", s.addr)
		if err := s.httpd.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := s.httpd.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown failed: %w", err)
	}
	return nil
}
