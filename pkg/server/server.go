// Package server exposes the layout pipeline over HTTP.
//
// Routes:
//
//	POST /v1/layout      lay out a graph (or raw dump) and score it
//	POST /v1/metrics     score an annotated layout (?format=json|tsv|html)
//	GET  /v1/runs        list stored batch runs (?dataset=&batch=&limit=&failed=)
//	GET  /v1/runs/{id}   fetch one stored run
//	GET  /healthz        liveness and build version
//
// Errors are JSON objects {"error": {"code": ..., "message": ...}}. Invalid
// input maps to 400, unknown runs to 404 and everything else to 500.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nestlayout/pkg/pipeline"
	"github.com/matzehuels/nestlayout/pkg/store"
)

const (
	// DefaultAddr is the listen address of the serve command.
	DefaultAddr = ":8080"

	// DefaultMaxBodyBytes caps request bodies.
	DefaultMaxBodyBytes = 32 << 20

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second
)

// Config configures a [Server].
type Config struct {
	Runner *pipeline.Runner
	// Store backs the /v1/runs routes; they are not mounted when nil.
	Store           store.Store
	Logger          *log.Logger
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	runner  *pipeline.Runner
	store   store.Store
	logger  *log.Logger
	maxBody int64
	timeout time.Duration
	router  chi.Router
}

// New builds the router. A nil runner gets an uncached one.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	s := &Server{
		runner:  cfg.Runner,
		store:   cfg.Store,
		logger:  cfg.Logger,
		maxBody: cfg.MaxBodyBytes,
		timeout: cfg.ShutdownTimeout,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handle(s.healthz))
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handle(s.layout))
		r.Post("/metrics", s.handle(s.metrics))
		if s.store != nil {
			r.Get("/runs", s.handle(s.listRuns))
			r.Get("/runs/{id}", s.handle(s.getRun))
		}
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Serve accepts connections on l until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Hour,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(l)
	}()

	s.logger.Info("listening", "addr", l.Addr().String())
	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// ListenAndServe listens on addr and calls [Server.Serve].
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}
