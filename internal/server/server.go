// Package server exposes the diagram library and the layout pipeline over HTTP.
//
// The routes mirror the editor backend the crewboard frontend talks to:
//
//	GET    /health
//	GET    /designer/list-json-files
//	GET    /designer/get-diagram/{filename}
//	POST   /designer/save-diagram
//	DELETE /designer/delete-diagram/{filename}
//	POST   /designer/layout?width=&type=
//	POST   /designer/render?format=&type=
//	POST   /designer/execution-plan
//	GET    /metrics
//
// Errors are answered as JSON objects of the form {"detail": ..., "code": ...}
// with the status taken from the error code.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/crewboard/internal/config"
	"github.com/matzehuels/crewboard/pkg/pipeline"
	"github.com/matzehuels/crewboard/pkg/store"
)

// maxBodyBytes caps request bodies. Diagrams are small JSON documents.
const maxBodyBytes = 8 << 20

// Server serves the crewboard HTTP API.
type Server struct {
	cfg      config.ServerConfig
	store    store.Store
	runner   *pipeline.Runner
	defaults pipeline.Options
	metrics  http.Handler
	logger   *log.Logger
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLayoutDefaults sets the pipeline options requests start from.
// Query parameters override the viz type and width per request.
func WithLayoutDefaults(opts pipeline.Options) Option {
	return func(s *Server) { s.defaults = opts }
}

// New builds a Server backed by st and runner.
func New(cfg config.ServerConfig, st store.Store, runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		store:  st,
		runner: runner,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors(s.cfg.AllowedOrigins))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/designer", func(r chi.Router) {
		r.Get("/list-json-files", s.handleListFiles)
		r.Get("/get-diagram/{filename}", s.handleGetDiagram)
		r.Post("/save-diagram", s.handleSaveDiagram)
		r.Delete("/delete-diagram/{filename}", s.handleDeleteDiagram)
		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)
		r.Post("/execution-plan", s.handleExecutionPlan)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
