// Package server hosts live renderers over HTTP.
//
// Each session owns one [renderer.Renderer] driven by a [schedule.Loop]:
// request handlers funnel their calls through the loop, and queued render
// tasks run on the same goroutine whenever no request is waiting. Clients
// push snapshots with POST /sessions/{id}/render or over the session's
// WebSocket and read the scene back in any export format.
//
// # Routes
//
//	POST   /sessions                   create a session
//	GET    /sessions/{id}              session state and counters
//	DELETE /sessions/{id}              close a session
//	POST   /sessions/{id}/render       queue a snapshot (202)
//	POST   /sessions/{id}/reset        clear the scene (204)
//	POST   /sessions/{id}/pointer      tooltip enter/leave
//	GET    /sessions/{id}/scene.{fmt}  export svg, png, pdf, json, dot or neato
//	GET    /sessions/{id}/ws           snapshot stream
//	GET    /healthz
//	GET    /metrics
//
// Errors are JSON objects {"error": ..., "code": ...} using the codes of
// pkg/errors.
package server

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/forcegraph/pkg/httputil"
	"github.com/matzehuels/forcegraph/pkg/observability/prom"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
)

// Config configures a Server. Zero fields take the defaults below.
type Config struct {
	Addr            string
	MaxSessions     int
	SessionTTL      time.Duration
	ShutdownTimeout time.Duration

	// AllowedOrigins lists WebSocket origins accepted besides the host's
	// own. "*" accepts any origin.
	AllowedOrigins []string

	// Defaults seeds every session's canvas, layout and export settings.
	// Create requests override canvas, mode and layout.
	Defaults pipeline.Options
}

const (
	DefaultAddr            = ":8080"
	DefaultMaxSessions     = 256
	DefaultSessionTTL      = 30 * time.Minute
	DefaultShutdownTimeout = 10 * time.Second
)

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = DefaultMaxSessions
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Server is the HTTP host. Create it with [New].
type Server struct {
	cfg      Config
	logger   *log.Logger
	fetcher  *httputil.Fetcher
	metrics  *prom.Metrics
	gatherer prometheus.Gatherer
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*session
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithFetcher sets the fetcher used for PNG background images. Without one,
// PNG exports skip remote backgrounds.
func WithFetcher(f *httputil.Fetcher) Option {
	return func(s *Server) { s.fetcher = f }
}

// WithMetrics serves m's collectors from g at /metrics and records request
// metrics through m.
func WithMetrics(m *prom.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// New creates a server. Without WithMetrics it registers its own collectors
// on a private registry.
func New(cfg Config, opts ...Option) *Server {
	cfg.setDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg,
		logger:   log.New(io.Discard),
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		reg := prometheus.NewRegistry()
		s.metrics = prom.New(reg)
		s.gatherer = reg
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware(routePattern))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleInfo)
			r.Delete("/", s.handleDelete)
			r.Post("/render", s.handleRender)
			r.Post("/reset", s.handleReset)
			r.Post("/pointer", s.handlePointer)
			r.Get("/scene.{format}", s.handleScene)
			r.Get("/ws", s.handleWS)
		})
	})
	return r
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// Run serves until ctx is cancelled, then shuts down gracefully and closes
// every session.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.janitor(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down", "sessions", s.SessionCount())
	// Hijacked WebSocket connections are not tracked by Shutdown; closing
	// the sessions ends them.
	s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// Close stops every session.
func (s *Server) Close() {
	s.cancel()
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		sessions = append(sessions, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// janitor closes sessions idle for longer than the session TTL.
func (s *Server) janitor(ctx context.Context) {
	interval := min(s.cfg.SessionTTL/2, time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expire()
		}
	}
}

func (s *Server) expire() int {
	cutoff := s.now().Add(-s.cfg.SessionTTL)
	var idle []*session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.lastUsed().Before(cutoff) {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()
	for _, sess := range idle {
		s.logger.Info("session expired", "session", sess.id)
		sess.close()
	}
	return len(idle)
}
