// Package server serves a built portal together with health, metrics, build
// history and live reload endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"git.home.luguber.info/inful/docportal/internal/build"
	"git.home.luguber.info/inful/docportal/internal/config"
	"git.home.luguber.info/inful/docportal/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docportal/internal/foundation/errors"
	"git.home.luguber.info/inful/docportal/internal/logfields"
	"git.home.luguber.info/inful/docportal/internal/metrics"
	"git.home.luguber.info/inful/docportal/internal/version"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
	shutdownTimeout     = 5 * time.Second
)

// Health states reported by /health.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
	HealthStarting = "starting"
)

// Server is the portal HTTP server.
type Server struct {
	cfg        *config.Config
	addr       string
	status     *BuildStatus
	reload     *LiveReloadHub
	gatherer   prom.Gatherer
	events     eventstore.Store
	liveReload bool
	started    time.Time

	router *chi.Mux
	http   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithAddr overrides the listen address from the configuration. Empty keeps it.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithGatherer sets the prometheus registry exposed on /metrics.
func WithGatherer(g prom.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithEventStore enables the build history endpoint.
func WithEventStore(store eventstore.Store) Option {
	return func(s *Server) { s.events = store }
}

// WithLiveReload injects the reload script into served pages.
func WithLiveReload(enabled bool) Option {
	return func(s *Server) { s.liveReload = enabled }
}

// New returns a Server for cfg.
func New(cfg *config.Config, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		addr:    cfg.Daemon.Addr,
		status:  &BuildStatus{},
		reload:  NewLiveReloadHub(),
		events:  eventstore.Noop{},
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Status returns the build status tracker.
func (s *Server) Status() *BuildStatus { return s.status }

// Observe records a finished build and tells connected browsers to reload.
func (s *Server) Observe(report *build.BuildReport, err error) {
	s.status.Observe(report, err)
	if report != nil {
		s.reload.Broadcast(report.BuildID)
	}
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "docportal",
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/livereload" }))
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.HTTPHandler(s.gatherer))
	r.Get("/livereload", s.reload.ServeHTTP)
	r.Get("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write([]byte(liveReloadScript))
	})
	r.Route("/_docportal", func(r chi.Router) {
		r.Get("/report", s.handleReport)
		r.Get("/builds", s.handleBuilds)
		r.Get("/builds/{id}", s.handleBuild)
	})

	site := s.siteHandler()
	base := s.cfg.Site.BaseURL
	if base != "/" {
		r.Get(strings.TrimSuffix(base, "/"), http.RedirectHandler(base, http.StatusMovedPermanently).ServeHTTP)
	}
	r.Method(http.MethodGet, base+"*", site)
	r.Method(http.MethodHead, base+"*", site)
	return r
}

// siteHandler serves the output directory below the base url.
func (s *Server) siteHandler() http.Handler {
	files := http.StripPrefix(strings.TrimSuffix(s.cfg.Site.BaseURL, "/"), http.FileServer(http.Dir(s.cfg.Output.Directory)))
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.status.broken() {
			s.serveBuildError(w)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		files.ServeHTTP(w, r)
	})
	if s.liveReload {
		h = injectLiveReload(h)
	}
	return h
}

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Build failed</title></head>
<body>
<h1>Build failed</h1>
<p>The site could not be built. Fix the problem and save to rebuild.</p>
<pre>{{.}}</pre>
</body>
</html>
`))

func (s *Server) serveBuildError(w http.ResponseWriter) {
	msg := "unknown error"
	if _, err, _ := s.status.Snapshot(); err != nil {
		msg = err.Error()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = errorPage.Execute(w, msg)
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status    string     `json:"status"`
	Version   string     `json:"version"`
	Uptime    string     `json:"uptime"`
	Timestamp time.Time  `json:"timestamp"`
	LastBuild *LastBuild `json:"last_build,omitempty"`
	Clients   int        `json:"livereload_clients"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:    HealthHealthy,
		Version:   version.Version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
		LastBuild: s.status.lastBuild(),
		Clients:   s.reload.Clients(),
	}
	code := http.StatusOK
	switch {
	case resp.LastBuild == nil:
		resp.Status = HealthStarting
	case resp.LastBuild.Error != "":
		resp.Status = HealthDegraded
		if s.status.broken() {
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	report, err := build.LoadReport(s.cfg.Output.Directory)
	if errors.Is(err, fs.ErrNotExist) {
		err = ferrors.NewError(ferrors.CategoryNotFound, "no build report yet").Build()
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleBuilds(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, ferrors.ValidationError("limit must be a positive integer").WithContext("limit", v).Build())
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	builds, err := eventstore.RecentBuilds(r.Context(), s.events, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, builds)
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	evts, err := s.events.GetByBuildID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	summaries := eventstore.History(evts, 1)
	if len(summaries) == 0 {
		writeError(w, ferrors.NewError(ferrors.CategoryNotFound, "build not found").WithContext("build_id", id).Build())
		return
	}
	writeJSON(w, http.StatusOK, summaries[0])
}

type errorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	category := ferrors.GetCategory(err)
	switch category {
	case ferrors.CategoryValidation:
		code = http.StatusBadRequest
	case ferrors.CategoryNotFound:
		code = http.StatusNotFound
	}
	writeJSON(w, code, errorResponse{Error: err.Error(), Category: string(category)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", logfields.Error(err))
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "listen").WithContext("addr", s.addr).UserAction().Build()
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	slog.Info("Serving portal", logfields.Addr(ln.Addr().String()), logfields.Path(s.cfg.Output.Directory))

	errCh := make(chan error, 1)
	go func() { errCh <- s.http.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "serve").Build()
	case <-ctx.Done():
	}

	s.reload.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
