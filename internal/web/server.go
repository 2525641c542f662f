// Package web serves the browser UI and the JSON session API.
package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hpungsan/thoughts/internal/config"
	"github.com/hpungsan/thoughts/internal/db"
	"github.com/hpungsan/thoughts/internal/lifecycle"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Deps are the collaborators of the web server.
type Deps struct {
	Store    *db.Store
	Registry *lifecycle.Registry
	Config   *config.Config
	Gatherer prometheus.Gatherer // nil disables /metrics
	Logger   *slog.Logger
	Version  string
}

// NewServer creates and configures the HTTP server for the web UI.
// Open edit sessions are closed when the server shuts down.
func NewServer(deps Deps, bind string, port int) (*http.Server, error) {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	// Create sub-FS for templates (strip "templates/" prefix)
	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, fmt.Errorf("template sub-FS: %w", err)
	}

	// Create sub-FS for static files (strip "static/" prefix)
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-FS: %w", err)
	}

	h := &Handlers{
		store:    deps.Store,
		registry: deps.Registry,
		cfg:      deps.Config,
		renderer: NewRenderer(templateSub, deps.Version, log),
	}

	mux := http.NewServeMux()
	h.routes(mux)

	// Static file server
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticSub)))

	if deps.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", bind, port),
		Handler:           securityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if deps.Registry != nil {
		srv.RegisterOnShutdown(deps.Registry.CloseAll)
	}
	return srv, nil
}

// routes registers page and API handlers using Go 1.22+ pattern syntax.
func (h *Handlers) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.HandleList)
	mux.HandleFunc("GET /form/{ref}", h.HandleForm)
	mux.HandleFunc("GET /view/{id}", h.HandleView)

	mux.HandleFunc("GET /api/thoughts", h.HandleAPIList)
	mux.HandleFunc("POST /api/sessions", h.HandleOpenSession)
	mux.HandleFunc("GET /api/sessions/{sid}", h.HandleSessionStatus)
	mux.HandleFunc("PATCH /api/sessions/{sid}", h.HandleEditSession)
	mux.HandleFunc("POST /api/sessions/{sid}/checkpoint", h.HandleCheckpoint)
	mux.HandleFunc("POST /api/sessions/{sid}/submit", h.HandleSubmit)
	mux.HandleFunc("DELETE /api/sessions/{sid}", h.HandleCloseSession)
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("thoughts UI running", "url", "http://"+srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
