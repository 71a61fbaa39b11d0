// package server contains the HTTP transport, middleware and OAuth callback handling of snaplist
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/cors"

	"github.com/desertthunder/snaplist/internal/metrics"
	"github.com/desertthunder/snaplist/internal/models"
	"github.com/desertthunder/snaplist/internal/shared"
	"github.com/desertthunder/snaplist/internal/tasks"
	"github.com/desertthunder/snaplist/internal/tracklist"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the path patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// HistoryStore is the owner-scoped view of history used by the HTTP layer.
type HistoryStore interface {
	ListByOwner(ownerID string, limit int) ([]*models.HistoryRecord, error)
	DeleteByOwner(ownerID, id string) error
}

// Exporter builds remote playlists. Implemented by [tasks.PlaylistExporter].
type Exporter interface {
	Export(ctx context.Context, req tasks.ExportRequest, progress chan<- tasks.ProgressUpdate) (*tasks.ExportResult, error)
}

// Deps are the process-wide collaborators of the server, created once in main.
type Deps struct {
	Engines     map[tracklist.Mode]tasks.ImageProcessor // One processor per supported mode
	DefaultMode tracklist.Mode                          // Used when a request names no mode
	History     HistoryStore
	Exporter    Exporter
	Metrics     *metrics.Collector
	Logger      *log.Logger
	Config      shared.ServerConfig
}

// Server serves the snaplist HTTP API.
type Server struct {
	deps   Deps
	router *BasicRouter
	logger *log.Logger
}

const defaultMaxUploadMB = 10

// New creates a server and registers every route.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.DefaultMode == "" {
		deps.DefaultMode = tracklist.ModeMulti
	}
	if deps.Config.MaxUploadMB <= 0 {
		deps.Config.MaxUploadMB = defaultMaxUploadMB
	}

	s := &Server{
		deps:   deps,
		router: NewBasicRouter(),
		logger: shared.WithLogger(deps.Logger, "component", "http"),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.observe, withOwner)

	s.router.Handle(http.MethodGet, "/health", http.HandlerFunc(s.health))
	s.router.Handle(http.MethodPost, "/api/process-image", http.HandlerFunc(s.processImage))
	s.router.Handle(http.MethodGet, "/api/history", http.HandlerFunc(s.listHistory))
	s.router.Handle(http.MethodDelete, "/api/history/{id}", http.HandlerFunc(s.deleteHistory))
	s.router.Handle(http.MethodPost, "/api/playlists", http.HandlerFunc(s.createPlaylist))

	if s.deps.Metrics != nil {
		s.router.Handle(http.MethodGet, "/metrics", s.deps.Metrics.Handler())
	}
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	origins := s.deps.Config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", OwnerHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})(s.router)
}

// ListenAndServe serves on the configured address until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.deps.Config.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
