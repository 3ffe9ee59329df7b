// Package api provides the HTTP API server and handlers for the EchoVerse server.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/echoverse/echoverse-server/internal/store"
)

// Options tunes the HTTP surface.
type Options struct {
	Name        string
	Version     string
	CORSOrigins []string

	// AuthRate and NarrationRate are requests per minute; zero takes the default.
	AuthRate       int
	AuthBurst      int
	NarrationRate  int
	NarrationBurst int
}

// Default rate limits.
const (
	DefaultAuthRate       = 20
	DefaultAuthBurst      = 10
	DefaultNarrationRate  = 30
	DefaultNarrationBurst = 5
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      store.Store
	services   *Services
	components Components
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger

	authRateLimiter      *RateLimiter
	narrationRateLimiter *RateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, components Components, opts Options, logger *slog.Logger) *Server {
	if opts.Name == "" {
		opts.Name = "EchoVerse API"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if opts.AuthRate <= 0 {
		opts.AuthRate, opts.AuthBurst = DefaultAuthRate, DefaultAuthBurst
	}
	if opts.NarrationRate <= 0 {
		opts.NarrationRate, opts.NarrationBurst = DefaultNarrationRate, DefaultNarrationBurst
	}

	router := chi.NewRouter()

	s := &Server{
		store:                st,
		services:             services,
		components:           components,
		router:               router,
		logger:               logger,
		authRateLimiter:      NewRateLimiter(opts.AuthRate, time.Minute, opts.AuthBurst),
		narrationRateLimiter: NewRateLimiter(opts.NarrationRate, time.Minute, opts.NarrationBurst),
	}

	s.setupMiddleware(opts.CORSOrigins)

	humaConfig := huma.DefaultConfig(opts.Name, opts.Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, used by tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.authRateLimiter.Stop()
	s.narrationRateLimiter.Stop()
}

// setupMiddleware configures middleware stack. It must run before any route is registered.
func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(authMiddleware(s.services.Auth))
}

// registerRoutes registers every route group.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerCatalogRoutes()
	s.registerRewriteRoutes()
	s.registerNarrationRoutes()
	s.registerHistoryRoutes()
	s.registerDownloadRoutes()
	s.registerAudioRoutes()
}
