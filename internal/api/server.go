// Package api serves the local ingress: the media pipelines over HTTP, media-info
// lookups, health and Prometheus metrics.
package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/metrics"
	"github.com/crawlora/aws-platform-engineering/internal/pipeline"
	"github.com/crawlora/aws-platform-engineering/internal/ratelimit"
)

// DefaultLogGroup is the log group reported for invocations received over HTTP.
const DefaultLogGroup = "local"

// MediaDescriber answers media-info requests.
type MediaDescriber interface {
	Describe(ctx context.Context, raw []byte) (*pipeline.MediaInfo, error)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Pipelines are the handlers the ingress forwards events to.
type Pipelines struct {
	Submit    pipeline.Handler
	Complete  pipeline.Handler
	Audio     pipeline.Handler
	MediaInfo MediaDescriber
}

// Options tune the ingress. The zero value disables rate limiting and health checks.
type Options struct {
	Limiter  *ratelimit.KeyedRateLimiter
	Checks   map[string]HealthCheck
	LogGroup string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	pipelines Pipelines
	checks    map[string]HealthCheck
	logGroup  string
	router    *chi.Mux
	api       huma.API
	log       *logger.Logger
}

// NewServer creates the ingress with all routes configured.
func NewServer(p Pipelines, m *metrics.Metrics, log *logger.Logger, opts Options) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	if opts.Limiter != nil {
		router.Use(RateLimitMiddleware(opts.Limiter, log))
	}

	router.Method(http.MethodGet, "/metrics", m.Handler())

	humaConfig := huma.DefaultConfig("Media Conversion Ingress", "1.0.0")
	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	logGroup := opts.LogGroup
	if logGroup == "" {
		logGroup = DefaultLogGroup
	}

	s := &Server{
		pipelines: p,
		checks:    opts.Checks,
		logGroup:  logGroup,
		router:    router,
		api:       api,
		log:       log,
	}

	s.registerHealthRoutes()
	s.registerEventRoutes()
	s.registerMediaInfoRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API the routes are registered on.
func (s *Server) API() huma.API {
	return s.api
}
