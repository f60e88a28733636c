package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"bhavcli/internal/config"
	apierrors "bhavcli/internal/errors"
	"bhavcli/internal/infrastructure"
	"bhavcli/internal/middleware"
)

// RouterDeps carries everything the router wires together. Archive,
// Metrics, Tracer and PrometheusHandler are optional.
type RouterDeps struct {
	Reports           ReportRetriever
	Directory         DirectoryProvider
	Archive           ReportArchive
	Health            HealthProvider
	Metrics           *infrastructure.BusinessMetrics
	Tracer            trace.Tracer
	PrometheusHandler http.Handler

	// ReportMemoTTL bounds how long a retrieved report is served from memory
	ReportMemoTTL time.Duration
	// RateLimit and RateBurst throttle the /api routes; zero disables it
	RateLimit    float64
	RateBurst    int
	IncludeStack bool
	Logger       *slog.Logger
}

// NewRouter builds the HTTP API
func NewRouter(deps RouterDeps) chi.Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	errorHandler := apierrors.NewErrorHandler(logger, deps.IncludeStack)
	validator := middleware.NewValidator()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.NewOTelMiddleware(deps.Tracer, deps.Metrics, logger).Handler)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(errorHandler.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compress(5))

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	health := NewHealthHandler(deps.Health, logger)
	r.Get(config.HealthEndpoint, health.Liveness)
	r.Get(config.HealthEndpoint+"/ready", health.Readiness)
	r.Method(http.MethodGet, config.MetricsEndpoint, NewMetricsHandler(deps.PrometheusHandler, errorHandler))

	r.Route(config.APIBasePath, func(api chi.Router) {
		api.Use(middleware.NewRateLimiter(deps.RateLimit, deps.RateBurst, logger).Handler)

		api.Mount("/reports", NewReportHandler(deps.Reports, deps.ReportMemoTTL, validator, errorHandler, logger).Routes())
		api.Mount("/directory", NewDirectoryHandler(deps.Directory, errorHandler, logger).Routes())
		if deps.Archive != nil {
			api.Mount("/archive", NewArchiveHandler(deps.Archive, errorHandler, logger).Routes())
		}
	})

	return r
}
