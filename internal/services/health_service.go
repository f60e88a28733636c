package services

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"time"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// HealthService reports liveness and dependency health
type HealthService struct {
	version   string
	buildTime string
	checks    map[string]HealthCheck
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	BuildTime string                   `json:"build_time,omitempty"`
	Uptime    string                   `json:"uptime"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health states
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// NewHealthService creates a health service running the given checks
func NewHealthService(version, buildTime string, checks map[string]HealthCheck, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		checks:    checks,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// Liveness reports that the process is serving
func (s *HealthService) Liveness(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Version:   s.version,
		BuildTime: s.buildTime,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	}
}

// Readiness runs every dependency check. A failing check degrades the
// status; the report operation itself still works without optional
// dependencies such as the archive.
func (s *HealthService) Readiness(ctx context.Context) HealthStatus {
	status := s.Liveness(ctx)
	status.Services = make(map[string]ServiceHealth, len(s.checks))

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	status.Runtime = map[string]interface{}{
		"go_version":  runtime.Version(),
		"goroutines":  runtime.NumGoroutine(),
		"heap_alloc":  m.HeapAlloc,
		"num_cpu":     runtime.NumCPU(),
		"os_arch":     runtime.GOOS + "/" + runtime.GOARCH,
		"gc_cycles":   m.NumGC,
		"sys_memory":  m.Sys,
		"uptime_secs": int64(time.Since(s.startTime).Seconds()),
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := s.checks[name](ctx); err != nil {
			status.Status = StatusDegraded
			status.Services[name] = ServiceHealth{Status: StatusUnhealthy, Message: err.Error()}
			s.logger.WarnContext(ctx, "health check failed",
				slog.String("check", name),
				slog.String("error", err.Error()))
			continue
		}
		status.Services[name] = ServiceHealth{Status: StatusHealthy}
	}

	return status
}
