package config

import "time"

// Application constants
const (
	AppName    = "bhavcli"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces every environment variable, e.g. BHAV_SERVER_PORT
	EnvPrefix = "BHAV"

	// Rate Limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	// Network Timeouts
	DefaultHTTPTimeout    = 60 * time.Second
	DefaultBrowserTimeout = 90 * time.Second
	DefaultReportTimeout  = 90 * time.Second

	// Downloads larger than this are truncated
	DefaultMaxBodyBytes = 64 << 20

	// File Paths
	DefaultDataDir  = "data"
	DefaultCacheDir = "data/cache"
	DefaultLogsDir  = "logs"

	// Cache Settings
	ReportCacheDuration = 15 * time.Minute

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// API Endpoints
	APIBasePath       = "/api/v1"
	ReportsEndpoint   = "/api/v1/reports"
	DirectoryEndpoint = "/api/v1/directory"
	HealthEndpoint    = "/health"
	MetricsEndpoint   = "/metrics"
)
