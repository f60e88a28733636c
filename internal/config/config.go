package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server" envconfig:"SERVER"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Paths         PathsConfig         `yaml:"paths" envconfig:"PATHS"`
	HTTP          HTTPClientConfig    `yaml:"http" envconfig:"HTTP"`
	Directory     DirectoryConfig     `yaml:"directory" envconfig:"DIRECTORY"`
	Store         StoreConfig         `yaml:"store" envconfig:"STORE"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int             `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration   `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	ReportCacheTTL  time.Duration   `yaml:"report_cache_ttl" envconfig:"REPORT_CACHE_TTL"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains inbound rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system locations, relative to the working
// directory unless absolute
type PathsConfig struct {
	DataDir  string `yaml:"data_dir" envconfig:"DATA_DIR"`
	CacheDir string `yaml:"cache_dir" envconfig:"CACHE_DIR"`
	LogsDir  string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// HTTPClientConfig tunes the outbound fetcher used for exchange downloads
type HTTPClientConfig struct {
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	UserAgent         string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
	Burst             int           `yaml:"burst" envconfig:"BURST"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES"`
}

// DirectoryConfig selects where company directories are cached and how the
// listing pages are fetched
type DirectoryConfig struct {
	// Backend is "file" or "redis"
	Backend        string        `yaml:"backend" envconfig:"BACKEND"`
	RedisAddr      string        `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword  string        `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `yaml:"redis_db" envconfig:"REDIS_DB"`
	RedisKeyPrefix string        `yaml:"redis_key_prefix" envconfig:"REDIS_KEY_PREFIX"`
	UseBrowser     bool          `yaml:"use_browser" envconfig:"USE_BROWSER"`
	BrowserTimeout time.Duration `yaml:"browser_timeout" envconfig:"BROWSER_TIMEOUT"`

	NSE DirectorySourceConfig `yaml:"nse" envconfig:"NSE"`
	BSE DirectorySourceConfig `yaml:"bse" envconfig:"BSE"`
}

// DirectorySourceConfig overrides the built-in listing location of one
// exchange. Empty fields keep the built-in value.
type DirectorySourceConfig struct {
	ListingURL   string `yaml:"listing_url" envconfig:"LISTING_URL"`
	SheetURL     string `yaml:"sheet_url" envconfig:"SHEET_URL"`
	LinkPattern  string `yaml:"link_pattern" envconfig:"LINK_PATTERN"`
	SymbolColumn string `yaml:"symbol_column" envconfig:"SYMBOL_COLUMN"`
	NameColumn   string `yaml:"name_column" envconfig:"NAME_COLUMN"`
	// Staleness is "daily" or "monthly"
	Staleness string `yaml:"staleness" envconfig:"STALENESS"`
}

// StoreConfig controls the SQLite report archive
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Path    string `yaml:"path" envconfig:"DB_FILE"`
}

// ObservabilityConfig controls metrics and tracing
type ObservabilityConfig struct {
	Environment   string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableMetrics bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	EnableTracing bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load builds the configuration from, in increasing precedence, the
// defaults, a YAML file and environment variables. A .env file in the
// working directory is read into the environment first. configFile may be
// empty to search the usual locations.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if configFile == "" {
		configFile = os.Getenv(EnvPrefix + "_CONFIG_FILE")
	}
	if configFile == "" {
		configFile = getConfigFilePath()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// fields without an environment variable keep their current value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration and normalizes enumerations
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http client timeout must be positive")
	}

	if c.HTTP.RequestsPerSecond < 0 {
		return fmt.Errorf("http requests per second must not be negative")
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}

	// JSON is the only supported format
	c.Logging.Format = "json"

	c.Logging.Output = strings.ToLower(c.Logging.Output)
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file path is required for output %q", c.Logging.Output)
	}

	c.Directory.Backend = strings.ToLower(c.Directory.Backend)
	switch c.Directory.Backend {
	case "file":
	case "redis":
		if c.Directory.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis directory backend")
		}
	default:
		return fmt.Errorf("invalid directory backend: %q", c.Directory.Backend)
	}

	for name, src := range map[string]*DirectorySourceConfig{"nse": &c.Directory.NSE, "bse": &c.Directory.BSE} {
		src.Staleness = strings.ToLower(src.Staleness)
		switch src.Staleness {
		case "", "daily", "monthly":
		default:
			return fmt.Errorf("invalid %s directory staleness: %q", name, src.Staleness)
		}
	}

	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store path is required when the store is enabled")
	}

	switch c.Observability.TraceExporter {
	case "stdout", "none":
	default:
		return fmt.Errorf("unsupported trace exporter: %q", c.Observability.TraceExporter)
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return fmt.Errorf("trace sample ratio must be within [0, 1]")
	}

	return nil
}

// getConfigFilePath returns the first config file found in the usual locations
func getConfigFilePath() string {
	locations := []string{
		"bhav.yaml",
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    2 * time.Minute,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultReportTimeout,
			ReportCacheTTL:  ReportCacheDuration,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: DefaultLogsDir + "/bhav.log",
		},
		Paths: PathsConfig{
			DataDir:  DefaultDataDir,
			CacheDir: DefaultCacheDir,
			LogsDir:  DefaultLogsDir,
		},
		HTTP: HTTPClientConfig{
			Timeout:           DefaultHTTPTimeout,
			RequestsPerSecond: 2,
			Burst:             1,
			MaxBodyBytes:      DefaultMaxBodyBytes,
		},
		Directory: DirectoryConfig{
			Backend:        "file",
			RedisKeyPrefix: "bhav:directory:",
			BrowserTimeout: DefaultBrowserTimeout,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    DefaultDataDir + "/reports.db",
		},
		Observability: ObservabilityConfig{
			Environment:   "development",
			EnableMetrics: true,
			EnableTracing: false,
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
	}
}
