package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/redis/go-redis/v9"

	"bhavcli/internal/config"
	"bhavcli/internal/directory"
	"bhavcli/internal/download"
	"bhavcli/internal/infrastructure"
	"bhavcli/internal/services"
	"bhavcli/internal/store"
	"bhavcli/pkg/contracts/domain"
)

// Components is the dependency graph shared by the CLI and the web server
type Components struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	OTel    *infrastructure.OTelProviders
	Metrics *infrastructure.BusinessMetrics

	Fetcher   download.Fetcher
	Loaders   map[domain.Exchange]*directory.Loader
	Reports   *services.ReportService
	Directory *services.DirectoryService
	Health    *services.HealthService
	// Store is nil unless the archive is enabled
	Store *store.Store

	redis *redis.Client
}

// BuildOption customizes Build
type BuildOption func(*buildOptions)

type buildOptions struct {
	fetcher download.Fetcher
}

// WithFetcher replaces the HTTP fetcher used for reports and directory sheets
func WithFetcher(f download.Fetcher) BuildOption {
	return func(o *buildOptions) { o.fetcher = f }
}

// Build wires every component from cfg. Nothing here touches the network;
// the first directory or report request does.
func Build(cfg *config.Config, logger *slog.Logger, opts ...BuildOption) (*Components, error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	paths, err := cfg.ResolvePaths("")
	if err != nil {
		return nil, err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}
	paths.LogPathResolution(logger)

	c := &Components{Config: cfg, Paths: paths, Logger: logger}

	c.OTel, err = infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Observability), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	c.Metrics, err = infrastructure.CreateBusinessMetrics(c.OTel.Meter)
	if err != nil {
		c.Close(context.Background())
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	c.Fetcher = bo.fetcher
	if c.Fetcher == nil {
		c.Fetcher = download.NewHTTPFetcher(download.HTTPOptions{
			Timeout:           cfg.HTTP.Timeout,
			UserAgent:         cfg.HTTP.UserAgent,
			RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
			Burst:             cfg.HTTP.Burst,
			MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
		}, logger)
	}

	if cfg.Directory.Backend == "redis" {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Directory.RedisAddr,
			Password: cfg.Directory.RedisPassword,
			DB:       cfg.Directory.RedisDB,
		})
	}

	if err := c.buildLoaders(); err != nil {
		c.Close(context.Background())
		return nil, err
	}

	reportOpts := []services.ReportServiceOption{
		services.WithReportLogger(logger),
		services.WithReportMetrics(c.Metrics),
		services.WithReportTracer(c.OTel.Tracer),
	}
	if cfg.Store.Enabled {
		c.Store, err = store.New(paths.Resolve(cfg.Store.Path))
		if err != nil {
			c.Close(context.Background())
			return nil, fmt.Errorf("failed to open report store: %w", err)
		}
		reportOpts = append(reportOpts, services.WithReportArchive(c.Store))
	}

	loaders := c.serviceLoaders()
	c.Reports = services.NewReportService(c.Fetcher, loaders, reportOpts...)
	c.Directory = services.NewDirectoryService(loaders, logger)
	c.Health = services.NewHealthService(config.AppVersion, BuildTime, c.healthChecks(), logger)

	return c, nil
}

func (c *Components) buildLoaders() error {
	var page download.Fetcher = c.Fetcher
	if c.Config.Directory.UseBrowser {
		page = download.NewBrowserFetcher(download.BrowserOptions{
			Headless:  true,
			Timeout:   c.Config.Directory.BrowserTimeout,
			UserAgent: c.Config.HTTP.UserAgent,
		}, c.Logger)
	}

	c.Loaders = make(map[domain.Exchange]*directory.Loader, 2)
	for ex, override := range map[domain.Exchange]config.DirectorySourceConfig{
		domain.ExchangeNSE: c.Config.Directory.NSE,
		domain.ExchangeBSE: c.Config.Directory.BSE,
	} {
		listing, policy, err := ListingFor(ex, override)
		if err != nil {
			return err
		}

		source := directory.NewListingSource(listing, page, c.Fetcher, c.Logger)
		c.Loaders[ex] = directory.NewLoader(ex, c.directoryCache(ex), source, policy,
			directory.WithLogger(c.Logger),
			directory.WithObserver(c.Metrics),
		)
	}
	return nil
}

func (c *Components) directoryCache(ex domain.Exchange) directory.Cache {
	if c.redis != nil {
		return directory.NewRedisCache(c.redis, c.Config.Directory.RedisKeyPrefix+strings.ToLower(ex.String()))
	}
	return directory.NewFileCache(c.Paths.DirectoryCacheFile(ex.String()))
}

func (c *Components) serviceLoaders() map[domain.Exchange]services.DirectoryLoader {
	out := make(map[domain.Exchange]services.DirectoryLoader, len(c.Loaders))
	for ex, l := range c.Loaders {
		out[ex] = l
	}
	return out
}

func (c *Components) healthChecks() map[string]services.HealthCheck {
	checks := map[string]services.HealthCheck{}
	if c.Store != nil {
		checks["report_store"] = c.Store.Ping
	}
	if c.redis != nil {
		checks["directory_redis"] = func(ctx context.Context) error {
			return c.redis.Ping(ctx).Err()
		}
	}
	return checks
}

// Close releases the store, the Redis client and the telemetry providers
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	if c.OTel != nil {
		errs = append(errs, c.OTel.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// ListingFor returns the built-in directory listing of ex with the non-empty
// override fields applied
func ListingFor(ex domain.Exchange, override config.DirectorySourceConfig) (directory.ListingConfig, directory.StalenessPolicy, error) {
	listing, policy, err := directory.DefaultListing(ex)
	if err != nil {
		return directory.ListingConfig{}, "", err
	}

	if override.ListingURL != "" {
		listing.ListingURL = override.ListingURL
	}
	if override.SheetURL != "" {
		listing.SheetURL = override.SheetURL
	}
	if override.LinkPattern != "" {
		re, err := regexp.Compile(override.LinkPattern)
		if err != nil {
			return directory.ListingConfig{}, "", fmt.Errorf("invalid %s directory link pattern: %w", ex, err)
		}
		if re.NumSubexp() < 1 {
			return directory.ListingConfig{}, "", fmt.Errorf("%s directory link pattern needs a capture group", ex)
		}
		listing.LinkPattern = re
	}
	if override.SymbolColumn != "" {
		listing.SymbolColumn = override.SymbolColumn
	}
	if override.NameColumn != "" {
		listing.NameColumn = override.NameColumn
	}
	if override.Staleness != "" {
		policy = directory.StalenessPolicy(override.Staleness)
		if !policy.Valid() {
			return directory.ListingConfig{}, "", fmt.Errorf("invalid %s directory staleness %q", ex, override.Staleness)
		}
	}

	return listing, policy, nil
}
