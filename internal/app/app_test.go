package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bhavcli/internal/config"
	"bhavcli/internal/directory"
	"bhavcli/internal/download"
	"bhavcli/internal/services"
	"bhavcli/internal/shared/testutil"
	"bhavcli/pkg/contracts/domain"
)

const bseReportURL = "https://www.bseindia.com/download/BhavCopy/Equity/BhavCopy_BSE_CM_0_0_0_20240315_F_0000.csv"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.CacheDir = filepath.Join(dir, "cache")
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")
	cfg.Store.Path = filepath.Join(dir, "data", "reports.db")
	cfg.Server.RateLimit.Enabled = false
	return cfg
}

// stubExchange serves the BSE report of 2024-03-15 and 404s everything else
func stubExchange() download.Fetcher {
	return download.FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		if url == bseReportURL {
			return []byte(testutil.BSEUDiFFCSV), nil
		}
		return nil, &download.StatusError{URL: url, StatusCode: http.StatusNotFound}
	})
}

func buildComponents(t *testing.T, cfg *config.Config) *Components {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	c, err := Build(cfg, logger, WithFetcher(stubExchange()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func TestListingFor(t *testing.T) {
	nseDefault, nsePolicy, err := directory.DefaultListing(domain.ExchangeNSE)
	require.NoError(t, err)

	tests := []struct {
		name     string
		exchange domain.Exchange
		override config.DirectorySourceConfig
		wantErr  string
		check    func(t *testing.T, l directory.ListingConfig, p directory.StalenessPolicy)
	}{
		{
			name:     "empty override keeps defaults",
			exchange: domain.ExchangeNSE,
			check: func(t *testing.T, l directory.ListingConfig, p directory.StalenessPolicy) {
				assert.Equal(t, nseDefault.ListingURL, l.ListingURL)
				assert.Equal(t, nseDefault.SymbolColumn, l.SymbolColumn)
				assert.Equal(t, nsePolicy, p)
			},
		},
		{
			name:     "fields override individually",
			exchange: domain.ExchangeNSE,
			override: config.DirectorySourceConfig{
				SheetURL:   "https://mirror.example/companies.xlsx",
				NameColumn: "Company",
				Staleness:  "monthly",
			},
			check: func(t *testing.T, l directory.ListingConfig, p directory.StalenessPolicy) {
				assert.Equal(t, "https://mirror.example/companies.xlsx", l.SheetURL)
				assert.Equal(t, "Company", l.NameColumn)
				assert.Equal(t, nseDefault.ListingURL, l.ListingURL)
				assert.Equal(t, nseDefault.SymbolColumn, l.SymbolColumn)
				assert.Equal(t, directory.StaleMonthly, p)
			},
		},
		{
			name:     "link pattern is compiled",
			exchange: domain.ExchangeBSE,
			override: config.DirectorySourceConfig{LinkPattern: `href="([^"]+\.xlsx)"`},
			check: func(t *testing.T, l directory.ListingConfig, _ directory.StalenessPolicy) {
				require.NotNil(t, l.LinkPattern)
				m := l.LinkPattern.FindStringSubmatch(`<a href="/files/list.xlsx">`)
				require.Len(t, m, 2)
				assert.Equal(t, "/files/list.xlsx", m[1])
			},
		},
		{
			name:     "invalid link pattern",
			exchange: domain.ExchangeNSE,
			override: config.DirectorySourceConfig{LinkPattern: `href="(`},
			wantErr:  "invalid NSE directory link pattern",
		},
		{
			name:     "link pattern without capture group",
			exchange: domain.ExchangeNSE,
			override: config.DirectorySourceConfig{LinkPattern: `href="[^"]+"`},
			wantErr:  "needs a capture group",
		},
		{
			name:     "unknown staleness",
			exchange: domain.ExchangeBSE,
			override: config.DirectorySourceConfig{Staleness: "weekly"},
			wantErr:  "invalid BSE directory staleness",
		},
		{
			name:     "unsupported exchange",
			exchange: domain.Exchange("LSE"),
			wantErr:  "unsupported exchange",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			listing, policy, err := ListingFor(tt.exchange, tt.override)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, listing, policy)
		})
	}
}

func TestBuild_FileBackend(t *testing.T) {
	cfg := testConfig(t)
	c := buildComponents(t, cfg)

	assert.Nil(t, c.Store)
	require.Len(t, c.Loaders, 2)
	for _, ex := range domain.Exchanges() {
		require.Contains(t, c.Loaders, ex)
	}
	assert.Equal(t, directory.StaleDaily, c.Loaders[domain.ExchangeNSE].Policy())
	assert.Equal(t, directory.StaleMonthly, c.Loaders[domain.ExchangeBSE].Policy())

	for _, dir := range []string{c.Paths.DataDir, c.Paths.CacheDir, c.Paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	status := c.Health.Readiness(context.Background())
	assert.Equal(t, services.StatusHealthy, status.Status)
	assert.Empty(t, status.Services)
}

func TestBuild_InvalidOverride(t *testing.T) {
	cfg := testConfig(t)
	cfg.Directory.BSE.LinkPattern = `(`

	logger, _ := testutil.NewTestLogger(t)
	_, err := Build(cfg, logger, WithFetcher(stubExchange()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BSE")
}

func TestBuild_RedisBackendHealthCheck(t *testing.T) {
	cfg := testConfig(t)
	cfg.Directory.Backend = "redis"
	// nothing listens on the discard port
	cfg.Directory.RedisAddr = "127.0.0.1:9"

	c := buildComponents(t, cfg)

	status := c.Health.Readiness(context.Background())
	assert.Equal(t, services.StatusDegraded, status.Status)
	require.Contains(t, status.Services, "directory_redis")
	assert.Equal(t, services.StatusUnhealthy, status.Services["directory_redis"].Status)
}

func TestApplication_ReportArchivedAndServed(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Enabled = true
	c := buildComponents(t, cfg)
	require.NotNil(t, c.Store)

	app := NewApplication(c)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/bse?date=2024-03-15", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report domain.ClosingReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Records, 1)
	assert.Equal(t, "GAMMA", report.Records[0].Symbol)
	assert.Equal(t, bseReportURL, report.SourceURL)

	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/archive/BSE/2024-03-15", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var archived domain.ClosingReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &archived))
	assert.Equal(t, report.SourceURL, archived.SourceURL)
	require.Len(t, archived.Records, 1)
	assert.True(t, report.Records[0].Close.Decimal.Equal(archived.Records[0].Close.Decimal))
}

func TestApplication_Routes(t *testing.T) {
	cfg := testConfig(t)
	app := NewApplication(buildComponents(t, cfg))

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"liveness", "/health", http.StatusOK, `"status":"healthy"`},
		{"readiness", "/health/ready", http.StatusOK, `"runtime"`},
		{"metrics", "/metrics", http.StatusOK, ""},
		{"archive disabled", "/api/v1/archive/NSE", http.StatusNotFound, ""},
		{"report not published", "/api/v1/reports/NSE?date=2024-03-16", http.StatusNotFound, "/errors/report/not-found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.True(t, strings.Contains(rec.Body.String(), tt.wantBody), rec.Body.String())
			}
		})
	}
}

func TestApplication_ServerSettings(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Port = 9191
	app := NewApplication(buildComponents(t, cfg))

	assert.Equal(t, ":9191", app.Server.Addr)
	assert.Equal(t, cfg.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, cfg.Server.WriteTimeout, app.Server.WriteTimeout)
	assert.Equal(t, cfg.Server.IdleTimeout, app.Server.IdleTimeout)
	assert.Equal(t, cfg.Server.MaxHeaderBytes, app.Server.MaxHeaderBytes)
}
