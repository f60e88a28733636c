package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

// HTTPOptions configures an HTTPFetcher
type HTTPOptions struct {
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond float64
	Burst             int
	MaxBodyBytes      int64
}

// HTTPFetcher downloads resources over plain HTTP(S)
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	limiter      *rate.Limiter
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewHTTPClient returns a client with explicit dial, TLS and overall timeouts.
// http.DefaultClient has no timeout and must not be used against exchange servers.
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}

// NewHTTPFetcher creates a fetcher from opts, filling unset options with defaults
func NewHTTPFetcher(opts HTTPOptions, logger *slog.Logger) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPFetcher{
		client:       NewHTTPClient(opts.Timeout),
		userAgent:    opts.UserAgent,
		limiter:      rate.NewLimiter(limit, opts.Burst),
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       logger.With(slog.String("component", "http_fetcher")),
	}
}

// Fetch performs a GET request and returns the body of a 200 response.
// Any other status yields a *StatusError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	f.logger.DebugContext(ctx, "Starting download", slog.String("url", url))

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.WarnContext(ctx, "HTTP GET failed",
			slog.String("url", url),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("download failed for %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.WarnContext(ctx, "Bad HTTP status",
			slog.String("url", url),
			slog.Int("status_code", resp.StatusCode))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if f.maxBodyBytes > 0 {
		// one extra byte tells a body at the cap from one above it
		body = io.LimitReader(resp.Body, f.maxBodyBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}
	if f.maxBodyBytes > 0 && int64(len(data)) > f.maxBodyBytes {
		f.logger.WarnContext(ctx, "Response body over size cap",
			slog.String("url", url),
			slog.Int64("max_body_bytes", f.maxBodyBytes))
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, url, f.maxBodyBytes)
	}

	f.logger.InfoContext(ctx, "File downloaded",
		slog.String("url", url),
		slog.Int("size_bytes", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}
