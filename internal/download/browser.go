package download

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserOptions configures a BrowserFetcher
type BrowserOptions struct {
	Headless  bool
	Timeout   time.Duration
	UserAgent string
	// WaitSelector is waited for before the page HTML is captured
	WaitSelector string
}

// BrowserFetcher renders a page in headless Chrome and returns its HTML
type BrowserFetcher struct {
	opts   BrowserOptions
	logger *slog.Logger
}

// NewBrowserFetcher creates a browser-backed fetcher
func NewBrowserFetcher(opts BrowserOptions, logger *slog.Logger) *BrowserFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.WaitSelector == "" {
		opts.WaitSelector = "body"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BrowserFetcher{
		opts:   opts,
		logger: logger.With(slog.String("component", "browser_fetcher")),
	}
}

// Fetch navigates to url and returns the rendered document
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.opts.Headless),
		chromedp.UserAgent(b.opts.UserAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, b.opts.Timeout)
	defer cancelTimeout()

	start := time.Now()
	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(b.opts.WaitSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		b.logger.WarnContext(ctx, "Browser navigation failed",
			slog.String("url", url),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	b.logger.InfoContext(ctx, "Page rendered",
		slog.String("url", url),
		slog.Int("size_bytes", len(html)),
		slog.Duration("duration", time.Since(start)))

	return []byte(html), nil
}
