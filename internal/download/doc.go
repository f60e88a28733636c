// Package download fetches raw bytes from exchange servers.
//
// HTTPFetcher is the default transport for report files and company sheets.
// Exchange sites reject clients that do not look like a browser, so it sends
// browser-like headers and paces requests with a token bucket. It never
// retries: a non-200 answer comes back as *StatusError, which matches
// ErrNotFound.
//
// BrowserFetcher drives a headless Chrome through chromedp for listing pages
// that only render their links after client-side scripts run.
package download
