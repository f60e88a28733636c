package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches every non-success transport outcome
	ErrNotFound = errors.New("resource not found")

	// ErrBodyTooLarge is returned when a response exceeds the configured size cap
	ErrBodyTooLarge = errors.New("response body too large")
)

// Fetcher retrieves the body behind a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Fetch calls f(ctx, url)
func (f FetcherFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// StatusError reports a non-200 HTTP answer
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status for %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets errors.Is(err, ErrNotFound) match any status error
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound
}
