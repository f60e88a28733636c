package directory

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"bhavcli/pkg/contracts/domain"
)

// LoadOptions alters a single Load call
type LoadOptions struct {
	// InvalidateCache forces a refresh even when the cache is fresh
	InvalidateCache bool
}

// RefreshObserver is told about every refresh attempt
type RefreshObserver interface {
	DirectoryRefreshed(ctx context.Context, ex domain.Exchange, companies int, err error)
}

// Loader serves the company directory of one exchange
type Loader struct {
	exchange domain.Exchange
	cache    Cache
	source   Source
	policy   StalenessPolicy
	now      func() time.Time
	logger   *slog.Logger
	observer RefreshObserver

	group singleflight.Group

	mu       sync.RWMutex
	lastGood *Snapshot
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithClock replaces time.Now
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// WithObserver registers a refresh observer
func WithObserver(o RefreshObserver) LoaderOption {
	return func(l *Loader) { l.observer = o }
}

// NewLoader creates a loader for ex
func NewLoader(ex domain.Exchange, cache Cache, source Source, policy StalenessPolicy, opts ...LoaderOption) *Loader {
	l := &Loader{
		exchange: ex,
		cache:    cache,
		source:   source,
		policy:   policy,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(
		slog.String("component", "directory_loader"),
		slog.String("exchange", ex.String()))
	return l
}

// Exchange returns the exchange served by the loader
func (l *Loader) Exchange() domain.Exchange {
	return l.exchange
}

// Policy returns the staleness policy
func (l *Loader) Policy() StalenessPolicy {
	return l.policy
}

// Load returns the directory. A fresh cached snapshot is used as is; a
// stale, missing or corrupt one, or an explicit invalidation, triggers a
// refresh whose result is saved. If the refresh fails the last good
// snapshot is returned, else an empty one. Load never fails.
func (l *Loader) Load(ctx context.Context, opts LoadOptions) Snapshot {
	cached, err := l.cache.Load(ctx)
	switch {
	case err == nil:
		l.remember(*cached)
		if !opts.InvalidateCache && !l.policy.IsStale(cached.CachedAt, l.now()) {
			return *cached
		}
		l.logger.DebugContext(ctx, "directory cache needs refresh",
			slog.Time("cached_at", cached.CachedAt),
			slog.Bool("invalidated", opts.InvalidateCache))
	case errors.Is(err, ErrSnapshotNotFound):
		l.logger.DebugContext(ctx, "directory cache empty")
	default:
		l.logger.WarnContext(ctx, "directory cache unreadable", slog.String("error", err.Error()))
	}

	return l.refresh(ctx)
}

// refresh collapses concurrent refreshes of the same loader into one
func (l *Loader) refresh(ctx context.Context) Snapshot {
	v, _, _ := l.group.Do("refresh", func() (interface{}, error) {
		return l.doRefresh(ctx), nil
	})
	return v.(Snapshot)
}

func (l *Loader) doRefresh(ctx context.Context) Snapshot {
	start := time.Now()
	entries, err := l.source.Fetch(ctx)
	if l.observer != nil {
		l.observer.DirectoryRefreshed(ctx, l.exchange, len(entries), err)
	}
	if err != nil {
		fallback := l.fallback()
		l.logger.WarnContext(ctx, "directory refresh failed, using fallback",
			slog.String("error", err.Error()),
			slog.Int("fallback_companies", fallback.Len()))
		return fallback
	}

	snap := Snapshot{CachedAt: l.now(), Entries: entries}
	if err := l.cache.Save(ctx, snap); err != nil {
		l.logger.WarnContext(ctx, "directory cache save failed", slog.String("error", err.Error()))
	}
	l.remember(snap)

	l.logger.InfoContext(ctx, "directory refreshed",
		slog.Int("companies", snap.Len()),
		slog.Duration("duration", time.Since(start)))
	return snap
}

func (l *Loader) remember(s Snapshot) {
	l.mu.Lock()
	l.lastGood = &s
	l.mu.Unlock()
}

func (l *Loader) fallback() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.lastGood != nil {
		return *l.lastGood
	}
	return Snapshot{Entries: map[string]domain.Company{}}
}
