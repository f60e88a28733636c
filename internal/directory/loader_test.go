package directory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bhavcli/pkg/contracts/domain"
)

type memoryCache struct {
	mu      sync.Mutex
	snap    *Snapshot
	loadErr error
	saveErr error
	saves   int
}

func (c *memoryCache) Load(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	if c.snap == nil {
		return nil, ErrSnapshotNotFound
	}
	s := *c.snap
	return &s, nil
}

func (c *memoryCache) Save(ctx context.Context, s Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	if c.saveErr != nil {
		return c.saveErr
	}
	c.snap = &s
	return nil
}

type stubSource struct {
	calls   atomic.Int32
	entries map[string]domain.Company
	err     error
	delay   time.Duration
}

func (s *stubSource) Fetch(ctx context.Context) (map[string]domain.Company, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.entries, s.err
}

type recordingObserver struct {
	mu     sync.Mutex
	events []error
}

func (o *recordingObserver) DirectoryRefreshed(ctx context.Context, ex domain.Exchange, companies int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, err)
}

var (
	loaderNow    = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	freshEntries = map[string]domain.Company{"NEW": {Name: "New Co", Symbol: "NEW"}}
	oldEntries   = map[string]domain.Company{"OLD": {Name: "Old Co", Symbol: "OLD"}}
)

func newTestLoader(cache Cache, src Source, opts ...LoaderOption) *Loader {
	opts = append([]LoaderOption{WithClock(func() time.Time { return loaderNow })}, opts...)
	return NewLoader(domain.ExchangeNSE, cache, src, StaleDaily, opts...)
}

func TestLoader_FreshCacheIsUsed(t *testing.T) {
	cache := &memoryCache{snap: &Snapshot{CachedAt: loaderNow.Add(-time.Hour), Entries: oldEntries}}
	src := &stubSource{entries: freshEntries}

	got := newTestLoader(cache, src).Load(context.Background(), LoadOptions{})

	assert.Equal(t, oldEntries, got.Entries)
	assert.Equal(t, int32(0), src.calls.Load())
	assert.Equal(t, 0, cache.saves)
}

func TestLoader_RefreshCases(t *testing.T) {
	tests := []struct {
		name  string
		cache *memoryCache
		opts  LoadOptions
	}{
		{"missing cache", &memoryCache{}, LoadOptions{}},
		{"stale cache", &memoryCache{snap: &Snapshot{CachedAt: loaderNow.AddDate(0, 0, -1), Entries: oldEntries}}, LoadOptions{}},
		{"corrupt cache", &memoryCache{loadErr: ErrCorruptSnapshot}, LoadOptions{}},
		{"invalidated", &memoryCache{snap: &Snapshot{CachedAt: loaderNow, Entries: oldEntries}}, LoadOptions{InvalidateCache: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubSource{entries: freshEntries}
			obs := &recordingObserver{}

			got := newTestLoader(tt.cache, src, WithObserver(obs)).Load(context.Background(), tt.opts)

			assert.Equal(t, freshEntries, got.Entries)
			assert.Equal(t, loaderNow, got.CachedAt)
			assert.Equal(t, int32(1), src.calls.Load())
			require.NotNil(t, tt.cache.snap)
			assert.Equal(t, freshEntries, tt.cache.snap.Entries)
			assert.Equal(t, []error{nil}, obs.events)
		})
	}
}

func TestLoader_RefreshFailureFallsBackToStaleSnapshot(t *testing.T) {
	cache := &memoryCache{snap: &Snapshot{CachedAt: loaderNow.AddDate(0, -1, 0), Entries: oldEntries}}
	src := &stubSource{err: ErrNoDirectoryLink}
	obs := &recordingObserver{}

	got := newTestLoader(cache, src, WithObserver(obs)).Load(context.Background(), LoadOptions{})

	assert.Equal(t, oldEntries, got.Entries)
	assert.Equal(t, 0, cache.saves)
	require.Len(t, obs.events, 1)
	assert.ErrorIs(t, obs.events[0], ErrNoDirectoryLink)
}

func TestLoader_RefreshFailureWithoutSnapshotIsEmpty(t *testing.T) {
	src := &stubSource{err: errors.New("network down")}

	got := newTestLoader(&memoryCache{}, src).Load(context.Background(), LoadOptions{})

	assert.True(t, got.IsEmpty())
	assert.NotNil(t, got.Entries)
}

func TestLoader_FallbackUsesMemoryWhenCacheBreaks(t *testing.T) {
	cache := &memoryCache{}
	src := &stubSource{entries: freshEntries}
	loader := newTestLoader(cache, src)

	first := loader.Load(context.Background(), LoadOptions{})
	require.Equal(t, freshEntries, first.Entries)

	cache.loadErr = errors.New("disk gone")
	src.entries, src.err = nil, errors.New("network down")

	got := loader.Load(context.Background(), LoadOptions{InvalidateCache: true})
	assert.Equal(t, freshEntries, got.Entries)
}

func TestLoader_SaveFailureStillServesRefresh(t *testing.T) {
	cache := &memoryCache{saveErr: errors.New("read-only filesystem")}
	src := &stubSource{entries: freshEntries}

	got := newTestLoader(cache, src).Load(context.Background(), LoadOptions{})

	assert.Equal(t, freshEntries, got.Entries)
	assert.Equal(t, 1, cache.saves)
}

func TestLoader_ConcurrentRefreshesCollapse(t *testing.T) {
	src := &stubSource{entries: freshEntries, delay: 50 * time.Millisecond}
	loader := newTestLoader(&memoryCache{}, src)

	var wg sync.WaitGroup
	results := make([]Snapshot, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = loader.Load(context.Background(), LoadOptions{})
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, freshEntries, r.Entries)
	}
	assert.Less(t, src.calls.Load(), int32(len(results)))
}
