package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bhavcli/internal/directory"
	"bhavcli/pkg/contracts/domain"
)

// DirectoryInfo summarizes the company directory of an exchange
type DirectoryInfo struct {
	Exchange  domain.Exchange `json:"exchange"`
	Companies int             `json:"companies"`
	CachedAt  *time.Time      `json:"cached_at,omitempty"`
	Staleness string          `json:"staleness,omitempty"`
	Stale     bool            `json:"stale"`
}

// policyLoader is implemented by loaders that know their staleness policy
type policyLoader interface {
	Policy() directory.StalenessPolicy
}

// DirectoryService exposes the per-exchange company directories
type DirectoryService struct {
	loaders map[domain.Exchange]DirectoryLoader
	clock   func() time.Time
	logger  *slog.Logger
}

// NewDirectoryService creates a directory service
func NewDirectoryService(loaders map[domain.Exchange]DirectoryLoader, logger *slog.Logger) *DirectoryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryService{
		loaders: loaders,
		clock:   time.Now,
		logger:  logger.With(slog.String("component", "directory_service")),
	}
}

// Info returns the directory summary, refreshing it when stale
func (s *DirectoryService) Info(ctx context.Context, ex domain.Exchange) (DirectoryInfo, error) {
	snap, loader, err := s.load(ctx, ex, false)
	if err != nil {
		return DirectoryInfo{}, err
	}
	return s.describe(ex, loader, snap), nil
}

// Refresh forces a directory refresh and returns the resulting summary
func (s *DirectoryService) Refresh(ctx context.Context, ex domain.Exchange) (DirectoryInfo, error) {
	snap, loader, err := s.load(ctx, ex, true)
	if err != nil {
		return DirectoryInfo{}, err
	}
	s.logger.InfoContext(ctx, "directory refresh requested",
		slog.String("exchange", ex.String()),
		slog.Int("companies", snap.Len()))
	return s.describe(ex, loader, snap), nil
}

// Lookup returns the company listed under symbol
func (s *DirectoryService) Lookup(ctx context.Context, ex domain.Exchange, symbol string) (domain.Company, bool, error) {
	snap, _, err := s.load(ctx, ex, false)
	if err != nil {
		return domain.Company{}, false, err
	}
	c, ok := snap.Lookup(symbol)
	return c, ok, nil
}

func (s *DirectoryService) load(ctx context.Context, ex domain.Exchange, refresh bool) (directory.Snapshot, DirectoryLoader, error) {
	if !ex.Valid() {
		return directory.Snapshot{}, nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedExchange, string(ex))
	}
	loader, ok := s.loaders[ex]
	if !ok || loader == nil {
		return directory.Snapshot{}, nil, fmt.Errorf("%w: %s", ErrNoDirectory, ex)
	}
	return loader.Load(ctx, directory.LoadOptions{InvalidateCache: refresh}), loader, nil
}

func (s *DirectoryService) describe(ex domain.Exchange, loader DirectoryLoader, snap directory.Snapshot) DirectoryInfo {
	info := DirectoryInfo{Exchange: ex, Companies: snap.Len(), Stale: true}
	if !snap.CachedAt.IsZero() {
		cachedAt := snap.CachedAt
		info.CachedAt = &cachedAt
	}

	if p, ok := loader.(policyLoader); ok {
		policy := p.Policy()
		info.Staleness = string(policy)
		info.Stale = policy.IsStale(snap.CachedAt, s.clock())
	}
	return info
}
