package directory

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"bhavcli/internal/dataprocessing"
	"bhavcli/internal/download"
	"bhavcli/pkg/contracts/domain"
)

var (
	// ErrNoDirectoryLink is returned when the listing page has no sheet link
	ErrNoDirectoryLink = errors.New("directory sheet link not found on listing page")
	// ErrEmptyDirectory is returned when a downloaded sheet yields no companies
	ErrEmptyDirectory = errors.New("directory sheet has no companies")
)

// Source produces a fresh set of directory entries keyed by symbol
type Source interface {
	Fetch(ctx context.Context) (map[string]domain.Company, error)
}

// ListingConfig describes where an exchange publishes its company list
type ListingConfig struct {
	// ListingURL is the page that links to the current sheet
	ListingURL string
	// SheetURL skips the listing page when set
	SheetURL string
	// LinkPattern must capture the sheet link in its first group
	LinkPattern *regexp.Regexp
	// SymbolColumn and NameColumn are header names in the sheet
	SymbolColumn string
	NameColumn   string
}

var nseSheetLink = regexp.MustCompile(`<a data-entity-type="file"[^>]*href="([^"]+)"`)

// nseCompanyListing is the NSE market capitalisation page linking the sheet
// of all listed companies
func nseCompanyListing() ListingConfig {
	return ListingConfig{
		ListingURL:   "https://www.nseindia.com/regulations/listing-compliance/nse-market-capitalisation-all-companies",
		LinkPattern:  nseSheetLink,
		SymbolColumn: "Symbol",
		NameColumn:   "Company Name",
	}
}

// DefaultListing returns the published location of the company list of ex.
// BSE bhavcopies carry the same ticker symbols as NSE for dual listed
// companies, so both exchanges read the NSE sheet; BSE keeps it a month.
func DefaultListing(ex domain.Exchange) (ListingConfig, StalenessPolicy, error) {
	switch ex {
	case domain.ExchangeNSE:
		return nseCompanyListing(), StaleDaily, nil
	case domain.ExchangeBSE:
		return nseCompanyListing(), StaleMonthly, nil
	default:
		return ListingConfig{}, "", fmt.Errorf("%w: %q", domain.ErrUnsupportedExchange, string(ex))
	}
}

// ListingSource scrapes the listing page for the sheet link, downloads the
// sheet and reads the symbol and name columns. The resolved sheet URL is
// kept for the process lifetime and dropped when a download through it fails.
type ListingSource struct {
	cfg    ListingConfig
	page   download.Fetcher
	files  download.Fetcher
	logger *slog.Logger

	mu       sync.Mutex
	sheetURL string
}

// NewListingSource creates a source. page fetches the listing page, files
// fetches the sheet; they may be the same fetcher.
func NewListingSource(cfg ListingConfig, page, files download.Fetcher, logger *slog.Logger) *ListingSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingSource{
		cfg:      cfg,
		page:     page,
		files:    files,
		logger:   logger.With(slog.String("component", "directory_source")),
		sheetURL: cfg.SheetURL,
	}
}

// Fetch downloads and parses the current company sheet
func (s *ListingSource) Fetch(ctx context.Context) (map[string]domain.Company, error) {
	sheetURL, err := s.resolveSheetURL(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.files.Fetch(ctx, sheetURL)
	if err != nil {
		s.forgetSheetURL(sheetURL)
		return nil, fmt.Errorf("download directory sheet: %w", err)
	}

	rows, err := dataprocessing.DecodeTable(data)
	if err != nil {
		s.forgetSheetURL(sheetURL)
		return nil, fmt.Errorf("decode directory sheet: %w", err)
	}

	entries := make(map[string]domain.Company, len(rows))
	for _, row := range rows {
		name, ok := row.Text(s.cfg.NameColumn)
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		symbol, ok := row.Text(s.cfg.SymbolColumn)
		if !ok || strings.TrimSpace(symbol) == "" {
			continue
		}
		symbol = strings.TrimSpace(symbol)
		entries[symbol] = domain.Company{Name: name, Symbol: symbol}
	}
	if len(entries) == 0 {
		return nil, ErrEmptyDirectory
	}

	s.logger.InfoContext(ctx, "directory sheet parsed",
		slog.String("url", sheetURL),
		slog.Int("rows", len(rows)),
		slog.Int("companies", len(entries)))
	return entries, nil
}

func (s *ListingSource) resolveSheetURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	cached := s.sheetURL
	s.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	page, err := s.page.Fetch(ctx, s.cfg.ListingURL)
	if err != nil {
		return "", fmt.Errorf("fetch listing page: %w", err)
	}

	link, err := findSheetLink(s.cfg.LinkPattern, s.cfg.ListingURL, page)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.sheetURL = link
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "directory sheet link resolved", slog.String("url", link))
	return link, nil
}

func (s *ListingSource) forgetSheetURL(link string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sheetURL == link && link != s.cfg.SheetURL {
		s.sheetURL = ""
	}
}

// findSheetLink extracts the first link matched by pattern and resolves it
// against the listing page URL
func findSheetLink(pattern *regexp.Regexp, base string, page []byte) (string, error) {
	if pattern == nil {
		return "", ErrNoDirectoryLink
	}
	m := pattern.FindSubmatch(page)
	if len(m) < 2 || len(m[1]) == 0 {
		return "", ErrNoDirectoryLink
	}

	ref, err := url.Parse(html.UnescapeString(string(m[1])))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDirectoryLink, err)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse listing url: %w", err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}
