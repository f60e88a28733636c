package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"bhavcli/internal/dataprocessing"
	"bhavcli/internal/directory"
	"bhavcli/internal/download"
	"bhavcli/internal/exchange"
	"bhavcli/pkg/contracts/domain"
)

// DirectoryLoader serves the company directory of one exchange
type DirectoryLoader interface {
	Load(ctx context.Context, opts directory.LoadOptions) directory.Snapshot
}

// ReportMetrics records closing report outcomes
type ReportMetrics interface {
	RecordClosingReport(ctx context.Context, ex domain.Exchange, records int, duration time.Duration, err error)
}

// ReportArchive keeps retrieved reports
type ReportArchive interface {
	SaveReport(ctx context.Context, ex domain.Exchange, date civil.Date, report *domain.ClosingReport) error
}

// ReportRequest identifies one closing report
type ReportRequest struct {
	Exchange domain.Exchange
	// Date is the trading day; the zero value means today
	Date civil.Date
	// RefreshDirectory forces a company directory refresh first
	RefreshDirectory bool
}

// ReportService retrieves closing reports end to end: directory, location,
// download, extraction, decoding and normalization with name enrichment.
type ReportService struct {
	fetcher     download.Fetcher
	directories map[domain.Exchange]DirectoryLoader
	archive     ReportArchive
	metrics     ReportMetrics
	tracer      trace.Tracer
	clock       func() time.Time
	logger      *slog.Logger
}

// ReportServiceOption configures a ReportService
type ReportServiceOption func(*ReportService)

// WithReportClock replaces time.Now for resolving "today"
func WithReportClock(clock func() time.Time) ReportServiceOption {
	return func(s *ReportService) { s.clock = clock }
}

// WithReportLogger sets the logger
func WithReportLogger(logger *slog.Logger) ReportServiceOption {
	return func(s *ReportService) { s.logger = logger }
}

// WithReportMetrics sets the metrics recorder
func WithReportMetrics(m ReportMetrics) ReportServiceOption {
	return func(s *ReportService) { s.metrics = m }
}

// WithReportTracer sets the tracer
func WithReportTracer(t trace.Tracer) ReportServiceOption {
	return func(s *ReportService) { s.tracer = t }
}

// WithReportArchive stores every retrieved report
func WithReportArchive(a ReportArchive) ReportServiceOption {
	return func(s *ReportService) { s.archive = a }
}

// NewReportService creates a report service. Exchanges without a directory
// loader are served with row-sourced names only.
func NewReportService(fetcher download.Fetcher, directories map[domain.Exchange]DirectoryLoader, opts ...ReportServiceOption) *ReportService {
	s := &ReportService{
		fetcher:     fetcher,
		directories: directories,
		tracer:      tracenoop.NewTracerProvider().Tracer("services"),
		clock:       time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("component", "report_service"))
	return s
}

// GetClosingReport returns the closing report of ex for date. It fails
// with *exchange.ReportNotFoundError when the report cannot be downloaded.
func (s *ReportService) GetClosingReport(ctx context.Context, ex domain.Exchange, date civil.Date) (*domain.ClosingReport, error) {
	return s.Retrieve(ctx, ReportRequest{Exchange: ex, Date: date})
}

// Retrieve runs a closing report request
func (s *ReportService) Retrieve(ctx context.Context, req ReportRequest) (report *domain.ClosingReport, err error) {
	ex := req.Exchange
	if !ex.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedExchange, string(ex))
	}

	date := req.Date
	if date.IsZero() {
		date = civil.DateOf(s.clock())
	}

	ctx, span := s.tracer.Start(ctx, "ReportService.GetClosingReport", trace.WithAttributes(
		attribute.String("exchange", ex.String()),
		attribute.String("date", date.String()),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		records := 0
		if report != nil {
			records = len(report.Records)
		}
		if s.metrics != nil {
			s.metrics.RecordClosingReport(ctx, ex, records, time.Since(start), err)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	dir := s.loadDirectory(ctx, ex, req.RefreshDirectory)

	loc := exchange.Resolve(ex, date)
	span.SetAttributes(attribute.String("report.url", loc.URL))

	data, err := s.fetcher.Fetch(ctx, loc.URL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", loc.URL, ctxErr)
		}
		if errors.Is(err, download.ErrBodyTooLarge) {
			return nil, &MalformedReportError{ReportURL: loc.URL, Err: err}
		}
		s.logger.WarnContext(ctx, "closing report not found",
			slog.String("exchange", ex.String()),
			slog.String("date", date.String()),
			slog.String("report_url", loc.URL),
			slog.String("error", err.Error()))
		return nil, &exchange.ReportNotFoundError{Exchange: ex, ReportURL: loc.URL, Err: err}
	}

	table := data
	if loc.Format == domain.FormatArchive {
		table, err = dataprocessing.ExtractEntry(data, loc.Filename)
		if err != nil {
			return nil, &MalformedReportError{ReportURL: loc.URL, Err: err}
		}
	}

	rows, err := dataprocessing.DecodeTable(table)
	if err != nil {
		return nil, &MalformedReportError{ReportURL: loc.URL, Err: err}
	}

	hook := enrichFrom(dir)
	records := make([]domain.StockRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, exchange.Normalize(ex, row, hook))
	}

	report = &domain.ClosingReport{Records: records, SourceURL: loc.URL}

	s.logger.InfoContext(ctx, "closing report retrieved",
		slog.String("exchange", ex.String()),
		slog.String("date", date.String()),
		slog.Int("records", len(records)),
		slog.Int("directory_companies", dir.Len()),
		slog.Duration("duration", time.Since(start)))

	if s.archive != nil {
		if err := s.archive.SaveReport(ctx, ex, date, report); err != nil {
			s.logger.WarnContext(ctx, "closing report not archived", slog.String("error", err.Error()))
		}
	}

	return report, nil
}

func (s *ReportService) loadDirectory(ctx context.Context, ex domain.Exchange, refresh bool) directory.Snapshot {
	loader, ok := s.directories[ex]
	if !ok || loader == nil {
		s.logger.DebugContext(ctx, "no directory configured", slog.String("exchange", ex.String()))
		return directory.Snapshot{}
	}
	return loader.Load(ctx, directory.LoadOptions{InvalidateCache: refresh})
}

// enrichFrom overlays the directory name of each record's symbol and trims
// the resulting name. Blank directory names keep the row name.
func enrichFrom(dir directory.Snapshot) exchange.RowHook {
	return func(rec *domain.StockRecord) {
		if c, ok := dir.Lookup(rec.Symbol); ok {
			if name := strings.TrimSpace(c.Name); name != "" {
				rec.Name = name
				return
			}
		}
		rec.Name = strings.TrimSpace(rec.Name)
	}
}

// MalformedReportError is returned when a downloaded report cannot be read
type MalformedReportError struct {
	ReportURL string
	Err       error
}

func (e *MalformedReportError) Error() string {
	return fmt.Sprintf("malformed report %s: %v", e.ReportURL, e.Err)
}

// Unwrap returns the extraction or decoding error
func (e *MalformedReportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrMalformedReport) match
func (e *MalformedReportError) Is(target error) bool {
	return target == ErrMalformedReport
}

// IsReportNotFound reports whether err means the report could not be downloaded
func IsReportNotFound(err error) bool {
	return errors.Is(err, exchange.ErrReportNotFound)
}
