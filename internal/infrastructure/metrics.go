package infrastructure

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"bhavcli/internal/exchange"
	"bhavcli/pkg/contracts/domain"
)

// Closing report outcomes
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// BusinessMetrics holds all application-specific metrics.
// A nil *BusinessMetrics records nothing.
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Closing report metrics
	ClosingReportsTotal   metric.Int64Counter
	ClosingReportRecords  metric.Int64Histogram
	ClosingReportDuration metric.Float64Histogram

	// Directory metrics
	DirectoryRefreshesTotal metric.Int64Counter
	DirectoryCompanies      metric.Int64Gauge
}

// CreateBusinessMetrics registers the application metrics on meter
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m   BusinessMetrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.ClosingReportsTotal, err = meter.Int64Counter(
		"closing_reports_total",
		metric.WithDescription("Closing report retrievals by exchange and outcome"),
	); err != nil {
		return nil, err
	}

	if m.ClosingReportRecords, err = meter.Int64Histogram(
		"closing_report_records",
		metric.WithDescription("Number of records in retrieved closing reports"),
	); err != nil {
		return nil, err
	}

	if m.ClosingReportDuration, err = meter.Float64Histogram(
		"closing_report_duration_seconds",
		metric.WithDescription("Closing report retrieval duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.DirectoryRefreshesTotal, err = meter.Int64Counter(
		"directory_refreshes_total",
		metric.WithDescription("Company directory refresh attempts by exchange and outcome"),
	); err != nil {
		return nil, err
	}

	if m.DirectoryCompanies, err = meter.Int64Gauge(
		"directory_companies",
		metric.WithDescription("Companies in the last refreshed directory"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordClosingReport records one closing report retrieval
func (m *BusinessMetrics) RecordClosingReport(ctx context.Context, ex domain.Exchange, records int, duration time.Duration, err error) {
	if m == nil {
		return
	}

	outcome := OutcomeSuccess
	switch {
	case errors.Is(err, exchange.ErrReportNotFound):
		outcome = OutcomeNotFound
	case err != nil:
		outcome = OutcomeError
	}

	exAttr := attribute.String("exchange", ex.String())
	m.ClosingReportsTotal.Add(ctx, 1, metric.WithAttributes(exAttr, attribute.String("outcome", outcome)))
	m.ClosingReportDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(exAttr, attribute.String("outcome", outcome)))
	if err == nil {
		m.ClosingReportRecords.Record(ctx, int64(records), metric.WithAttributes(exAttr))
	}
}

// DirectoryRefreshed records a directory refresh attempt
func (m *BusinessMetrics) DirectoryRefreshed(ctx context.Context, ex domain.Exchange, companies int, err error) {
	if m == nil {
		return
	}

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}

	exAttr := attribute.String("exchange", ex.String())
	m.DirectoryRefreshesTotal.Add(ctx, 1, metric.WithAttributes(exAttr, attribute.String("outcome", outcome)))
	if err == nil {
		m.DirectoryCompanies.Record(ctx, int64(companies), metric.WithAttributes(exAttr))
	}
}

// RecordHTTPRequest records a served HTTP request
func (m *BusinessMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// TrackActiveRequest increments the active request gauge and returns the
// matching decrement
func (m *BusinessMetrics) TrackActiveRequest(ctx context.Context) func() {
	if m == nil {
		return func() {}
	}
	m.HTTPActiveRequests.Add(ctx, 1)
	return func() { m.HTTPActiveRequests.Add(ctx, -1) }
}
