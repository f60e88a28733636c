package http

import (
	"context"

	"cloud.google.com/go/civil"

	"bhavcli/internal/services"
	"bhavcli/internal/store"
	"bhavcli/pkg/contracts/domain"
)

// ReportRetriever retrieves closing reports
type ReportRetriever interface {
	Retrieve(ctx context.Context, req services.ReportRequest) (*domain.ClosingReport, error)
}

// DirectoryProvider exposes the company directories
type DirectoryProvider interface {
	Info(ctx context.Context, ex domain.Exchange) (services.DirectoryInfo, error)
	Refresh(ctx context.Context, ex domain.Exchange) (services.DirectoryInfo, error)
	Lookup(ctx context.Context, ex domain.Exchange, symbol string) (domain.Company, bool, error)
}

// ReportArchive reads previously retrieved reports
type ReportArchive interface {
	LoadReport(ctx context.Context, ex domain.Exchange, date civil.Date) (*domain.ClosingReport, error)
	ListReports(ctx context.Context, ex domain.Exchange) ([]store.ReportSummary, error)
}

// HealthProvider reports process and dependency health
type HealthProvider interface {
	Liveness(ctx context.Context) services.HealthStatus
	Readiness(ctx context.Context) services.HealthStatus
}
