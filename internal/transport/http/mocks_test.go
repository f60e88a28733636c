package http

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/mock"

	"bhavcli/internal/services"
	"bhavcli/internal/store"
	"bhavcli/pkg/contracts/domain"
)

type MockReportRetriever struct {
	mock.Mock
}

func (m *MockReportRetriever) Retrieve(ctx context.Context, req services.ReportRequest) (*domain.ClosingReport, error) {
	args := m.Called(ctx, req)
	report, _ := args.Get(0).(*domain.ClosingReport)
	return report, args.Error(1)
}

type MockDirectoryProvider struct {
	mock.Mock
}

func (m *MockDirectoryProvider) Info(ctx context.Context, ex domain.Exchange) (services.DirectoryInfo, error) {
	args := m.Called(ctx, ex)
	return args.Get(0).(services.DirectoryInfo), args.Error(1)
}

func (m *MockDirectoryProvider) Refresh(ctx context.Context, ex domain.Exchange) (services.DirectoryInfo, error) {
	args := m.Called(ctx, ex)
	return args.Get(0).(services.DirectoryInfo), args.Error(1)
}

func (m *MockDirectoryProvider) Lookup(ctx context.Context, ex domain.Exchange, symbol string) (domain.Company, bool, error) {
	args := m.Called(ctx, ex, symbol)
	return args.Get(0).(domain.Company), args.Bool(1), args.Error(2)
}

type MockReportArchive struct {
	mock.Mock
}

func (m *MockReportArchive) LoadReport(ctx context.Context, ex domain.Exchange, date civil.Date) (*domain.ClosingReport, error) {
	args := m.Called(ctx, ex, date)
	report, _ := args.Get(0).(*domain.ClosingReport)
	return report, args.Error(1)
}

func (m *MockReportArchive) ListReports(ctx context.Context, ex domain.Exchange) ([]store.ReportSummary, error) {
	args := m.Called(ctx, ex)
	reports, _ := args.Get(0).([]store.ReportSummary)
	return reports, args.Error(1)
}

type stubHealth struct {
	ready services.HealthStatus
}

func (s stubHealth) Liveness(context.Context) services.HealthStatus {
	return services.HealthStatus{Status: services.StatusHealthy, Version: "test"}
}

func (s stubHealth) Readiness(context.Context) services.HealthStatus {
	return s.ready
}
