package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bhavcli/internal/download"
	"bhavcli/internal/exchange"
	"bhavcli/internal/infrastructure"
	"bhavcli/internal/services"
	"bhavcli/internal/shared/testutil"
	"bhavcli/internal/store"
	"bhavcli/pkg/contracts/domain"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	const reportURL = "https://nsearchives.nseindia.com/content/cm/BhavCopy_NSE_CM_0_0_0_20240316_F_0000.csv.zip"

	type query struct {
		Date string `validate:"required,datetime=2006-01-02"`
	}
	verr := validator.New().Struct(query{})
	require.Error(t, verr)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantExt    map[string]interface{}
		wantLevel  slog.Level
	}{
		{
			name: "report not found",
			err: fmt.Errorf("retrieve: %w", &exchange.ReportNotFoundError{
				Exchange:  domain.ExchangeNSE,
				ReportURL: reportURL,
				Err:       &download.StatusError{URL: reportURL, StatusCode: 404},
			}),
			wantStatus: http.StatusNotFound,
			wantType:   TypeReportNotFound,
			wantExt:    map[string]interface{}{"exchange": "NSE", "report_url": reportURL},
			wantLevel:  slog.LevelWarn,
		},
		{
			name:       "malformed report",
			err:        &services.MalformedReportError{ReportURL: reportURL, Err: fmt.Errorf("zip: not a valid zip file")},
			wantStatus: http.StatusBadGateway,
			wantType:   TypeReportMalformed,
			wantExt:    map[string]interface{}{"report_url": reportURL},
			wantLevel:  slog.LevelError,
		},
		{
			name:       "unsupported exchange",
			err:        fmt.Errorf("%w: %q", domain.ErrUnsupportedExchange, "LSE"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantLevel:  slog.LevelWarn,
		},
		{
			name:       "struct validation",
			err:        verr,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantLevel:  slog.LevelWarn,
		},
		{
			name:       "no directory",
			err:        services.ErrNoDirectory,
			wantStatus: http.StatusNotFound,
			wantType:   TypeDirectoryNotFound,
			wantLevel:  slog.LevelWarn,
		},
		{
			name:       "not archived",
			err:        store.ErrReportNotStored,
			wantStatus: http.StatusNotFound,
			wantType:   TypeArchiveNotFound,
			wantLevel:  slog.LevelWarn,
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("fetch: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantLevel:  slog.LevelError,
		},
		{
			name:       "api error",
			err:        NotFoundError("company ZETA"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantExt:    map[string]interface{}{"error_code": CodeNotFound},
			wantLevel:  slog.LevelWarn,
		},
		{
			name:       "rate limit api error",
			err:        ErrRateLimitExceeded,
			wantStatus: http.StatusTooManyRequests,
			wantType:   TypeRateLimit,
			wantExt:    map[string]interface{}{"retry_after": float64(60)},
			wantLevel:  slog.LevelWarn,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantLevel:  slog.LevelError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/v1/reports/NSE?date=2024-03-16", nil)
			r = r.WithContext(infrastructure.WithTraceID(r.Context(), "trace-123"))

			h.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/v1/reports/NSE", body["instance"])
			assert.Equal(t, "trace-123", body["trace_id"])
			for k, v := range tt.wantExt {
				assert.Equal(t, v, body[k], k)
			}
			assert.NotContains(t, body, "stack")

			testutil.AssertLogged(t, logs, tt.wantLevel, "request failed")
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, w.Body.Len())
	assert.Empty(t, logs.Records())
}

func TestErrorHandler_ValidationFieldErrors(t *testing.T) {
	type query struct {
		Exchange string `validate:"required,oneof=NSE BSE"`
	}
	err := validator.New().Struct(query{Exchange: "LSE"})

	h := NewErrorHandler(discardLogger(), false)
	problem := h.ErrorToProblem(err, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.Contains(t, problem.Extensions, "errors")
	errs := problem.Extensions["errors"].([]ValidationError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Exchange", errs[0].Field)
	assert.Contains(t, errs[0].Message, "oneof")
}

func TestErrorHandler_StackOnlyForServerErrors(t *testing.T) {
	h := NewErrorHandler(discardLogger(), true)

	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))
	assert.Contains(t, decodeProblem(t, w), "stack")

	w = httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), ErrNotFound)
	assert.NotContains(t, decodeProblem(t, w), "stack")
}

func TestErrorHandler_Recoverer(t *testing.T) {
	tests := []struct {
		name         string
		recovered    interface{}
		includeStack bool
		wantPanic    string
	}{
		{"string panic with stack", "something went wrong", true, "something went wrong"},
		{"error panic without stack", fmt.Errorf("error occurred"), false, ""},
		{"integer panic", 42, true, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, tt.includeStack)

			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(tt.recovered) })
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/test", nil)
			r = r.WithContext(infrastructure.WithTraceID(r.Context(), "req-1"))

			h.Recoverer(next).ServeHTTP(w, r)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, TypeInternal, body["type"])
			assert.Equal(t, "req-1", body["trace_id"])
			if tt.includeStack {
				assert.Equal(t, tt.wantPanic, body["panic"])
				assert.Contains(t, body, "stack")
			} else {
				assert.NotContains(t, body, "panic")
			}
			testutil.AssertLogged(t, logs, slog.LevelError, "panic recovered")
		})
	}
}

func TestErrorHandler_RecovererRepanicsAbort(t *testing.T) {
	h := NewErrorHandler(discardLogger(), false)
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) })

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.Recoverer(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestErrorHandler_RouterFallbacks(t *testing.T) {
	h := NewErrorHandler(discardLogger(), false)

	w := httptest.NewRecorder()
	h.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, w)["type"])

	w = httptest.NewRecorder()
	h.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, TypeMethodNotFound, body["type"])
	assert.Contains(t, body["detail"], "DELETE")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
