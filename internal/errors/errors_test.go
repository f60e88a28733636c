package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "Invalid request format", ErrInvalidRequest.Error())
	assert.Equal(t, "company ALPHA not found", NotFoundError("company ALPHA").Error())
}

func TestAPIError_Render(t *testing.T) {
	tests := []struct {
		name       string
		apiError   *APIError
		wantStatus int
	}{
		{"bad request", ErrInvalidRequest, http.StatusBadRequest},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"rate limited", ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"internal", ErrInternalServer, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/test", nil)

			require.NoError(t, render.Render(w, r, tt.apiError))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body APIError
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.apiError.ErrorCode, body.ErrorCode)
		})
	}
}

func TestValidationConstructors(t *testing.T) {
	tests := []struct {
		name    string
		err     *APIError
		code    string
		details interface{}
	}{
		{
			name:    "single field",
			err:     ErrValidation("date", "must be YYYY-MM-DD"),
			code:    CodeValidationFailed,
			details: []ValidationError{{Field: "date", Message: "must be YYYY-MM-DD"}},
		},
		{
			name: "several fields",
			err: NewValidationErrors([]ValidationError{
				{Field: "exchange", Message: "unsupported"},
				{Field: "date", Message: "required"},
			}),
			code: CodeValidationFailed,
			details: []ValidationError{
				{Field: "exchange", Message: "unsupported"},
				{Field: "date", Message: "required"},
			},
		},
		{
			name:    "wrapped parse failure",
			err:     InvalidRequestWithError(fmt.Errorf("bad json")),
			code:    CodeInvalidRequest,
			details: "bad json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, tt.err.StatusCode)
			assert.Equal(t, tt.code, tt.err.ErrorCode)
			assert.Equal(t, tt.details, tt.err.Details)
		})
	}
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		problem *ProblemDetails
		want    map[string]interface{}
	}{
		{
			name:    "standard members only",
			problem: NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", ""),
			want: map[string]interface{}{
				"type":   TypeNotFound,
				"title":  "Not Found",
				"status": float64(404),
			},
		},
		{
			name: "extensions flattened",
			problem: NewProblemDetails(http.StatusNotFound, TypeReportNotFound, "Report Not Found", "gone", "/api/v1/reports/NSE").
				WithExtension("exchange", "NSE").
				WithExtension("report_url", "https://example.test/r.zip"),
			want: map[string]interface{}{
				"type":       TypeReportNotFound,
				"title":      "Report Not Found",
				"status":     float64(404),
				"detail":     "gone",
				"instance":   "/api/v1/reports/NSE",
				"exchange":   "NSE",
				"report_url": "https://example.test/r.zip",
			},
		},
		{
			name: "extension cannot shadow status",
			problem: NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "", "").
				WithExtension("status", 200),
			want: map[string]interface{}{
				"type":   TypeValidation,
				"title":  "Validation Failed",
				"status": float64(400),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.problem)
			require.NoError(t, err)

			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProblemDetails_WithExtensionOnLiteral(t *testing.T) {
	p := &ProblemDetails{Type: TypeInternal, Status: 500}
	p.WithExtension("trace_id", "abc")
	assert.Equal(t, "abc", p.Extensions["trace_id"])
}
