package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/patrickmn/go-cache"

	apierrors "bhavcli/internal/errors"
	"bhavcli/internal/exporter"
	"bhavcli/internal/middleware"
	"bhavcli/internal/services"
	"bhavcli/pkg/contracts/domain"
)

// ReportCacheHeader tells whether a report came from the in-memory memo
const ReportCacheHeader = "X-Report-Cache"

type reportQuery struct {
	Exchange string `query:"exchange" validate:"required,exchange"`
	Date     string `query:"date" validate:"omitempty,civildate"`
	Format   string `query:"format" validate:"omitempty,oneof=json csv"`
	Refresh  string `query:"refresh_directory" validate:"omitempty,boolean"`
}

// ReportHandler serves closing reports. Successful retrievals are memoized
// per exchange and trading day for the memo TTL.
type ReportHandler struct {
	service      ReportRetriever
	memo         *cache.Cache
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	clock        func() time.Time
	logger       *slog.Logger
}

// NewReportHandler creates a report handler. A non positive memoTTL disables the memo.
func NewReportHandler(service ReportRetriever, memoTTL time.Duration, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ReportHandler {
	h := &ReportHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		clock:        time.Now,
		logger:       logger.With(slog.String("handler", "reports")),
	}
	if memoTTL > 0 {
		h.memo = cache.New(memoTTL, 2*memoTTL)
	}
	return h
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{exchange}", h.GetReport)
	return r
}

// GetReport handles GET /api/v1/reports/{exchange}?date=YYYY-MM-DD&format=json|csv
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	q := reportQuery{
		Exchange: chi.URLParam(r, "exchange"),
		Date:     r.URL.Query().Get("date"),
		Format:   r.URL.Query().Get("format"),
		Refresh:  r.URL.Query().Get("refresh_directory"),
	}
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	req, err := h.request(q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	key := fmt.Sprintf("%s/%s", req.Exchange, req.Date)
	report, hit := h.cached(key, req.RefreshDirectory)
	if !hit {
		report, err = h.service.Retrieve(r.Context(), req)
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		if h.memo != nil {
			h.memo.SetDefault(key, report)
		}
	}

	if hit {
		w.Header().Set(ReportCacheHeader, "hit")
	} else {
		w.Header().Set(ReportCacheHeader, "miss")
	}

	if format, _ := exporter.ParseFormat(q.Format); format == exporter.FormatCSV {
		h.writeCSV(w, r, req, report)
		return
	}
	render.JSON(w, r, report)
}

func (h *ReportHandler) request(q reportQuery) (services.ReportRequest, error) {
	ex, err := domain.ParseExchange(q.Exchange)
	if err != nil {
		return services.ReportRequest{}, err
	}

	date := civil.DateOf(h.clock())
	if q.Date != "" {
		if date, err = civil.ParseDate(q.Date); err != nil {
			return services.ReportRequest{}, apierrors.ErrValidation("date", err.Error())
		}
	}

	var refresh bool
	if q.Refresh != "" {
		refresh, _ = strconv.ParseBool(q.Refresh)
	}

	return services.ReportRequest{Exchange: ex, Date: date, RefreshDirectory: refresh}, nil
}

func (h *ReportHandler) cached(key string, bypass bool) (*domain.ClosingReport, bool) {
	if h.memo == nil || bypass {
		return nil, false
	}
	v, ok := h.memo.Get(key)
	if !ok {
		return nil, false
	}
	report, ok := v.(*domain.ClosingReport)
	return report, ok
}

func (h *ReportHandler) writeCSV(w http.ResponseWriter, r *http.Request, req services.ReportRequest, report *domain.ClosingReport) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s_%s.csv"`, req.Exchange, req.Date))

	if err := exporter.NewCSVWriter(false).WriteReport(w, report); err != nil {
		// headers are already out; all that is left is to log
		h.logger.ErrorContext(r.Context(), "csv write failed",
			slog.String("exchange", req.Exchange.String()),
			slog.String("error", err.Error()))
	}
}
