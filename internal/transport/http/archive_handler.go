package http

import (
	"log/slog"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "bhavcli/internal/errors"
	"bhavcli/internal/store"
	"bhavcli/pkg/contracts/domain"
)

// ArchiveHandler serves reports kept in the local archive
type ArchiveHandler struct {
	archive      ReportArchive
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewArchiveHandler creates an archive handler
func NewArchiveHandler(archive ReportArchive, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		archive:      archive,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "archive")),
	}
}

// Routes returns the archive routes
func (h *ArchiveHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{exchange}", h.List)
	r.Get("/{exchange}/{date}", h.Get)
	return r
}

// List handles GET /api/v1/archive/{exchange}
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	ex, err := domain.ParseExchange(chi.URLParam(r, "exchange"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	reports, err := h.archive.ListReports(r.Context(), ex)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if reports == nil {
		reports = []store.ReportSummary{}
	}
	render.JSON(w, r, map[string]interface{}{
		"exchange": ex,
		"reports":  reports,
	})
}

// Get handles GET /api/v1/archive/{exchange}/{date}
func (h *ArchiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	ex, err := domain.ParseExchange(chi.URLParam(r, "exchange"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	date, err := civil.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date", "date must be a calendar date formatted YYYY-MM-DD"))
		return
	}

	report, err := h.archive.LoadReport(r.Context(), ex, date)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}
