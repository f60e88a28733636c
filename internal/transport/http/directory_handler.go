package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "bhavcli/internal/errors"
	"bhavcli/pkg/contracts/domain"
)

// DirectoryHandler exposes the company directories
type DirectoryHandler struct {
	service      DirectoryProvider
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewDirectoryHandler creates a directory handler
func NewDirectoryHandler(service DirectoryProvider, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "directory")),
	}
}

// Routes returns the directory routes
func (h *DirectoryHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{exchange}", h.GetInfo)
	r.Post("/{exchange}/refresh", h.Refresh)
	r.Get("/{exchange}/companies/{symbol}", h.GetCompany)
	return r
}

// GetInfo handles GET /api/v1/directory/{exchange}
func (h *DirectoryHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	ex, err := domain.ParseExchange(chi.URLParam(r, "exchange"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	info, err := h.service.Info(r.Context(), ex)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// Refresh handles POST /api/v1/directory/{exchange}/refresh
func (h *DirectoryHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ex, err := domain.ParseExchange(chi.URLParam(r, "exchange"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	info, err := h.service.Refresh(r.Context(), ex)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// GetCompany handles GET /api/v1/directory/{exchange}/companies/{symbol}
func (h *DirectoryHandler) GetCompany(w http.ResponseWriter, r *http.Request) {
	ex, err := domain.ParseExchange(chi.URLParam(r, "exchange"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	symbol := strings.TrimSpace(chi.URLParam(r, "symbol"))
	if symbol == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("symbol", "symbol is required"))
		return
	}

	company, ok, err := h.service.Lookup(r.Context(), ex, symbol)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("company "+symbol))
		return
	}
	render.JSON(w, r, company)
}
