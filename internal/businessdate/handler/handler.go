package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"arrears/internal/platform/middleware"
	"arrears/pkg/calendar"
	dErrors "arrears/pkg/domain-errors"
	"arrears/pkg/platform/httputil"
)

// Service defines the business date operations.
type Service interface {
	Current(ctx context.Context) (time.Time, error)
	Set(ctx context.Context, date time.Time) (time.Time, error)
}

// BusinessDateResponse renders the date as yyyy-MM-dd.
type BusinessDateResponse struct {
	Date string `json:"date"`
}

// SetBusinessDateRequest is the admin payload.
type SetBusinessDateRequest struct {
	Date string `json:"date"`
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the read route. Callers mount it behind RequireAuth.
func (h *Handler) Register(r chi.Router) {
	r.Get("/businessdate", h.handleGet)
}

// RegisterAdmin registers the write route. Callers mount it behind RequireAdminToken.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/admin/businessdate", h.handleSet)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	date, err := h.service.Current(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read business date",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BusinessDateResponse{Date: calendar.Format(date)})
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req SetBusinessDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	parsed, err := calendar.Parse(req.Date)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "date must be formatted as yyyy-MM-dd"))
		return
	}

	date, err := h.service.Set(ctx, parsed)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to set business date",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, BusinessDateResponse{Date: calendar.Format(date)})
}
