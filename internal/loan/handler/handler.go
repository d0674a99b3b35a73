package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"arrears/internal/loan/models"
	"arrears/internal/platform/middleware"
	id "arrears/pkg/domain"
	dErrors "arrears/pkg/domain-errors"
	"arrears/pkg/platform/httputil"
)

// Service defines the loan operations exposed to operators.
type Service interface {
	Register(ctx context.Context, req models.RegisterLoanRequest) (*models.Loan, error)
	Get(ctx context.Context, loanID id.LoanID) (*models.Loan, error)
	ChangeStatus(ctx context.Context, loanID id.LoanID, next models.Status) (*models.Loan, error)
}

// Handler serves admin loan routes. Callers mount it behind RequireAdminToken.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the loan admin routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/loans", h.handleRegister)
	r.Get("/admin/loans/{loanID}", h.handleGet)
	r.Put("/admin/loans/{loanID}/status", h.handleChangeStatus)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.RegisterLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid register loan request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	loan, err := h.service.Register(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to register loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, loan)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loanID, err := id.ParseLoanID(chi.URLParam(r, "loanID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	loan, err := h.service.Get(ctx, loanID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to get loan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loan)
}

func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loanID, err := id.ParseLoanID(chi.URLParam(r, "loanID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req models.ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	status, err := req.ParsedStatus()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	loan, err := h.service.ChangeStatus(ctx, loanID, status)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to change loan status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loan)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
