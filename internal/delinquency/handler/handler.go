package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"arrears/internal/delinquency/models"
	"arrears/internal/delinquency/service"
	"arrears/internal/delinquency/validator"
	"arrears/internal/platform/middleware"
	id "arrears/pkg/domain"
	dErrors "arrears/pkg/domain-errors"
	"arrears/pkg/platform/httputil"
)

// Service defines the delinquency operations exposed over HTTP.
type Service interface {
	CreateAction(ctx context.Context, loanID id.LoanID, req service.CreateActionRequest) (*models.Entry, error)
	ListActions(ctx context.Context, loanID id.LoanID) ([]models.Entry, error)
	PausePeriods(ctx context.Context, loanID id.LoanID) ([]models.PausePeriod, error)
	PausePeriodsForLoans(ctx context.Context, loanIDs []id.LoanID) (map[id.LoanID][]models.PausePeriod, error)
}

// Handler serves delinquency routes. Callers mount it behind RequireAuth.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the delinquency routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/loans/{loanID}/delinquency/actions", h.handleCreateAction)
	r.Get("/loans/{loanID}/delinquency/actions", h.handleListActions)
	r.Get("/loans/{loanID}/delinquency/pause-periods", h.handlePausePeriods)
	r.Get("/delinquency/pause-periods", h.handleBatchPausePeriods)
}

func (h *Handler) handleCreateAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	loanID, err := id.ParseLoanID(chi.URLParam(r, "loanID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req CreateActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid delinquency action request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	cmd, err := req.toCommand()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entry, err := h.service.CreateAction(ctx, loanID, cmd)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to create delinquency action", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toActionResponse(*entry))
}

func (h *Handler) handleListActions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loanID, err := id.ParseLoanID(chi.URLParam(r, "loanID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	timeline, err := h.service.ListActions(ctx, loanID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to list delinquency actions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toActionsResponse(timeline))
}

func (h *Handler) handlePausePeriods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loanID, err := id.ParseLoanID(chi.URLParam(r, "loanID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	periods, err := h.service.PausePeriods(ctx, loanID)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to resolve pause periods", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPausePeriodsResponse(loanID, periods))
}

func (h *Handler) handleBatchPausePeriods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loanIDs, err := parseLoanIDs(r.URL.Query()["loan_id"])
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	byLoan, err := h.service.PausePeriodsForLoans(ctx, loanIDs)
	if err != nil {
		h.writeServiceError(ctx, w, "failed to resolve pause periods", err)
		return
	}
	resp := BatchPausePeriodsResponse{Loans: make([]PausePeriodsResponse, len(loanIDs))}
	for i, loanID := range loanIDs {
		resp.Loans[i] = toPausePeriodsResponse(loanID, byLoan[loanID])
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	var verr *validator.ValidationError
	if errors.As(err, &verr) {
		httputil.WriteJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			ErrorResponse: httputil.ErrorResponse{
				Error:            string(dErrors.CodeValidation),
				ErrorDescription: verr.Error(),
			},
			Errors: verr.Violations,
		})
		return
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
