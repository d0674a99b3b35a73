package handler

import (
	"time"

	"arrears/internal/delinquency/models"
	"arrears/internal/delinquency/validator"
	id "arrears/pkg/domain"
	"arrears/pkg/platform/httputil"
)

type ActionResponse struct {
	ID        string    `json:"id"`
	LoanID    string    `json:"loanId"`
	Action    string    `json:"action"`
	StartDate string    `json:"startDate"`
	EndDate   *string   `json:"endDate,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ActionsResponse struct {
	Actions []ActionResponse `json:"actions"`
}

type PausePeriodResponse struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Active    bool   `json:"active"`
}

type PausePeriodsResponse struct {
	LoanID       string                `json:"loanId"`
	PausePeriods []PausePeriodResponse `json:"pausePeriods"`
}

type BatchPausePeriodsResponse struct {
	Loans []PausePeriodsResponse `json:"loans"`
}

// ValidationErrorResponse extends the error envelope with every violated rule.
type ValidationErrorResponse struct {
	httputil.ErrorResponse
	Errors []validator.Violation `json:"errors"`
}

func toActionResponse(e models.Entry) ActionResponse {
	resp := ActionResponse{
		ID:        e.ID.String(),
		LoanID:    e.LoanID.String(),
		Action:    e.Action.String(),
		StartDate: models.FormatDate(e.StartDate),
		CreatedAt: e.CreatedAt,
	}
	if e.EndDate != nil {
		end := models.FormatDate(*e.EndDate)
		resp.EndDate = &end
	}
	return resp
}

func toActionsResponse(timeline []models.Entry) ActionsResponse {
	actions := make([]ActionResponse, len(timeline))
	for i, e := range timeline {
		actions[i] = toActionResponse(e)
	}
	return ActionsResponse{Actions: actions}
}

func toPausePeriodsResponse(loanID id.LoanID, periods []models.PausePeriod) PausePeriodsResponse {
	out := make([]PausePeriodResponse, len(periods))
	for i, p := range periods {
		out[i] = PausePeriodResponse{
			StartDate: models.FormatDate(p.StartDate),
			EndDate:   models.FormatDate(p.EndDate),
			Active:    p.Active,
		}
	}
	return PausePeriodsResponse{LoanID: loanID.String(), PausePeriods: out}
}
