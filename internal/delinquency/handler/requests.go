package handler

import (
	"arrears/internal/delinquency/service"
	id "arrears/pkg/domain"
	dErrors "arrears/pkg/domain-errors"
	platformstrings "arrears/pkg/platform/strings"
)

// CreateActionRequest is the body of POST /loans/{loanID}/delinquency/actions.
type CreateActionRequest struct {
	Action     string `json:"action"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	DateFormat string `json:"dateFormat"`
	Locale     string `json:"locale"`
}

// toCommand parses the dates. Rule checks are left to the service so that
// every violation is reported together.
func (r CreateActionRequest) toCommand() (service.CreateActionRequest, error) {
	parser, err := newDateParser(r.DateFormat, r.Locale)
	if err != nil {
		return service.CreateActionRequest{}, err
	}
	start, err := parser.parse("startDate", r.StartDate)
	if err != nil {
		return service.CreateActionRequest{}, err
	}
	end, err := parser.parse("endDate", r.EndDate)
	if err != nil {
		return service.CreateActionRequest{}, err
	}
	return service.CreateActionRequest{
		Action:    r.Action,
		StartDate: start,
		EndDate:   end,
	}, nil
}

// parseLoanIDs accepts repeated loan_id parameters as well as comma separated
// lists. Duplicates are dropped and the first-seen order is kept.
func parseLoanIDs(values []string) ([]id.LoanID, error) {
	raw := platformstrings.SplitList(values...)
	if len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "loan_id query parameter is required")
	}
	ids := make([]id.LoanID, 0, len(raw))
	seen := make(map[id.LoanID]struct{}, len(raw))
	for _, v := range raw {
		loanID, err := id.ParseLoanID(v)
		if err != nil {
			return nil, err
		}
		// distinct spellings of one uuid collapse here
		if _, dup := seen[loanID]; dup {
			continue
		}
		seen[loanID] = struct{}{}
		ids = append(ids, loanID)
	}
	return ids, nil
}
