package models

import (
	dErrors "arrears/pkg/domain-errors"
)

// RegisterLoanRequest is the admin payload for registering a loan.
type RegisterLoanRequest struct {
	ExternalID string `json:"external_id"`
	Status     string `json:"status,omitempty"`
}

// ChangeStatusRequest is the admin payload for moving a loan through its lifecycle.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// ParsedStatus returns the requested status, or an error when it is unknown.
func (r ChangeStatusRequest) ParsedStatus() (Status, error) {
	st, ok := ParseStatus(r.Status)
	if !ok {
		return "", dErrors.New(dErrors.CodeValidation, "status must be one of submitted, approved, active, overpaid, closed, written_off")
	}
	return st, nil
}
