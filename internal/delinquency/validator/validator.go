// Package validator turns a delinquency action request plus the loan's
// existing timeline into a new timeline entry, or a list of violated rules.
//
// Validation is pure: loan state, history and business date arrive as
// arguments, and nothing is read from or written to storage. Callers must
// serialize validate-then-append per loan; the result only holds against the
// history snapshot passed in.
package validator

import (
	"strings"
	"time"

	"arrears/internal/delinquency/models"
	id "arrears/pkg/domain"
)

// Input is everything a single validation needs.
type Input struct {
	// Action is the raw requested action ("pause"/"resume", any case).
	Action string
	// StartDate and EndDate are already parsed from the request; nil when absent.
	StartDate *time.Time
	EndDate   *time.Time

	LoanID       id.LoanID
	LoanActive   bool
	History      []models.Entry
	BusinessDate time.Time
}

// Validate applies the delinquency action rules and returns the entry to append.
// Every violated rule is reported in a single *ValidationError.
func Validate(in Input) (*models.Entry, error) {
	var errs violations
	businessDate := models.Date(in.BusinessDate)

	action, known := models.ParseAction(in.Action)
	switch {
	case isBlank(in.Action):
		errs.add(KindMissingAction, msgMissingAction)
	case !known:
		errs.add(KindInvalidAction, msgInvalidAction)
	}

	if !in.LoanActive {
		errs.add(KindInvalidLoanState, msgInvalidLoanState)
	}

	var entry *models.Entry
	switch action {
	case models.ActionResume:
		entry = validateResume(in, businessDate, &errs)
	case models.ActionPause:
		entry = validatePause(in, businessDate, &errs)
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return entry, nil
}

// validateResume checks a resume: no end date, effective today, and issued
// while an effective pause covers the business date.
func validateResume(in Input, businessDate time.Time, errs *violations) *models.Entry {
	if in.EndDate != nil {
		errs.add(KindResumeShouldHaveNoEndDate, msgResumeWithEndDate)
	}
	if in.StartDate == nil || !models.Date(*in.StartDate).Equal(businessDate) {
		errs.add(KindInvalidStartDate, msgResumeStartDate)
	}
	if _, paused := models.ActivePause(in.History, businessDate); !paused {
		errs.add(KindResumeShouldBeOnPause, msgResumeNotOnPause)
	}
	if len(*errs) > 0 {
		return nil
	}
	return models.NewResume(in.LoanID, businessDate)
}

// validatePause checks a pause: at least one day long, not starting before
// the business date, and not overlapping any effective pause.
func validatePause(in Input, businessDate time.Time, errs *violations) *models.Entry {
	if in.StartDate == nil || in.EndDate == nil {
		errs.add(KindInvalidStartDateAndEndDate, msgPauseMinimumDuration)
		return nil
	}

	pause, err := models.NewPause(in.LoanID, *in.StartDate, *in.EndDate)
	if err != nil {
		errs.add(KindInvalidStartDateAndEndDate, msgPauseMinimumDuration)
	}
	if models.Date(*in.StartDate).Before(businessDate) {
		errs.add(KindInvalidStartDate, msgPauseStartInPast)
	}
	if pause == nil {
		return nil
	}

	proposed, _ := pause.Range()
	if models.OverlapsAny(proposed, models.EffectivePauses(in.History)) {
		errs.add(KindOverlapping, msgPauseOverlapping)
	}
	if len(*errs) > 0 {
		return nil
	}
	return pause
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
