package validator

import (
	"strings"

	dErrors "arrears/pkg/domain-errors"
)

// Kind names a violated delinquency action rule.
type Kind string

const (
	KindMissingAction              Kind = "missing-action"
	KindInvalidAction              Kind = "invalid-action"
	KindInvalidLoanState           Kind = "invalid-loan-state"
	KindResumeShouldHaveNoEndDate  Kind = "resume-should-have-no-end-date"
	KindInvalidStartDate           Kind = "invalid-start-date"
	KindResumeShouldBeOnPause      Kind = "resume-should-be-on-pause"
	KindInvalidStartDateAndEndDate Kind = "invalid-start-date-and-end-date"
	KindOverlapping                Kind = "overlapping"
)

const (
	msgMissingAction        = "Delinquency action is required"
	msgInvalidAction        = "Delinquency action must be either pause or resume"
	msgInvalidLoanState     = "Delinquency actions can be created only for active loans"
	msgResumeWithEndDate    = "Resume Delinquency action can not have end date"
	msgResumeStartDate      = "Start date of the Resume Delinquency action must be the current business date"
	msgResumeNotOnPause     = "Resume Delinquency Action can only be created during an active pause"
	msgPauseMinimumDuration = "Delinquency pause period must be at least one day"
	msgPauseStartInPast     = "Start date of pause period must be in the future"
	msgPauseOverlapping     = "Delinquency pause period cannot overlap with another pause period"
)

// Violation is one failed rule.
type Violation struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// ValidationError lists every rule a delinquency action request violated.
// It unwraps to a CodeValidation domain error so transports map it to 400.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return "delinquency action rejected: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return dErrors.New(dErrors.CodeValidation, e.Error())
}

// Has reports whether the error contains a violation of the given kind.
func (e *ValidationError) Has(kind Kind) bool {
	for _, v := range e.Violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

// Kinds returns the violated kinds in evaluation order.
func (e *ValidationError) Kinds() []Kind {
	kinds := make([]Kind, len(e.Violations))
	for i, v := range e.Violations {
		kinds[i] = v.Kind
	}
	return kinds
}

type violations []Violation

func (v *violations) add(kind Kind, msg string) {
	*v = append(*v, Violation{Kind: kind, Message: msg})
}

func (v violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return &ValidationError{Violations: v}
}
