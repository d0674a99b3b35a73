package models

import "strings"

// Action is the closed set of delinquency timeline actions.
type Action string

const (
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
)

// ParseAction maps a case-insensitive request value to an Action.
// ok is false for blank or unrecognized input; callers must not default.
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionPause:
		return ActionPause, true
	case ActionResume:
		return ActionResume, true
	default:
		return "", false
	}
}

func (a Action) IsValid() bool {
	return a == ActionPause || a == ActionResume
}

func (a Action) String() string {
	return string(a)
}
