package negotiation

import (
	"errors"
	"fmt"

	"github.com/ghorbari/ghorbari/internal/models"
)

// Kind classifies negotiation failures for callers that map them to HTTP
// statuses or user-facing messages.
type Kind string

// Failure kinds.
const (
	KindInvalidTransition Kind = "invalid_transition"
	KindTerminalState     Kind = "terminal_state"
	KindAlreadyInDeal     Kind = "already_in_deal"
	KindNotInDeal         Kind = "not_in_deal"
	KindGuardViolation    Kind = "guard_violation"
	KindUnauthorized      Kind = "unauthorized"
)

// Error is a typed negotiation failure. It identifies the current state,
// the requested action, and the acting party, so a rejected action is never
// silently ignored or reported without context.
type Error struct {
	Kind   Kind
	State  models.ApplicationStatus
	Action Action
	Party  models.Party
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Action != "" {
		msg = fmt.Sprintf("%s: action %q by %s in state %q", e.Kind, e.Action, e.Party, e.State)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is matches any *Error with the same Kind, so callers can use errors.Is
// against the exported sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel values for errors.Is checks by kind.
var (
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrTerminalState     = &Error{Kind: KindTerminalState}
	ErrAlreadyInDeal     = &Error{Kind: KindAlreadyInDeal}
	ErrNotInDeal         = &Error{Kind: KindNotInDeal}
	ErrGuardViolation    = &Error{Kind: KindGuardViolation}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
)

// KindOf returns the failure kind of err, or "" if err is not a negotiation error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func (r Request) errf(kind Kind, state models.ApplicationStatus, format string, args ...any) *Error {
	return &Error{
		Kind:   kind,
		State:  state,
		Action: r.Action,
		Party:  r.Actor.Party,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (r Request) err(kind Kind, state models.ApplicationStatus) *Error {
	return &Error{Kind: kind, State: state, Action: r.Action, Party: r.Actor.Party}
}
