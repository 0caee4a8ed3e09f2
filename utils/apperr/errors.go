// Package apperr holds the typed errors returned by the booking lifecycle.
// Business-rule kinds describe an invalid action; CollaboratorUnavailable
// describes a valid action the system could not complete.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindAlreadyResolved         Kind = "already_resolved"
	KindWindowExpired           Kind = "window_expired"
	KindRebookingLimitReached   Kind = "rebooking_limit_reached"
	KindNotFound                Kind = "not_found"
	KindInvalidSuggestedDates   Kind = "invalid_suggested_dates"
	KindCollaboratorUnavailable Kind = "collaborator_unavailable"
	KindNotParticipant          Kind = "not_participant"
	KindNotRebookable           Kind = "not_rebookable"
	KindInvalidInput            Kind = "invalid_input"
)

// Error is a kinded error. Two *Error values match under errors.Is when
// their kinds are equal.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrAlreadyResolved         = &Error{Kind: KindAlreadyResolved, Message: "this request is no longer valid: it has already been resolved"}
	ErrWindowExpired           = &Error{Kind: KindWindowExpired, Message: "this request is no longer valid: it has already expired"}
	ErrRebookingLimitReached   = &Error{Kind: KindRebookingLimitReached, Message: "maximum rebooking attempts reached"}
	ErrNotFound                = &Error{Kind: KindNotFound, Message: "booking request not found"}
	ErrInvalidSuggestedDates   = &Error{Kind: KindInvalidSuggestedDates, Message: "suggested dates are invalid"}
	ErrCollaboratorUnavailable = &Error{Kind: KindCollaboratorUnavailable, Message: "the system could not complete your request, please try again"}
	ErrNotParticipant          = &Error{Kind: KindNotParticipant, Message: "you are not allowed to act on this request"}
	ErrNotRebookable           = &Error{Kind: KindNotRebookable, Message: "this request cannot be rebooked"}
	ErrInvalidInput            = &Error{Kind: KindInvalidInput, Message: "invalid input"}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps an infrastructure failure from a collaborator.
func Unavailable(op string, err error) *Error {
	return &Error{Kind: KindCollaboratorUnavailable, Message: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsBusinessRule reports whether err describes an invalid action rather than
// a failure to complete a valid one.
func IsBusinessRule(err error) bool {
	k := KindOf(err)
	return k != "" && k != KindCollaboratorUnavailable
}

// HTTPStatus maps err to a response status.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyResolved, KindWindowExpired, KindRebookingLimitReached, KindNotRebookable:
		return http.StatusConflict
	case KindInvalidSuggestedDates, KindInvalidInput:
		return http.StatusBadRequest
	case KindNotParticipant:
		return http.StatusForbidden
	case KindCollaboratorUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// UserMessage is the text shown to the actor for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindCollaboratorUnavailable {
			return ErrCollaboratorUnavailable.Message
		}
		return e.Message
	}
	return "Internal Server Error"
}
