package requestRepo

import (
	"cleanly/models"
	"cleanly/utils/apperr"
)

// checkTransition validates the transition itself, independent of the
// stored request.
func checkTransition(t models.RequestTransition) error {
	if !t.To.IsTerminal() {
		return apperr.Newf(apperr.KindInvalidInput, "cannot transition a request to %q", t.To)
	}
	if t.At.IsZero() {
		return apperr.New(apperr.KindInvalidInput, "transition time is required")
	}
	return nil
}

// rejection explains why t cannot be applied to current. It returns nil when
// the guard holds.
func rejection(current *models.BookingRequest, t models.RequestTransition) error {
	if current.State != models.RequestPending {
		return apperr.Newf(apperr.KindAlreadyResolved,
			"this request is no longer valid: it was already %s", current.State)
	}
	overdue := current.IsOverdue(t.At)
	switch t.To {
	case models.RequestAccepted, models.RequestDeclined:
		if overdue {
			return apperr.ErrWindowExpired
		}
	case models.RequestExpired:
		if !overdue {
			return apperr.New(apperr.KindInvalidInput, "request has not reached its deadline")
		}
	}
	return nil
}
