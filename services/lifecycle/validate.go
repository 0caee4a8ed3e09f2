package lifecycle

import (
	"strings"
	"time"
	"unicode/utf8"

	"cleanly/models"
	"cleanly/utils/apperr"
)

const maxDeclineReasonLength = 500

func validateDraft(d models.RequestDraft) error {
	switch {
	case strings.TrimSpace(d.AppointmentID) == "":
		return apperr.New(apperr.KindInvalidInput, "appointmentId is required")
	case strings.TrimSpace(d.InitiatorID) == "":
		return apperr.New(apperr.KindInvalidInput, "initiator is required")
	case strings.TrimSpace(d.CounterpartyID) == "":
		return apperr.New(apperr.KindInvalidInput, "counterparty is required")
	case d.InitiatorID == d.CounterpartyID:
		return apperr.New(apperr.KindInvalidInput, "a request cannot be proposed to its own initiator")
	case d.ProposedDate.IsZero():
		return apperr.New(apperr.KindInvalidInput, "proposedDate is required")
	}
	if err := d.TimeWindow.Validate(); err != nil {
		return apperr.New(apperr.KindInvalidInput, err.Error())
	}
	if d.Price != nil {
		if d.Price.Amount <= 0 {
			return apperr.New(apperr.KindInvalidInput, "price must be positive")
		}
		if len(d.Price.Currency) != 3 {
			return apperr.Newf(apperr.KindInvalidInput, "invalid currency %q", d.Price.Currency)
		}
	}
	return nil
}

// calendarDate truncates t to midnight of its date in loc.
func calendarDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// normalizeSuggestedDates truncates each date to its calendar day, drops
// duplicate days (first occurrence wins) and enforces the maximum. Dates
// before today are rejected as malformed.
func normalizeSuggestedDates(dates []time.Time, now time.Time, loc *time.Location) ([]time.Time, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	today := calendarDate(now, loc)
	seen := make(map[string]bool, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			return nil, apperr.New(apperr.KindInvalidSuggestedDates, "suggested dates must be valid calendar dates")
		}
		day := calendarDate(d, loc)
		if day.Before(today) {
			return nil, apperr.Newf(apperr.KindInvalidSuggestedDates, "suggested date %s is in the past", day.Format("2006-01-02"))
		}
		key := day.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, day)
	}
	if len(out) > models.MaxSuggestedDates {
		return nil, apperr.Newf(apperr.KindInvalidSuggestedDates, "at most %d alternative dates may be suggested", models.MaxSuggestedDates)
	}
	return out, nil
}

func normalizeReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > maxDeclineReasonLength {
		return "", apperr.Newf(apperr.KindInvalidInput, "decline reason must be at most %d characters", maxDeclineReasonLength)
	}
	return reason, nil
}
