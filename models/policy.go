package models

import "time"

// BookingPolicy carries the tunable business constants of the booking
// request lifecycle and the cancellation penalty ledger.
type BookingPolicy struct {
	ResponseWindow       time.Duration  // time the counterparty has to respond
	PenaltyWindowDays    int            // cancellations this many days (or fewer) before the appointment are penalised
	PenaltyRollingMonths int            // penalties older than this no longer count towards a freeze
	FreezeThreshold      int            // recent penalties that freeze a cleaner account
	MaxRebookingAttempts int            // successors allowed per request chain
	CountdownRefresh     time.Duration  // countdown polling interval
	Location             *time.Location // calendar-day boundaries for penalty days
}

// DefaultPolicy returns the policy observed in production.
func DefaultPolicy() BookingPolicy {
	return BookingPolicy{
		ResponseWindow:       48 * time.Hour,
		PenaltyWindowDays:    4,
		PenaltyRollingMonths: 3,
		FreezeThreshold:      3,
		MaxRebookingAttempts: 3,
		CountdownRefresh:     60 * time.Second,
		Location:             time.UTC,
	}
}

// Loc never returns nil.
func (p BookingPolicy) Loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
