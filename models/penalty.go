package models

import "time"

// CancellationPenaltyRecord is an append-only entry created when a cleaner
// cancels an accepted assignment inside the penalty window.
type CancellationPenaltyRecord struct {
	ID                    string    `bson:"id" json:"id"`
	CleanerID             string    `bson:"cleaner_id" json:"cleanerId"`
	AppointmentID         string    `bson:"appointment_id" json:"appointmentId"`
	OccurredAt            time.Time `bson:"occurred_at" json:"occurredAt"`
	DaysBeforeAppointment int       `bson:"days_before_appointment" json:"daysBeforeAppointment"`
}

// AccountFreeze marks the moment a cleaner crossed the freeze threshold.
type AccountFreeze struct {
	CleanerID string    `bson:"cleaner_id" json:"cleanerId"`
	FrozenAt  time.Time `bson:"frozen_at" json:"frozenAt"`
	Penalties int       `bson:"penalties" json:"penalties"`
}

// CleanerAccountStatus is computed on demand from the ledger.
type CleanerAccountStatus struct {
	CleanerID            string     `json:"cleanerId"`
	RecentPenaltyCount   int        `json:"recentPenaltyCount"`
	IsFrozen             bool       `json:"isFrozen"`
	FrozenAt             *time.Time `json:"frozenAt,omitempty"`
	WindowStart          time.Time  `json:"windowStart"`
	PenaltiesUntilFreeze int        `json:"penaltiesUntilFreeze"`
}

// PenaltyOutcome is the result of a (previewed or committed) cancellation.
type PenaltyOutcome struct {
	PenaltyApplied        bool   `json:"penaltyApplied"`
	AccountFrozen         bool   `json:"accountFrozen"`
	DaysBeforeAppointment int    `json:"daysBeforeAppointment"`
	RecentPenaltyCount    int    `json:"recentPenaltyCount"`
	Message               string `json:"message"`
}
