package penaltyRepo

import (
	"context"
	"errors"
	"time"

	"cleanly/models"
)

// ErrDuplicatePenalty means the appointment's cancellation is already on the
// ledger.
var ErrDuplicatePenalty = errors.New("penalty already recorded for this appointment")

// PenaltyRepository is the append-only cancellation penalty ledger plus the
// per-cleaner freeze marker.
type PenaltyRepository interface {
	// Insert fails with ErrDuplicatePenalty when the cleaner already has a
	// record for the appointment.
	Insert(ctx context.Context, rec *models.CancellationPenaltyRecord) error
	// GetByAppointment returns the cleaner's record for the appointment or nil.
	GetByAppointment(ctx context.Context, cleanerID, appointmentID string) (*models.CancellationPenaltyRecord, error)
	// CountSince counts records with OccurredAt >= since.
	CountSince(ctx context.Context, cleanerID string, since time.Time) (int, error)
	// ListByCleaner returns every record of the cleaner, newest first.
	ListByCleaner(ctx context.Context, cleanerID string) ([]models.CancellationPenaltyRecord, error)
	// MarkFrozen stores the freeze marker if none exists and reports whether
	// this call created it.
	MarkFrozen(ctx context.Context, freeze models.AccountFreeze) (bool, error)
	// GetFreeze returns the marker or nil.
	GetFreeze(ctx context.Context, cleanerID string) (*models.AccountFreeze, error)
}
