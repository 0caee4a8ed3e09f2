package penalty

import (
	"context"
	"time"

	penaltyRepo "cleanly/database/repository/penalty"
	"cleanly/models"
	"cleanly/services/notification"
	"cleanly/utils"

	"go.uber.org/zap"
)

// PenaltyLedger decides whether a cleaner's cancellation of an accepted
// assignment incurs a penalty, and whether that penalty freezes the account.
type PenaltyLedger interface {
	Preview(ctx context.Context, cleanerID, appointmentID string, appointmentDate time.Time) (models.PenaltyOutcome, error)
	RecordIfQualifying(ctx context.Context, cleanerID, appointmentID string, appointmentDate time.Time) (models.PenaltyOutcome, error)
	AccountStatus(ctx context.Context, cleanerID string) (*models.CleanerAccountStatus, error)
	ListPenalties(ctx context.Context, cleanerID string) ([]models.CancellationPenaltyRecord, error)
}

// DefaultPenaltyLedger implements PenaltyLedger.
type DefaultPenaltyLedger struct {
	Repo     penaltyRepo.PenaltyRepository
	Notifier notification.Notifier
	Clock    utils.Clock
	Policy   models.BookingPolicy
	Logger   *zap.Logger
}

func (l *DefaultPenaltyLedger) now() time.Time {
	if l.Clock == nil {
		return utils.SystemClock{}.Now()
	}
	return l.Clock.Now()
}

func (l *DefaultPenaltyLedger) log() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}
