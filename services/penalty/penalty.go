package penalty

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	penaltyRepo "cleanly/database/repository/penalty"
	"cleanly/models"
	"cleanly/utils/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// assessment is everything Preview and RecordIfQualifying derive from the
// inputs before any write.
type assessment struct {
	days          int
	qualifies     bool
	priorCount    int
	alreadyFrozen bool
	windowStart   time.Time
}

// DaysBeforeAppointment counts whole calendar days from now to the
// appointment date in loc. An appointment today is 0 days away; one already
// in the past is treated as 0.
func DaysBeforeAppointment(appointmentDate, now time.Time, loc *time.Location) int {
	y1, m1, d1 := now.In(loc).Date()
	y2, m2, d2 := appointmentDate.In(loc).Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// windowStart is the lower bound of the rolling penalty window.
func (l *DefaultPenaltyLedger) windowStart(now time.Time) time.Time {
	return now.AddDate(0, -l.Policy.PenaltyRollingMonths, 0)
}

func (l *DefaultPenaltyLedger) assess(ctx context.Context, cleanerID string, appointmentDate, now time.Time) (assessment, error) {
	a := assessment{
		days:        DaysBeforeAppointment(appointmentDate, now, l.Policy.Loc()),
		windowStart: l.windowStart(now),
	}
	a.qualifies = a.days <= l.Policy.PenaltyWindowDays

	count, err := l.Repo.CountSince(ctx, cleanerID, a.windowStart)
	if err != nil {
		return a, err
	}
	a.priorCount = count

	freeze, err := l.Repo.GetFreeze(ctx, cleanerID)
	if err != nil {
		return a, err
	}
	a.alreadyFrozen = freeze != nil
	return a, nil
}

func validateCancellation(cleanerID, appointmentID string, appointmentDate time.Time) error {
	switch {
	case strings.TrimSpace(cleanerID) == "":
		return apperr.New(apperr.KindInvalidInput, "cleaner is required")
	case strings.TrimSpace(appointmentID) == "":
		return apperr.New(apperr.KindInvalidInput, "appointmentId is required")
	case appointmentDate.IsZero():
		return apperr.New(apperr.KindInvalidInput, "appointmentDate is required")
	}
	return nil
}

// Preview reports what RecordIfQualifying would return for the same inputs
// at the same instant, without writing anything.
func (l *DefaultPenaltyLedger) Preview(ctx context.Context, cleanerID, appointmentID string, appointmentDate time.Time) (models.PenaltyOutcome, error) {
	if err := validateCancellation(cleanerID, appointmentID, appointmentDate); err != nil {
		return models.PenaltyOutcome{}, err
	}
	now := l.now()
	existing, err := l.Repo.GetByAppointment(ctx, cleanerID, appointmentID)
	if err != nil {
		return models.PenaltyOutcome{}, err
	}
	if existing != nil {
		return l.replay(ctx, existing, now)
	}
	a, err := l.assess(ctx, cleanerID, appointmentDate, now)
	if err != nil {
		return models.PenaltyOutcome{}, err
	}

	if !a.qualifies {
		return l.outcome(a, false, a.priorCount, false), nil
	}
	count := a.priorCount + 1
	frozen := count >= l.Policy.FreezeThreshold && !a.alreadyFrozen
	return l.outcome(a, true, count, frozen), nil
}

// RecordIfQualifying appends a penalty when the cancellation falls inside
// the penalty window and freezes the account when this penalty is the one
// that brings the rolling count to the threshold. A freeze is only ever
// reported once per cleaner.
func (l *DefaultPenaltyLedger) RecordIfQualifying(ctx context.Context, cleanerID, appointmentID string, appointmentDate time.Time) (models.PenaltyOutcome, error) {
	if err := validateCancellation(cleanerID, appointmentID, appointmentDate); err != nil {
		return models.PenaltyOutcome{}, err
	}
	now := l.now()
	existing, err := l.Repo.GetByAppointment(ctx, cleanerID, appointmentID)
	if err != nil {
		return models.PenaltyOutcome{}, err
	}
	if existing != nil {
		return l.replay(ctx, existing, now)
	}
	a, err := l.assess(ctx, cleanerID, appointmentDate, now)
	if err != nil {
		return models.PenaltyOutcome{}, err
	}
	if !a.qualifies {
		l.log().Info("cancellation outside penalty window",
			zap.String("cleaner_id", cleanerID),
			zap.String("appointment_id", appointmentID),
			zap.Int("days_before_appointment", a.days))
		return l.outcome(a, false, a.priorCount, false), nil
	}

	rec := &models.CancellationPenaltyRecord{
		ID:                    uuid.New().String(),
		CleanerID:             cleanerID,
		AppointmentID:         appointmentID,
		OccurredAt:            now,
		DaysBeforeAppointment: a.days,
	}
	if err := l.Repo.Insert(ctx, rec); err != nil {
		if !errors.Is(err, penaltyRepo.ErrDuplicatePenalty) {
			return models.PenaltyOutcome{}, err
		}
		prior, getErr := l.Repo.GetByAppointment(ctx, cleanerID, appointmentID)
		if getErr != nil || prior == nil {
			return models.PenaltyOutcome{}, err
		}
		return l.replay(ctx, prior, now)
	}

	count, err := l.Repo.CountSince(ctx, cleanerID, a.windowStart)
	if err != nil {
		return models.PenaltyOutcome{}, err
	}

	frozen := false
	if count >= l.Policy.FreezeThreshold {
		frozen, err = l.Repo.MarkFrozen(ctx, models.AccountFreeze{
			CleanerID: cleanerID,
			FrozenAt:  now,
			Penalties: count,
		})
		if err != nil {
			return models.PenaltyOutcome{}, err
		}
	}

	l.log().Info("cancellation penalty recorded",
		zap.String("cleaner_id", cleanerID),
		zap.String("appointment_id", appointmentID),
		zap.Int("days_before_appointment", a.days),
		zap.Int("recent_penalty_count", count),
		zap.Bool("account_frozen", frozen))

	data := map[string]string{
		"appointmentId":         appointmentID,
		"daysBeforeAppointment": strconv.Itoa(a.days),
		"recentPenaltyCount":    strconv.Itoa(count),
		"freezeThreshold":       strconv.Itoa(l.Policy.FreezeThreshold),
	}
	l.Notifier.Notify(ctx, cleanerID, models.EventPenaltyRecorded, data)
	if frozen {
		l.log().Warn("cleaner account frozen", zap.String("cleaner_id", cleanerID), zap.Int("penalties", count))
		l.Notifier.Notify(ctx, cleanerID, models.EventAccountFrozen, data)
	}
	return l.outcome(a, true, count, frozen), nil
}

// replay reports a cancellation that is already on the ledger. Nothing is
// written or sent again.
func (l *DefaultPenaltyLedger) replay(ctx context.Context, rec *models.CancellationPenaltyRecord, now time.Time) (models.PenaltyOutcome, error) {
	count, err := l.Repo.CountSince(ctx, rec.CleanerID, l.windowStart(now))
	if err != nil {
		return models.PenaltyOutcome{}, err
	}
	return models.PenaltyOutcome{
		PenaltyApplied:        true,
		DaysBeforeAppointment: rec.DaysBeforeAppointment,
		RecentPenaltyCount:    count,
		Message:               "This cancellation has already been recorded.",
	}, nil
}

func (l *DefaultPenaltyLedger) outcome(a assessment, applied bool, count int, frozen bool) models.PenaltyOutcome {
	return models.PenaltyOutcome{
		PenaltyApplied:        applied,
		AccountFrozen:         frozen,
		DaysBeforeAppointment: a.days,
		RecentPenaltyCount:    count,
		Message:               l.message(applied, frozen),
	}
}

func (l *DefaultPenaltyLedger) message(applied, frozen bool) string {
	switch {
	case frozen:
		return fmt.Sprintf("This cancellation adds a penalty. You will have %d penalties within %d months and your account will be frozen.",
			l.Policy.FreezeThreshold, l.Policy.PenaltyRollingMonths)
	case applied:
		return fmt.Sprintf("Cancelling within %d days of the appointment adds a penalty. %d penalties within %d months will freeze your account.",
			l.Policy.PenaltyWindowDays, l.Policy.FreezeThreshold, l.Policy.PenaltyRollingMonths)
	}
	return "You can cancel this appointment without a penalty."
}

// AccountStatus derives the cleaner's standing from the ledger.
func (l *DefaultPenaltyLedger) AccountStatus(ctx context.Context, cleanerID string) (*models.CleanerAccountStatus, error) {
	if strings.TrimSpace(cleanerID) == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "cleaner is required")
	}
	now := l.now()
	start := l.windowStart(now)
	count, err := l.Repo.CountSince(ctx, cleanerID, start)
	if err != nil {
		return nil, err
	}
	freeze, err := l.Repo.GetFreeze(ctx, cleanerID)
	if err != nil {
		return nil, err
	}

	status := &models.CleanerAccountStatus{
		CleanerID:          cleanerID,
		RecentPenaltyCount: count,
		WindowStart:        start,
	}
	if freeze != nil {
		status.IsFrozen = true
		frozenAt := freeze.FrozenAt
		status.FrozenAt = &frozenAt
	} else if left := l.Policy.FreezeThreshold - count; left > 0 {
		status.PenaltiesUntilFreeze = left
	}
	return status, nil
}

func (l *DefaultPenaltyLedger) ListPenalties(ctx context.Context, cleanerID string) ([]models.CancellationPenaltyRecord, error) {
	if strings.TrimSpace(cleanerID) == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "cleaner is required")
	}
	return l.Repo.ListByCleaner(ctx, cleanerID)
}
