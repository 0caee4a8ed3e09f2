package penalty

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	penaltyRepo "cleanly/database/repository/penalty"
	"cleanly/models"
	"cleanly/utils"
	"cleanly/utils/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.EventType
}

func (n *recordingNotifier) Notify(_ context.Context, _ string, event models.EventType, _ map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func newLedger() (*DefaultPenaltyLedger, *penaltyRepo.MemoryPenaltyRepo, *utils.ManualClock, *recordingNotifier) {
	repo := penaltyRepo.NewMemoryPenaltyRepo()
	clock := utils.NewManualClock(t0)
	notifier := &recordingNotifier{}
	return &DefaultPenaltyLedger{
		Repo:     repo,
		Notifier: notifier,
		Clock:    clock,
		Policy:   models.DefaultPolicy(),
		Logger:   zap.NewNop(),
	}, repo, clock, notifier
}

func daysAhead(d int) time.Time {
	return t0.AddDate(0, 0, d).Add(10 * time.Hour)
}

func TestDaysBeforeAppointment(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	tests := []struct {
		name string
		appt time.Time
		now  time.Time
		loc  *time.Location
		want int
	}{
		{name: "same day", appt: t0.Add(6 * time.Hour), now: t0, loc: time.UTC, want: 0},
		{name: "next calendar day under 24h away", appt: time.Date(2024, 6, 4, 1, 0, 0, 0, time.UTC), now: time.Date(2024, 6, 3, 23, 0, 0, 0, time.UTC), loc: time.UTC, want: 1},
		{name: "four days", appt: daysAhead(4), now: t0, loc: time.UTC, want: 4},
		{name: "past appointment", appt: t0.AddDate(0, 0, -2), now: t0, loc: time.UTC, want: 0},
		{name: "local date differs from utc", appt: time.Date(2024, 6, 5, 22, 0, 0, 0, time.UTC), now: t0, loc: nairobi, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBeforeAppointment(tt.appt, tt.now, tt.loc))
		})
	}
}

func TestPenaltyWindowBoundary(t *testing.T) {
	ledger, repo, _, _ := newLedger()
	ctx := context.Background()

	out, err := ledger.RecordIfQualifying(ctx, "cleaner-1", "appt-4", daysAhead(4))
	require.NoError(t, err)
	assert.True(t, out.PenaltyApplied)
	assert.Equal(t, 4, out.DaysBeforeAppointment)
	assert.Equal(t, 1, out.RecentPenaltyCount)

	out, err = ledger.RecordIfQualifying(ctx, "cleaner-1", "appt-5", daysAhead(5))
	require.NoError(t, err)
	assert.False(t, out.PenaltyApplied)
	assert.False(t, out.AccountFrozen)
	assert.Equal(t, 5, out.DaysBeforeAppointment)

	records, err := repo.ListByCleaner(ctx, "cleaner-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "appt-4", records[0].AppointmentID)
}

func TestFreezeOnThirdPenaltyOnly(t *testing.T) {
	ledger, _, clock, notifier := newLedger()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		out, err := ledger.RecordIfQualifying(ctx, "cleaner-1", fmt.Sprintf("appt-%d", i+1), clock.Now().AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.True(t, out.PenaltyApplied)
		assert.False(t, out.AccountFrozen)
		clock.Advance(7 * 24 * time.Hour)
	}

	out, err := ledger.RecordIfQualifying(ctx, "cleaner-1", "appt-3", clock.Now().AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.True(t, out.PenaltyApplied)
	assert.True(t, out.AccountFrozen)
	assert.Equal(t, 3, out.RecentPenaltyCount)

	// Already frozen: a further qualifying penalty is recorded but the freeze
	// is not reported again.
	out, err = ledger.RecordIfQualifying(ctx, "cleaner-1", "appt-4", clock.Now())
	require.NoError(t, err)
	assert.True(t, out.PenaltyApplied)
	assert.False(t, out.AccountFrozen)
	assert.Equal(t, 4, out.RecentPenaltyCount)

	// Outside the window at 3+ penalties: no consequence at all.
	out, err = ledger.RecordIfQualifying(ctx, "cleaner-1", "appt-5", clock.Now().AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.False(t, out.PenaltyApplied)
	assert.False(t, out.AccountFrozen)

	status, err := ledger.AccountStatus(ctx, "cleaner-1")
	require.NoError(t, err)
	assert.True(t, status.IsFrozen)
	require.NotNil(t, status.FrozenAt)
	assert.Equal(t, 4, status.RecentPenaltyCount)
	assert.Zero(t, status.PenaltiesUntilFreeze)

	frozenEvents := 0
	for _, e := range notifier.events {
		if e == models.EventAccountFrozen {
			frozenEvents++
		}
	}
	assert.Equal(t, 1, frozenEvents)
}

func TestPenaltiesAgeOutOfRollingWindow(t *testing.T) {
	ledger, _, clock, _ := newLedger()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := ledger.RecordIfQualifying(ctx, "cleaner-1", fmt.Sprintf("appt-%d", i), clock.Now())
		require.NoError(t, err)
	}
	clock.Set(t0.AddDate(0, 3, 1))

	out, err := ledger.RecordIfQualifying(ctx, "cleaner-1", "appt-late", clock.Now())
	require.NoError(t, err)
	assert.True(t, out.PenaltyApplied)
	assert.False(t, out.AccountFrozen)
	assert.Equal(t, 1, out.RecentPenaltyCount)

	status, err := ledger.AccountStatus(ctx, "cleaner-1")
	require.NoError(t, err)
	assert.False(t, status.IsFrozen)
	assert.Equal(t, 2, status.PenaltiesUntilFreeze)
	assert.Equal(t, t0.AddDate(0, 0, 1), status.WindowStart)
}

func TestPreviewAgreesWithCommit(t *testing.T) {
	ledger, repo, clock, notifier := newLedger()
	ctx := context.Background()

	appointments := []time.Time{daysAhead(1), daysAhead(9), daysAhead(4), daysAhead(0), daysAhead(3)}
	for i, appt := range appointments {
		id := fmt.Sprintf("appt-%d", i)
		preview, err := ledger.Preview(ctx, "cleaner-1", id, appt)
		require.NoError(t, err)

		before, err := repo.CountSince(ctx, "cleaner-1", time.Time{})
		require.NoError(t, err)
		eventsBefore := len(notifier.events)

		again, err := ledger.Preview(ctx, "cleaner-1", id, appt)
		require.NoError(t, err)
		assert.Equal(t, preview, again, "preview has no side effects")
		after, err := repo.CountSince(ctx, "cleaner-1", time.Time{})
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Len(t, notifier.events, eventsBefore)

		committed, err := ledger.RecordIfQualifying(ctx, "cleaner-1", id, appt)
		require.NoError(t, err)
		assert.Equal(t, preview, committed)
		clock.Advance(time.Hour)
	}
}

func TestRepeatedCommitRecordsOnePenalty(t *testing.T) {
	ledger, repo, clock, notifier := newLedger()
	ctx := context.Background()

	first, err := ledger.RecordIfQualifying(ctx, "cleaner-1", "appt-same", daysAhead(1))
	require.NoError(t, err)
	require.True(t, first.PenaltyApplied)
	eventsAfterFirst := len(notifier.events)

	for i := 0; i < 3; i++ {
		clock.Advance(time.Minute)
		out, err := ledger.RecordIfQualifying(ctx, "cleaner-1", "appt-same", daysAhead(1))
		require.NoError(t, err)
		assert.True(t, out.PenaltyApplied)
		assert.False(t, out.AccountFrozen)
		assert.Equal(t, 1, out.RecentPenaltyCount)
		assert.Equal(t, first.DaysBeforeAppointment, out.DaysBeforeAppointment)
	}

	preview, err := ledger.Preview(ctx, "cleaner-1", "appt-same", daysAhead(1))
	require.NoError(t, err)
	assert.Equal(t, 1, preview.RecentPenaltyCount)
	assert.False(t, preview.AccountFrozen)

	records, err := repo.ListByCleaner(ctx, "cleaner-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, notifier.events, eventsAfterFirst)

	status, err := ledger.AccountStatus(ctx, "cleaner-1")
	require.NoError(t, err)
	assert.False(t, status.IsFrozen)
	assert.Equal(t, 2, status.PenaltiesUntilFreeze)
}

func TestMemoryRepoRejectsDuplicateAppointment(t *testing.T) {
	repo := penaltyRepo.NewMemoryPenaltyRepo()
	ctx := context.Background()
	rec := &models.CancellationPenaltyRecord{ID: "p-1", CleanerID: "cleaner-1", AppointmentID: "appt-1", OccurredAt: t0}
	require.NoError(t, repo.Insert(ctx, rec))

	dup := *rec
	dup.ID = "p-2"
	assert.ErrorIs(t, repo.Insert(ctx, &dup), penaltyRepo.ErrDuplicatePenalty)

	got, err := repo.GetByAppointment(ctx, "cleaner-1", "appt-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "p-1", got.ID)

	missing, err := repo.GetByAppointment(ctx, "cleaner-2", "appt-1")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLedgerRejectsMissingInput(t *testing.T) {
	ledger, _, _, _ := newLedger()
	ctx := context.Background()

	_, err := ledger.RecordIfQualifying(ctx, "", "appt", daysAhead(1))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = ledger.Preview(ctx, "cleaner-1", "appt", time.Time{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = ledger.AccountStatus(ctx, " ")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
