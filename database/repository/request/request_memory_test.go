package requestRepo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cleanly/models"
	"cleanly/utils/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

func newPending(id, initiator, counterparty string) *models.BookingRequest {
	return models.NewPendingRequest(id, models.RequestDraft{
		AppointmentID:  "appt-" + id,
		InitiatorID:    initiator,
		CounterpartyID: counterparty,
		ProposedDate:   t0.AddDate(0, 0, 7),
		TimeWindow:     models.TimeWindow{Start: "09:00", End: "12:00"},
	}, nil, t0, 48*time.Hour)
}

func TestTransitionGuards(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		to      models.RequestState
		at      time.Time
		wantErr error
	}{
		{name: "accept before deadline", to: models.RequestAccepted, at: t0.Add(time.Hour)},
		{name: "decline before deadline", to: models.RequestDeclined, at: t0.Add(time.Hour)},
		{name: "cancel after deadline", to: models.RequestCancelled, at: t0.Add(72 * time.Hour)},
		{name: "expire at deadline", to: models.RequestExpired, at: t0.Add(48 * time.Hour)},
		{name: "accept at deadline", to: models.RequestAccepted, at: t0.Add(48 * time.Hour), wantErr: apperr.ErrWindowExpired},
		{name: "decline after deadline", to: models.RequestDeclined, at: t0.Add(49 * time.Hour), wantErr: apperr.ErrWindowExpired},
		{name: "expire before deadline", to: models.RequestExpired, at: t0.Add(time.Hour), wantErr: apperr.ErrInvalidInput},
		{name: "back to pending", to: models.RequestPending, at: t0.Add(time.Hour), wantErr: apperr.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMemoryRequestRepo()
			require.NoError(t, repo.Create(ctx, newPending("r1", "biz", "client")))

			got, err := repo.Transition(ctx, "r1", models.RequestTransition{To: tt.to, At: tt.at})
			stored, getErr := repo.GetByID(ctx, "r1")
			require.NoError(t, getErr)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, models.RequestPending, stored.State, "failed transition must not mutate")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.State)
			assert.Equal(t, tt.to, stored.State)
			require.NotNil(t, stored.ResolvedAt)
			assert.Equal(t, tt.at, *stored.ResolvedAt)
		})
	}
}

func TestTerminalRequestRejectsEveryTransition(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRequestRepo()
	require.NoError(t, repo.Create(ctx, newPending("r1", "biz", "client")))

	_, err := repo.Transition(ctx, "r1", models.RequestTransition{To: models.RequestAccepted, At: t0.Add(time.Hour)})
	require.NoError(t, err)

	for _, to := range []models.RequestState{models.RequestAccepted, models.RequestDeclined, models.RequestCancelled, models.RequestExpired} {
		_, err := repo.Transition(ctx, "r1", models.RequestTransition{To: to, At: t0.Add(50 * time.Hour)})
		assert.ErrorIs(t, err, apperr.ErrAlreadyResolved, string(to))
	}
	stored, _ := repo.GetByID(ctx, "r1")
	assert.Equal(t, models.RequestAccepted, stored.State)
}

func TestTransitionUnknownID(t *testing.T) {
	repo := NewMemoryRequestRepo()
	_, err := repo.Transition(context.Background(), "nope", models.RequestTransition{To: models.RequestCancelled, At: t0})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentTransitionsResolveOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRequestRepo()
	require.NoError(t, repo.Create(ctx, newPending("r1", "biz", "client")))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 50; i++ {
		to := models.RequestAccepted
		if i%2 == 0 {
			to = models.RequestDeclined
		}
		wg.Add(1)
		go func(to models.RequestState) {
			defer wg.Done()
			_, err := repo.Transition(ctx, "r1", models.RequestTransition{To: to, At: t0.Add(time.Hour)})
			if err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, apperr.ErrAlreadyResolved))
		}(to)
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestListPendingForActorSkipsOverdue(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRequestRepo()

	fresh := newPending("fresh", "biz", "client")
	stale := newPending("stale", "biz", "client")
	stale.ExpiresAt = t0.Add(time.Hour)
	other := newPending("other", "biz", "someone-else")
	for _, r := range []*models.BookingRequest{fresh, stale, other} {
		require.NoError(t, repo.Create(ctx, r))
	}

	got, err := repo.ListPendingForActor(ctx, "client", models.RoleCounterparty, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].ID)

	got, err = repo.ListPendingForActor(ctx, "biz", models.RoleInitiator, t0.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	overdue, err := repo.ListOverdue(ctx, t0.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "stale", overdue[0].ID)
}

func TestCreateRejectsSecondSuccessor(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRequestRepo()
	orig := newPending("orig", "biz", "client")
	require.NoError(t, repo.Create(ctx, orig))

	first := models.NewPendingRequest("s1", models.RequestDraft{AppointmentID: orig.AppointmentID}, orig, t0, 48*time.Hour)
	second := models.NewPendingRequest("s2", models.RequestDraft{AppointmentID: orig.AppointmentID}, orig, t0, 48*time.Hour)
	require.NoError(t, repo.Create(ctx, first))
	assert.ErrorIs(t, repo.Create(ctx, second), apperr.ErrAlreadyResolved)

	next, err := repo.GetSuccessor(ctx, "orig")
	require.NoError(t, err)
	assert.Equal(t, "s1", next.ID)
	assert.Equal(t, 1, next.RebookingAttempts)
}
