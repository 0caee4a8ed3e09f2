package countdown

import (
	"context"
	"testing"
	"time"

	"cleanly/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func TestEvaluateTiers(t *testing.T) {
	tests := []struct {
		name        string
		remaining   time.Duration
		wantLabel   string
		wantUrgent  bool
		wantWarning bool
		wantExpired bool
	}{
		{name: "thirty minutes is urgent", remaining: 30 * time.Minute, wantLabel: "30m left", wantUrgent: true},
		{name: "just under an hour is urgent", remaining: time.Hour - time.Millisecond, wantLabel: "59m left", wantUrgent: true},
		{name: "exactly an hour is warning", remaining: time.Hour, wantLabel: "1h 0m left", wantWarning: true},
		{name: "three hours is warning", remaining: 3 * time.Hour, wantLabel: "3h 0m left", wantWarning: true},
		{name: "exactly six hours is neither", remaining: 6 * time.Hour, wantLabel: "6h 0m left"},
		{name: "ten hours is neither", remaining: 10 * time.Hour, wantLabel: "10h 0m left"},
		{name: "full window", remaining: 48 * time.Hour, wantLabel: "48h 0m left"},
		{name: "deadline reached", remaining: 0, wantLabel: "Expired", wantExpired: true},
		{name: "deadline passed", remaining: -time.Minute, wantLabel: "Expired", wantExpired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Evaluate(now.Add(tt.remaining), now)
			assert.Equal(t, tt.wantLabel, c.Label)
			assert.Equal(t, tt.wantUrgent, c.IsUrgentTier)
			assert.Equal(t, tt.wantWarning, c.IsWarningTier)
			assert.Equal(t, tt.wantExpired, c.IsExpired)
		})
	}
}

func TestEvaluateTruncates(t *testing.T) {
	// 2h 59m 59.999s must read as 2h 59m, never rounded up to 3h.
	c := Evaluate(now.Add(3*time.Hour-time.Millisecond), now)
	assert.Equal(t, int64(2), c.Hours)
	assert.Equal(t, int64(59), c.Minutes)
	assert.Equal(t, "2h 59m left", c.Label)

	c = Evaluate(now.Add(59*time.Second), now)
	assert.Equal(t, int64(0), c.Hours)
	assert.Equal(t, int64(0), c.Minutes)
	assert.Equal(t, "0m left", c.Label)
	assert.True(t, c.IsUrgentTier)
	assert.False(t, c.IsExpired)
}

func TestWatchStopsAfterExpiry(t *testing.T) {
	clock := utils.NewManualClock(now)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ch := Watch(ctx, clock, now.Add(90*time.Minute), 5*time.Millisecond)

	first := <-ch
	assert.Equal(t, "1h 30m left", first.Label)
	assert.True(t, first.IsWarningTier)

	clock.Advance(2 * time.Hour)
	var last Countdown
	for c := range ch {
		last = c
	}
	require.True(t, last.IsExpired)
	require.NoError(t, ctx.Err())
}

func TestWatchStopsOnCancel(t *testing.T) {
	clock := utils.NewManualClock(now)
	ctx, cancel := context.WithCancel(context.Background())

	ch := Watch(ctx, clock, now.Add(time.Hour*10), time.Hour)
	<-ch
	cancel()

	_, open := <-ch
	assert.False(t, open)
}
