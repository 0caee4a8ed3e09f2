// Package countdown turns a response deadline into the time-remaining view
// shown to the responding actor. Evaluate is pure; Watch re-evaluates on a
// fixed polling interval.
package countdown

import (
	"context"
	"fmt"
	"time"

	"cleanly/utils"
)

const (
	// UrgentThreshold: less than this remaining is the urgent tier.
	UrgentThreshold = time.Hour
	// WarningThreshold: less than this remaining (and not urgent) is the warning tier.
	WarningThreshold = 6 * time.Hour

	msPerHour   = int64(time.Hour / time.Millisecond)
	msPerMinute = int64(time.Minute / time.Millisecond)
)

// Countdown is a single evaluation of a deadline.
type Countdown struct {
	Label         string        `json:"timeRemainingLabel"`
	Hours         int64         `json:"hours"`
	Minutes       int64         `json:"minutes"`
	Remaining     time.Duration `json:"-"`
	RemainingMs   int64         `json:"remainingMs"`
	IsExpired     bool          `json:"isExpired"`
	IsWarningTier bool          `json:"isWarningTier"`
	IsUrgentTier  bool          `json:"isUrgentTier"`
}

// Evaluate computes the countdown for expiresAt as seen at now.
func Evaluate(expiresAt, now time.Time) Countdown {
	if !now.Before(expiresAt) {
		return Countdown{Label: "Expired", IsExpired: true}
	}

	remaining := expiresAt.Sub(now)
	ms := remaining.Milliseconds()
	hours := ms / msPerHour
	minutes := (ms % msPerHour) / msPerMinute

	c := Countdown{
		Hours:       hours,
		Minutes:     minutes,
		Remaining:   remaining,
		RemainingMs: ms,
	}
	switch {
	case remaining < UrgentThreshold:
		c.IsUrgentTier = true
	case remaining < WarningThreshold:
		c.IsWarningTier = true
	}

	if hours > 0 {
		c.Label = fmt.Sprintf("%dh %dm left", hours, minutes)
	} else {
		c.Label = fmt.Sprintf("%dm left", minutes)
	}
	return c
}

// Watch emits an evaluation immediately and then every interval until the
// deadline passes (the expired evaluation is the last one sent) or ctx is
// done. The channel is closed on return.
func Watch(ctx context.Context, clock utils.Clock, expiresAt time.Time, interval time.Duration) <-chan Countdown {
	out := make(chan Countdown, 1)
	if interval <= 0 {
		interval = time.Minute
	}

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			c := Evaluate(expiresAt, clock.Now())
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
			if c.IsExpired {
				return
			}
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
