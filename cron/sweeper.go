package cron

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpirySweeper is the lifecycle operation the sweeper drives.
type ExpirySweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Locker keeps concurrent instances from sweeping at the same time. The
// store's compare-and-swap is what keeps sweeps correct; the lock only saves
// duplicate work.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// StartExpirySweeper sweeps overdue booking requests every interval until
// ctx is done. lock may be nil.
func StartExpirySweeper(ctx context.Context, s ExpirySweeper, lock Locker, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("expiry sweeper shutdown signal received")
			return
		case <-ticker.C:
			runSweep(ctx, s, lock, logger)
		}
	}
}

// runSweep performs one sweep and reports how many requests it expired.
func runSweep(ctx context.Context, s ExpirySweeper, lock Locker, logger *zap.Logger) int {
	if lock != nil {
		ok, err := lock.TryLock(ctx)
		if err != nil {
			// Redis being down must not stop requests from expiring.
			logger.Warn("sweep lease unavailable, sweeping anyway", zap.Error(err))
		} else if !ok {
			logger.Debug("another instance holds the sweep lease")
			return 0
		} else {
			defer func() {
				if err := lock.Unlock(context.Background()); err != nil {
					logger.Warn("failed to release sweep lease", zap.Error(err))
				}
			}()
		}
	}

	n, err := s.SweepExpired(ctx)
	if err != nil {
		logger.Error("expiry sweep failed", zap.Int("expired", n), zap.Error(err))
	}
	return n
}
