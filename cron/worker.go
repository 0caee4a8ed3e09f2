package cron

import (
	"context"
	"fmt"
	"time"

	"cleanly/config"
	"cleanly/models"
	"cleanly/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Deliverer pushes one notification to its actor.
type Deliverer interface {
	Deliver(ctx context.Context, p models.NotifyPayload) error
}

// QueueRedisOpt is the asynq connection shared by the enqueuing client and
// the worker.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitNotifyWorker starts the notification worker in the background and
// returns the server so the caller can shut it down.
func InitNotifyWorker(d Deliverer, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				tasks.QueueNotifications: 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingNotify, handleNotifyTask(d, logger))

	go func() {
		logger.Info("starting notification worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Start(mux)
			if err == nil {
				return
			}
			logger.Error("notification worker failed to start",
				zap.Int("attempt", attempts), zap.Int("max_attempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("notification worker gave up, notifications stay queued")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

func handleNotifyTask(d Deliverer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseNotifyTask(task)
		if err != nil {
			logger.Error("dropping malformed notification task", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		if err := d.Deliver(ctx, p); err != nil {
			logger.Warn("notification delivery failed",
				zap.String("actor_id", p.ActorID),
				zap.String("event", string(p.Event)),
				zap.Error(err))
			return err
		}
		logger.Debug("notification delivered", zap.String("actor_id", p.ActorID), zap.String("event", string(p.Event)))
		return nil
	}
}
