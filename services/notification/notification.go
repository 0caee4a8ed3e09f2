package notification

import (
	"context"

	"cleanly/models"
	"cleanly/services/tasks"
	"cleanly/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Notifier delivers lifecycle events to actors. Notify is fire-and-forget:
// delivery failures are the notifier's concern and never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, actorID string, event models.EventType, payload map[string]string)
}

// LogNotifier only logs; used in development and when no queue is configured.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n *LogNotifier) Notify(_ context.Context, actorID string, event models.EventType, payload map[string]string) {
	n.Logger.Info("notification",
		zap.String("actor_id", actorID),
		zap.String("event", string(event)),
		zap.Any("payload", payload),
	)
}

// TaskEnqueuer is the part of *asynq.Client the queue notifier uses.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier hands notifications to the asynq worker, which pushes them
// through FCM with its own retry policy.
type QueueNotifier struct {
	Client TaskEnqueuer
	Clock  utils.Clock
	Logger *zap.Logger
}

func (n *QueueNotifier) Notify(ctx context.Context, actorID string, event models.EventType, payload map[string]string) {
	if actorID == "" {
		return
	}
	task, opts, err := tasks.NewNotifyTask(models.NotifyPayload{
		ActorID:   actorID,
		Event:     event,
		Data:      payload,
		CreatedAt: n.Clock.Now(),
	})
	if err != nil {
		n.Logger.Error("failed to build notification task", zap.String("event", string(event)), zap.Error(err))
		return
	}
	if _, err := n.Client.EnqueueContext(ctx, task, opts...); err != nil {
		n.Logger.Warn("failed to enqueue notification",
			zap.String("actor_id", actorID),
			zap.String("event", string(event)),
			zap.Error(err),
		)
	}
}
