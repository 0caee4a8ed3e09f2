package tasks

import (
	"cleanly/models"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const TypeBookingNotify = "booking:notify"

// QueueNotifications is the asynq queue booking notifications go through.
const QueueNotifications = "notifications"

func NewNotifyTask(payload models.NotifyPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingNotify, b)
	opts := []asynq.Option{
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
	}

	return task, opts, nil
}

func ParseNotifyTask(task *asynq.Task) (models.NotifyPayload, error) {
	var p models.NotifyPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", TypeBookingNotify, err)
	}
	if p.ActorID == "" || p.Event == "" {
		return p, fmt.Errorf("invalid %s payload: actor and event are required", TypeBookingNotify)
	}
	return p, nil
}
