package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"cleanly/models"
	"cleanly/services/tasks"
	"cleanly/utils"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "t1"}, nil
}

type fakeSender struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, m)
	return "msg-1", nil
}

type staticTokens map[string]string

func (s staticTokens) FCMToken(_ context.Context, actorID string) (string, error) {
	return s[actorID], nil
}

func TestQueueNotifierEnqueuesTask(t *testing.T) {
	q := &fakeEnqueuer{}
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	n := &QueueNotifier{Client: q, Clock: utils.NewManualClock(now), Logger: zap.NewNop()}

	n.Notify(context.Background(), "client-1", models.EventRequestProposed, map[string]string{"requestId": "r1"})

	require.Len(t, q.tasks, 1)
	assert.Equal(t, tasks.TypeBookingNotify, q.tasks[0].Type())
	p, err := tasks.ParseNotifyTask(q.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, "client-1", p.ActorID)
	assert.Equal(t, models.EventRequestProposed, p.Event)
	assert.Equal(t, "r1", p.Data["requestId"])
	assert.True(t, p.CreatedAt.Equal(now))
}

func TestQueueNotifierSwallowsEnqueueFailure(t *testing.T) {
	q := &fakeEnqueuer{err: errors.New("redis down")}
	n := &QueueNotifier{Client: q, Clock: utils.SystemClock{}, Logger: zap.NewNop()}

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), "client-1", models.EventRequestExpired, nil)
	})
}

func TestPushSenderDeliver(t *testing.T) {
	sender := &fakeSender{}
	s := &PushSender{FCM: sender, Tokens: staticTokens{"cleaner-1": "tok"}, Logger: zap.NewNop()}

	err := s.Deliver(context.Background(), models.NotifyPayload{
		ActorID: "cleaner-1",
		Event:   models.EventRequestDeclined,
		Data:    map[string]string{"proposedDate": "2024-06-10", "declineReason": "schedule conflict"},
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "tok", msg.Token)
	assert.Equal(t, "Booking declined", msg.Notification.Title)
	assert.Contains(t, msg.Notification.Body, "schedule conflict")
	assert.Equal(t, string(models.EventRequestDeclined), msg.Data["type"])
}

func TestPushSenderSkipsActorsWithoutDevice(t *testing.T) {
	sender := &fakeSender{}
	s := &PushSender{FCM: sender, Tokens: staticTokens{}, Logger: zap.NewNop()}

	require.NoError(t, s.Deliver(context.Background(), models.NotifyPayload{ActorID: "ghost", Event: models.EventRequestExpired}))
	assert.Empty(t, sender.sent)
}

func TestPushSenderReportsSendFailure(t *testing.T) {
	s := &PushSender{FCM: &fakeSender{err: errors.New("unavailable")}, Tokens: staticTokens{"a": "tok"}, Logger: zap.NewNop()}

	err := s.Deliver(context.Background(), models.NotifyPayload{ActorID: "a", Event: models.EventRequestAccepted})
	assert.Error(t, err)
}
