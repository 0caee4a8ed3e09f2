package notification

import (
	"context"
	"fmt"

	"cleanly/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// TokenDirectory resolves an actor's FCM device token. An empty token with
// a nil error means the actor has no device registered.
type TokenDirectory interface {
	FCMToken(ctx context.Context, actorID string) (string, error)
}

// MessageSender is the part of *messaging.Client the push sender uses.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushSender delivers queued notifications through Firebase Cloud Messaging.
type PushSender struct {
	FCM    MessageSender
	Tokens TokenDirectory
	Logger *zap.Logger
}

// Deliver sends p. It returns an error only when a retry could help.
func (s *PushSender) Deliver(ctx context.Context, p models.NotifyPayload) error {
	token, err := s.Tokens.FCMToken(ctx, p.ActorID)
	if err != nil {
		return fmt.Errorf("Deliver: could not resolve token for %s: %w", p.ActorID, err)
	}
	if token == "" {
		s.Logger.Debug("no push target, skipping", zap.String("actor_id", p.ActorID), zap.String("event", string(p.Event)))
		return nil
	}

	data := make(map[string]string, len(p.Data)+1)
	for k, v := range p.Data {
		data[k] = v
	}
	data["type"] = string(p.Event)

	title, body := Render(p.Event, p.Data)
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "booking_requests",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}

	if _, err := s.FCM.Send(ctx, msg); err != nil {
		return fmt.Errorf("Deliver: failed to send FCM message: %w", err)
	}
	return nil
}
