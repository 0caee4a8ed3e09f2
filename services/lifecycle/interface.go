package lifecycle

import (
	"context"
	"time"

	requestRepo "cleanly/database/repository/request"
	"cleanly/models"
	"cleanly/services/activation"
	"cleanly/services/notification"
	"cleanly/utils"

	"go.uber.org/zap"
)

// LifecycleService drives booking requests from pending to exactly one
// terminal state.
type LifecycleService interface {
	Propose(ctx context.Context, draft models.RequestDraft) (*models.BookingRequest, error)
	Get(ctx context.Context, requestID string) (*models.BookingRequest, error)
	ListPending(ctx context.Context, actorID string, role models.ActorRole) ([]models.BookingRequest, error)
	Accept(ctx context.Context, requestID, actorID string) (*models.BookingRequest, error)
	Decline(ctx context.Context, requestID, actorID string, in DeclineInput) (*models.BookingRequest, error)
	Cancel(ctx context.Context, requestID, actorID string) (*models.BookingRequest, error)
	Expire(ctx context.Context, requestID string) (*models.BookingRequest, bool, error)
	SweepExpired(ctx context.Context) (int, error)
}

// DeclineInput is what the counterparty may attach to a decline.
type DeclineInput struct {
	Reason         string
	SuggestedDates []time.Time
}

const defaultSweepBatch = 200

// DefaultLifecycleService implements LifecycleService.
type DefaultLifecycleService struct {
	Repo       requestRepo.RequestRepository
	Activator  activation.Activator
	Notifier   notification.Notifier
	Clock      utils.Clock
	Policy     models.BookingPolicy
	Logger     *zap.Logger
	SweepBatch int
}

func (s *DefaultLifecycleService) now() time.Time {
	if s.Clock == nil {
		return utils.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

func (s *DefaultLifecycleService) log() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultLifecycleService) sweepBatch() int {
	if s.SweepBatch <= 0 {
		return defaultSweepBatch
	}
	return s.SweepBatch
}
