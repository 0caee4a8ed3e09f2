package rebooking

import (
	"context"
	"time"

	requestRepo "cleanly/database/repository/request"
	"cleanly/models"

	"go.uber.org/zap"
)

// RebookingCoordinator spawns successor requests for declined or expired
// requests and reconstructs rebooking chains.
type RebookingCoordinator interface {
	Rebook(ctx context.Context, originalID, actorID string, in RebookInput) (*models.BookingRequest, error)
	Chain(ctx context.Context, requestID string) ([]models.BookingRequest, error)
}

// RequestProposer is the part of the lifecycle service the coordinator
// needs: reads with lazy expiry and creation of linked successors.
type RequestProposer interface {
	Get(ctx context.Context, requestID string) (*models.BookingRequest, error)
	ProposeSuccessor(ctx context.Context, previous *models.BookingRequest, draft models.RequestDraft) (*models.BookingRequest, error)
}

// RebookInput carries the new terms. A nil price or an empty time window
// keeps the previous request's value.
type RebookInput struct {
	NewDate       time.Time
	NewPrice      *models.Money
	NewTimeWindow models.TimeWindow
}

// DefaultRebookingCoordinator implements RebookingCoordinator.
type DefaultRebookingCoordinator struct {
	Repo      requestRepo.RequestRepository
	Lifecycle RequestProposer
	Policy    models.BookingPolicy
	Logger    *zap.Logger
}

func (c *DefaultRebookingCoordinator) log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
