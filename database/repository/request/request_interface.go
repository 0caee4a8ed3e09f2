package requestRepo

import (
	"context"
	"time"

	"cleanly/models"
)

// RequestRepository is the single source of truth for booking requests.
// Every state change goes through Transition, which is an atomic
// compare-and-swap on the pending state.
type RequestRepository interface {
	Create(ctx context.Context, req *models.BookingRequest) error
	GetByID(ctx context.Context, id string) (*models.BookingRequest, error)
	// GetSuccessor returns the request whose PreviousRequestID is id.
	GetSuccessor(ctx context.Context, id string) (*models.BookingRequest, error)
	// ListPendingForActor excludes requests whose deadline has passed at now,
	// whether or not the sweep has expired them yet.
	ListPendingForActor(ctx context.Context, actorID string, role models.ActorRole, now time.Time) ([]models.BookingRequest, error)
	// ListOverdue returns pending requests with expiresAt <= now, oldest deadline first.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.BookingRequest, error)
	Transition(ctx context.Context, id string, t models.RequestTransition) (*models.BookingRequest, error)
}
