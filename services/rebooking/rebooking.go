package rebooking

import (
	"context"
	"errors"
	"fmt"

	"cleanly/models"
	"cleanly/utils/apperr"

	"go.uber.org/zap"
)

// maxChainLength bounds chain walks so a corrupted link can never loop.
const maxChainLength = 64

// Rebook creates a pending successor at the end of the original request's
// chain. The latest link must be declined or expired and below the attempt
// cap; only the initiator may rebook.
func (c *DefaultRebookingCoordinator) Rebook(ctx context.Context, originalID, actorID string, in RebookInput) (*models.BookingRequest, error) {
	original, err := c.Lifecycle.Get(ctx, originalID)
	if err != nil {
		return nil, err
	}
	if actorID != original.InitiatorID {
		return nil, apperr.ErrNotParticipant
	}
	if in.NewDate.IsZero() {
		return nil, apperr.New(apperr.KindInvalidInput, "newDate is required")
	}

	latest, err := c.latest(ctx, original)
	if err != nil {
		return nil, err
	}
	if latest.RebookingAttempts >= c.Policy.MaxRebookingAttempts {
		return nil, apperr.Newf(apperr.KindRebookingLimitReached,
			"maximum rebooking attempts reached (%d)", c.Policy.MaxRebookingAttempts)
	}
	// The read above may be a fallback view; only the stored state counts.
	stored, err := c.Repo.GetByID(ctx, latest.ID)
	if err != nil {
		return nil, err
	}
	if stored.State != models.RequestDeclined && stored.State != models.RequestExpired {
		return nil, apperr.Newf(apperr.KindNotRebookable,
			"only declined or expired requests can be rebooked, this one is %s", stored.State)
	}
	latest = stored

	draft := models.RequestDraft{
		AppointmentID:  latest.AppointmentID,
		InitiatorID:    latest.InitiatorID,
		CounterpartyID: latest.CounterpartyID,
		ProposedDate:   in.NewDate,
		Price:          latest.Price,
		TimeWindow:     latest.TimeWindow,
	}
	if in.NewPrice != nil {
		draft.Price = in.NewPrice
	}
	if in.NewTimeWindow != (models.TimeWindow{}) {
		draft.TimeWindow = in.NewTimeWindow
	}

	next, err := c.Lifecycle.ProposeSuccessor(ctx, latest, draft)
	if err != nil {
		return nil, err
	}
	c.log().Info("booking request rebooked",
		zap.String("original_request_id", originalID),
		zap.String("previous_request_id", latest.ID),
		zap.String("request_id", next.ID),
		zap.Int("rebooking_attempts", next.RebookingAttempts))
	return next, nil
}

// latest follows successor links from req to the end of its chain. The
// result goes through the lifecycle read so an overdue link reads as expired.
func (c *DefaultRebookingCoordinator) latest(ctx context.Context, req *models.BookingRequest) (*models.BookingRequest, error) {
	current := req
	for i := 0; i < maxChainLength; i++ {
		next, err := c.Repo.GetSuccessor(ctx, current.ID)
		if errors.Is(err, apperr.ErrNotFound) {
			if current == req {
				return current, nil
			}
			return c.Lifecycle.Get(ctx, current.ID)
		}
		if err != nil {
			return nil, err
		}
		current = next
	}
	return nil, fmt.Errorf("rebooking chain of %s exceeds %d links", req.ID, maxChainLength)
}

// Chain returns every request in the chain containing requestID, oldest
// first, by following previousRequestId links back and successors forward.
func (c *DefaultRebookingCoordinator) Chain(ctx context.Context, requestID string) ([]models.BookingRequest, error) {
	start, err := c.Repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var back []models.BookingRequest
	current := start
	for current.PreviousRequestID != "" {
		if len(back) >= maxChainLength {
			return nil, fmt.Errorf("rebooking chain of %s exceeds %d links", requestID, maxChainLength)
		}
		prev, err := c.Repo.GetByID(ctx, current.PreviousRequestID)
		if err != nil {
			return nil, err
		}
		back = append(back, *prev)
		current = prev
	}

	chain := make([]models.BookingRequest, 0, len(back)+1)
	for i := len(back) - 1; i >= 0; i-- {
		chain = append(chain, back[i])
	}
	chain = append(chain, *start)

	current = start
	for len(chain) <= maxChainLength {
		next, err := c.Repo.GetSuccessor(ctx, current.ID)
		if errors.Is(err, apperr.ErrNotFound) {
			return chain, nil
		}
		if err != nil {
			return nil, err
		}
		chain = append(chain, *next)
		current = next
	}
	return nil, fmt.Errorf("rebooking chain of %s exceeds %d links", requestID, maxChainLength)
}
