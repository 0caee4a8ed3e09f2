package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleanly/models"
	"cleanly/utils/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Propose creates a pending request and notifies the counterparty.
func (s *DefaultLifecycleService) Propose(ctx context.Context, draft models.RequestDraft) (*models.BookingRequest, error) {
	return s.create(ctx, draft, nil)
}

// ProposeSuccessor creates the pending request that supersedes previous in
// its rebooking chain. The caller has already checked that previous may be
// rebooked.
func (s *DefaultLifecycleService) ProposeSuccessor(ctx context.Context, previous *models.BookingRequest, draft models.RequestDraft) (*models.BookingRequest, error) {
	if previous == nil {
		return nil, apperr.New(apperr.KindInvalidInput, "previous request is required")
	}
	return s.create(ctx, draft, previous)
}

func (s *DefaultLifecycleService) create(ctx context.Context, draft models.RequestDraft, previous *models.BookingRequest) (*models.BookingRequest, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	req := models.NewPendingRequest(uuid.New().String(), draft, previous, s.now(), s.Policy.ResponseWindow)
	if !req.ExpiresAt.After(req.CreatedAt) {
		return nil, apperr.New(apperr.KindInvalidInput, "response window must be positive")
	}
	if err := s.Repo.Create(ctx, req); err != nil {
		return nil, err
	}

	event := models.EventRequestProposed
	if previous != nil {
		event = models.EventRequestRebooked
	}
	s.log().Info("booking request proposed",
		zap.String("request_id", req.ID),
		zap.String("appointment_id", req.AppointmentID),
		zap.String("initiator_id", req.InitiatorID),
		zap.String("counterparty_id", req.CounterpartyID),
		zap.String("previous_request_id", req.PreviousRequestID),
		zap.Int("rebooking_attempts", req.RebookingAttempts),
		zap.Time("expires_at", req.ExpiresAt),
	)
	s.Notifier.Notify(ctx, req.CounterpartyID, event, s.payload(req))
	return req, nil
}

// Get fetches a request. A pending request past its deadline is expired on
// the way out, so a stale record never reads as actionable.
func (s *DefaultLifecycleService) Get(ctx context.Context, requestID string) (*models.BookingRequest, error) {
	req, err := s.Repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !req.IsOverdue(now) {
		return req, nil
	}
	expired, _, err := s.expire(ctx, req, now)
	if apperr.IsBusinessRule(err) {
		// Resolved by someone else first; the stored state wins.
		return s.Repo.GetByID(ctx, requestID)
	}
	if err != nil {
		s.log().Warn("lazy expiry failed, returning expired view",
			zap.String("request_id", requestID), zap.Error(err))
		view := req.Clone()
		view.State = models.RequestExpired
		return view, nil
	}
	return expired, nil
}

// ListPending returns the actor's still-actionable pending requests, closest
// deadline first.
func (s *DefaultLifecycleService) ListPending(ctx context.Context, actorID string, role models.ActorRole) ([]models.BookingRequest, error) {
	if actorID == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "actor is required")
	}
	switch role {
	case "":
		role = models.RoleCounterparty
	case models.RoleCounterparty, models.RoleInitiator:
	default:
		return nil, apperr.Newf(apperr.KindInvalidInput, "unknown role %q", role)
	}
	return s.Repo.ListPendingForActor(ctx, actorID, role, s.now())
}

// Accept resolves the request as accepted and activates its appointment.
// When activation fails the accepted request is returned together with a
// CollaboratorUnavailable error: the acceptance stands.
func (s *DefaultLifecycleService) Accept(ctx context.Context, requestID, actorID string) (*models.BookingRequest, error) {
	req, err := s.Repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actorID != req.CounterpartyID {
		return nil, apperr.ErrNotParticipant
	}
	now := s.now()
	if err := s.checkRespondable(ctx, req, now); err != nil {
		return nil, err
	}

	updated, err := s.Repo.Transition(ctx, requestID, models.RequestTransition{To: models.RequestAccepted, At: now})
	if err != nil {
		return nil, err
	}
	s.resolved(ctx, updated, actorID)

	if err := s.Activator.Activate(ctx, updated.AppointmentID); err != nil {
		s.log().Error("appointment activation failed",
			zap.String("request_id", updated.ID),
			zap.String("appointment_id", updated.AppointmentID),
			zap.Error(err))
		return updated, apperr.Unavailable("activate appointment", err)
	}
	return updated, nil
}

// Decline resolves the request as declined with an optional reason and up
// to three alternative dates.
func (s *DefaultLifecycleService) Decline(ctx context.Context, requestID, actorID string, in DeclineInput) (*models.BookingRequest, error) {
	req, err := s.Repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actorID != req.CounterpartyID {
		return nil, apperr.ErrNotParticipant
	}
	now := s.now()
	if err := s.checkRespondable(ctx, req, now); err != nil {
		return nil, err
	}

	reason, err := normalizeReason(in.Reason)
	if err != nil {
		return nil, err
	}
	dates, err := normalizeSuggestedDates(in.SuggestedDates, now, s.Policy.Loc())
	if err != nil {
		return nil, err
	}

	updated, err := s.Repo.Transition(ctx, requestID, models.RequestTransition{
		To:             models.RequestDeclined,
		At:             now,
		DeclineReason:  reason,
		SuggestedDates: dates,
	})
	if err != nil {
		return nil, err
	}
	s.resolved(ctx, updated, actorID)
	return updated, nil
}

// Cancel withdraws a pending request on behalf of its initiator. It has no
// penalty side effects.
func (s *DefaultLifecycleService) Cancel(ctx context.Context, requestID, actorID string) (*models.BookingRequest, error) {
	req, err := s.Repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actorID != req.InitiatorID {
		return nil, apperr.ErrNotParticipant
	}
	now := s.now()
	if req.State != models.RequestPending {
		return nil, alreadyResolved(req.State)
	}
	if req.IsOverdue(now) {
		s.expireQuietly(ctx, req, now)
		return nil, alreadyResolved(models.RequestExpired)
	}

	updated, err := s.Repo.Transition(ctx, requestID, models.RequestTransition{To: models.RequestCancelled, At: now})
	if err != nil {
		return nil, err
	}
	s.resolved(ctx, updated, actorID)
	return updated, nil
}

// Expire moves an overdue pending request to expired and reports whether
// this call made the change. It is a no-op for a request that is already
// expired or not yet due, and fails with AlreadyResolved for any other
// terminal state.
func (s *DefaultLifecycleService) Expire(ctx context.Context, requestID string) (*models.BookingRequest, bool, error) {
	req, err := s.Repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, false, err
	}
	return s.expire(ctx, req, s.now())
}

func (s *DefaultLifecycleService) expire(ctx context.Context, req *models.BookingRequest, now time.Time) (*models.BookingRequest, bool, error) {
	switch {
	case req.State == models.RequestExpired:
		return req, false, nil
	case req.State.IsTerminal():
		return nil, false, alreadyResolved(req.State)
	case !req.IsOverdue(now):
		return req, false, nil
	}

	updated, err := s.Repo.Transition(ctx, req.ID, models.RequestTransition{To: models.RequestExpired, At: now})
	if err != nil {
		if !errors.Is(err, apperr.ErrAlreadyResolved) {
			return nil, false, err
		}
		// Lost the race. Only another expiry keeps this call a no-op.
		current, getErr := s.Repo.GetByID(ctx, req.ID)
		if getErr != nil {
			return nil, false, getErr
		}
		if current.State == models.RequestExpired {
			return current, false, nil
		}
		return nil, false, err
	}
	s.resolved(ctx, updated, "")
	return updated, true, nil
}

func (s *DefaultLifecycleService) expireQuietly(ctx context.Context, req *models.BookingRequest, now time.Time) {
	if _, _, err := s.expire(ctx, req, now); err != nil && !apperr.IsBusinessRule(err) {
		s.log().Warn("lazy expiry failed", zap.String("request_id", req.ID), zap.Error(err))
	}
}

// SweepExpired expires every overdue pending request and returns how many
// this call expired. Requests resolved concurrently by someone else are
// skipped.
func (s *DefaultLifecycleService) SweepExpired(ctx context.Context) (int, error) {
	batch := s.sweepBatch()
	expired := 0
	var firstErr error

	for {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		now := s.now()
		overdue, err := s.Repo.ListOverdue(ctx, now, batch)
		if err != nil {
			return expired, err
		}

		progressed := false
		for i := range overdue {
			_, changed, err := s.expire(ctx, &overdue[i], now)
			switch {
			case err == nil:
				progressed = true
				if changed {
					expired++
				}
			case apperr.IsBusinessRule(err):
				progressed = true
			default:
				if firstErr == nil {
					firstErr = fmt.Errorf("expire %s: %w", overdue[i].ID, err)
				}
			}
		}
		if len(overdue) < batch || !progressed {
			break
		}
	}

	if expired > 0 {
		s.log().Info("expiry sweep finished", zap.Int("expired", expired))
	}
	return expired, firstErr
}

// checkRespondable enforces "pending and not past the deadline" for the
// counterparty's actions, expiring the request lazily when it is overdue.
func (s *DefaultLifecycleService) checkRespondable(ctx context.Context, req *models.BookingRequest, now time.Time) error {
	if req.State != models.RequestPending {
		return alreadyResolved(req.State)
	}
	if req.IsOverdue(now) {
		s.expireQuietly(ctx, req, now)
		return apperr.ErrWindowExpired
	}
	return nil
}

func alreadyResolved(state models.RequestState) error {
	return apperr.Newf(apperr.KindAlreadyResolved, "this request is no longer valid: it was already %s", state)
}

// resolved logs a terminal transition and tells both parties about it.
func (s *DefaultLifecycleService) resolved(ctx context.Context, req *models.BookingRequest, actorID string) {
	s.log().Info("booking request resolved",
		zap.String("request_id", req.ID),
		zap.String("state", string(req.State)),
		zap.String("actor_id", actorID),
	)
	event := models.EventForState(req.State)
	payload := s.payload(req)
	s.Notifier.Notify(ctx, req.InitiatorID, event, payload)
	s.Notifier.Notify(ctx, req.CounterpartyID, event, payload)
}

func (s *DefaultLifecycleService) payload(req *models.BookingRequest) map[string]string {
	p := map[string]string{
		"requestId":         req.ID,
		"appointmentId":     req.AppointmentID,
		"state":             string(req.State),
		"proposedDate":      req.ProposedDate.In(s.Policy.Loc()).Format("2006-01-02"),
		"timeWindow":        req.TimeWindow.Start + "-" + req.TimeWindow.End,
		"expiresAt":         req.ExpiresAt.Format(time.RFC3339),
		"respondWithin":     s.Policy.ResponseWindow.String(),
		"rebookingAttempts": fmt.Sprintf("%d", req.RebookingAttempts),
	}
	if req.PreviousRequestID != "" {
		p["previousRequestId"] = req.PreviousRequestID
	}
	if req.DeclineReason != "" {
		p["declineReason"] = req.DeclineReason
	}
	if len(req.SuggestedAlternativeDates) > 0 {
		dates := ""
		for i, d := range req.SuggestedAlternativeDates {
			if i > 0 {
				dates += ","
			}
			dates += d.Format("2006-01-02")
		}
		p["suggestedAlternativeDates"] = dates
	}
	return p
}
