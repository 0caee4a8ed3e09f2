package requestRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"cleanly/models"
	"cleanly/utils/apperr"
)

// MemoryRequestRepo keeps requests in process. A single mutex serialises
// every read and the check-and-set in Transition.
type MemoryRequestRepo struct {
	mu         sync.Mutex
	byID       map[string]*models.BookingRequest
	successors map[string]string
}

func NewMemoryRequestRepo() *MemoryRequestRepo {
	return &MemoryRequestRepo{
		byID:       make(map[string]*models.BookingRequest),
		successors: make(map[string]string),
	}
}

func (r *MemoryRequestRepo) Create(_ context.Context, req *models.BookingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[req.ID]; exists {
		return apperr.Newf(apperr.KindInvalidInput, "booking request %s already exists", req.ID)
	}
	if req.PreviousRequestID != "" {
		if _, taken := r.successors[req.PreviousRequestID]; taken {
			return apperr.Newf(apperr.KindAlreadyResolved,
				"booking request %s has already been rebooked", req.PreviousRequestID)
		}
		r.successors[req.PreviousRequestID] = req.ID
	}
	r.byID[req.ID] = req.Clone()
	return nil
}

func (r *MemoryRequestRepo) GetByID(_ context.Context, id string) (*models.BookingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byID[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return req.Clone(), nil
}

func (r *MemoryRequestRepo) GetSuccessor(_ context.Context, id string) (*models.BookingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, ok := r.successors[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return r.byID[next].Clone(), nil
}

func (r *MemoryRequestRepo) ListPendingForActor(_ context.Context, actorID string, role models.ActorRole, now time.Time) ([]models.BookingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.BookingRequest{}
	for _, req := range r.byID {
		party := req.CounterpartyID
		if role == models.RoleInitiator {
			party = req.InitiatorID
		}
		if party != actorID || req.State != models.RequestPending || !now.Before(req.ExpiresAt) {
			continue
		}
		out = append(out, *req.Clone())
	}
	sortByDeadline(out)
	return out, nil
}

func (r *MemoryRequestRepo) ListOverdue(_ context.Context, now time.Time, limit int) ([]models.BookingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.BookingRequest{}
	for _, req := range r.byID {
		if req.IsOverdue(now) {
			out = append(out, *req.Clone())
		}
	}
	sortByDeadline(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRequestRepo) Transition(_ context.Context, id string, t models.RequestTransition) (*models.BookingRequest, error) {
	if err := checkTransition(t); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byID[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	if err := rejection(req, t); err != nil {
		return nil, err
	}
	t.Apply(req)
	return req.Clone(), nil
}

func sortByDeadline(reqs []models.BookingRequest) {
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].ExpiresAt.Equal(reqs[j].ExpiresAt) {
			return reqs[i].ID < reqs[j].ID
		}
		return reqs[i].ExpiresAt.Before(reqs[j].ExpiresAt)
	})
}
