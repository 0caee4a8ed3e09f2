package penaltyRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"cleanly/models"
)

// MemoryPenaltyRepo is an in-process PenaltyRepository.
type MemoryPenaltyRepo struct {
	mu      sync.RWMutex
	records map[string][]models.CancellationPenaltyRecord
	freezes map[string]models.AccountFreeze
}

func NewMemoryPenaltyRepo() *MemoryPenaltyRepo {
	return &MemoryPenaltyRepo{
		records: make(map[string][]models.CancellationPenaltyRecord),
		freezes: make(map[string]models.AccountFreeze),
	}
}

func (r *MemoryPenaltyRepo) Insert(_ context.Context, rec *models.CancellationPenaltyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.records[rec.CleanerID] {
		if existing.AppointmentID == rec.AppointmentID {
			return ErrDuplicatePenalty
		}
	}
	r.records[rec.CleanerID] = append(r.records[rec.CleanerID], *rec)
	return nil
}

func (r *MemoryPenaltyRepo) GetByAppointment(_ context.Context, cleanerID, appointmentID string) (*models.CancellationPenaltyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records[cleanerID] {
		if rec.AppointmentID == appointmentID {
			out := rec
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryPenaltyRepo) CountSince(_ context.Context, cleanerID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, rec := range r.records[cleanerID] {
		if !rec.OccurredAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryPenaltyRepo) ListByCleaner(_ context.Context, cleanerID string) ([]models.CancellationPenaltyRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]models.CancellationPenaltyRecord{}, r.records[cleanerID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return out, nil
}

func (r *MemoryPenaltyRepo) MarkFrozen(_ context.Context, freeze models.AccountFreeze) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.freezes[freeze.CleanerID]; exists {
		return false, nil
	}
	r.freezes[freeze.CleanerID] = freeze
	return true, nil
}

func (r *MemoryPenaltyRepo) GetFreeze(_ context.Context, cleanerID string) (*models.AccountFreeze, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.freezes[cleanerID]
	if !ok {
		return nil, nil
	}
	return &f, nil
}
