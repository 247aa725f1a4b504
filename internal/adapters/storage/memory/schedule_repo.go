package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-daycare-portal/internal/domain/schedule"
)

type scheduleRepo struct {
	mu   sync.RWMutex
	byID map[string]schedule.TreatmentSchedule
}

func NewScheduleRepo() schedule.Repository {
	return &scheduleRepo{
		byID: make(map[string]schedule.TreatmentSchedule),
	}
}

func (r *scheduleRepo) Create(ctx context.Context, s schedule.TreatmentSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("schedule id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("schedule already exists")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (schedule.TreatmentSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return schedule.TreatmentSchedule{}, schedule.ErrNotFound
	}
	return s, nil
}

func (r *scheduleRepo) ListByPet(ctx context.Context, petID string) ([]schedule.TreatmentSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]schedule.TreatmentSchedule, 0)
	for _, s := range r.byID {
		if s.PetID == petID {
			out = append(out, s)
		}
	}

	// Orden estable por created_at asc (solo para consistencia en dev)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *scheduleRepo) Update(ctx context.Context, s schedule.TreatmentSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[s.ID]; !exists {
		return schedule.ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}
