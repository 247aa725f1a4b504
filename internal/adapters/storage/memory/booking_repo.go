package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-daycare-portal/internal/domain/booking"
)

type bookingRepo struct {
	mu   sync.Mutex
	byID map[string]booking.Request
}

func NewBookingRepo() booking.Repository {
	return &bookingRepo{
		byID: make(map[string]booking.Request),
	}
}

func (r *bookingRepo) Create(ctx context.Context, req booking.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(req.ID) == "" {
		return errors.New("booking id required")
	}
	if _, exists := r.byID[req.ID]; exists {
		return errors.New("booking already exists")
	}
	r.byID[req.ID] = cloneRequest(req)
	return nil
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (booking.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byID[id]
	if !ok {
		return booking.Request{}, booking.ErrNotFound
	}
	return cloneRequest(req), nil
}

func (r *bookingRepo) ListByPet(ctx context.Context, petID string) ([]booking.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]booking.Request, 0)
	for _, req := range r.byID {
		if req.PetID == petID {
			out = append(out, cloneRequest(req))
		}
	}
	sortByCreated(out)
	return out, nil
}

func (r *bookingRepo) ListByStatus(ctx context.Context, status booking.Status) ([]booking.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]booking.Request, 0)
	for _, req := range r.byID {
		if req.Status == status {
			out = append(out, cloneRequest(req))
		}
	}
	sortByCreated(out)
	return out, nil
}

// UpdateStatus es el compare-and-swap del workflow: aplica solo si el
// status actual es exactamente `from`. Dos decisores concurrentes sobre
// la misma request: gana uno, el otro recibe InvalidTransitionError con
// el estado real.
func (r *bookingRepo) UpdateStatus(ctx context.Context, id string, from, to booking.Status, notes string, decidedAt time.Time) (booking.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	req, ok := r.byID[id]
	if !ok {
		return booking.Request{}, booking.ErrNotFound
	}
	if req.Status != from {
		return booking.Request{}, booking.InvalidTransitionError{From: req.Status, To: to}
	}

	req.Status = to
	req.AdminNotes = notes
	req.UpdatedAt = decidedAt
	if to == booking.StatusPending {
		req.DecidedAt = nil // rollback interno: la request vuelve a la cola
	} else {
		d := decidedAt
		req.DecidedAt = &d
	}

	r.byID[id] = req
	return cloneRequest(req), nil
}

func cloneRequest(req booking.Request) booking.Request {
	dates := make([]time.Time, len(req.Dates))
	copy(dates, req.Dates)
	req.Dates = dates
	if req.DecidedAt != nil {
		d := *req.DecidedAt
		req.DecidedAt = &d
	}
	return req
}

func sortByCreated(items []booking.Request) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
