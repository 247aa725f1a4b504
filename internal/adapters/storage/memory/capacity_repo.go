package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"pet-daycare-portal/internal/domain/capacity"
)

type capacityRepo struct {
	mu         sync.Mutex
	defaultMax int
	byDate     map[time.Time]capacity.Day
}

// NewCapacityRepo crea el ledger de capacidad in-memory. defaultMax es
// el máximo configurado para fechas sin override.
func NewCapacityRepo(defaultMax int) capacity.Repository {
	return &capacityRepo{
		defaultMax: defaultMax,
		byDate:     make(map[time.Time]capacity.Day),
	}
}

func (r *capacityRepo) day(date time.Time) capacity.Day {
	if d, ok := r.byDate[date]; ok {
		return d
	}
	return capacity.Day{Date: date, MaxCapacity: r.defaultMax}
}

func (r *capacityRepo) GetDays(ctx context.Context, dates []time.Time) ([]capacity.Day, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]capacity.Day, 0, len(dates))
	for _, date := range dates {
		out = append(out, r.day(date))
	}
	return out, nil
}

// ReserveTentative valida TODO el batch antes de tocar nada: si una sola
// fecha está llena, ninguna queda reservada (all-or-nothing).
func (r *capacityRepo) ReserveTentative(ctx context.Context, dates []time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, date := range dates {
		d := r.day(date)
		if d.CommittedUnits+d.TentativeUnits+1 > d.MaxCapacity {
			return capacity.ExceedsCapacityError{Date: date}
		}
	}
	for _, date := range dates {
		d := r.day(date)
		d.TentativeUnits++
		r.byDate[date] = d
	}
	return nil
}

func (r *capacityRepo) ReleaseTentative(ctx context.Context, dates []time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, date := range dates {
		if r.day(date).TentativeUnits < 1 {
			return errors.New("no tentative hold to release")
		}
	}
	for _, date := range dates {
		d := r.day(date)
		d.TentativeUnits--
		r.byDate[date] = d
	}
	return nil
}

// Commit convierte holds en unidades comprometidas re-validando contra
// el máximo VIGENTE: si un override bajó la capacidad después del hold,
// acá se rechaza en vez de sobre-comprometer el día.
func (r *capacityRepo) Commit(ctx context.Context, dates []time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, date := range dates {
		d := r.day(date)
		if d.TentativeUnits < 1 {
			return errors.New("no tentative hold to commit")
		}
		if d.CommittedUnits+1 > d.MaxCapacity {
			return capacity.ExceedsCapacityError{Date: date}
		}
	}
	for _, date := range dates {
		d := r.day(date)
		d.TentativeUnits--
		d.CommittedUnits++
		r.byDate[date] = d
	}
	return nil
}

func (r *capacityRepo) ReleaseCommitted(ctx context.Context, dates []time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, date := range dates {
		if r.day(date).CommittedUnits < 1 {
			return errors.New("no committed units to release")
		}
	}
	for _, date := range dates {
		d := r.day(date)
		d.CommittedUnits--
		r.byDate[date] = d
	}
	return nil
}

func (r *capacityRepo) SetMaxCapacity(ctx context.Context, date time.Time, max int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.day(date)
	d.MaxCapacity = max
	r.byDate[date] = d
	return nil
}
