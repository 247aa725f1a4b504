package capacity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"pet-daycare-portal/internal/domain/calendar"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrExceedsCapacity es el sentinel para errors.Is; el error real en
	// el wire es ExceedsCapacityError con la fecha ofensora.
	ErrExceedsCapacity = errors.New("exceeds capacity")
)

// ExceedsCapacityError señala qué fecha del batch no tiene lugar.
type ExceedsCapacityError struct {
	Date time.Time
}

func (e ExceedsCapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded for %s", calendar.FormatDate(e.Date))
}

func (e ExceedsCapacityError) Is(target error) bool {
	return target == ErrExceedsCapacity
}

// Service expone el ledger de capacidad. El umbral low-water y el máximo
// por defecto vienen de configuración externa, no son constantes internas.
type Service struct {
	repo          Repository
	lowWaterRatio float64 // fracción del máximo (ej: 0.2)
}

func NewService(repo Repository, lowWaterRatio float64) *Service {
	if lowWaterRatio < 0 {
		lowWaterRatio = 0
	}
	return &Service{repo: repo, lowWaterRatio: lowWaterRatio}
}

// CheckAvailability es una proyección read-only: refleja las unidades
// tentativas de otras requests en vuelo (dos tutores reservando
// concurrentemente ven el pool achicarse) pero no reserva nada.
func (s *Service) CheckAvailability(ctx context.Context, dates []time.Time) (map[time.Time]Status, error) {
	dates, err := normalizeDates(dates)
	if err != nil {
		return nil, err
	}

	days, err := s.repo.GetDays(ctx, dates)
	if err != nil {
		return nil, err
	}

	out := make(map[time.Time]Status, len(days))
	for _, d := range days {
		out[d.Date] = s.classify(d)
	}
	return out, nil
}

// Days devuelve el estado crudo por fecha (para vistas de admin).
func (s *Service) Days(ctx context.Context, dates []time.Time) ([]Day, error) {
	dates, err := normalizeDates(dates)
	if err != nil {
		return nil, err
	}
	return s.repo.GetDays(ctx, dates)
}

func (s *Service) ReserveTentative(ctx context.Context, dates []time.Time) error {
	dates, err := normalizeDates(dates)
	if err != nil {
		return err
	}
	return s.repo.ReserveTentative(ctx, dates)
}

func (s *Service) ReleaseTentative(ctx context.Context, dates []time.Time) error {
	dates, err := normalizeDates(dates)
	if err != nil {
		return err
	}
	return s.repo.ReleaseTentative(ctx, dates)
}

func (s *Service) Commit(ctx context.Context, dates []time.Time) error {
	dates, err := normalizeDates(dates)
	if err != nil {
		return err
	}
	return s.repo.Commit(ctx, dates)
}

func (s *Service) Release(ctx context.Context, dates []time.Time) error {
	dates, err := normalizeDates(dates)
	if err != nil {
		return err
	}
	return s.repo.ReleaseCommitted(ctx, dates)
}

// SetMaxCapacity fija el override por fecha. Puede dejar el día por
// debajo de lo ya reservado: los holds varados se rechazan recién al
// intentar el commit.
func (s *Service) SetMaxCapacity(ctx context.Context, date time.Time, max int) error {
	if max < 0 {
		return ErrInvalidInput
	}
	return s.repo.SetMaxCapacity(ctx, calendar.Normalize(date), max)
}

func (s *Service) classify(d Day) Status {
	taken := d.CommittedUnits + d.TentativeUnits
	if taken >= d.MaxCapacity {
		return StatusFull
	}
	remaining := d.MaxCapacity - taken
	if float64(remaining) <= s.lowWaterRatio*float64(d.MaxCapacity) {
		return StatusLimited
	}
	return StatusAvailable
}

// normalizeDates normaliza, deduplica y ordena el set de fechas.
func normalizeDates(dates []time.Time) ([]time.Time, error) {
	if len(dates) == 0 {
		return nil, ErrInvalidInput
	}
	seen := map[time.Time]bool{}
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		n := calendar.Normalize(d)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	// orden estable: los adapters lockean filas en este orden, lo que
	// evita deadlocks entre batches solapados
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
