package schedule

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-daycare-portal/internal/domain/calendar"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("schedule not found")
	ErrInactive     = errors.New("schedule is inactive")
	ErrExhausted    = errors.New("schedule has no further occurrences")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Kind        CareKind
	Name        string
	StartDate   time.Time
	EndDate     *time.Time
	BaseDose    float64
	DoseUnit    string
	Periodicity Periodicity
	Progression Progression
}

func (s *Service) Create(ctx context.Context, petID string, in CreateInput) (TreatmentSchedule, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return TreatmentSchedule{}, ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		return TreatmentSchedule{}, ErrInvalidInput
	}
	switch in.Kind {
	case CareMedication, CareVaccine, CarePreventive:
	default:
		return TreatmentSchedule{}, ErrInvalidInput
	}
	if in.StartDate.IsZero() {
		return TreatmentSchedule{}, ErrInvalidInput
	}
	if in.BaseDose < 0 {
		return TreatmentSchedule{}, ErrInvalidInput
	}
	// Las configs llegan ya validadas por sus constructores; acá solo
	// chequeamos que el Kind exista (zero value = config nunca construida).
	if in.Periodicity.Kind == "" {
		return TreatmentSchedule{}, ErrInvalidPeriodicity
	}
	if in.Progression.Mode == "" {
		return TreatmentSchedule{}, ErrInvalidProgression
	}
	if in.EndDate != nil && calendar.Normalize(*in.EndDate).Before(calendar.Normalize(in.StartDate)) {
		return TreatmentSchedule{}, ErrInvalidInput
	}

	now := s.now()
	sched := TreatmentSchedule{
		ID:          uuid.NewString(),
		PetID:       petID,
		Kind:        in.Kind,
		Name:        strings.TrimSpace(in.Name),
		StartDate:   calendar.Normalize(in.StartDate),
		BaseDose:    in.BaseDose,
		DoseUnit:    strings.TrimSpace(in.DoseUnit),
		Periodicity: in.Periodicity,
		Progression: in.Progression,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.EndDate != nil {
		e := calendar.Normalize(*in.EndDate)
		sched.EndDate = &e
	}

	if err := s.repo.Create(ctx, sched); err != nil {
		return TreatmentSchedule{}, err
	}
	return sched, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (TreatmentSchedule, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return TreatmentSchedule{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]TreatmentSchedule, error) {
	return s.repo.ListByPet(ctx, petID)
}

// Peek computa la próxima ocurrencia SIN comprometerla (para previews de
// UI). No muta nada; Advance es el único punto de entrada que avanza.
func (s *Service) Peek(ctx context.Context, id string) (Occurrence, error) {
	sched, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Occurrence{}, err
	}
	return peekOccurrence(sched)
}

// Advance es el único mutador del ciclo de ocurrencias: computa la
// próxima fecha Y la próxima dosis, incrementa el contador y persiste
// todo en una sola escritura. No existen mutadores parciales (fecha sin
// dosis o viceversa) a propósito.
func (s *Service) Advance(ctx context.Context, id string) (Occurrence, error) {
	sched, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Occurrence{}, err
	}
	if !sched.Active {
		return Occurrence{}, ErrInactive
	}

	occ, err := peekOccurrence(sched)
	if err != nil {
		return Occurrence{}, err
	}

	next := occ.Date
	sched.OccurrenceCount++
	sched.LastOccurrence = &next
	sched.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, sched); err != nil {
		return Occurrence{}, err
	}
	return occ, nil
}

// Deactivate es soft: el schedule deja de producir ocurrencias pero el
// historial sigue consultable.
func (s *Service) Deactivate(ctx context.Context, id string) (TreatmentSchedule, error) {
	sched, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return TreatmentSchedule{}, err
	}
	if !sched.Active {
		return sched, nil // idempotente
	}
	sched.Active = false
	sched.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, sched); err != nil {
		return TreatmentSchedule{}, err
	}
	return sched, nil
}

func peekOccurrence(sched TreatmentSchedule) (Occurrence, error) {
	anchor := calendar.AddDays(calendar.Normalize(sched.StartDate), -1)
	if sched.LastOccurrence != nil {
		anchor = calendar.Normalize(*sched.LastOccurrence)
	}

	next, ok := NextOccurrence(sched, anchor)
	if !ok {
		return Occurrence{}, ErrExhausted
	}
	return Occurrence{
		Date: next,
		Dose: DoseAt(sched, sched.OccurrenceCount),
		Unit: sched.DoseUnit,
	}, nil
}
