package schedule

import (
	"context"
	"errors"
	"testing"
	"time"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

var errRepoNotFound = errors.New("repo: not found")

type testRepo struct {
	byID    map[string]TreatmentSchedule
	updates int
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]TreatmentSchedule{}}
}

func (r *testRepo) Create(ctx context.Context, s TreatmentSchedule) error {
	if s.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[s.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (TreatmentSchedule, error) {
	s, ok := r.byID[id]
	if !ok {
		return TreatmentSchedule{}, errRepoNotFound
	}
	return s, nil
}

func (r *testRepo) ListByPet(ctx context.Context, petID string) ([]TreatmentSchedule, error) {
	out := make([]TreatmentSchedule, 0)
	for _, s := range r.byID {
		if s.PetID == petID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *testRepo) Update(ctx context.Context, s TreatmentSchedule) error {
	if _, ok := r.byID[s.ID]; !ok {
		return errRepoNotFound
	}
	r.byID[s.ID] = s
	r.updates++
	return nil
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_ValidatesInput(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	base := CreateInput{
		Kind:        CareMedication,
		Name:        "Prednisona",
		StartDate:   date(2025, 3, 1),
		BaseDose:    20,
		DoseUnit:    "mg",
		Periodicity: NewDailyPeriodicity(),
		Progression: NewStableProgression(),
	}

	if _, err := svc.Create(ctx, "", base); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty pet, got %v", err)
	}

	in := base
	in.Name = "  "
	if _, err := svc.Create(ctx, "pet-1", in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}

	in = base
	in.Periodicity = Periodicity{}
	if _, err := svc.Create(ctx, "pet-1", in); !errors.Is(err, ErrInvalidPeriodicity) {
		t.Fatalf("expected ErrInvalidPeriodicity for zero config, got %v", err)
	}

	in = base
	end := date(2025, 2, 1) // antes del start
	in.EndDate = &end
	if _, err := svc.Create(ctx, "pet-1", in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for end before start, got %v", err)
	}

	got, err := svc.Create(ctx, "pet-1", base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID == "" || !got.Active || got.OccurrenceCount != 0 {
		t.Fatalf("unexpected created schedule: %+v", got)
	}
}

func TestService_Advance_CommitsDateDoseAndCounterTogether(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	ctx := context.Background()

	sched, err := svc.Create(ctx, "pet-1", CreateInput{
		Kind:        CareMedication,
		Name:        "Prednisona",
		StartDate:   date(2025, 3, 1),
		BaseDose:    20,
		DoseUnit:    "mg",
		Periodicity: mustCustom(t, 3),
		Progression: mustProgression(t, ProgressionDecrease,
			Rate{Kind: RatePercent, Value: 10}, 2, floatPtr(5)),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// primera ocurrencia: el start date mismo, dosis base
	occ, err := svc.Advance(ctx, sched.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !occ.Date.Equal(date(2025, 3, 1)) || occ.Dose != 20 || occ.Unit != "mg" {
		t.Fatalf("unexpected first occurrence: %+v", occ)
	}

	// segunda: +3 días, todavía dosis base (every_n_doses = 2)
	occ, err = svc.Advance(ctx, sched.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !occ.Date.Equal(date(2025, 3, 4)) || occ.Dose != 20 {
		t.Fatalf("unexpected second occurrence: %+v", occ)
	}

	// tercera: primer paso de decrease (10% de 20 = 2)
	occ, err = svc.Advance(ctx, sched.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !occ.Date.Equal(date(2025, 3, 7)) || occ.Dose != 18 {
		t.Fatalf("unexpected third occurrence: %+v", occ)
	}

	// contador, ancla y dosis viajan en la misma escritura
	stored, _ := repo.GetByID(ctx, sched.ID)
	if stored.OccurrenceCount != 3 {
		t.Fatalf("expected occurrence count 3, got %d", stored.OccurrenceCount)
	}
	if stored.LastOccurrence == nil || !stored.LastOccurrence.Equal(date(2025, 3, 7)) {
		t.Fatalf("expected last occurrence 2025-03-07, got %v", stored.LastOccurrence)
	}
	if repo.updates != 3 {
		t.Fatalf("expected exactly one update per advance, got %d", repo.updates)
	}
}

func TestService_Advance_ExhaustedAndInactive(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	ctx := context.Background()

	end := date(2025, 3, 2)
	sched, err := svc.Create(ctx, "pet-1", CreateInput{
		Kind:        CareVaccine,
		Name:        "Antirrábica",
		StartDate:   date(2025, 3, 1),
		EndDate:     &end,
		BaseDose:    1,
		Periodicity: NewDailyPeriodicity(),
		Progression: NewStableProgression(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.Advance(ctx, sched.ID); err != nil {
			t.Fatalf("advance %d: unexpected error: %v", i, err)
		}
	}
	if _, err := svc.Advance(ctx, sched.ID); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	// un advance fallido no toca el contador
	stored, _ := repo.GetByID(ctx, sched.ID)
	if stored.OccurrenceCount != 2 {
		t.Fatalf("failed advance must not bump counter, got %d", stored.OccurrenceCount)
	}

	if _, err := svc.Deactivate(ctx, sched.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Advance(ctx, sched.ID); !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}

	// deactivate es idempotente y el historial sigue consultable
	again, err := svc.Deactivate(ctx, sched.ID)
	if err != nil || again.Active {
		t.Fatalf("expected idempotent deactivate, err=%v active=%v", err, again.Active)
	}
	if got, err := svc.GetByID(ctx, sched.ID); err != nil || got.OccurrenceCount != 2 {
		t.Fatalf("history must stay queryable, err=%v got=%+v", err, got)
	}
}

func TestService_Advance_PausedWeeklyYieldsExhausted(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()

	sched, err := svc.Create(ctx, "pet-1", CreateInput{
		Kind:        CarePreventive,
		Name:        "Pipeta",
		StartDate:   date(2025, 3, 1),
		BaseDose:    1,
		Periodicity: mustWeekly(t, nil), // pausado
		Progression: NewStableProgression(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Advance(ctx, sched.ID); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted for paused weekly, got %v", err)
	}
}

func TestService_Now_Injectable(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	sched, err := svc.Create(context.Background(), "pet-1", CreateInput{
		Kind:        CareMedication,
		Name:        "Omeprazol",
		StartDate:   date(2025, 3, 1),
		BaseDose:    10,
		Periodicity: NewDailyPeriodicity(),
		Progression: NewStableProgression(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sched.CreatedAt.Equal(fixed) || !sched.UpdatedAt.Equal(fixed) {
		t.Fatalf("expected injected clock, got %v / %v", sched.CreatedAt, sched.UpdatedAt)
	}
}
