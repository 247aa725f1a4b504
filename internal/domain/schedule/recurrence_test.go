package schedule

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustWeekly(t *testing.T, days []int) Periodicity {
	t.Helper()
	p, err := NewWeeklyPeriodicity(days)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func mustMonthly(t *testing.T, days []int) Periodicity {
	t.Helper()
	p, err := NewMonthlyPeriodicity(days)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func mustCustom(t *testing.T, interval int) Periodicity {
	t.Helper()
	p, err := NewCustomPeriodicity(interval)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestNextOccurrence_Daily(t *testing.T) {
	s := TreatmentSchedule{StartDate: date(2025, 1, 1), Periodicity: NewDailyPeriodicity()}

	got, ok := NextOccurrence(s, date(2025, 3, 10))
	if !ok || !got.Equal(date(2025, 3, 11)) {
		t.Fatalf("expected 2025-03-11, got %v ok=%v", got, ok)
	}
}

func TestNextOccurrence_Custom(t *testing.T) {
	s := TreatmentSchedule{StartDate: date(2025, 1, 1), Periodicity: mustCustom(t, 3)}

	got, ok := NextOccurrence(s, date(2025, 3, 10))
	if !ok || !got.Equal(date(2025, 3, 13)) {
		t.Fatalf("expected 2025-03-13, got %v ok=%v", got, ok)
	}
}

func TestNextOccurrence_Custom_FirstOccurrenceIsStartDate(t *testing.T) {
	s := TreatmentSchedule{StartDate: date(2025, 3, 1), Periodicity: mustCustom(t, 3)}

	// un schedule recién creado arranca en StartDate, no en StartDate+intervalo
	got, ok := NextOccurrence(s, date(2025, 2, 28))
	if !ok || !got.Equal(date(2025, 3, 1)) {
		t.Fatalf("expected 2025-03-01, got %v ok=%v", got, ok)
	}
	got, ok = NextOccurrence(s, date(2024, 12, 25))
	if !ok || !got.Equal(date(2025, 3, 1)) {
		t.Fatalf("expected 2025-03-01 for any earlier after, got %v ok=%v", got, ok)
	}
}

func TestNextOccurrence_Weekly_ScansForward(t *testing.T) {
	// lunes=1, viernes=5. 2025-03-10 fue lunes.
	s := TreatmentSchedule{StartDate: date(2025, 1, 1), Periodicity: mustWeekly(t, []int{1, 5})}

	got, ok := NextOccurrence(s, date(2025, 3, 10))
	if !ok || !got.Equal(date(2025, 3, 14)) {
		t.Fatalf("expected friday 2025-03-14, got %v ok=%v", got, ok)
	}

	got, ok = NextOccurrence(s, date(2025, 3, 14))
	if !ok || !got.Equal(date(2025, 3, 17)) {
		t.Fatalf("expected monday 2025-03-17, got %v ok=%v", got, ok)
	}
}

func TestNextOccurrence_Weekly_EmptySetIsPausedNotError(t *testing.T) {
	s := TreatmentSchedule{StartDate: date(2025, 1, 1), Periodicity: mustWeekly(t, nil)}

	if _, ok := NextOccurrence(s, date(2025, 3, 10)); ok {
		t.Fatalf("expected no occurrence for paused weekly schedule")
	}
}

func TestNextOccurrence_Monthly_ClampsShortMonths(t *testing.T) {
	s := TreatmentSchedule{StartDate: date(2025, 1, 1), Periodicity: mustMonthly(t, []int{31})}

	// enero 31 -> febrero se clava en 28 (no salta a marzo, no falla)
	got, ok := NextOccurrence(s, date(2025, 1, 31))
	if !ok || !got.Equal(date(2025, 2, 28)) {
		t.Fatalf("expected 2025-02-28, got %v ok=%v", got, ok)
	}

	// año bisiesto: 29
	s.StartDate = date(2024, 1, 1)
	got, ok = NextOccurrence(s, date(2024, 1, 31))
	if !ok || !got.Equal(date(2024, 2, 29)) {
		t.Fatalf("expected 2024-02-29, got %v ok=%v", got, ok)
	}
}

func TestNextOccurrence_Monthly_PicksSmallestCandidateAfter(t *testing.T) {
	s := TreatmentSchedule{StartDate: date(2025, 1, 1), Periodicity: mustMonthly(t, []int{5, 20})}

	got, ok := NextOccurrence(s, date(2025, 3, 10))
	if !ok || !got.Equal(date(2025, 3, 20)) {
		t.Fatalf("expected 2025-03-20, got %v ok=%v", got, ok)
	}

	// pasado el último día del mes, salta al 5 del mes siguiente
	got, ok = NextOccurrence(s, date(2025, 3, 25))
	if !ok || !got.Equal(date(2025, 4, 5)) {
		t.Fatalf("expected 2025-04-05, got %v ok=%v", got, ok)
	}
}

func TestNextOccurrence_RespectsEndDate(t *testing.T) {
	end := date(2025, 3, 12)
	s := TreatmentSchedule{
		StartDate:   date(2025, 1, 1),
		EndDate:     &end,
		Periodicity: mustCustom(t, 3),
	}

	if got, ok := NextOccurrence(s, date(2025, 3, 9)); !ok || !got.Equal(date(2025, 3, 12)) {
		t.Fatalf("expected 2025-03-12 within end date, got %v ok=%v", got, ok)
	}
	if _, ok := NextOccurrence(s, date(2025, 3, 10)); ok {
		t.Fatalf("expected exhausted schedule past end date")
	}
}

func TestNextOccurrence_NeverBeforeStartDate(t *testing.T) {
	s := TreatmentSchedule{StartDate: date(2025, 6, 1), Periodicity: NewDailyPeriodicity()}

	got, ok := NextOccurrence(s, date(2025, 3, 10))
	if !ok || !got.Equal(date(2025, 6, 1)) {
		t.Fatalf("expected first occurrence at start date, got %v ok=%v", got, ok)
	}
}

func TestNextOccurrence_Deterministic(t *testing.T) {
	s := TreatmentSchedule{StartDate: date(2025, 1, 1), Periodicity: mustMonthly(t, []int{15, 31})}
	after := date(2025, 2, 10)

	a, okA := NextOccurrence(s, after)
	b, okB := NextOccurrence(s, after)
	if okA != okB || !a.Equal(b) {
		t.Fatalf("same input must yield same output: %v/%v vs %v/%v", a, okA, b, okB)
	}
}

func TestNewPeriodicity_RejectsMalformedConfigs(t *testing.T) {
	if _, err := NewCustomPeriodicity(0); err == nil {
		t.Fatalf("expected error for interval 0")
	}
	if _, err := NewWeeklyPeriodicity([]int{7}); err == nil {
		t.Fatalf("expected error for weekday 7")
	}
	if _, err := NewMonthlyPeriodicity([]int{0}); err == nil {
		t.Fatalf("expected error for month day 0")
	}
	if _, err := NewMonthlyPeriodicity(nil); err == nil {
		t.Fatalf("expected error for empty month days")
	}
}
