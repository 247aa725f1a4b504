package schedule

import (
	"time"

	"pet-daycare-portal/internal/domain/calendar"
)

// Cotas de búsqueda: garantizan terminación incluso con configs que no
// producen ninguna fecha válida.
const (
	weeklyScanDays    = 7
	monthlyScanMonths = 12
)

// NextOccurrence computa la próxima ocurrencia estrictamente posterior a
// after. Devuelve ok=false cuando el schedule no produce más ocurrencias
// (weekly pausado, endDate superado, o config sin días válidos).
//
// Es una función pura de (schedule, after): mismo input, mismo output.
func NextOccurrence(s TreatmentSchedule, after time.Time) (time.Time, bool) {
	after = calendar.Normalize(after)

	// La primera ocurrencia nunca precede a StartDate.
	if start := calendar.Normalize(s.StartDate); after.Before(calendar.AddDays(start, -1)) {
		after = calendar.AddDays(start, -1)
	}

	var next time.Time
	var ok bool

	switch s.Periodicity.Kind {
	case PeriodicityDaily:
		next, ok = calendar.AddDays(after, 1), true
	case PeriodicityCustom:
		if s.Periodicity.IntervalDays <= 0 {
			return time.Time{}, false
		}
		// antes del arranque la primera ocurrencia es StartDate mismo;
		// sumar el intervalo desde el ancla start-1 se la saltearía
		if start := calendar.Normalize(s.StartDate); after.Before(start) {
			next, ok = start, true
			break
		}
		next, ok = calendar.AddDays(after, s.Periodicity.IntervalDays), true
	case PeriodicityWeekly:
		next, ok = nextWeekly(s.Periodicity.WeekDays, after)
	case PeriodicityMonthly:
		next, ok = nextMonthly(s.Periodicity.MonthDays, after)
	default:
		return time.Time{}, false
	}

	if !ok {
		return time.Time{}, false
	}
	if s.EndDate != nil && next.After(calendar.Normalize(*s.EndDate)) {
		// schedule agotado
		return time.Time{}, false
	}
	return next, true
}

func nextWeekly(weekDays []int, after time.Time) (time.Time, bool) {
	if len(weekDays) == 0 {
		// set vacío = pausado, no es error
		return time.Time{}, false
	}
	wanted := map[int]bool{}
	for _, d := range weekDays {
		wanted[d] = true
	}
	for i := 1; i <= weeklyScanDays; i++ {
		cand := calendar.AddDays(after, i)
		if wanted[calendar.DayOfWeek(cand)] {
			return cand, true
		}
	}
	return time.Time{}, false
}

func nextMonthly(monthDays []int, after time.Time) (time.Time, bool) {
	if len(monthDays) == 0 {
		return time.Time{}, false
	}

	year, month := after.Year(), after.Month()
	for i := 0; i < monthlyScanMonths; i++ {
		var best time.Time
		for _, day := range monthDays {
			cand := calendar.ClampToMonthEnd(year, month, day)
			if !cand.After(after) {
				continue
			}
			if best.IsZero() || cand.Before(best) {
				best = cand
			}
		}
		if !best.IsZero() {
			return best, true
		}
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return time.Time{}, false
}
