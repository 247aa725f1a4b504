package schedule

// DoseAt computa la dosis de la ocurrencia número occurrenceCount
// (0-based) según la progresión del schedule.
//
// El rate porcentual se aplica multiplicativamente sobre la dosis BASE
// (no sobre la dosis corriente): base ± steps*(base*rate/100). El rate
// absoluto se suma/resta por paso. Con TargetDose definido el resultado
// se clava en el target y más pasos no tienen efecto (sin overshoot ni
// oscilación).
func DoseAt(s TreatmentSchedule, occurrenceCount int) float64 {
	p := s.Progression
	if p.Mode == ProgressionStable {
		return s.BaseDose
	}
	if occurrenceCount < 0 {
		occurrenceCount = 0
	}

	every := p.EveryNDoses
	if every < 1 {
		every = 1
	}
	steps := occurrenceCount / every

	var perStep float64
	switch p.Rate.Kind {
	case RatePercent:
		perStep = s.BaseDose * p.Rate.Value / 100
	default:
		perStep = p.Rate.Value
	}

	dose := s.BaseDose
	switch p.Mode {
	case ProgressionIncrease:
		dose += float64(steps) * perStep
		if p.TargetDose != nil && dose > *p.TargetDose {
			dose = *p.TargetDose
		}
	case ProgressionDecrease:
		dose -= float64(steps) * perStep
		if p.TargetDose != nil && dose < *p.TargetDose {
			dose = *p.TargetDose
		}
	}
	return dose
}
