package schedule

import "errors"

var (
	ErrInvalidPeriodicity = errors.New("invalid periodicity config")
	ErrInvalidProgression = errors.New("invalid progression config")
)

// PeriodicityKind define cómo se repite una ocurrencia.
// @Enum daily, weekly, monthly, custom
type PeriodicityKind string

const (
	PeriodicityDaily   PeriodicityKind = "daily"
	PeriodicityWeekly  PeriodicityKind = "weekly"
	PeriodicityMonthly PeriodicityKind = "monthly"
	PeriodicityCustom  PeriodicityKind = "custom"
)

// Periodicity es una unión discriminada por Kind: solo los campos que el
// kind requiere están poblados, el resto queda en cero y se ignora.
// Se construye únicamente vía los constructores New*Periodicity, así una
// config malformada nunca llega al motor de recurrencia.
type Periodicity struct {
	Kind PeriodicityKind

	IntervalDays int   // solo custom (> 0)
	WeekDays     []int // solo weekly (0..6; vacío = pausado, no es error)
	MonthDays    []int // solo monthly (1..31)
}

func NewDailyPeriodicity() Periodicity {
	return Periodicity{Kind: PeriodicityDaily}
}

func NewCustomPeriodicity(intervalDays int) (Periodicity, error) {
	if intervalDays <= 0 {
		return Periodicity{}, ErrInvalidPeriodicity
	}
	return Periodicity{Kind: PeriodicityCustom, IntervalDays: intervalDays}, nil
}

// NewWeeklyPeriodicity acepta un set vacío: es el estado "pausado"
// legítimo que simplemente no produce ocurrencias futuras.
func NewWeeklyPeriodicity(weekDays []int) (Periodicity, error) {
	seen := map[int]bool{}
	out := make([]int, 0, len(weekDays))
	for _, d := range weekDays {
		if d < 0 || d > 6 {
			return Periodicity{}, ErrInvalidPeriodicity
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return Periodicity{Kind: PeriodicityWeekly, WeekDays: out}, nil
}

func NewMonthlyPeriodicity(monthDays []int) (Periodicity, error) {
	if len(monthDays) == 0 {
		return Periodicity{}, ErrInvalidPeriodicity
	}
	seen := map[int]bool{}
	out := make([]int, 0, len(monthDays))
	for _, d := range monthDays {
		if d < 1 || d > 31 {
			return Periodicity{}, ErrInvalidPeriodicity
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return Periodicity{Kind: PeriodicityMonthly, MonthDays: out}, nil
}

// ProgressionMode define cómo cambia la dosis entre ocurrencias sucesivas.
// @Enum stable, increase, decrease
type ProgressionMode string

const (
	ProgressionStable   ProgressionMode = "stable"
	ProgressionIncrease ProgressionMode = "increase"
	ProgressionDecrease ProgressionMode = "decrease"
)

// RateKind distingue un ajuste absoluto de uno porcentual. El porcentaje
// se aplica siempre sobre la dosis base, no sobre la dosis corriente,
// para evitar drift compuesto a lo largo de muchas ocurrencias.
// @Enum absolute, percent
type RateKind string

const (
	RateAbsolute RateKind = "absolute"
	RatePercent  RateKind = "percent"
)

type Rate struct {
	Kind  RateKind
	Value float64
}

// Progression describe el ajuste progresivo de dosis.
// Con Mode == stable, Rate y TargetDose se ignoran por completo.
type Progression struct {
	Mode        ProgressionMode
	Rate        Rate
	EveryNDoses int      // paso en ocurrencias entre ajustes, >= 1
	TargetDose  *float64 // techo (increase) o piso (decrease); opcional
}

func NewStableProgression() Progression {
	return Progression{Mode: ProgressionStable, EveryNDoses: 1}
}

func NewProgression(mode ProgressionMode, rate Rate, everyNDoses int, targetDose *float64) (Progression, error) {
	if mode == ProgressionStable {
		return NewStableProgression(), nil
	}
	if mode != ProgressionIncrease && mode != ProgressionDecrease {
		return Progression{}, ErrInvalidProgression
	}
	if rate.Kind != RateAbsolute && rate.Kind != RatePercent {
		return Progression{}, ErrInvalidProgression
	}
	if rate.Value <= 0 {
		return Progression{}, ErrInvalidProgression
	}
	if everyNDoses < 1 {
		return Progression{}, ErrInvalidProgression
	}
	return Progression{
		Mode:        mode,
		Rate:        rate,
		EveryNDoses: everyNDoses,
		TargetDose:  targetDose,
	}, nil
}

// CareKind es el tipo de ítem de cuidado recurrente.
// @Enum medication, vaccine, preventive
type CareKind string

const (
	CareMedication CareKind = "medication"
	CareVaccine    CareKind = "vaccine"
	CarePreventive CareKind = "preventive"
)
