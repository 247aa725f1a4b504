package schedule

import "time"

// TreatmentSchedule es la instancia de un ítem de cuidado recurrente de
// una mascota (medicación, serie de vacunas, preventivo).
//
// OccurrenceCount es un contador monótono de dosis ya agendadas; solo
// muta a través de Service.Advance. La desactivación es soft: el
// historial queda consultable.
type TreatmentSchedule struct {
	ID    string
	PetID string

	Kind CareKind
	Name string

	StartDate time.Time
	EndDate   *time.Time // nil = abierto

	BaseDose float64
	DoseUnit string // "mg", "ml", etc. Texto opaco para el motor.

	Periodicity Periodicity
	Progression Progression

	OccurrenceCount int
	LastOccurrence  *time.Time // ancla de la próxima ocurrencia

	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Occurrence es el resultado de avanzar un schedule: la fecha y la dosis
// de la próxima toma, ya comprometidas en el contador.
type Occurrence struct {
	Date time.Time
	Dose float64
	Unit string
}
