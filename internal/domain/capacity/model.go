package capacity

import "time"

// Day es el estado de capacidad de una fecha de calendario.
//
// Invariante de reserva: CommittedUnits + TentativeUnits <= MaxCapacity
// después de cada mutación de reserva. Violarlo rechaza la operación,
// nunca se recorta en silencio. Una baja administrativa de MaxCapacity
// puede dejar holds varados; esa condición la atrapa la re-validación
// de Commit.
type Day struct {
	Date           time.Time
	MaxCapacity    int
	CommittedUnits int // suma de reservas aprobadas
	TentativeUnits int // suma de requests pendientes, aún no aprobadas
}

// Remaining es la capacidad todavía no tomada por nadie.
func (d Day) Remaining() int {
	r := d.MaxCapacity - d.CommittedUnits - d.TentativeUnits
	if r < 0 {
		return 0
	}
	return r
}

// Status clasifica la disponibilidad de una fecha.
// @Enum available, limited, full
type Status string

const (
	StatusAvailable Status = "available"
	StatusLimited   Status = "limited"
	StatusFull      Status = "full"
)
