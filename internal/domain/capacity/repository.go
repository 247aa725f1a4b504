package capacity

import (
	"context"
	"time"
)

// Repository es el ledger transaccional de capacidad. Cada operación de
// batch es all-or-nothing: si una sola fecha del set falla, ninguna
// queda tocada. Las implementaciones serializan por fila de fecha
// (mutex en memoria, FOR UPDATE en Postgres) — nunca read-then-write
// sin guarda.
type Repository interface {
	// GetDays devuelve el estado de cada fecha pedida; las fechas sin
	// fila todavía vienen con el máximo configurado y contadores en cero.
	GetDays(ctx context.Context, dates []time.Time) ([]Day, error)

	// ReserveTentative suma 1 unidad tentativa por fecha validando
	// committed+tentative+1 <= max en cada una.
	ReserveTentative(ctx context.Context, dates []time.Time) error

	// ReleaseTentative libera 1 unidad tentativa por fecha.
	ReleaseTentative(ctx context.Context, dates []time.Time) error

	// Commit convierte 1 unidad tentativa en comprometida por fecha,
	// re-validando committed+1 <= max vigente (una baja de capacidad
	// posterior al hold se atrapa acá).
	Commit(ctx context.Context, dates []time.Time) error

	// ReleaseCommitted libera 1 unidad comprometida por fecha
	// (cancelación de una reserva aprobada).
	ReleaseCommitted(ctx context.Context, dates []time.Time) error

	// SetMaxCapacity fija el override de máximo para una fecha.
	SetMaxCapacity(ctx context.Context, date time.Time, max int) error
}
