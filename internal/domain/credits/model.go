package credits

import "time"

// Reasons estándar de movimientos. Los servicios que orquestan (booking)
// usan estos valores; el ledger los trata como texto opaco.
const (
	ReasonBookingApproved  = "booking_approved"
	ReasonBookingCancelled = "booking_cancelled"
	ReasonBookingRejected  = "booking_rejected"
	ReasonPackagePurchased = "package_purchased"
	ReasonAdjustment       = "adjustment"
)

// Entry es una fila append-only del ledger. Nunca se edita ni se borra:
// las correcciones se hacen con un movimiento inverso.
type Entry struct {
	ID    string
	PetID string

	Delta  int // positivo = credit, negativo = debit
	Reason string

	RelatedBookingID string

	CreatedAt time.Time
}

// Balance es el saldo derivado de una mascota. El invariante duro:
// Balance == suma de todas sus entries, y nunca negativo.
type Balance struct {
	PetID     string
	Balance   int
	UpdatedAt time.Time
}
