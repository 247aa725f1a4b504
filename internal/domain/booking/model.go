package booking

import "time"

// Status es el estado del workflow de una reserva.
// @Enum pending, approved, rejected, cancelled
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// canTransition es la ÚNICA tabla de transiciones válidas. Cambiar el
// status por fuera de Service es un bug de cliente; el guard optimista
// del repo atrapa además las carreras entre dos decisores.
func canTransition(from, to Status) bool {
	switch {
	case from == StatusPending && to == StatusApproved:
		return true
	case from == StatusPending && to == StatusRejected:
		return true
	case from == StatusPending && to == StatusCancelled:
		return true
	case from == StatusApproved && to == StatusCancelled:
		return true
	default:
		return false
	}
}

// Request es el pedido de reserva de un tutor. Dates queda normalizado
// (único, ordenado). Los estados approved/rejected/cancelled son
// terminales: de ahí no se sale, salvo approved→cancelled que es una
// operación explícita con refund, no una edición de status.
type Request struct {
	ID          string
	PetID       string
	TutorUserID string

	Dates []time.Time

	Status     Status
	AdminNotes string

	CreatedAt time.Time
	UpdatedAt time.Time
	DecidedAt *time.Time
}

// Units es la cantidad de unidades de reserva (y de créditos) que
// representa la request: una por fecha.
func (r Request) Units() int { return len(r.Dates) }
