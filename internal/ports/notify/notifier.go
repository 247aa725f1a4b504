package notify

import (
	"context"
	"time"
)

// Kind identifica el tipo de evento notificable.
type Kind string

const (
	KindBookingApproved  Kind = "booking_approved"
	KindBookingRejected  Kind = "booking_rejected"
	KindBookingCancelled Kind = "booking_cancelled"
	KindLowCredit        Kind = "low_credit"
)

// Event describe una transición ya commiteada. El core lo emite
// fire-and-forget DESPUÉS de la mutación; la entrega (push, email) es
// problema del collaborator externo.
type Event struct {
	Kind Kind

	PetID     string
	BookingID string
	Dates     []string // YYYY-MM-DD

	Detail string

	At time.Time
}

// Notifier es el port de notificaciones. Las implementaciones no deben
// bloquear ni devolver error al flujo principal.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}
