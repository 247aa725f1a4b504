package booking

import (
	"context"
	"time"
)

// Repository persiste las requests. UpdateStatus es un compare-and-swap:
// solo aplica si el status actual es exactamente `from`; si no, devuelve
// InvalidTransitionError con el estado real. Ese guard es lo que
// serializa a dos admins decidiendo la misma request a la vez.
type Repository interface {
	Create(ctx context.Context, r Request) error
	GetByID(ctx context.Context, id string) (Request, error)
	ListByPet(ctx context.Context, petID string) ([]Request, error)
	ListByStatus(ctx context.Context, status Status) ([]Request, error)
	UpdateStatus(ctx context.Context, id string, from, to Status, notes string, decidedAt time.Time) (Request, error)
}
