package schedule

import "context"

type Repository interface {
	Create(ctx context.Context, s TreatmentSchedule) error
	GetByID(ctx context.Context, id string) (TreatmentSchedule, error)
	ListByPet(ctx context.Context, petID string) ([]TreatmentSchedule, error)
	// Update persiste el schedule completo; Advance depende de que
	// contador, ancla y timestamps viajen en una sola escritura.
	Update(ctx context.Context, s TreatmentSchedule) error
}
