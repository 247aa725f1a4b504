package memory

import (
	"context"
	"sync"

	"pet-daycare-portal/internal/domain/credits"
)

type creditsRepo struct {
	mu       sync.Mutex
	balances map[string]credits.Balance
	entries  map[string][]credits.Entry
}

func NewCreditsRepo() credits.Repository {
	return &creditsRepo{
		balances: make(map[string]credits.Balance),
		entries:  make(map[string][]credits.Entry),
	}
}

// Apply suma el delta e inserta la entry bajo el mismo lock, validando
// primero la reconciliación (balance == sum(entries)) y después el piso
// de cero. Un ledger desconciliado bloquea toda mutación de esa mascota.
func (r *creditsRepo) Apply(ctx context.Context, e credits.Entry) (credits.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.balances[e.PetID]
	b.PetID = e.PetID

	sum := 0
	for _, prev := range r.entries[e.PetID] {
		sum += prev.Delta
	}
	if sum != b.Balance {
		return credits.Balance{}, credits.ErrLedgerMismatch
	}

	if b.Balance+e.Delta < 0 {
		return credits.Balance{}, credits.ErrInsufficientBalance
	}

	b.Balance += e.Delta
	b.UpdatedAt = e.CreatedAt
	r.balances[e.PetID] = b
	r.entries[e.PetID] = append(r.entries[e.PetID], e)
	return b, nil
}

func (r *creditsRepo) BalanceOf(ctx context.Context, petID string) (credits.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.balances[petID]
	if !ok {
		return credits.Balance{PetID: petID}, nil
	}
	return b, nil
}

func (r *creditsRepo) Entries(ctx context.Context, petID string) ([]credits.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// orden de inserción = orden cronológico (append-only)
	src := r.entries[petID]
	out := make([]credits.Entry, len(src))
	copy(out, src)
	return out, nil
}
