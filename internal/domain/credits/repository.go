package credits

import "context"

// Repository persiste el ledger de créditos. Apply es la única escritura:
// suma el delta al saldo e inserta la entry en la MISMA sección crítica /
// transacción, validando que el saldo no quede negativo y que
// balance == sum(entries) antes de aplicar. Una mascota con el ledger
// desconciliado queda bloqueada para mutar (ErrLedgerMismatch).
type Repository interface {
	Apply(ctx context.Context, e Entry) (Balance, error)
	BalanceOf(ctx context.Context, petID string) (Balance, error)
	Entries(ctx context.Context, petID string) ([]Entry, error)
}
