package postgres

import (
	"context"
	"database/sql"

	"pet-daycare-portal/internal/domain/credits"
)

type CreditsRepo struct {
	db *sql.DB
}

func NewCreditsRepo(db *sql.DB) *CreditsRepo {
	return &CreditsRepo{db: db}
}

// Apply muta saldo + entry en una sola transacción con la fila de saldo
// lockeada (FOR UPDATE). Antes de aplicar valida la reconciliación
// balance == sum(entries): un mismatch bloquea la mutación de esa
// mascota (alarma de integridad, no error de rutina).
func (r *CreditsRepo) Apply(ctx context.Context, e credits.Entry) (credits.Balance, error) {
	var out credits.Balance

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO credit_balances (pet_id, balance, updated_at)
			VALUES ($1, 0, $2)
			ON CONFLICT (pet_id) DO NOTHING
		`, e.PetID, e.CreatedAt); err != nil {
			return err
		}

		var b credits.Balance
		row := tx.QueryRowContext(ctx, `
			SELECT pet_id, balance, updated_at
			FROM credit_balances
			WHERE pet_id = $1
			FOR UPDATE
		`, e.PetID)
		if err := row.Scan(&b.PetID, &b.Balance, &b.UpdatedAt); err != nil {
			return err
		}

		var sum int
		if err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(delta), 0)
			FROM credit_entries
			WHERE pet_id = $1
		`, e.PetID).Scan(&sum); err != nil {
			return err
		}
		if sum != b.Balance {
			return credits.ErrLedgerMismatch
		}

		if b.Balance+e.Delta < 0 {
			return credits.ErrInsufficientBalance
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE credit_balances
			SET balance = balance + $2, updated_at = $3
			WHERE pet_id = $1
		`, e.PetID, e.Delta, e.CreatedAt); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO credit_entries (id, pet_id, delta, reason, related_booking_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, e.ID, e.PetID, e.Delta, e.Reason, nullString(e.RelatedBookingID), e.CreatedAt); err != nil {
			return err
		}

		b.Balance += e.Delta
		b.UpdatedAt = e.CreatedAt
		out = b
		return nil
	})
	if err != nil {
		return credits.Balance{}, err
	}
	return out, nil
}

func (r *CreditsRepo) BalanceOf(ctx context.Context, petID string) (credits.Balance, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT pet_id, balance, updated_at
		FROM credit_balances
		WHERE pet_id = $1
	`, petID)

	var b credits.Balance
	if err := row.Scan(&b.PetID, &b.Balance, &b.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return credits.Balance{PetID: petID}, nil
		}
		return credits.Balance{}, err
	}
	return b, nil
}

func (r *CreditsRepo) Entries(ctx context.Context, petID string) ([]credits.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pet_id, delta, reason, related_booking_id, created_at
		FROM credit_entries
		WHERE pet_id = $1
		ORDER BY created_at ASC, id ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]credits.Entry, 0)
	for rows.Next() {
		var e credits.Entry
		var related sql.NullString
		if err := rows.Scan(&e.ID, &e.PetID, &e.Delta, &e.Reason, &related, &e.CreatedAt); err != nil {
			return nil, err
		}
		if related.Valid {
			e.RelatedBookingID = related.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
