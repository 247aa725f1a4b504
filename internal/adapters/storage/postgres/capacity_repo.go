package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pet-daycare-portal/internal/domain/capacity"
)

type CapacityRepo struct {
	db         *sql.DB
	defaultMax int
}

func NewCapacityRepo(db *sql.DB, defaultMax int) *CapacityRepo {
	return &CapacityRepo{db: db, defaultMax: defaultMax}
}

func (r *CapacityRepo) GetDays(ctx context.Context, dates []time.Time) ([]capacity.Day, error) {
	out := make([]capacity.Day, 0, len(dates))
	for _, date := range dates {
		row := r.db.QueryRowContext(ctx, `
			SELECT date, max_capacity, committed_units, tentative_units
			FROM capacity_days
			WHERE date = $1
		`, date)

		var d capacity.Day
		err := row.Scan(&d.Date, &d.MaxCapacity, &d.CommittedUnits, &d.TentativeUnits)
		if err == sql.ErrNoRows {
			// fecha sin fila: día virgen con el máximo por defecto
			out = append(out, capacity.Day{Date: date, MaxCapacity: r.defaultMax})
			continue
		}
		if err != nil {
			return nil, err
		}
		d.Date = d.Date.UTC()
		out = append(out, d)
	}
	return out, nil
}

// ReserveTentative toma el hold del batch completo en una transacción:
// materializa las filas que falten, las lockea en orden (las fechas ya
// vienen ordenadas, eso evita deadlocks entre batches solapados),
// valida TODAS y recién entonces escribe. Una sola fecha llena aborta
// todo sin holds parciales.
func (r *CapacityRepo) ReserveTentative(ctx context.Context, dates []time.Time) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		days, err := r.lockDays(ctx, tx, dates)
		if err != nil {
			return err
		}
		for _, d := range days {
			if d.CommittedUnits+d.TentativeUnits+1 > d.MaxCapacity {
				return capacity.ExceedsCapacityError{Date: d.Date}
			}
		}
		for _, d := range days {
			if _, err := tx.ExecContext(ctx, `
				UPDATE capacity_days
				SET tentative_units = tentative_units + 1
				WHERE date = $1
			`, d.Date); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CapacityRepo) ReleaseTentative(ctx context.Context, dates []time.Time) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		days, err := r.lockDays(ctx, tx, dates)
		if err != nil {
			return err
		}
		for _, d := range days {
			if d.TentativeUnits < 1 {
				return errors.New("no tentative hold to release")
			}
		}
		for _, d := range days {
			if _, err := tx.ExecContext(ctx, `
				UPDATE capacity_days
				SET tentative_units = tentative_units - 1
				WHERE date = $1
			`, d.Date); err != nil {
				return err
			}
		}
		return nil
	})
}

// Commit re-valida contra el máximo vigente: un override bajado después
// del hold se rechaza acá, no se sobre-compromete el día.
func (r *CapacityRepo) Commit(ctx context.Context, dates []time.Time) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		days, err := r.lockDays(ctx, tx, dates)
		if err != nil {
			return err
		}
		for _, d := range days {
			if d.TentativeUnits < 1 {
				return errors.New("no tentative hold to commit")
			}
			if d.CommittedUnits+1 > d.MaxCapacity {
				return capacity.ExceedsCapacityError{Date: d.Date}
			}
		}
		for _, d := range days {
			if _, err := tx.ExecContext(ctx, `
				UPDATE capacity_days
				SET tentative_units = tentative_units - 1,
				    committed_units = committed_units + 1
				WHERE date = $1
			`, d.Date); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CapacityRepo) ReleaseCommitted(ctx context.Context, dates []time.Time) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		days, err := r.lockDays(ctx, tx, dates)
		if err != nil {
			return err
		}
		for _, d := range days {
			if d.CommittedUnits < 1 {
				return errors.New("no committed units to release")
			}
		}
		for _, d := range days {
			if _, err := tx.ExecContext(ctx, `
				UPDATE capacity_days
				SET committed_units = committed_units - 1
				WHERE date = $1
			`, d.Date); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CapacityRepo) SetMaxCapacity(ctx context.Context, date time.Time, max int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO capacity_days (date, max_capacity, committed_units, tentative_units)
		VALUES ($1, $2, 0, 0)
		ON CONFLICT (date) DO UPDATE SET max_capacity = EXCLUDED.max_capacity
	`, date, max)
	return err
}

// lockDays materializa y lockea (FOR UPDATE) las filas del batch, en el
// orden en que vienen las fechas.
func (r *CapacityRepo) lockDays(ctx context.Context, tx *sql.Tx, dates []time.Time) ([]capacity.Day, error) {
	out := make([]capacity.Day, 0, len(dates))
	for _, date := range dates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO capacity_days (date, max_capacity, committed_units, tentative_units)
			VALUES ($1, $2, 0, 0)
			ON CONFLICT (date) DO NOTHING
		`, date, r.defaultMax); err != nil {
			return nil, err
		}

		row := tx.QueryRowContext(ctx, `
			SELECT date, max_capacity, committed_units, tentative_units
			FROM capacity_days
			WHERE date = $1
			FOR UPDATE
		`, date)

		var d capacity.Day
		if err := row.Scan(&d.Date, &d.MaxCapacity, &d.CommittedUnits, &d.TentativeUnits); err != nil {
			return nil, err
		}
		d.Date = d.Date.UTC()
		out = append(out, d)
	}
	return out, nil
}
