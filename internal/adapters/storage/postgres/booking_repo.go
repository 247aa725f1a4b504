package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"pet-daycare-portal/internal/domain/booking"
)

type BookingRepo struct {
	db *sql.DB
}

func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

func (r *BookingRepo) Create(ctx context.Context, req booking.Request) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO booking_requests (
				id, pet_id, tutor_user_id, status, admin_notes,
				created_at, updated_at, decided_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			req.ID,
			req.PetID,
			req.TutorUserID,
			string(req.Status),
			req.AdminNotes,
			req.CreatedAt,
			req.UpdatedAt,
			toNullTime(req.DecidedAt),
		); err != nil {
			return err
		}

		for _, d := range req.Dates {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO booking_request_dates (booking_id, date)
				VALUES ($1, $2)
			`, req.ID, d); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *BookingRepo) GetByID(ctx context.Context, id string) (booking.Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return booking.Request{}, booking.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, pet_id, tutor_user_id, status, admin_notes,
		       created_at, updated_at, decided_at
		FROM booking_requests
		WHERE id = $1
	`, id)

	req, err := scanBooking(row)
	if err != nil {
		return booking.Request{}, err
	}
	if err := r.loadDates(ctx, &req); err != nil {
		return booking.Request{}, err
	}
	return req, nil
}

func (r *BookingRepo) ListByPet(ctx context.Context, petID string) ([]booking.Request, error) {
	return r.list(ctx, `
		SELECT id, pet_id, tutor_user_id, status, admin_notes,
		       created_at, updated_at, decided_at
		FROM booking_requests
		WHERE pet_id = $1
		ORDER BY created_at ASC
	`, petID)
}

func (r *BookingRepo) ListByStatus(ctx context.Context, status booking.Status) ([]booking.Request, error) {
	return r.list(ctx, `
		SELECT id, pet_id, tutor_user_id, status, admin_notes,
		       created_at, updated_at, decided_at
		FROM booking_requests
		WHERE status = $1
		ORDER BY created_at ASC
	`, string(status))
}

// UpdateStatus es el compare-and-swap del workflow: el WHERE por status
// garantiza que de dos decisores concurrentes aplique exactamente uno.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id string, from, to booking.Status, notes string, decidedAt time.Time) (booking.Request, error) {
	var decided sql.NullTime
	if to != booking.StatusPending {
		decided = sql.NullTime{Time: decidedAt, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE booking_requests
		SET status = $3, admin_notes = $4, updated_at = $5, decided_at = $6
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to), notes, decidedAt, decided)
	if err != nil {
		return booking.Request{}, err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		// o no existe, o el status cambió abajo nuestro: reportamos el real
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return booking.Request{}, booking.ErrNotFound
		}
		return booking.Request{}, booking.InvalidTransitionError{From: current.Status, To: to}
	}

	return r.GetByID(ctx, id)
}

func (r *BookingRepo) list(ctx context.Context, query string, arg any) ([]booking.Request, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]booking.Request, 0)
	for rows.Next() {
		req, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := r.loadDates(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *BookingRepo) loadDates(ctx context.Context, req *booking.Request) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date
		FROM booking_request_dates
		WHERE booking_id = $1
		ORDER BY date ASC
	`, req.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return err
		}
		dates = append(dates, d.UTC())
	}
	req.Dates = dates
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (booking.Request, error) {
	var req booking.Request
	var status string
	var decided sql.NullTime

	if err := row.Scan(
		&req.ID,
		&req.PetID,
		&req.TutorUserID,
		&status,
		&req.AdminNotes,
		&req.CreatedAt,
		&req.UpdatedAt,
		&decided,
	); err != nil {
		if err == sql.ErrNoRows {
			return booking.Request{}, booking.ErrNotFound
		}
		return booking.Request{}, err
	}

	req.Status = booking.Status(status)
	if decided.Valid {
		t := decided.Time
		req.DecidedAt = &t
	}
	return req, nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
