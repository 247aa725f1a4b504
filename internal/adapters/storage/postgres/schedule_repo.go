package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"pet-daycare-portal/internal/domain/schedule"
)

type ScheduleRepo struct {
	db *sql.DB
}

func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

// Las configs de periodicidad/progresión van como JSONB: son uniones
// discriminadas chicas y el motor nunca las consulta por campo en SQL.
type periodicityDoc struct {
	Kind         string `json:"kind"`
	IntervalDays int    `json:"interval_days,omitempty"`
	WeekDays     []int  `json:"week_days,omitempty"`
	MonthDays    []int  `json:"month_days,omitempty"`
}

type progressionDoc struct {
	Mode        string   `json:"mode"`
	RateKind    string   `json:"rate_kind,omitempty"`
	RateValue   float64  `json:"rate_value,omitempty"`
	EveryNDoses int      `json:"every_n_doses"`
	TargetDose  *float64 `json:"target_dose,omitempty"`
}

func (r *ScheduleRepo) Create(ctx context.Context, s schedule.TreatmentSchedule) error {
	per, prog, err := marshalConfigs(s)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO treatment_schedules (
			id, pet_id, kind, name,
			start_date, end_date,
			base_dose, dose_unit,
			periodicity, progression,
			occurrence_count, last_occurrence, active,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		s.ID,
		s.PetID,
		string(s.Kind),
		s.Name,
		s.StartDate,
		toNullTime(s.EndDate),
		s.BaseDose,
		s.DoseUnit,
		per,
		prog,
		s.OccurrenceCount,
		toNullTime(s.LastOccurrence),
		s.Active,
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *ScheduleRepo) GetByID(ctx context.Context, id string) (schedule.TreatmentSchedule, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return schedule.TreatmentSchedule{}, schedule.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, pet_id, kind, name,
		       start_date, end_date,
		       base_dose, dose_unit,
		       periodicity, progression,
		       occurrence_count, last_occurrence, active,
		       created_at, updated_at
		FROM treatment_schedules
		WHERE id = $1
	`, id)
	return scanSchedule(row)
}

func (r *ScheduleRepo) ListByPet(ctx context.Context, petID string) ([]schedule.TreatmentSchedule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, pet_id, kind, name,
		       start_date, end_date,
		       base_dose, dose_unit,
		       periodicity, progression,
		       occurrence_count, last_occurrence, active,
		       created_at, updated_at
		FROM treatment_schedules
		WHERE pet_id = $1
		ORDER BY created_at ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]schedule.TreatmentSchedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update persiste contador, ancla y timestamps en una sola escritura
// (Advance depende de eso).
func (r *ScheduleRepo) Update(ctx context.Context, s schedule.TreatmentSchedule) error {
	per, prog, err := marshalConfigs(s)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE treatment_schedules
		SET name = $2,
		    end_date = $3,
		    base_dose = $4,
		    dose_unit = $5,
		    periodicity = $6,
		    progression = $7,
		    occurrence_count = $8,
		    last_occurrence = $9,
		    active = $10,
		    updated_at = $11
		WHERE id = $1
	`,
		s.ID,
		s.Name,
		toNullTime(s.EndDate),
		s.BaseDose,
		s.DoseUnit,
		per,
		prog,
		s.OccurrenceCount,
		toNullTime(s.LastOccurrence),
		s.Active,
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

func marshalConfigs(s schedule.TreatmentSchedule) ([]byte, []byte, error) {
	per, err := json.Marshal(periodicityDoc{
		Kind:         string(s.Periodicity.Kind),
		IntervalDays: s.Periodicity.IntervalDays,
		WeekDays:     s.Periodicity.WeekDays,
		MonthDays:    s.Periodicity.MonthDays,
	})
	if err != nil {
		return nil, nil, err
	}
	prog, err := json.Marshal(progressionDoc{
		Mode:        string(s.Progression.Mode),
		RateKind:    string(s.Progression.Rate.Kind),
		RateValue:   s.Progression.Rate.Value,
		EveryNDoses: s.Progression.EveryNDoses,
		TargetDose:  s.Progression.TargetDose,
	})
	if err != nil {
		return nil, nil, err
	}
	return per, prog, nil
}

func scanSchedule(row rowScanner) (schedule.TreatmentSchedule, error) {
	var s schedule.TreatmentSchedule
	var kind string
	var end, last sql.NullTime
	var per, prog []byte

	if err := row.Scan(
		&s.ID,
		&s.PetID,
		&kind,
		&s.Name,
		&s.StartDate,
		&end,
		&s.BaseDose,
		&s.DoseUnit,
		&per,
		&prog,
		&s.OccurrenceCount,
		&last,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return schedule.TreatmentSchedule{}, schedule.ErrNotFound
		}
		return schedule.TreatmentSchedule{}, err
	}

	s.Kind = schedule.CareKind(kind)
	s.StartDate = s.StartDate.UTC()
	if end.Valid {
		t := end.Time.UTC()
		s.EndDate = &t
	}
	if last.Valid {
		t := last.Time.UTC()
		s.LastOccurrence = &t
	}

	var perDoc periodicityDoc
	if err := json.Unmarshal(per, &perDoc); err != nil {
		return schedule.TreatmentSchedule{}, err
	}
	s.Periodicity = schedule.Periodicity{
		Kind:         schedule.PeriodicityKind(perDoc.Kind),
		IntervalDays: perDoc.IntervalDays,
		WeekDays:     perDoc.WeekDays,
		MonthDays:    perDoc.MonthDays,
	}

	var progDoc progressionDoc
	if err := json.Unmarshal(prog, &progDoc); err != nil {
		return schedule.TreatmentSchedule{}, err
	}
	s.Progression = schedule.Progression{
		Mode:        schedule.ProgressionMode(progDoc.Mode),
		Rate:        schedule.Rate{Kind: schedule.RateKind(progDoc.RateKind), Value: progDoc.RateValue},
		EveryNDoses: progDoc.EveryNDoses,
		TargetDose:  progDoc.TargetDose,
	}

	return s, nil
}
