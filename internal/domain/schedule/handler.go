package schedule

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-daycare-portal/internal/domain/calendar"
	"pet-daycare-portal/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/schedules", func(sr chi.Router) {
		sr.Post("/", createScheduleHandler(svc))
		sr.Get("/{scheduleID}", getScheduleHandler(svc))
		sr.Get("/{scheduleID}/next", peekScheduleHandler(svc))
		sr.Post("/{scheduleID}/advance", advanceScheduleHandler(svc))
		sr.Post("/{scheduleID}/deactivate", deactivateScheduleHandler(svc))
	})

	r.Get("/pets/{petID}/schedules", listPetSchedulesHandler(svc))
}

type periodicityPayload struct {
	Kind         string `json:"kind"`
	IntervalDays int    `json:"interval_days,omitempty"`
	WeekDays     []int  `json:"week_days,omitempty"`
	MonthDays    []int  `json:"month_days,omitempty"`
}

type ratePayload struct {
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

type progressionPayload struct {
	Mode        string       `json:"mode"`
	Rate        *ratePayload `json:"rate,omitempty"`
	EveryNDoses int          `json:"every_n_doses,omitempty"`
	TargetDose  *float64     `json:"target_dose,omitempty"`
}

type createScheduleRequest struct {
	PetID       string              `json:"pet_id"`
	Kind        string              `json:"kind"`
	Name        string              `json:"name"`
	StartDate   string              `json:"start_date"` // YYYY-MM-DD
	EndDate     string              `json:"end_date"`   // YYYY-MM-DD opcional
	BaseDose    float64             `json:"base_dose"`
	DoseUnit    string              `json:"dose_unit"`
	Periodicity periodicityPayload  `json:"periodicity"`
	Progression *progressionPayload `json:"progression"` // nil = stable
}

type scheduleResponse struct {
	ID              string             `json:"id"`
	PetID           string             `json:"pet_id"`
	Kind            string             `json:"kind"`
	Name            string             `json:"name"`
	StartDate       string             `json:"start_date"`
	EndDate         *string            `json:"end_date,omitempty"`
	BaseDose        float64            `json:"base_dose"`
	DoseUnit        string             `json:"dose_unit"`
	Periodicity     periodicityPayload `json:"periodicity"`
	Progression     progressionPayload `json:"progression"`
	OccurrenceCount int                `json:"occurrence_count"`
	LastOccurrence  *string            `json:"last_occurrence,omitempty"`
	Active          bool               `json:"active"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type occurrenceResponse struct {
	Date string  `json:"date"`
	Dose float64 `json:"dose"`
	Unit string  `json:"unit,omitempty"`
}

func createScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		start, err := calendar.ParseDate(req.StartDate)
		if err != nil {
			http.Error(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		var end *time.Time
		if strings.TrimSpace(req.EndDate) != "" {
			e, err := calendar.ParseDate(req.EndDate)
			if err != nil {
				http.Error(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			end = &e
		}

		per, err := parsePeriodicity(req.Periodicity)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		prog, err := parseProgression(req.Progression)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		sched, err := svc.Create(r.Context(), req.PetID, CreateInput{
			Kind:        CareKind(req.Kind),
			Name:        req.Name,
			StartDate:   start,
			EndDate:     end,
			BaseDose:    req.BaseDose,
			DoseUnit:    req.DoseUnit,
			Periodicity: per,
			Progression: prog,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusCreated, toScheduleResponse(sched))
	}
}

func getScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sched, err := svc.GetByID(r.Context(), chi.URLParam(r, "scheduleID"))
		if err != nil {
			writeScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toScheduleResponse(sched))
	}
}

func peekScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		occ, err := svc.Peek(r.Context(), chi.URLParam(r, "scheduleID"))
		if err != nil {
			writeScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOccurrenceResponse(occ))
	}
}

func advanceScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		occ, err := svc.Advance(r.Context(), chi.URLParam(r, "scheduleID"))
		if err != nil {
			writeScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOccurrenceResponse(occ))
	}
}

func deactivateScheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		sched, err := svc.Deactivate(r.Context(), chi.URLParam(r, "scheduleID"))
		if err != nil {
			writeScheduleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toScheduleResponse(sched))
	}
}

func listPetSchedulesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByPet(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]scheduleResponse, 0, len(items))
		for _, sched := range items {
			out = append(out, toScheduleResponse(sched))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func parsePeriodicity(p periodicityPayload) (Periodicity, error) {
	switch PeriodicityKind(p.Kind) {
	case PeriodicityDaily:
		return NewDailyPeriodicity(), nil
	case PeriodicityCustom:
		return NewCustomPeriodicity(p.IntervalDays)
	case PeriodicityWeekly:
		return NewWeeklyPeriodicity(p.WeekDays)
	case PeriodicityMonthly:
		return NewMonthlyPeriodicity(p.MonthDays)
	default:
		return Periodicity{}, ErrInvalidPeriodicity
	}
}

func parseProgression(p *progressionPayload) (Progression, error) {
	if p == nil || ProgressionMode(p.Mode) == ProgressionStable || p.Mode == "" {
		return NewStableProgression(), nil
	}
	if p.Rate == nil {
		return Progression{}, ErrInvalidProgression
	}
	return NewProgression(
		ProgressionMode(p.Mode),
		Rate{Kind: RateKind(p.Rate.Kind), Value: p.Rate.Value},
		p.EveryNDoses,
		p.TargetDose,
	)
}

func writeScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrExhausted):
		// no es un fallo: el schedule simplemente no produce más fechas
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInactive):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "schedule not found", http.StatusNotFound)
	default:
		// fallas de storage u otras no clasificadas: nunca disfrazarlas
		// de 404
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toScheduleResponse(s TreatmentSchedule) scheduleResponse {
	resp := scheduleResponse{
		ID:        s.ID,
		PetID:     s.PetID,
		Kind:      string(s.Kind),
		Name:      s.Name,
		StartDate: calendar.FormatDate(s.StartDate),
		BaseDose:  s.BaseDose,
		DoseUnit:  s.DoseUnit,
		Periodicity: periodicityPayload{
			Kind:         string(s.Periodicity.Kind),
			IntervalDays: s.Periodicity.IntervalDays,
			WeekDays:     s.Periodicity.WeekDays,
			MonthDays:    s.Periodicity.MonthDays,
		},
		Progression: progressionPayload{
			Mode:        string(s.Progression.Mode),
			EveryNDoses: s.Progression.EveryNDoses,
			TargetDose:  s.Progression.TargetDose,
		},
		OccurrenceCount: s.OccurrenceCount,
		Active:          s.Active,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.Progression.Mode != ProgressionStable {
		resp.Progression.Rate = &ratePayload{
			Kind:  string(s.Progression.Rate.Kind),
			Value: s.Progression.Rate.Value,
		}
	}
	if s.EndDate != nil {
		e := calendar.FormatDate(*s.EndDate)
		resp.EndDate = &e
	}
	if s.LastOccurrence != nil {
		l := calendar.FormatDate(*s.LastOccurrence)
		resp.LastOccurrence = &l
	}
	return resp
}

func toOccurrenceResponse(o Occurrence) occurrenceResponse {
	return occurrenceResponse{
		Date: calendar.FormatDate(o.Date),
		Dose: o.Dose,
		Unit: o.Unit,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
