package capacity

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pet-daycare-portal/internal/domain/calendar"
	"pet-daycare-portal/internal/middleware"
	"pet-daycare-portal/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/capacity", func(cr chi.Router) {
		cr.Get("/availability", availabilityHandler(svc))

		// Solo admin: estado crudo y override de máximo por fecha
		cr.Get("/days/{date}", getDayHandler(svc))
		cr.Put("/days/{date}", setMaxCapacityHandler(svc))
	})
}

type availabilityItem struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

type dayResponse struct {
	Date           string `json:"date"`
	MaxCapacity    int    `json:"max_capacity"`
	CommittedUnits int    `json:"committed_units"`
	TentativeUnits int    `json:"tentative_units"`
	Remaining      int    `json:"remaining"`
}

type setMaxCapacityRequest struct {
	MaxCapacity int `json:"max_capacity"`
}

// availabilityHandler responde el rango [from, to] inclusive.
func availabilityHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetClaims(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		from, err := calendar.ParseDate(r.URL.Query().Get("from"))
		if err != nil {
			http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		to, err := calendar.ParseDate(r.URL.Query().Get("to"))
		if err != nil {
			http.Error(w, "to must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		if to.Before(from) || calendar.DaysBetween(from, to) > 92 {
			http.Error(w, "invalid range", http.StatusBadRequest)
			return
		}

		dates := make([]time.Time, 0, calendar.DaysBetween(from, to)+1)
		for d := from; !d.After(to); d = calendar.AddDays(d, 1) {
			dates = append(dates, d)
		}

		statuses, err := svc.CheckAvailability(r.Context(), dates)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]availabilityItem, 0, len(dates))
		for _, d := range dates {
			out = append(out, availabilityItem{
				Date:   calendar.FormatDate(d),
				Status: string(statuses[d]),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getDayHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireAdmin(w, r) {
			return
		}

		date, err := calendar.ParseDate(chi.URLParam(r, "date"))
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		days, err := svc.Days(r.Context(), []time.Time{date})
		if err != nil || len(days) != 1 {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toDayResponse(days[0]))
	}
}

func setMaxCapacityHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireAdmin(w, r) {
			return
		}

		date, err := calendar.ParseDate(chi.URLParam(r, "date"))
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		var req setMaxCapacityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if err := svc.SetMaxCapacity(r.Context(), date, req.MaxCapacity); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		days, err := svc.Days(r.Context(), []time.Time{date})
		if err != nil || len(days) != 1 {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toDayResponse(days[0]))
	}
}

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok || strings.TrimSpace(claims.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return false
	}
	if claims.Role != auth.RoleAdmin {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

func toDayResponse(d Day) dayResponse {
	return dayResponse{
		Date:           calendar.FormatDate(d.Date),
		MaxCapacity:    d.MaxCapacity,
		CommittedUnits: d.CommittedUnits,
		TentativeUnits: d.TentativeUnits,
		Remaining:      d.Remaining(),
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
