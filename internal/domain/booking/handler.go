package booking

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-daycare-portal/internal/domain/calendar"
	"pet-daycare-portal/internal/domain/capacity"
	"pet-daycare-portal/internal/domain/credits"
	"pet-daycare-portal/internal/middleware"
	"pet-daycare-portal/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/bookings", func(br chi.Router) {
		br.Post("/", createBookingHandler(svc))
		br.Get("/", listBookingsHandler(svc)) // admin, filtra por ?status=

		br.Get("/{bookingID}", getBookingHandler(svc))
		br.Post("/{bookingID}/approve", decideBookingHandler(svc, StatusApproved))
		br.Post("/{bookingID}/reject", decideBookingHandler(svc, StatusRejected))
		br.Post("/{bookingID}/cancel", cancelBookingHandler(svc))
	})

	r.Get("/pets/{petID}/bookings", listPetBookingsHandler(svc))
}

type createBookingRequest struct {
	PetID string   `json:"pet_id"`
	Dates []string `json:"dates"` // YYYY-MM-DD, sin duplicados, >= hoy
}

type decideBookingRequest struct {
	Notes string `json:"notes"`
}

type bookingResponse struct {
	ID          string     `json:"id"`
	PetID       string     `json:"pet_id"`
	TutorUserID string     `json:"tutor_user_id"`
	Dates       []string   `json:"dates"`
	Status      string     `json:"status"`
	AdminNotes  string     `json:"admin_notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

func createBookingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		dates := make([]time.Time, 0, len(req.Dates))
		for _, s := range req.Dates {
			d, err := calendar.ParseDate(s)
			if err != nil {
				http.Error(w, "dates must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			dates = append(dates, d)
		}

		created, err := svc.Create(r.Context(), claims.UserID, req.PetID, dates)
		if err != nil {
			writeBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toBookingResponse(created))
	}
}

func getBookingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		req, err := svc.GetByID(r.Context(), chi.URLParam(r, "bookingID"))
		if err != nil {
			writeBookingError(w, err)
			return
		}
		// el tutor solo ve lo suyo; admin ve todo
		if claims.Role != auth.RoleAdmin && req.TutorUserID != claims.UserID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(req))
	}
}

func listBookingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || claims.Role != auth.RoleAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		status := Status(r.URL.Query().Get("status"))
		if status == "" {
			status = StatusPending
		}

		items, err := svc.ListByStatus(r.Context(), status)
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, "invalid status filter", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponses(items))
	}
}

func listPetBookingsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByPet(r.Context(), chi.URLParam(r, "petID"))
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if claims.Role != auth.RoleAdmin {
			filtered := items[:0]
			for _, it := range items {
				if it.TutorUserID == claims.UserID {
					filtered = append(filtered, it)
				}
			}
			items = filtered
		}
		writeJSON(w, http.StatusOK, toBookingResponses(items))
	}
}

func decideBookingHandler(svc *Service, decision Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || claims.Role != auth.RoleAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req decideBookingRequest
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req) // body opcional
		}

		id := chi.URLParam(r, "bookingID")
		var (
			decided Request
			err     error
		)
		if decision == StatusApproved {
			decided, err = svc.Approve(r.Context(), id, req.Notes)
		} else {
			decided, err = svc.Reject(r.Context(), id, req.Notes)
		}
		if err != nil {
			writeBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(decided))
	}
}

func cancelBookingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		cancelled, err := svc.Cancel(r.Context(), chi.URLParam(r, "bookingID"),
			claims.UserID, claims.Role == auth.RoleAdmin)
		if err != nil {
			writeBookingError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookingResponse(cancelled))
	}
}

// writeBookingError mapea la taxonomía de errores del core a HTTP,
// manteniendo capacidad y créditos distinguibles para la UI.
func writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, capacity.ErrExceedsCapacity):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, credits.ErrInsufficientBalance):
		// distinto de capacidad: la UI manda al tutor a comprar créditos
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, credits.ErrLedgerMismatch):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "booking not found", http.StatusNotFound)
	default:
		// fallas de storage u otras no clasificadas: nunca disfrazarlas
		// de 404
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toBookingResponse(r Request) bookingResponse {
	dates := make([]string, 0, len(r.Dates))
	for _, d := range r.Dates {
		dates = append(dates, calendar.FormatDate(d))
	}
	return bookingResponse{
		ID:          r.ID,
		PetID:       r.PetID,
		TutorUserID: r.TutorUserID,
		Dates:       dates,
		Status:      string(r.Status),
		AdminNotes:  r.AdminNotes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		DecidedAt:   r.DecidedAt,
	}
}

func toBookingResponses(items []Request) []bookingResponse {
	out := make([]bookingResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toBookingResponse(it))
	}
	return out
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
