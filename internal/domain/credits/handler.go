package credits

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-daycare-portal/internal/middleware"
	"pet-daycare-portal/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets/{petID}/credits", func(cr chi.Router) {
		cr.Get("/", getCreditsHandler(svc))
		// Compra de paquete: el cobro real es del collaborator de pagos;
		// acá solo entra la acreditación ya pagada (admin).
		cr.Post("/purchase", purchaseCreditsHandler(svc))
	})
}

type entryResponse struct {
	ID               string    `json:"id"`
	Delta            int       `json:"delta"`
	Reason           string    `json:"reason"`
	RelatedBookingID string    `json:"related_booking_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

type creditsResponse struct {
	PetID   string          `json:"pet_id"`
	Balance int             `json:"balance"`
	Entries []entryResponse `json:"entries"`
}

type purchaseRequest struct {
	Amount int `json:"amount"`
}

func getCreditsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		balance, err := svc.BalanceOf(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		entries, err := svc.Entries(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := creditsResponse{
			PetID:   petID,
			Balance: balance,
			Entries: make([]entryResponse, 0, len(entries)),
		}
		for _, e := range entries {
			out.Entries = append(out.Entries, entryResponse{
				ID:               e.ID,
				Delta:            e.Delta,
				Reason:           e.Reason,
				RelatedBookingID: e.RelatedBookingID,
				CreatedAt:        e.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func purchaseCreditsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if claims.Role != auth.RoleAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req purchaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		petID := chi.URLParam(r, "petID")
		if err := svc.Credit(r.Context(), petID, req.Amount, ReasonPackagePurchased, ""); err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrLedgerMismatch):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		balance, err := svc.BalanceOf(r.Context(), petID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"pet_id":  petID,
			"balance": balance,
		})
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
