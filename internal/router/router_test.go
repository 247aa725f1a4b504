package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pet-daycare-portal/internal/platform/config"
	"pet-daycare-portal/internal/router"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(router.NewRouter(router.Options{
		Config: config.Config{
			DefaultMaxCapacity:      2,
			LowWaterRatio:           0.5,
			CancelCutoffDays:        0,
			LateCancelRefundPercent: 50,
		},
		AuthVerifier: nil, // modo dev: claims via X-Debug-*
	}))
	t.Cleanup(ts.Close)
	return ts
}

func futureDate(daysAhead int) string {
	return time.Now().UTC().AddDate(0, 0, daysAhead).Format("2006-01-02")
}

func TestHTTP_EndToEnd_BookingLifecycle(t *testing.T) {
	ts := newTestServer(t)

	tutorID := "tutor-1"
	adminID := "admin-1"
	petID := "pet-1"
	d1, d2 := futureDate(7), futureDate(8)

	// 1) Sin créditos la reserva rebota con 402
	{
		st, _ := doReq(t, ts.URL, "POST", "/bookings", tutorID, "", map[string]any{
			"pet_id": petID,
			"dates":  []string{d1, d2},
		})
		if st != http.StatusPaymentRequired {
			t.Fatalf("expected 402 without credits, got %d", st)
		}
	}

	// 2) Admin acredita un paquete
	purchaseCredits(t, ts.URL, adminID, petID, 10)

	// 3) Tutor consulta disponibilidad
	{
		st, body := doReq(t, ts.URL, "GET", "/capacity/availability?from="+d1+"&to="+d2, tutorID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 availability, got %d body=%s", st, string(body))
		}
		var items []struct {
			Date   string `json:"date"`
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 2 || items[0].Status != "available" {
			t.Fatalf("unexpected availability: %s", string(body))
		}
	}

	// 4) Tutor crea la reserva (queda pending con hold tentativo)
	bookingID := createBooking(t, ts.URL, tutorID, petID, []string{d1, d2})

	// 5) El hold se refleja: con max 2 y 1 tentativa queda "limited"
	{
		st, body := doReq(t, ts.URL, "GET", "/capacity/availability?from="+d1+"&to="+d1, tutorID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 availability, got %d", st)
		}
		var items []struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].Status != "limited" {
			t.Fatalf("expected limited after hold, got %s", string(body))
		}
	}

	// 6) Otro tutor no puede ver la reserva ajena
	{
		st, _ := doReq(t, ts.URL, "GET", "/bookings/"+bookingID, "tutor-2", "", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 for foreign booking, got %d", st)
		}
	}

	// 7) Tutor común no puede aprobar
	{
		st, _ := doReq(t, ts.URL, "POST", "/bookings/"+bookingID+"/approve", tutorID, "", nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 approving as tutor, got %d", st)
		}
	}

	// 8) Admin ve la cola de pendientes
	{
		st, body := doReq(t, ts.URL, "GET", "/bookings", adminID, "admin", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 listing pending, got %d body=%s", st, string(body))
		}
		var items []struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].ID != bookingID {
			t.Fatalf("pending queue mismatch: %s", string(body))
		}
	}

	// 9) Admin aprueba: capacidad comprometida + créditos debitados
	{
		st, body := doReq(t, ts.URL, "POST", "/bookings/"+bookingID+"/approve", adminID, "admin",
			map[string]any{"notes": "welcome"})
		if st != http.StatusOK {
			t.Fatalf("expected 200 approve, got %d body=%s", st, string(body))
		}
		var resp struct {
			Status string `json:"status"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Status != "approved" {
			t.Fatalf("expected approved, got %s", string(body))
		}
	}
	if got := creditsBalance(t, ts.URL, tutorID, petID); got != 8 {
		t.Fatalf("expected balance 8 after approval, got %d", got)
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/capacity/days/"+d1, adminID, "admin", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 day view, got %d", st)
		}
		var day struct {
			CommittedUnits int `json:"committed_units"`
			TentativeUnits int `json:"tentative_units"`
		}
		_ = json.Unmarshal(body, &day)
		if day.CommittedUnits != 1 || day.TentativeUnits != 0 {
			t.Fatalf("hold not converted: %s", string(body))
		}
	}

	// 10) Aprobar dos veces => 409 (la transición ya se consumió)
	{
		st, _ := doReq(t, ts.URL, "POST", "/bookings/"+bookingID+"/approve", adminID, "admin", nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 on double approve, got %d", st)
		}
	}

	// 11) Tutor cancela la aprobada: refund completo (cutoff 0)
	{
		st, body := doReq(t, ts.URL, "POST", "/bookings/"+bookingID+"/cancel", tutorID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 cancel, got %d body=%s", st, string(body))
		}
	}
	if got := creditsBalance(t, ts.URL, tutorID, petID); got != 10 {
		t.Fatalf("expected full refund to 10, got %d", got)
	}

	// 12) El historial del ledger queda completo: compra, débito y refund
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID+"/credits", tutorID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 credits view, got %d", st)
		}
		var resp struct {
			Entries []struct {
				Delta  int    `json:"delta"`
				Reason string `json:"reason"`
			} `json:"entries"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.Entries) != 3 {
			t.Fatalf("expected 3 ledger entries, got %s", string(body))
		}
		if resp.Entries[1].Reason != "booking_approved" || resp.Entries[2].Reason != "booking_cancelled" {
			t.Fatalf("unexpected ledger reasons: %s", string(body))
		}
	}
}

func TestHTTP_CapacityExhausted_RejectsBooking(t *testing.T) {
	ts := newTestServer(t)

	adminID := "admin-1"
	d := futureDate(10)

	purchaseCredits(t, ts.URL, adminID, "pet-1", 5)
	purchaseCredits(t, ts.URL, adminID, "pet-2", 5)
	purchaseCredits(t, ts.URL, adminID, "pet-3", 5)

	// max 2 por defecto: dos reservas entran, la tercera rebota con 409
	createBooking(t, ts.URL, "tutor-1", "pet-1", []string{d})
	createBooking(t, ts.URL, "tutor-2", "pet-2", []string{d})

	st, body := doReq(t, ts.URL, "POST", "/bookings", "tutor-3", "", map[string]any{
		"pet_id": "pet-3",
		"dates":  []string{d},
	})
	if st != http.StatusConflict {
		t.Fatalf("expected 409 when day is full, got %d body=%s", st, string(body))
	}
}

func TestHTTP_AdminOverride_ClosesDay(t *testing.T) {
	ts := newTestServer(t)

	adminID := "admin-1"
	d := futureDate(10)

	// tutor no puede tocar el override
	{
		st, _ := doReq(t, ts.URL, "PUT", "/capacity/days/"+d, "tutor-1", "",
			map[string]any{"max_capacity": 0})
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 override as tutor, got %d", st)
		}
	}

	st, _ := doReq(t, ts.URL, "PUT", "/capacity/days/"+d, adminID, "admin",
		map[string]any{"max_capacity": 0})
	if st != http.StatusOK {
		t.Fatalf("expected 200 override, got %d", st)
	}

	purchaseCredits(t, ts.URL, adminID, "pet-1", 5)
	stC, body := doReq(t, ts.URL, "POST", "/bookings", "tutor-1", "", map[string]any{
		"pet_id": "pet-1",
		"dates":  []string{d},
	})
	if stC != http.StatusConflict {
		t.Fatalf("expected 409 on closed day, got %d body=%s", stC, string(body))
	}
}

func TestHTTP_ScheduleLifecycle(t *testing.T) {
	ts := newTestServer(t)
	tutorID := "tutor-1"

	// tratamiento de desparasitación cada 3 días con dosis decreciente
	var scheduleID string
	{
		st, body := doReq(t, ts.URL, "POST", "/schedules", tutorID, "", map[string]any{
			"pet_id":     "pet-1",
			"kind":       "medication",
			"name":       "dewormer taper",
			"start_date": "2025-03-01",
			"base_dose":  20,
			"dose_unit":  "mg",
			"periodicity": map[string]any{
				"kind":          "custom",
				"interval_days": 3,
			},
			"progression": map[string]any{
				"mode":          "decrease",
				"rate":          map[string]any{"kind": "percent", "value": 10},
				"every_n_doses": 2,
				"target_dose":   5,
			},
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 create schedule, got %d body=%s", st, string(body))
		}
		var resp struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.ID == "" {
			t.Fatalf("missing schedule id: %s", string(body))
		}
		scheduleID = resp.ID
	}

	// preview no muta; advance sí
	type occurrence struct {
		Date string  `json:"date"`
		Dose float64 `json:"dose"`
	}
	next := func() (int, occurrence) {
		st, body := doReq(t, ts.URL, "GET", "/schedules/"+scheduleID+"/next", tutorID, "", nil)
		var occ occurrence
		_ = json.Unmarshal(body, &occ)
		return st, occ
	}

	if st, occ := next(); st != http.StatusOK || occ.Date != "2025-03-01" || occ.Dose != 20 {
		t.Fatalf("unexpected first occurrence: %+v", occ)
	}
	// el preview repetido devuelve lo mismo
	if _, occ := next(); occ.Date != "2025-03-01" {
		t.Fatalf("peek mutated schedule: %+v", occ)
	}

	wantDoses := map[string]float64{
		"2025-03-01": 20,
		"2025-03-04": 20,
		"2025-03-07": 18,
		"2025-03-10": 18,
	}
	for i := 0; i < 4; i++ {
		st, body := doReq(t, ts.URL, "POST", "/schedules/"+scheduleID+"/advance", tutorID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("advance %d: got %d body=%s", i, st, string(body))
		}
		var occ occurrence
		_ = json.Unmarshal(body, &occ)
		want, ok := wantDoses[occ.Date]
		if !ok || occ.Dose != want {
			t.Fatalf("advance %d: unexpected occurrence %+v", i, occ)
		}
	}

	// desactivar corta los advance pero mantiene el registro consultable
	{
		st, _ := doReq(t, ts.URL, "POST", "/schedules/"+scheduleID+"/deactivate", tutorID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 deactivate, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "POST", "/schedules/"+scheduleID+"/advance", tutorID, "", nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 advancing inactive schedule, got %d", st)
		}
	}
	{
		st, _ := doReq(t, ts.URL, "GET", "/schedules/"+scheduleID, tutorID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 reading inactive schedule, got %d", st)
		}
	}
}

func TestHTTP_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	st, body := doReq(t, ts.URL, "GET", "/health", "", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("health: %d %s", st, string(body))
	}
	st, _ = doReq(t, ts.URL, "GET", "/metrics", "", "", nil)
	if st != http.StatusOK {
		t.Fatalf("metrics endpoint: %d", st)
	}
}

func purchaseCredits(t *testing.T, baseURL, adminID, petID string, amount int) {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/pets/"+petID+"/credits/purchase", adminID, "admin",
		map[string]any{"amount": amount})
	if st != http.StatusOK {
		t.Fatalf("expected 200 purchase, got %d body=%s", st, string(body))
	}
}

func creditsBalance(t *testing.T, baseURL, userID, petID string) int {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/pets/"+petID+"/credits", userID, "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 credits, got %d body=%s", st, string(body))
	}
	var resp struct {
		Balance int `json:"balance"`
	}
	_ = json.Unmarshal(body, &resp)
	return resp.Balance
}

func createBooking(t *testing.T, baseURL, tutorID, petID string, dates []string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/bookings", tutorID, "", map[string]any{
		"pet_id": petID,
		"dates":  dates,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create booking, got %d body=%s", st, string(body))
	}

	var resp struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("create booking: missing id body=%s", string(body))
	}
	return resp.ID
}

func doReq(t *testing.T, baseURL, method, path, debugUserID, debugRole string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}
	if debugRole != "" {
		req.Header.Set("X-Debug-Role", debugRole)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
