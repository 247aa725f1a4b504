package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pet-daycare-portal/internal/domain/calendar"
	"pet-daycare-portal/internal/domain/capacity"
	"pet-daycare-portal/internal/domain/credits"
	"pet-daycare-portal/internal/observability/metrics"
	"pet-daycare-portal/internal/ports/notify"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("booking not found")

	// ErrInvalidTransition es el sentinel para errors.Is; el error real
	// lleva el par (from, to) rechazado.
	ErrInvalidTransition = errors.New("invalid transition")
)

// InvalidTransitionError indica un intento de transición fuera de la
// tabla del workflow: bug de cliente o carrera atrapada, nunca corrupción.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

func (e InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// CapacityLedger es lo que el workflow necesita del ledger de capacidad.
// Lo satisface *capacity.Service.
type CapacityLedger interface {
	ReserveTentative(ctx context.Context, dates []time.Time) error
	ReleaseTentative(ctx context.Context, dates []time.Time) error
	Commit(ctx context.Context, dates []time.Time) error
	Release(ctx context.Context, dates []time.Time) error
}

// CreditLedger es lo que el workflow necesita del ledger de créditos.
// Lo satisface *credits.Service.
type CreditLedger interface {
	BalanceOf(ctx context.Context, petID string) (int, error)
	Debit(ctx context.Context, petID string, amount int, reason, relatedBookingID string) error
	Credit(ctx context.Context, petID string, amount int, reason, relatedBookingID string) error
}

// CancellationPolicy es configuración del admin, no política hardcodeada:
// cancelar una reserva aprobada dentro del cutoff refunda solo el
// porcentaje configurado (floor). Cutoff 0 = refund completo siempre.
type CancellationPolicy struct {
	CutoffDays        int
	LateRefundPercent int // 0..100
}

// Options agrupa collaborators opcionales del workflow.
type Options struct {
	Notifier           notify.Notifier
	Metrics            *metrics.BookingMetrics
	Policy             CancellationPolicy
	LowCreditThreshold int // notifica low_credit cuando el saldo queda <=
}

// Service es la máquina de estados del workflow de reservas. Es el ÚNICO
// camino para cambiar el status de una request; coordina los dos ledgers
// con commit-then-debit y compensación, nunca aplica a medias.
type Service struct {
	repo     Repository
	capacity CapacityLedger
	credits  CreditLedger
	opts     Options
	now      func() time.Time
}

func NewService(repo Repository, capLedger CapacityLedger, credLedger CreditLedger, opts Options) *Service {
	return &Service{
		repo:     repo,
		capacity: capLedger,
		credits:  credLedger,
		opts:     opts,
		now:      time.Now,
	}
}

// Create valida el pedido, chequea saldo como pre-flight NO mutante
// (puede correr con otra reserva; el débito real recién ocurre en la
// aprobación), toma el hold tentativo all-or-nothing y persiste pending.
func (s *Service) Create(ctx context.Context, tutorUserID, petID string, dates []time.Time) (Request, error) {
	tutorUserID = strings.TrimSpace(tutorUserID)
	petID = strings.TrimSpace(petID)
	if tutorUserID == "" || petID == "" {
		return Request{}, ErrInvalidInput
	}

	normalized, err := s.normalizeRequestedDates(dates)
	if err != nil {
		return Request{}, err
	}

	balance, err := s.credits.BalanceOf(ctx, petID)
	if err != nil {
		return Request{}, err
	}
	if balance < len(normalized) {
		s.opts.Metrics.ObserveRequest("insufficient_credits")
		return Request{}, fmt.Errorf("pre-flight: %w", credits.ErrInsufficientBalance)
	}

	if err := s.capacity.ReserveTentative(ctx, normalized); err != nil {
		if errors.Is(err, capacity.ErrExceedsCapacity) {
			s.opts.Metrics.ObserveRequest("capacity_rejected")
			s.opts.Metrics.ObserveCapacityRejection()
		}
		return Request{}, err
	}

	now := s.now()
	req := Request{
		ID:          uuid.NewString(),
		PetID:       petID,
		TutorUserID: tutorUserID,
		Dates:       normalized,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		// sin request persistida no puede quedar hold colgado
		_ = s.capacity.ReleaseTentative(ctx, normalized)
		return Request{}, err
	}

	s.opts.Metrics.ObserveRequest("created")
	return req, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Request{}, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]Request, error) {
	return s.repo.ListByPet(ctx, petID)
}

func (s *Service) ListByStatus(ctx context.Context, status Status) ([]Request, error) {
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
	default:
		return nil, ErrInvalidInput
	}
	return s.repo.ListByStatus(ctx, status)
}

// Approve es la acción de admin. La request sigue pending mientras los
// ledgers se asientan: (1) commit de capacidad, (2) débito de créditos,
// (3) CAS pending→approved como ÚLTIMO paso. Ningún lector concurrente
// (un Cancel del tutor incluido) puede observar un approved a medio
// asentar; si el CAS final pierde contra otro decisor, se compensan los
// dos ledgers antes de devolver el conflicto.
func (s *Service) Approve(ctx context.Context, id, adminNotes string) (Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Request{}, ErrInvalidInput
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !canTransition(current.Status, StatusApproved) {
		s.opts.Metrics.ObserveDecision("approve", "conflict")
		return Request{}, InvalidTransitionError{From: current.Status, To: StatusApproved}
	}

	if err := s.capacity.Commit(ctx, current.Dates); err != nil {
		if errors.Is(err, capacity.ErrExceedsCapacity) {
			// la capacidad ya no alcanza (ej: override bajado después
			// del hold): se libera el hold y la request queda rechazada
			// con nota, no pendiente para siempre
			_ = s.capacity.ReleaseTentative(ctx, current.Dates)
			rejected, uerr := s.repo.UpdateStatus(ctx, id, StatusPending, StatusRejected,
				"auto-rejected: "+err.Error(), s.now())
			if uerr == nil {
				s.notifyTransition(ctx, notify.KindBookingRejected, rejected, err.Error())
			}
			s.opts.Metrics.ObserveDecision("approve", "capacity_rejected")
			s.opts.Metrics.ObserveCapacityRejection()
			return Request{}, err
		}
		s.opts.Metrics.ObserveDecision("approve", "error")
		return Request{}, err
	}

	if err := s.credits.Debit(ctx, current.PetID, current.Units(), credits.ReasonBookingApproved, current.ID); err != nil {
		// rollback: capacidad descomprometida y hold tentativo
		// restaurado; el status nunca salió de pending
		_ = s.capacity.Release(ctx, current.Dates)
		_ = s.capacity.ReserveTentative(ctx, current.Dates)
		s.opts.Metrics.ObserveDecision("approve", "debit_failed")
		return Request{}, err
	}

	req, err := s.repo.UpdateStatus(ctx, id, StatusPending, StatusApproved, strings.TrimSpace(adminNotes), s.now())
	if err != nil {
		// otro decisor ganó la request mientras los ledgers se
		// asentaban: se devuelven commit y débito. El hold tentativo
		// solo se restaura si la request sigue pending; una request ya
		// terminal no debe retener capacidad.
		_ = s.capacity.Release(ctx, current.Dates)
		if latest, gerr := s.repo.GetByID(ctx, id); gerr == nil && latest.Status == StatusPending {
			_ = s.capacity.ReserveTentative(ctx, current.Dates)
		}
		_ = s.credits.Credit(ctx, current.PetID, current.Units(), credits.ReasonAdjustment, current.ID)
		s.opts.Metrics.ObserveDecision("approve", "conflict")
		return Request{}, err
	}

	s.opts.Metrics.ObserveDecision("approve", "ok")
	s.opts.Metrics.ObserveCredits("debit", req.Units())
	s.notifyTransition(ctx, notify.KindBookingApproved, req, adminNotes)
	s.checkLowCredit(ctx, req.PetID)
	return req, nil
}

// Reject es la acción de admin sobre una request pendiente: libera el
// hold, no mueve créditos (nunca se debitó nada).
func (s *Service) Reject(ctx context.Context, id, adminNotes string) (Request, error) {
	req, err := s.claim(ctx, id, StatusRejected, adminNotes)
	if err != nil {
		s.opts.Metrics.ObserveDecision("reject", "conflict")
		return Request{}, err
	}

	if err := s.capacity.ReleaseTentative(ctx, req.Dates); err != nil {
		_, _ = s.repo.UpdateStatus(ctx, id, StatusRejected, StatusPending, req.AdminNotes, s.now())
		s.opts.Metrics.ObserveDecision("reject", "error")
		return Request{}, err
	}

	s.opts.Metrics.ObserveDecision("reject", "ok")
	s.notifyTransition(ctx, notify.KindBookingRejected, req, adminNotes)
	return req, nil
}

// Cancel cubre los dos caminos: pending→cancelled (igual que reject,
// iniciado por el tutor) y approved→cancelled (libera capacidad
// comprometida + refund automático según la política configurada).
func (s *Service) Cancel(ctx context.Context, id, callerUserID string, isAdmin bool) (Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Request{}, ErrInvalidInput
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !isAdmin && current.TutorUserID != strings.TrimSpace(callerUserID) {
		return Request{}, ErrForbidden
	}
	if !canTransition(current.Status, StatusCancelled) {
		return Request{}, InvalidTransitionError{From: current.Status, To: StatusCancelled}
	}

	from := current.Status
	req, err := s.repo.UpdateStatus(ctx, id, from, StatusCancelled, current.AdminNotes, s.now())
	if err != nil {
		s.opts.Metrics.ObserveDecision("cancel", "conflict")
		return Request{}, err
	}

	switch from {
	case StatusPending:
		if err := s.capacity.ReleaseTentative(ctx, req.Dates); err != nil {
			_, _ = s.repo.UpdateStatus(ctx, id, StatusCancelled, from, current.AdminNotes, s.now())
			s.opts.Metrics.ObserveDecision("cancel", "error")
			return Request{}, err
		}
	case StatusApproved:
		if err := s.capacity.Release(ctx, req.Dates); err != nil {
			_, _ = s.repo.UpdateStatus(ctx, id, StatusCancelled, from, current.AdminNotes, s.now())
			s.opts.Metrics.ObserveDecision("cancel", "error")
			return Request{}, err
		}
		// refund obligatorio y automático, nunca un paso manual
		if refund := s.refundFor(req); refund > 0 {
			if err := s.credits.Credit(ctx, req.PetID, refund, credits.ReasonBookingCancelled, req.ID); err != nil {
				s.opts.Metrics.ObserveDecision("cancel", "refund_failed")
				return Request{}, err
			}
			s.opts.Metrics.ObserveCredits("credit", refund)
		}
	}

	s.opts.Metrics.ObserveDecision("cancel", "ok")
	s.notifyTransition(ctx, notify.KindBookingCancelled, req, "")
	return req, nil
}

// claim hace el CAS pending→to: valida la tabla de transiciones y deja
// fuera a cualquier otro decisor concurrente.
func (s *Service) claim(ctx context.Context, id string, to Status, notes string) (Request, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Request{}, ErrInvalidInput
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !canTransition(current.Status, to) {
		return Request{}, InvalidTransitionError{From: current.Status, To: to}
	}

	return s.repo.UpdateStatus(ctx, id, StatusPending, to, strings.TrimSpace(notes), s.now())
}

func (s *Service) refundFor(req Request) int {
	units := req.Units()
	p := s.opts.Policy
	if p.CutoffDays <= 0 || len(req.Dates) == 0 {
		return units
	}

	earliest := req.Dates[0] // Dates está ordenado
	today := calendar.Normalize(s.now())
	if calendar.DaysBetween(today, earliest) >= p.CutoffDays {
		return units
	}
	return units * p.LateRefundPercent / 100
}

func (s *Service) normalizeRequestedDates(dates []time.Time) ([]time.Time, error) {
	if len(dates) == 0 {
		return nil, ErrInvalidInput
	}
	today := calendar.Normalize(s.now())

	seen := map[time.Time]bool{}
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		n := calendar.Normalize(d)
		if n.Before(today) {
			return nil, ErrInvalidInput
		}
		if seen[n] {
			return nil, ErrInvalidInput // duplicados en el pedido
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

func (s *Service) notifyTransition(ctx context.Context, kind notify.Kind, req Request, detail string) {
	if s.opts.Notifier == nil {
		return
	}
	dates := make([]string, 0, len(req.Dates))
	for _, d := range req.Dates {
		dates = append(dates, calendar.FormatDate(d))
	}
	s.opts.Notifier.Notify(ctx, notify.Event{
		Kind:      kind,
		PetID:     req.PetID,
		BookingID: req.ID,
		Dates:     dates,
		Detail:    detail,
		At:        s.now(),
	})
}

func (s *Service) checkLowCredit(ctx context.Context, petID string) {
	if s.opts.Notifier == nil || s.opts.LowCreditThreshold <= 0 {
		return
	}
	balance, err := s.credits.BalanceOf(ctx, petID)
	if err != nil || balance > s.opts.LowCreditThreshold {
		return
	}
	s.opts.Notifier.Notify(ctx, notify.Event{
		Kind:   notify.KindLowCredit,
		PetID:  petID,
		Detail: fmt.Sprintf("balance %d at or below threshold %d", balance, s.opts.LowCreditThreshold),
		At:     s.now(),
	})
}
