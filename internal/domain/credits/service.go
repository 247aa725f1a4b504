package credits

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-daycare-portal/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrLedgerMismatch es la alarma de integridad: balance != sum(entries).
	// No es un error de rutina; bloquea mutaciones de esa mascota hasta
	// reconciliar manualmente.
	ErrLedgerMismatch = errors.New("ledger mismatch")
)

type Service struct {
	repo Repository
	log  logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Debit descuenta créditos. Falla con ErrInsufficientBalance si el saldo
// no alcanza; no existe el débito parcial.
func (s *Service) Debit(ctx context.Context, petID string, amount int, reason, relatedBookingID string) error {
	if err := validateMove(petID, amount, reason); err != nil {
		return err
	}
	_, err := s.apply(ctx, Entry{
		ID:               uuid.NewString(),
		PetID:            strings.TrimSpace(petID),
		Delta:            -amount,
		Reason:           reason,
		RelatedBookingID: relatedBookingID,
		CreatedAt:        s.now(),
	})
	return err
}

// Credit acredita créditos (compra de paquete, refund). Siempre procede
// salvo input inválido o ledger bloqueado.
func (s *Service) Credit(ctx context.Context, petID string, amount int, reason, relatedBookingID string) error {
	if err := validateMove(petID, amount, reason); err != nil {
		return err
	}
	_, err := s.apply(ctx, Entry{
		ID:               uuid.NewString(),
		PetID:            strings.TrimSpace(petID),
		Delta:            amount,
		Reason:           reason,
		RelatedBookingID: relatedBookingID,
		CreatedAt:        s.now(),
	})
	return err
}

// BalanceOf devuelve el saldo derivado (siempre consistente con el log).
func (s *Service) BalanceOf(ctx context.Context, petID string) (int, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return 0, ErrInvalidInput
	}
	b, err := s.repo.BalanceOf(ctx, petID)
	if err != nil {
		return 0, err
	}
	return b.Balance, nil
}

func (s *Service) Entries(ctx context.Context, petID string) ([]Entry, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.Entries(ctx, petID)
}

func (s *Service) apply(ctx context.Context, e Entry) (Balance, error) {
	b, err := s.repo.Apply(ctx, e)
	if errors.Is(err, ErrLedgerMismatch) && s.log != nil {
		// alarma de integridad de datos, no un error de negocio
		s.log.Error("credit ledger mismatch, subject blocked", map[string]any{
			"pet_id": e.PetID,
			"reason": e.Reason,
		})
	}
	return b, err
}

func validateMove(petID string, amount int, reason string) error {
	if strings.TrimSpace(petID) == "" {
		return ErrInvalidInput
	}
	if amount <= 0 {
		return ErrInvalidInput
	}
	if strings.TrimSpace(reason) == "" {
		return ErrInvalidInput
	}
	return nil
}
