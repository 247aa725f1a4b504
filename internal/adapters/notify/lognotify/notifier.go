package lognotify

import (
	"context"
	"strings"

	"pet-daycare-portal/internal/platform/logger"
	"pet-daycare-portal/internal/ports/notify"
)

// Notifier escribe los avisos al log estructurado. Es el adapter por
// defecto mientras no haya un canal real (email/push); el contrato del
// port es fire-and-forget, así que acá nunca hay error que propagar.
type Notifier struct {
	log logger.Logger
}

func New(log logger.Logger) *Notifier {
	return &Notifier{log: log.With(map[string]any{"component": "notify"})}
}

func (n *Notifier) Notify(_ context.Context, e notify.Event) {
	fields := map[string]any{
		"kind":   string(e.Kind),
		"pet_id": e.PetID,
		"at":     e.At,
	}
	if e.BookingID != "" {
		fields["booking_id"] = e.BookingID
	}
	if len(e.Dates) > 0 {
		fields["dates"] = strings.Join(e.Dates, ",")
	}
	if e.Detail != "" {
		fields["detail"] = e.Detail
	}
	n.log.Info("notification", fields)
}
