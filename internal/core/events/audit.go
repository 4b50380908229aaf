package events

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/payment-ledger/internal"
)

// RegisterAuditLog subscribes a structured-log writer to every ledger event.
// The API client that caused the event is taken from the publishing context.
func RegisterAuditLog(bus *EventBus, logger *slog.Logger) {
	audit := func(ctx context.Context, event Event) error {
		logger.Info("ledger event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"occurred_at", event.OccurredAt(),
			"payload", event.Payload(),
			"client_id", internal.ClientIDFromContext(ctx))
		return nil
	}

	for _, t := range []string{
		EventTypePaymentApproved,
		EventTypePaymentDeclined,
		EventTypePaymentFailed,
		EventTypeRefundCreated,
	} {
		bus.Subscribe(t, audit)
	}
}
