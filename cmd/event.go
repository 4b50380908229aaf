package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/payment-ledger/internal/core/events"
	"github.com/frahmantamala/payment-ledger/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Ledger event commands",
	Long:  `Inspect the ledger event bus: publish sample events through the audit subscriber`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample ledger event",
	Long:      `Publish a sample ledger event synchronously through the audit log subscriber`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{events.EventTypePaymentApproved, events.EventTypePaymentDeclined, events.EventTypePaymentFailed, events.EventTypeRefundCreated},
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishSampleEvent(cmd.Context(), args[0])
	},
}

var (
	eventPaymentID string
	eventAmount    int64
)

func sampleEvent(eventType string) (events.Event, error) {
	paymentID := eventPaymentID
	if paymentID == "" {
		paymentID = uuid.NewString()
	}

	switch eventType {
	case events.EventTypePaymentApproved:
		return events.NewPaymentSettledEvent(eventType, paymentID, eventAmount, "approved", ""), nil
	case events.EventTypePaymentDeclined:
		return events.NewPaymentSettledEvent(eventType, paymentID, eventAmount, "declined", "declined"), nil
	case events.EventTypePaymentFailed:
		return events.NewPaymentSettledEvent(eventType, paymentID, eventAmount, "failed", "service_unavailable"), nil
	case events.EventTypeRefundCreated:
		return events.NewRefundCreatedEvent(uuid.NewString(), paymentID, eventAmount, eventAmount), nil
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}
}

func publishSampleEvent(ctx context.Context, eventType string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := logger.LoggerWrapper()

	event, err := sampleEvent(eventType)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg.With("component", "audit"))

	lg.Info("publishing sample event", "event_type", eventType, "event_id", event.EventID())
	return bus.PublishSync(ctx, event)
}

func init() {
	publishEventCmd.Flags().StringVar(&eventPaymentID, "payment-id", "", "payment id carried by the event")
	publishEventCmd.Flags().Int64Var(&eventAmount, "amount", 1000, "amount in minor units")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
