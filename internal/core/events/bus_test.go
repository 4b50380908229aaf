package events_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/core/events"
	"github.com/frahmantamala/payment-ledger/pkg/logger"
)

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(logger.Discard())
	})

	It("should deliver to every subscriber and drain", func() {
		var calls atomic.Int32
		handler := func(ctx context.Context, event events.Event) error {
			calls.Add(1)
			return nil
		}
		bus.Subscribe(events.EventTypePaymentApproved, handler)
		bus.Subscribe(events.EventTypePaymentApproved, handler)
		bus.Subscribe(events.EventTypePaymentFailed, handler)

		event := events.NewPaymentSettledEvent(events.EventTypePaymentApproved, "p-1", 100, "approved", "")
		Expect(bus.Publish(context.Background(), event)).To(Succeed())
		Expect(bus.Drain(context.Background())).To(Succeed())

		Expect(calls.Load()).To(Equal(int32(2)))
	})

	It("should run handlers after the publishing request is cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		var handlerErr atomic.Value
		bus.Subscribe(events.EventTypeRefundCreated, func(hctx context.Context, event events.Event) error {
			cancel()
			handlerErr.Store(hctx.Err() == nil)
			return nil
		})

		Expect(bus.Publish(ctx, events.NewRefundCreatedEvent("r-1", "p-1", 10, 10))).To(Succeed())
		Expect(bus.Drain(context.Background())).To(Succeed())

		Expect(handlerErr.Load()).To(Equal(true))
	})

	It("should stop waiting when the drain context expires", func() {
		release := make(chan struct{})
		DeferCleanup(func() { close(release) })
		bus.Subscribe(events.EventTypePaymentDeclined, func(ctx context.Context, event events.Event) error {
			<-release
			return nil
		})

		Expect(bus.Publish(context.Background(), events.NewPaymentSettledEvent(events.EventTypePaymentDeclined, "p-1", 100, "declined", "declined"))).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		Expect(bus.Drain(ctx)).To(MatchError(context.DeadlineExceeded))
	})

	It("should return the first handler error from PublishSync", func() {
		bus.Subscribe(events.EventTypePaymentFailed, func(ctx context.Context, event events.Event) error {
			return errors.New("sink down")
		})

		err := bus.PublishSync(context.Background(), events.NewPaymentSettledEvent(events.EventTypePaymentFailed, "p-1", 100, "failed", "unknown"))
		Expect(err).To(MatchError(ContainSubstring("sink down")))
	})

	It("should ignore events nobody subscribed to", func() {
		Expect(bus.PublishSync(context.Background(), events.NewRefundCreatedEvent("r-1", "p-1", 10, 10))).To(Succeed())
	})
})

var _ = Describe("RegisterAuditLog", func() {
	It("should log every ledger event type", func() {
		var out bytes.Buffer
		bus := events.NewEventBus(logger.Discard())
		events.RegisterAuditLog(bus, slog.New(slog.NewJSONHandler(&out, nil)))

		Expect(bus.PublishSync(context.Background(), events.NewPaymentSettledEvent(events.EventTypePaymentApproved, "p-1", 100, "approved", ""))).To(Succeed())
		Expect(bus.PublishSync(context.Background(), events.NewRefundCreatedEvent("r-1", "p-1", 40, 40))).To(Succeed())

		Expect(out.String()).To(ContainSubstring(`"event_type":"payment.approved"`))
		Expect(out.String()).To(ContainSubstring(`"event_type":"refund.created"`))
	})

	It("should record the API client that caused the event", func() {
		var out bytes.Buffer
		bus := events.NewEventBus(logger.Discard())
		events.RegisterAuditLog(bus, slog.New(slog.NewJSONHandler(&out, nil)))
		ctx := internal.ContextWithClientID(context.Background(), "merchant-7")

		Expect(bus.Publish(ctx, events.NewRefundCreatedEvent("r-1", "p-1", 40, 40))).To(Succeed())
		Expect(bus.Drain(context.Background())).To(Succeed())

		Expect(out.String()).To(ContainSubstring(`"client_id":"merchant-7"`))
	})
})
