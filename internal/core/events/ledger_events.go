package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentApproved = "payment.approved"
	EventTypePaymentDeclined = "payment.declined"
	EventTypePaymentFailed   = "payment.failed"
	EventTypeRefundCreated   = "refund.created"
)

// PaymentSettledEvent is emitted once a payment reaches a terminal status.
type PaymentSettledEvent struct {
	BaseEvent
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

func NewPaymentSettledEvent(eventType, paymentID string, amount int64, status, reason string) *PaymentSettledEvent {
	data := map[string]interface{}{
		"payment_id": paymentID,
		"amount":     amount,
		"status":     status,
	}
	if reason != "" {
		data["reason"] = reason
	}

	return &PaymentSettledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now().UTC(),
			Data:      data,
		},
		PaymentID: paymentID,
		Amount:    amount,
		Status:    status,
		Reason:    reason,
	}
}

type RefundCreatedEvent struct {
	BaseEvent
	RefundID       string `json:"refund_id"`
	PaymentID      string `json:"payment_id"`
	Amount         int64  `json:"amount"`
	RefundedAmount int64  `json:"refunded_amount"`
}

func NewRefundCreatedEvent(refundID, paymentID string, amount, refundedAmount int64) *RefundCreatedEvent {
	return &RefundCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRefundCreated,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"refund_id":       refundID,
				"payment_id":      paymentID,
				"amount":          amount,
				"refunded_amount": refundedAmount,
			},
		},
		RefundID:       refundID,
		PaymentID:      paymentID,
		Amount:         amount,
		RefundedAmount: refundedAmount,
	}
}
