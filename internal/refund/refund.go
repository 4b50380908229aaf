package refund

import (
	"time"

	"github.com/google/uuid"

	refundDatamodel "github.com/frahmantamala/payment-ledger/internal/core/datamodel/refund"
)

// Refund is immutable once committed.
type Refund struct {
	ID        string    `json:"id"`
	PaymentID string    `json:"payment_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func NewRefund(paymentID string, amount int64) *Refund {
	return &Refund{
		ID:        uuid.New().String(),
		PaymentID: paymentID,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
}

func (r *Refund) ToResponse() RefundResponse {
	return RefundResponse{
		ID:        r.ID,
		PaymentID: r.PaymentID,
		Amount:    r.Amount,
		CreatedAt: r.CreatedAt,
	}
}

func ToDataModel(r *Refund) *refundDatamodel.Refund {
	return &refundDatamodel.Refund{
		ID:        r.ID,
		PaymentID: r.PaymentID,
		Amount:    r.Amount,
		CreatedAt: r.CreatedAt,
	}
}

func FromDataModel(r *refundDatamodel.Refund) *Refund {
	return &Refund{
		ID:        r.ID,
		PaymentID: r.PaymentID,
		Amount:    r.Amount,
		CreatedAt: r.CreatedAt,
	}
}

// Summary is the refund history of one payment.
type Summary struct {
	PaymentID     string
	Refunds       []*Refund
	RefundedTotal int64
	Refundable    int64
}
