package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/payment-ledger/internal/card"
	paymentDatamodel "github.com/frahmantamala/payment-ledger/internal/core/datamodel/payment"
)

const (
	StatusProcessing = paymentDatamodel.StatusProcessing
	StatusApproved   = paymentDatamodel.StatusApproved
	StatusDeclined   = paymentDatamodel.StatusDeclined
	StatusFailed     = paymentDatamodel.StatusFailed
)

type Payment struct {
	ID             string    `json:"id"`
	CardNumber     string    `json:"-"`
	Amount         int64     `json:"amount"`
	RefundedAmount int64     `json:"refunded_amount"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// transitions lists every status change the orchestrator may write.
// approved -> declined|failed only happens when the withdrawal fails.
var transitions = map[string][]string{
	StatusProcessing: {StatusApproved, StatusDeclined, StatusFailed},
	StatusApproved:   {StatusDeclined, StatusFailed},
}

func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func NewPayment(cardNumber string, amount int64) *Payment {
	now := time.Now().UTC()
	return &Payment{
		ID:         uuid.New().String(),
		CardNumber: cardNumber,
		Amount:     amount,
		Status:     StatusProcessing,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Refundable is the balance still available for refunds.
func (p *Payment) Refundable() int64 {
	if p.Status != StatusApproved {
		return 0
	}
	return p.Amount - p.RefundedAmount
}

func (p *Payment) ToResponse() PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		CardNumber:     card.Mask(p.CardNumber),
		Amount:         p.Amount,
		RefundedAmount: p.RefundedAmount,
		Status:         p.Status,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func ToDataModel(p *Payment) *paymentDatamodel.Payment {
	return &paymentDatamodel.Payment{
		ID:             p.ID,
		CardNumber:     p.CardNumber,
		Amount:         p.Amount,
		RefundedAmount: p.RefundedAmount,
		Status:         p.Status,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func FromDataModel(p *paymentDatamodel.Payment) *Payment {
	return &Payment{
		ID:             p.ID,
		CardNumber:     p.CardNumber,
		Amount:         p.Amount,
		RefundedAmount: p.RefundedAmount,
		Status:         p.Status,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
