package refund

import (
	"time"

	errors "github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/core/common/validation"
)

// CreateRefundRequest accepts both the flat body and the legacy
// {"refund": {...}} envelope.
type CreateRefundRequest struct {
	PaymentID string               `json:"payment_id"`
	Amount    *int64               `json:"amount"`
	Refund    *CreateRefundRequest `json:"refund,omitempty"`
}

func (r *CreateRefundRequest) Normalize() *CreateRefundRequest {
	if r.Refund != nil && r.Amount == nil && r.PaymentID == "" {
		return r.Refund.Normalize()
	}
	return r
}

func (r *CreateRefundRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("payment_id", r.PaymentID).Required().UUID()
	validator.Field("amount", r.Amount).Required().MinInt(1, errors.ErrCodeInvalidAmount)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type RefundResponse struct {
	ID        string    `json:"id"`
	PaymentID string    `json:"payment_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type SummaryResponse struct {
	PaymentID     string           `json:"payment_id"`
	Refunds       []RefundResponse `json:"refunds"`
	RefundedTotal int64            `json:"refunded_total"`
	Refundable    int64            `json:"refundable"`
}

func (s *Summary) ToResponse() SummaryResponse {
	refunds := make([]RefundResponse, 0, len(s.Refunds))
	for _, r := range s.Refunds {
		refunds = append(refunds, r.ToResponse())
	}
	return SummaryResponse{
		PaymentID:     s.PaymentID,
		Refunds:       refunds,
		RefundedTotal: s.RefundedTotal,
		Refundable:    s.Refundable,
	}
}

type DataResponse struct {
	Data interface{} `json:"data"`
}
