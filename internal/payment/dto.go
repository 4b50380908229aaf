package payment

import (
	"time"

	errors "github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/core/common/validation"
)

// CreatePaymentRequest accepts both the flat body and the legacy
// {"payment": {...}} envelope.
type CreatePaymentRequest struct {
	Amount     *int64                `json:"amount"`
	CardNumber string                `json:"card_number"`
	Payment    *CreatePaymentRequest `json:"payment,omitempty"`
}

// Normalize unwraps the legacy envelope.
func (r *CreatePaymentRequest) Normalize() *CreatePaymentRequest {
	if r.Payment != nil && r.Amount == nil && r.CardNumber == "" {
		return r.Payment.Normalize()
	}
	return r
}

// Validate only checks presence. Amount sign and card format are the
// orchestrator's decisions because each maps to its own error.
func (r *CreatePaymentRequest) Validate() error {
	validator := validation.NewValidator()

	validator.Field("amount", r.Amount).Required()
	validator.Field("card_number", r.CardNumber).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type PaymentResponse struct {
	ID             string    `json:"id"`
	CardNumber     string    `json:"card_number"`
	Amount         int64     `json:"amount"`
	RefundedAmount int64     `json:"refunded_amount"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type DataResponse struct {
	Data interface{} `json:"data"`
}

var errInvalidBody = errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed)
