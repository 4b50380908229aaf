package refund

import (
	"context"
	stderrors "errors"
	"log/slog"

	errors "github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/core/common/validation"
	paymentDatamodel "github.com/frahmantamala/payment-ledger/internal/core/datamodel/payment"
	refundDatamodel "github.com/frahmantamala/payment-ledger/internal/core/datamodel/refund"
	"github.com/frahmantamala/payment-ledger/internal/core/events"
	"github.com/frahmantamala/payment-ledger/internal/payment"
	"github.com/frahmantamala/payment-ledger/pkg/logger"
)

// Errors returned by repositories when the guarded write is refused.
var (
	ErrNotFound        = stderrors.New("refund not found")
	ErrPaymentNotFound = stderrors.New("payment not found")
	ErrNotRefundable   = stderrors.New("payment not refundable")
	ErrExceedsBalance  = stderrors.New("refund exceeds refundable balance")
)

// RepositoryAPI is the refund ledger. Create must, in one atomic operation,
// add the amount to the payment's refunded total only while the total stays
// within the payment amount and insert the refund row. It returns the
// committed total.
type RepositoryAPI interface {
	Create(ctx context.Context, r *refundDatamodel.Refund) (int64, error)
	GetByID(ctx context.Context, id string) (*refundDatamodel.Refund, error)
	ListByPaymentID(ctx context.Context, paymentID string) ([]*refundDatamodel.Refund, error)
}

type PaymentReader interface {
	GetByID(ctx context.Context, id string) (*paymentDatamodel.Payment, error)
}

type Service struct {
	repo      RepositoryAPI
	payments  PaymentReader
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, payments PaymentReader, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		payments:  payments,
		publisher: publisher,
		logger:    logger,
	}
}

// RequestRefund commits a refund only if it fits in the remaining balance.
// A refused refund leaves no row behind.
func (s *Service) RequestRefund(ctx context.Context, paymentID string, amount int64) (*Refund, error) {
	if appErr := validation.ValidateID("payment_id", paymentID); appErr != nil {
		return nil, appErr
	}
	if amount <= 0 {
		return nil, errors.NewValidationFieldError("amount", "amount must be greater than 0", errors.ErrCodeInvalidAmount)
	}

	log := logger.FromOr(ctx, s.logger).With("payment_id", paymentID, "amount", amount)

	r := NewRefund(paymentID, amount)
	total, err := s.repo.Create(ctx, ToDataModel(r))
	if err != nil {
		switch {
		case stderrors.Is(err, ErrPaymentNotFound):
			return nil, errors.ErrPaymentNotFound
		case stderrors.Is(err, ErrNotRefundable):
			log.Info("refund rejected, payment not approved")
			return nil, errors.ErrPaymentNotRefundable
		case stderrors.Is(err, ErrExceedsBalance):
			log.Info("refund rejected, balance exceeded")
			return nil, errors.ErrRefundExceedsBalance
		default:
			log.Error("failed to record refund", "error", err)
			return nil, errors.NewStorageError("failed to record refund", err)
		}
	}

	log.Info("refund committed", "refund_id", r.ID, "refunded_total", total)
	if s.publisher != nil {
		event := events.NewRefundCreatedEvent(r.ID, r.PaymentID, r.Amount, total)
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Warn("failed to publish refund event", "error", err)
		}
	}
	return r, nil
}

func (s *Service) GetRefund(ctx context.Context, id string) (*Refund, error) {
	if appErr := validation.ValidateID("id", id); appErr != nil {
		return nil, appErr
	}

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, ErrNotFound) {
			return nil, errors.ErrRefundNotFound
		}
		return nil, errors.NewStorageError("failed to load refund", err)
	}
	return FromDataModel(r), nil
}

// ListRefunds reports committed refunds with the payment's running total.
// The total comes from the payment row, which is the guarded value.
func (s *Service) ListRefunds(ctx context.Context, paymentID string) (*Summary, error) {
	if appErr := validation.ValidateID("id", paymentID); appErr != nil {
		return nil, appErr
	}

	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if stderrors.Is(err, payment.ErrNotFound) {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.NewStorageError("failed to load payment", err)
	}

	rows, err := s.repo.ListByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, errors.NewStorageError("failed to list refunds", err)
	}

	refunds := make([]*Refund, 0, len(rows))
	for _, row := range rows {
		refunds = append(refunds, FromDataModel(row))
	}

	return &Summary{
		PaymentID:     p.ID,
		Refunds:       refunds,
		RefundedTotal: p.RefundedAmount,
		Refundable:    payment.FromDataModel(p).Refundable(),
	}, nil
}
