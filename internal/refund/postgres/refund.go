package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	paymentDatamodel "github.com/frahmantamala/payment-ledger/internal/core/datamodel/payment"
	refundDatamodel "github.com/frahmantamala/payment-ledger/internal/core/datamodel/refund"
	refundpkg "github.com/frahmantamala/payment-ledger/internal/refund"
)

type RefundRepository struct {
	db *gorm.DB
}

var _ refundpkg.RepositoryAPI = (*RefundRepository)(nil)

func NewRefundRepository(db *gorm.DB) *RefundRepository {
	return &RefundRepository{
		db: db,
	}
}

// Create bumps payments.refunded_amount with a guarded UPDATE and inserts the
// refund in the same transaction. The row lock taken by the UPDATE makes a
// concurrent refund re-check the guard against the committed total. The
// guard subtracts from amount so a huge refund cannot overflow bigint.
func (r *RefundRepository) Create(ctx context.Context, refund *refundDatamodel.Refund) (int64, error) {
	var total int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&paymentDatamodel.Payment{}).
			Where("id = ? AND status = ? AND refunded_amount <= amount - ?",
				refund.PaymentID, paymentDatamodel.StatusApproved, refund.Amount).
			Updates(map[string]interface{}{
				"refunded_amount": gorm.Expr("refunded_amount + ?", refund.Amount),
				"updated_at":      time.Now().UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("bump refunded amount: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return rejection(tx, refund.PaymentID)
		}

		if err := tx.Create(refund).Error; err != nil {
			return fmt.Errorf("insert refund: %w", err)
		}

		return tx.Model(&paymentDatamodel.Payment{}).
			Select("refunded_amount").
			Where("id = ?", refund.PaymentID).
			Scan(&total).Error
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// rejection explains why the guarded UPDATE matched nothing.
func rejection(tx *gorm.DB, paymentID string) error {
	var p paymentDatamodel.Payment
	err := tx.Select("id", "status").Where("id = ?", paymentID).First(&p).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return refundpkg.ErrPaymentNotFound
	case err != nil:
		return fmt.Errorf("select payment: %w", err)
	case p.Status != paymentDatamodel.StatusApproved:
		return refundpkg.ErrNotRefundable
	default:
		return refundpkg.ErrExceedsBalance
	}
}

func (r *RefundRepository) GetByID(ctx context.Context, id string) (*refundDatamodel.Refund, error) {
	var refund refundDatamodel.Refund
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&refund).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, refundpkg.ErrNotFound
		}
		return nil, fmt.Errorf("select refund: %w", err)
	}
	return &refund, nil
}

func (r *RefundRepository) ListByPaymentID(ctx context.Context, paymentID string) ([]*refundDatamodel.Refund, error) {
	var refunds []*refundDatamodel.Refund
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&refunds).Error
	if err != nil {
		return nil, fmt.Errorf("select refunds: %w", err)
	}
	return refunds, nil
}
