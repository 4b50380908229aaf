package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	paymentDatamodel "github.com/frahmantamala/payment-ledger/internal/core/datamodel/payment"
	paymentpkg "github.com/frahmantamala/payment-ledger/internal/payment"
)

const uniqueViolation = "23505"

type PaymentRepository struct {
	db *gorm.DB
}

var _ paymentpkg.RepositoryAPI = (*PaymentRepository)(nil)

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{
		db: db,
	}
}

// Create inserts a processing row. The partial unique index on card_number
// turns a concurrent second attempt on the same card into a constraint error.
func (r *PaymentRepository) Create(ctx context.Context, p *paymentDatamodel.Payment) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if err == nil {
		return nil
	}
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", paymentpkg.ErrDuplicateActiveCard, err)
	}
	return fmt.Errorf("insert payment: %w", err)
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*paymentDatamodel.Payment, error) {
	var p paymentDatamodel.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, paymentpkg.ErrNotFound
		}
		return nil, fmt.Errorf("select payment: %w", err)
	}
	return &p, nil
}

// Transition is a compare-and-set on status.
func (r *PaymentRepository) Transition(ctx context.Context, id, from, to string) error {
	res := r.db.WithContext(ctx).
		Model(&paymentDatamodel.Payment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("update payment status: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&paymentDatamodel.Payment{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("count payment: %w", err)
	}
	if count == 0 {
		return paymentpkg.ErrNotFound
	}
	return fmt.Errorf("%w: %s -> %s", paymentpkg.ErrInvalidTransition, from, to)
}

// IsUniqueViolation recognises a unique-constraint failure from either the
// translated gorm error or the raw Postgres error.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
