package payment

import "time"

const (
	StatusProcessing = "processing"
	StatusApproved   = "approved"
	StatusDeclined   = "declined"
	StatusFailed     = "failed"
)

// Payment is the ledger row. ActiveCardIndex is a partial unique index so
// only one processing row may exist per card number.
type Payment struct {
	ID             string    `gorm:"column:id;type:uuid;primaryKey"`
	CardNumber     string    `gorm:"column:card_number;not null;uniqueIndex:payments_active_card_idx,where:status = 'processing'"`
	Amount         int64     `gorm:"column:amount;not null"`
	RefundedAmount int64     `gorm:"column:refunded_amount;not null;default:0"`
	Status         string    `gorm:"column:status;not null;default:processing"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Payment) TableName() string {
	return "payments"
}
