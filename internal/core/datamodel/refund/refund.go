package refund

import "time"

type Refund struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey"`
	PaymentID string    `gorm:"column:payment_id;type:uuid;not null;index"`
	Amount    int64     `gorm:"column:amount;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Refund) TableName() string {
	return "refunds"
}
