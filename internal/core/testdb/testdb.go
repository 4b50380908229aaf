// Package testdb opens an in-memory SQLite ledger with the same constraints
// as the Postgres migrations, for repository and service tests.
package testdb

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		card_number TEXT NOT NULL,
		amount INTEGER NOT NULL CHECK (amount > 0),
		refunded_amount INTEGER NOT NULL DEFAULT 0 CHECK (refunded_amount >= 0 AND refunded_amount <= amount),
		status TEXT NOT NULL DEFAULT 'processing' CHECK (status IN ('processing', 'approved', 'declined', 'failed')),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX payments_active_card_idx ON payments (card_number) WHERE status = 'processing'`,
	`CREATE TABLE refunds (
		id TEXT PRIMARY KEY,
		payment_id TEXT NOT NULL REFERENCES payments (id),
		amount INTEGER NOT NULL CHECK (amount > 0),
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX refunds_payment_id_idx ON refunds (payment_id)`,
}

// Open returns a fresh database. ":memory:" is per connection, so the pool
// is pinned to a single connection and concurrent callers queue on it.
func Open() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return db, nil
}
