package testdb

import (
	"fmt"
	"os"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/payment-ledger/db/migrations"
)

// PostgresDSNEnv names the database used by the Postgres-backed suites.
// Those suites skip when it is unset.
const PostgresDSNEnv = "LEDGER_TEST_POSTGRES_DSN"

func PostgresDSN() string {
	return os.Getenv(PostgresDSNEnv)
}

// OpenPostgres connects to dsn with a real connection pool and applies the
// embedded migrations. Tests share the database, so they must seed their own
// rows with fresh ids and card numbers.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(16)

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, err
	}
	if err := goose.Up(sqlDB, "."); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return db, nil
}
