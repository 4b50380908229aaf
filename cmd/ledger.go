package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/accounts"
	"github.com/frahmantamala/payment-ledger/internal/core/dynamo"
	"github.com/frahmantamala/payment-ledger/internal/payment"
	paymentdynamo "github.com/frahmantamala/payment-ledger/internal/payment/dynamo"
	paymentpostgres "github.com/frahmantamala/payment-ledger/internal/payment/postgres"
	"github.com/frahmantamala/payment-ledger/internal/refund"
	refunddynamo "github.com/frahmantamala/payment-ledger/internal/refund/dynamo"
	refundpostgres "github.com/frahmantamala/payment-ledger/internal/refund/postgres"
	"github.com/frahmantamala/payment-ledger/internal/transport/rest"
)

// ledgerStore is the storage backend selected by database.driver.
type ledgerStore struct {
	Payments payment.RepositoryAPI
	Refunds  refund.RepositoryAPI
	Checker  rest.Checker
	Close    func() error
}

func openLedger(ctx context.Context, cfg internal.DatabaseConfig) (*ledgerStore, error) {
	switch cfg.Driver {
	case internal.DatabaseDriverDynamoDB:
		client, err := dynamo.NewClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, err
		}
		return dynamoLedger(client, dynamo.TablesFromConfig(cfg.DynamoDB)), nil
	default:
		db, err := initDB(cfg)
		if err != nil {
			return nil, err
		}
		gdb, err := initGorm(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &ledgerStore{
			Payments: paymentpostgres.NewPaymentRepository(gdb),
			Refunds:  refundpostgres.NewRefundRepository(gdb),
			Checker:  rest.PostgresChecker(db),
			Close:    db.Close,
		}, nil
	}
}

func dynamoLedger(client *dynamodb.Client, tables dynamo.Tables) *ledgerStore {
	return &ledgerStore{
		Payments: paymentdynamo.NewPaymentRepository(client, tables),
		Refunds:  refunddynamo.NewRefundRepository(client, tables),
		Checker:  rest.DynamoChecker(client, tables.Payments),
		Close:    func() error { return nil },
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm so both see the same connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}
	return gdb, nil
}

func newAccountsService(cfg internal.AccountsConfig, logger *slog.Logger) accounts.Service {
	if cfg.Mode == internal.AccountsModeStub {
		logger.Warn("accounts service running as in-process stub")
		return accounts.NewStub(logger)
	}
	return accounts.NewClient(accounts.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	}, logger)
}
