package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/payment-ledger/db/migrations"
	"github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/core/dynamo"
	"github.com/frahmantamala/payment-ledger/pkg/logger"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "apply the ledger schema (SQL migrations or DynamoDB tables)",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	if cfg.Database.Driver == internal.DatabaseDriverDynamoDB {
		if migrateRollback {
			return fmt.Errorf("rollback is not supported for dynamodb")
		}
		client, err := dynamo.NewClient(ctx, cfg.Database.DynamoDB)
		if err != nil {
			return err
		}
		tables := dynamo.TablesFromConfig(cfg.Database.DynamoDB)
		if err := dynamo.EnsureTables(ctx, client, tables); err != nil {
			return fmt.Errorf("ensure dynamodb tables: %w", err)
		}
		lg.Info("dynamodb tables ready", "payments", tables.Payments, "card_locks", tables.CardLocks, "refunds", tables.Refunds)
		return nil
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName("schema_migrations")

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, db, "."); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	lg.Info("migrations applied", "command", command)
	return nil
}
