package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	paymentDatamodel "github.com/frahmantamala/payment-ledger/internal/core/datamodel/payment"
	"github.com/frahmantamala/payment-ledger/internal/payment"
	"github.com/frahmantamala/payment-ledger/pkg/logger"
)

// seedCards are well-known test numbers that pass the Luhn check.
var seedCards = []string{
	"4242424242424242",
	"4000056655665556",
	"5555555555554444",
	"2223003122003222",
	"378282246310005",
	"6011111111111117",
}

var (
	seedAmount int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the ledger with approved payments",
	Long:  `Insert approved payments for the sample cards so refunds can be exercised locally. No accounts service is called.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg := logger.LoggerWrapper()

		ledger, err := openLedger(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer ledger.Close()

		for _, number := range seedCards {
			p := payment.NewPayment(number, seedAmount)
			if err := ledger.Payments.Create(ctx, payment.ToDataModel(p)); err != nil {
				return fmt.Errorf("seed payment for card %s: %w", p.ToResponse().CardNumber, err)
			}
			if err := ledger.Payments.Transition(ctx, p.ID, paymentDatamodel.StatusProcessing, paymentDatamodel.StatusApproved); err != nil {
				return fmt.Errorf("approve seeded payment %s: %w", p.ID, err)
			}
			lg.Info("seeded payment", "payment_id", p.ID, "amount", seedAmount)
		}

		return nil
	},
}

func init() {
	seedCmd.Flags().Int64Var(&seedAmount, "amount", 10000, "amount in minor units for every seeded payment")
}
