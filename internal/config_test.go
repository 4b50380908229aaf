package internal_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payment-ledger/internal"
)

var _ = Describe("Config", func() {
	var cfg *internal.Config

	BeforeEach(func() {
		cfg = &internal.Config{
			Server: internal.ServerConfig{
				Port:              8080,
				ReadHeaderTimeout: time.Second,
				ReadTimeout:       5 * time.Second,
			},
			Database: internal.DatabaseConfig{
				Driver:       internal.DatabaseDriverPostgres,
				Source:       "postgres://localhost/ledger",
				MaxOpenConns: 10,
				MaxIdleConns: 2,
			},
			Accounts: internal.AccountsConfig{
				Mode:    internal.AccountsModeHTTP,
				BaseURL: "http://accounts.local",
			},
		}
	})

	It("should accept a complete configuration", func() {
		Expect(cfg.Validate()).To(Succeed())
	})

	It("should require a source for postgres", func() {
		cfg.Database.Source = ""
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("source is required")))
	})

	It("should require table names for dynamodb", func() {
		cfg.Database = internal.DatabaseConfig{
			Driver:   internal.DatabaseDriverDynamoDB,
			DynamoDB: internal.DynamoDBConfig{Region: "us-east-1", PaymentsTable: "p"},
		}
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("table names")))
	})

	It("should reject unknown drivers and modes", func() {
		cfg.Database.Driver = "mysql"
		cfg.Accounts.Mode = "grpc"

		err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring(`unsupported driver "mysql"`)))
		Expect(err).To(MatchError(ContainSubstring(`unsupported mode "grpc"`)))
	})

	It("should not need a base url for the stub accounts service", func() {
		cfg.Accounts = internal.AccountsConfig{Mode: internal.AccountsModeStub}
		Expect(cfg.Validate()).To(Succeed())
	})

	It("should reject a read timeout shorter than the header timeout", func() {
		cfg.Server.ReadTimeout = 500 * time.Millisecond
		Expect(cfg.Validate()).To(MatchError(ContainSubstring("read_timeout")))
	})
})
