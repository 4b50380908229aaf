package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/card"
	"github.com/frahmantamala/payment-ledger/internal/core/events"
	"github.com/frahmantamala/payment-ledger/internal/payment"
	"github.com/frahmantamala/payment-ledger/internal/refund"
	"github.com/frahmantamala/payment-ledger/internal/transport"
	"github.com/frahmantamala/payment-ledger/internal/transport/rest"
	"github.com/frahmantamala/payment-ledger/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	Ledger   *ledgerStore
	EventBus *events.EventBus
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr, "driver", deps.Config.Database.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.EventBus.Drain(ctx); err != nil {
			deps.Logger.Error("event handlers still running at shutdown", "error", err)
		}
		if err := deps.Ledger.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Format, config.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	ledger, err := openLedger(context.Background(), config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger store: %w", err)
	}

	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg.With("component", "audit"))

	paymentService := payment.NewService(
		ledger.Payments,
		newAccountsService(config.Accounts, lg.With("component", "accounts")),
		card.NewLuhnValidator(),
		bus,
		lg.With("component", "payment"),
	)
	refundService := refund.NewService(ledger.Refunds, ledger.Payments, bus, lg.With("component", "refund"))

	base := transport.NewBaseHandler(lg)
	router := chi.NewRouter()
	if err := rest.RegisterAllRoutes(router,
		rest.NewHealthHandler(ledger.Checker),
		payment.NewHandler(base, paymentService),
		refund.NewHandler(base, refundService),
		config,
		lg,
	); err != nil {
		_ = ledger.Close()
		return nil, fmt.Errorf("failed to register routes: %w", err)
	}

	return &Dependencies{
		Config:   config,
		Ledger:   ledger,
		EventBus: bus,
		Router:   router,
		Logger:   lg,
	}, nil
}
