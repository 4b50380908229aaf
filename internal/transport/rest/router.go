package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/payment-ledger/api"
	"github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/payment"
	"github.com/frahmantamala/payment-ledger/internal/refund"
	"github.com/frahmantamala/payment-ledger/internal/transport/middleware"
	"github.com/frahmantamala/payment-ledger/internal/transport/swagger"
)

// RegisterAllRoutes mounts the ledger API under /api/v1 together with health
// probes and the API documentation.
func RegisterAllRoutes(router *chi.Mux, healthHandler *HealthHandler, paymentHandler *payment.Handler, refundHandler *refund.Handler, config *internal.Config, logger *slog.Logger) error {
	// Apply global middleware
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPI)
	})
	router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))

	var validate func(http.Handler) http.Handler
	if config.Server.ValidateRequests {
		v, err := middleware.OpenAPIValidator(api.OpenAPI, logger)
		if err != nil {
			return err
		}
		validate = v
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Group(func(lr chi.Router) {
			if config.Security.JWTSecret != "" {
				lr.Use(middleware.BearerAuth(config.Security.JWTSecret, config.Security.JWTIssuer, logger))
			}
			if validate != nil {
				lr.Use(validate)
			}

			lr.Route("/payments", func(pr chi.Router) {
				pr.Post("/", paymentHandler.CreatePayment)
				pr.Get("/{id}", paymentHandler.GetPayment)
				pr.Get("/{id}/refunds", refundHandler.ListPaymentRefunds)
			})

			lr.Route("/refunds", func(rr chi.Router) {
				rr.Post("/", refundHandler.CreateRefund)
				rr.Get("/{id}", refundHandler.GetRefund)
			})
		})
	})

	return nil
}
