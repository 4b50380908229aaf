package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/accounts"
	"github.com/frahmantamala/payment-ledger/internal/card"
	"github.com/frahmantamala/payment-ledger/internal/core/events"
	"github.com/frahmantamala/payment-ledger/internal/core/testdb"
	"github.com/frahmantamala/payment-ledger/internal/payment"
	paymentpostgres "github.com/frahmantamala/payment-ledger/internal/payment/postgres"
	"github.com/frahmantamala/payment-ledger/internal/refund"
	refundpostgres "github.com/frahmantamala/payment-ledger/internal/refund/postgres"
	"github.com/frahmantamala/payment-ledger/internal/transport"
	"github.com/frahmantamala/payment-ledger/internal/transport/rest"
	"github.com/frahmantamala/payment-ledger/pkg/logger"
)

type staticChecker struct {
	name string
	err  error
}

func (c staticChecker) Name() string                  { return c.name }
func (c staticChecker) Check(ctx context.Context) error { return c.err }

var _ = Describe("Router", func() {
	var (
		router  *chi.Mux
		stub    *accounts.Stub
		checker staticChecker
	)

	do := func(method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			ExpectWithOffset(1, json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, out interface{}) {
		ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), out)).To(Succeed())
	}

	BeforeEach(func() {
		db, err := testdb.Open()
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(func() {
			sqlDB, _ := db.DB()
			_ = sqlDB.Close()
		})

		lg := logger.Discard()
		bus := events.NewEventBus(lg)
		DeferCleanup(func() { _ = bus.Drain(context.Background()) })

		stub = accounts.NewStub(lg)
		payments := paymentpostgres.NewPaymentRepository(db)
		paymentService := payment.NewService(payments, stub, card.NewLuhnValidator(), bus, lg)
		refundService := refund.NewService(refundpostgres.NewRefundRepository(db), payments, bus, lg)

		base := transport.NewBaseHandler(lg)
		checker = staticChecker{name: "postgres"}

		cfg := &internal.Config{Server: internal.ServerConfig{ValidateRequests: true}}
		router = chi.NewRouter()
		Expect(rest.RegisterAllRoutes(router,
			rest.NewHealthHandler(&checker),
			payment.NewHandler(base, paymentService),
			refund.NewHandler(base, refundService),
			cfg, lg,
		)).To(Succeed())
	})

	It("should serve the payment and refund lifecycle", func() {
		rec := do(http.MethodPost, "/api/v1/payments", map[string]interface{}{
			"amount":      1000,
			"card_number": "4242424242424242",
		})
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var created struct {
			Data payment.PaymentResponse `json:"data"`
		}
		decode(rec, &created)
		Expect(created.Data.Status).To(Equal(payment.StatusApproved))
		Expect(created.Data.CardNumber).To(Equal("************4242"))
		Expect(stub.OpenHolds()).To(Equal(0))

		rec = do(http.MethodPost, "/api/v1/refunds", map[string]interface{}{
			"refund": map[string]interface{}{"payment_id": created.Data.ID, "amount": 600},
		})
		Expect(rec.Code).To(Equal(http.StatusCreated))

		rec = do(http.MethodPost, "/api/v1/refunds", map[string]interface{}{
			"payment_id": created.Data.ID,
			"amount":     401,
		})
		Expect(rec.Code).To(Equal(http.StatusUnprocessableEntity))
		Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeRefundExceedsBalance)))

		rec = do(http.MethodGet, "/api/v1/payments/"+created.Data.ID+"/refunds", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var summary struct {
			Data refund.SummaryResponse `json:"data"`
		}
		decode(rec, &summary)
		Expect(summary.Data.Refunds).To(HaveLen(1))
		Expect(summary.Data.RefundedTotal).To(Equal(int64(600)))
		Expect(summary.Data.Refundable).To(Equal(int64(400)))

		rec = do(http.MethodGet, "/api/v1/payments/"+created.Data.ID, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should answer a zero amount with an empty 204", func() {
		rec := do(http.MethodPost, "/api/v1/payments", map[string]interface{}{
			"amount":      0,
			"card_number": "4242424242424242",
		})

		Expect(rec.Code).To(Equal(http.StatusNoContent))
		Expect(rec.Body.Len()).To(BeZero())
	})

	It("should reject requests that break the API contract", func() {
		rec := do(http.MethodPost, "/api/v1/payments", map[string]interface{}{
			"amount":      "a lot",
			"card_number": "4242424242424242",
		})

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring(string(internal.ErrCodeValidationFailed)))
	})

	It("should report a declined hold", func() {
		stub.FailHoldsWith(accounts.CodeInsufficientFunds)

		rec := do(http.MethodPost, "/api/v1/payments", map[string]interface{}{
			"amount":      1000,
			"card_number": "4242424242424242",
		})

		Expect(rec.Code).To(Equal(http.StatusPaymentRequired))
		Expect(rec.Body.String()).To(ContainSubstring(payment.StatusDeclined))
	})

	It("should answer the ping probe", func() {
		rec := do(http.MethodGet, "/api/v1/ping", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should report an unhealthy component", func() {
		Expect(do(http.MethodGet, "/api/v1/health", nil).Code).To(Equal(http.StatusOK))

		checker.err = errors.New("connection refused")
		rec := do(http.MethodGet, "/api/v1/health", nil)

		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		var health rest.HealthResponse
		decode(rec, &health)
		Expect(health.Status).To(Equal(rest.HealthUnhealthy))
		Expect(health.Components["postgres"].Message).To(Equal("connection refused"))
	})

	It("should serve the API document", func() {
		rec := do(http.MethodGet, "/openapi.yml", nil)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("/api/v1/payments"))
	})
})
