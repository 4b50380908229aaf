package refund_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payment-ledger/internal"
	refundpkg "github.com/frahmantamala/payment-ledger/internal/refund"
	"github.com/frahmantamala/payment-ledger/internal/transport"
	"github.com/frahmantamala/payment-ledger/pkg/logger"
)

type mockRefundService struct {
	refund       *refundpkg.Refund
	summary      *refundpkg.Summary
	err          error
	gotPaymentID string
	gotAmount    int64
}

func (m *mockRefundService) RequestRefund(ctx context.Context, paymentID string, amount int64) (*refundpkg.Refund, error) {
	m.gotPaymentID = paymentID
	m.gotAmount = amount
	if m.err != nil {
		return nil, m.err
	}
	return m.refund, nil
}

func (m *mockRefundService) GetRefund(ctx context.Context, id string) (*refundpkg.Refund, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.refund, nil
}

func (m *mockRefundService) ListRefunds(ctx context.Context, paymentID string) (*refundpkg.Summary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

var _ = Describe("Handler", func() {
	var (
		svc       *mockRefundService
		router    *chi.Mux
		recorder  *httptest.ResponseRecorder
		paymentID string
	)

	BeforeEach(func() {
		paymentID = uuid.NewString()
		refund := refundpkg.NewRefund(paymentID, 25)
		svc = &mockRefundService{
			refund: refund,
			summary: &refundpkg.Summary{
				PaymentID:     paymentID,
				Refunds:       []*refundpkg.Refund{refund},
				RefundedTotal: 25,
				Refundable:    75,
			},
		}

		handler := refundpkg.NewHandler(transport.NewBaseHandler(logger.Discard()), svc)
		router = chi.NewRouter()
		router.Post("/refunds", handler.CreateRefund)
		router.Get("/refunds/{id}", handler.GetRefund)
		router.Get("/payments/{id}/refunds", handler.ListPaymentRefunds)
		recorder = httptest.NewRecorder()
	})

	post := func(body string) map[string]interface{} {
		req := httptest.NewRequest(http.MethodPost, "/refunds", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(recorder, req)

		var out map[string]interface{}
		Expect(json.Unmarshal(recorder.Body.Bytes(), &out)).To(Succeed())
		return out
	}

	Describe("CreateRefund", func() {
		It("should return 201 with the refund", func() {
			out := post(`{"payment_id":"` + paymentID + `","amount":25}`)

			Expect(recorder.Code).To(Equal(http.StatusCreated))
			data := out["data"].(map[string]interface{})
			Expect(data["payment_id"]).To(Equal(paymentID))
			Expect(data["amount"]).To(BeNumerically("==", 25))
		})

		It("should accept the refund envelope", func() {
			post(`{"refund":{"payment_id":"` + paymentID + `","amount":10}}`)

			Expect(recorder.Code).To(Equal(http.StatusCreated))
			Expect(svc.gotAmount).To(Equal(int64(10)))
		})

		It("should return 422 when the refund is rejected", func() {
			svc.err = internal.ErrRefundExceedsBalance

			out := post(`{"payment_id":"` + paymentID + `","amount":1}`)

			Expect(recorder.Code).To(Equal(http.StatusUnprocessableEntity))
			errBody := out["error"].(map[string]interface{})
			Expect(errBody["code"]).To(Equal(string(internal.ErrCodeRefundExceedsBalance)))
		})

		It("should validate the body before calling the service", func() {
			post(`{"payment_id":"nope","amount":0}`)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(svc.gotPaymentID).To(BeEmpty())
		})

		It("should return 503 when the ledger is down", func() {
			svc.err = internal.NewStorageError("failed to record refund", context.DeadlineExceeded)

			post(`{"payment_id":"` + paymentID + `","amount":1}`)

			Expect(recorder.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("ListPaymentRefunds", func() {
		It("should return the refunds with totals", func() {
			req := httptest.NewRequest(http.MethodGet, "/payments/"+paymentID+"/refunds", nil)
			router.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var out map[string]map[string]interface{}
			Expect(json.Unmarshal(recorder.Body.Bytes(), &out)).To(Succeed())
			Expect(out["data"]["refunded_total"]).To(BeNumerically("==", 25))
			Expect(out["data"]["refundable"]).To(BeNumerically("==", 75))
			Expect(out["data"]["refunds"]).To(HaveLen(1))
		})
	})

	Describe("GetRefund", func() {
		It("should return 404 for an unknown refund", func() {
			svc.err = internal.ErrRefundNotFound

			req := httptest.NewRequest(http.MethodGet, "/refunds/"+uuid.NewString(), nil)
			router.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})
	})
})
