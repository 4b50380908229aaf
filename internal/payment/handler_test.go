package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/accounts"
	paymentpkg "github.com/frahmantamala/payment-ledger/internal/payment"
	"github.com/frahmantamala/payment-ledger/internal/transport"
	"github.com/frahmantamala/payment-ledger/pkg/logger"
)

type mockPaymentService struct {
	payment   *paymentpkg.Payment
	err       error
	gotCard   string
	gotAmount int64
}

func (m *mockPaymentService) SubmitPayment(ctx context.Context, cardNumber string, amount int64) (*paymentpkg.Payment, error) {
	m.gotCard = cardNumber
	m.gotAmount = amount
	if m.err != nil {
		return nil, m.err
	}
	return m.payment, nil
}

func (m *mockPaymentService) GetPayment(ctx context.Context, id string) (*paymentpkg.Payment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.payment, nil
}

type envelope struct {
	Data  paymentpkg.PaymentResponse `json:"data"`
	Error *struct {
		Type    string          `json:"type"`
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

var _ = Describe("Handler", func() {
	var (
		svc      *mockPaymentService
		router   *chi.Mux
		recorder *httptest.ResponseRecorder
	)

	BeforeEach(func() {
		p := paymentpkg.NewPayment(validCard, 1205)
		p.Status = paymentpkg.StatusApproved
		svc = &mockPaymentService{payment: p}

		handler := paymentpkg.NewHandler(transport.NewBaseHandler(logger.Discard()), svc)
		router = chi.NewRouter()
		router.Post("/payments", handler.CreatePayment)
		router.Get("/payments/{id}", handler.GetPayment)
		recorder = httptest.NewRecorder()
	})

	post := func(body string) envelope {
		req := httptest.NewRequest(http.MethodPost, "/payments", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(recorder, req)

		var out envelope
		if recorder.Body.Len() > 0 {
			Expect(json.Unmarshal(recorder.Body.Bytes(), &out)).To(Succeed())
		}
		return out
	}

	Describe("CreatePayment", func() {
		It("should return 201 with the masked payment", func() {
			out := post(`{"amount":1205,"card_number":"4242424242424242"}`)

			Expect(recorder.Code).To(Equal(http.StatusCreated))
			Expect(out.Data.Status).To(Equal(paymentpkg.StatusApproved))
			Expect(out.Data.CardNumber).To(Equal("************4242"))
			Expect(svc.gotAmount).To(Equal(int64(1205)))
		})

		It("should accept the payment envelope", func() {
			post(`{"payment":{"amount":300,"card_number":"4242424242424242"}}`)

			Expect(recorder.Code).To(Equal(http.StatusCreated))
			Expect(svc.gotAmount).To(Equal(int64(300)))
			Expect(svc.gotCard).To(Equal(validCard))
		})

		It("should return 400 for malformed JSON", func() {
			out := post(`{"amount":`)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(out.Error.Code).To(Equal(string(internal.ErrCodeValidationFailed)))
		})

		It("should return 400 when fields are missing", func() {
			out := post(`{"card_number":"4242424242424242"}`)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(string(out.Error.Details)).To(ContainSubstring("amount"))
		})

		It("should answer a zero amount with an empty 204", func() {
			svc.err = internal.ErrZeroAmount

			post(`{"amount":0,"card_number":"4242424242424242"}`)

			Expect(recorder.Code).To(Equal(http.StatusNoContent))
			Expect(recorder.Body.Len()).To(BeZero())
			Expect(svc.gotAmount).To(BeZero())
		})

		It("should render a conflict", func() {
			svc.err = internal.ErrCardInUse

			out := post(`{"amount":10,"card_number":"4242424242424242"}`)

			Expect(recorder.Code).To(Equal(http.StatusConflict))
			Expect(out.Error.Message).To(Equal("card_number already used"))
		})

		It("should include the declined payment in the error details", func() {
			p := paymentpkg.NewPayment(validCard, 10)
			p.Status = paymentpkg.StatusDeclined
			svc.err = paymentpkg.Classify(accounts.NewError(accounts.CodeInsufficientFunds)).Err.WithDetails(p.ToResponse())

			out := post(`{"amount":10,"card_number":"4242424242424242"}`)

			Expect(recorder.Code).To(Equal(http.StatusPaymentRequired))
			Expect(out.Error.Code).To(Equal(string(internal.ErrCodeInsufficientFunds)))
			Expect(string(out.Error.Details)).To(ContainSubstring(`"status":"declined"`))
		})

		It("should map an expired request context to 503", func() {
			svc.err = context.DeadlineExceeded

			post(`{"amount":10,"card_number":"4242424242424242"}`)

			Expect(recorder.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("GetPayment", func() {
		It("should return the payment", func() {
			req := httptest.NewRequest(http.MethodGet, "/payments/"+svc.payment.ID, nil)
			router.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			var out envelope
			Expect(json.Unmarshal(recorder.Body.Bytes(), &out)).To(Succeed())
			Expect(out.Data.ID).To(Equal(svc.payment.ID))
			Expect(out.Data.Amount).To(Equal(int64(1205)))
		})

		It("should return 404 when missing", func() {
			svc.err = internal.ErrPaymentNotFound

			req := httptest.NewRequest(http.MethodGet, "/payments/"+svc.payment.ID, nil)
			router.ServeHTTP(recorder, req)

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})
	})
})
