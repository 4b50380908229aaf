package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payment-ledger/api"
	"github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/transport/middleware"
	"github.com/frahmantamala/payment-ledger/pkg/logger"
)

type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(rec *httptest.ResponseRecorder) errorBody {
	var body errorBody
	ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
	return body
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

var _ = Describe("RequestID", func() {
	It("should echo the caller's trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceHeader, "trace-123")
		rec := httptest.NewRecorder()

		middleware.RequestID(okHandler).ServeHTTP(rec, req)

		Expect(rec.Header().Get(middleware.TraceHeader)).To(Equal("trace-123"))
	})

	It("should generate a trace id when none is sent", func() {
		rec := httptest.NewRecorder()
		middleware.RequestID(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		_, err := uuid.Parse(rec.Header().Get(middleware.TraceHeader))
		Expect(err).ToNot(HaveOccurred())
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("should turn a panic into a 500 error body", func() {
		panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})
		rec := httptest.NewRecorder()

		middleware.RecoveryMiddleware(logger.Discard())(panicking).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(decodeError(rec).Error.Code).To(Equal("INTERNAL_ERROR"))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("should mask card numbers and filter credentials", func() {
		var out bytes.Buffer
		lg := slog.New(slog.NewJSONHandler(&out, nil))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments",
			strings.NewReader(`{"amount":100,"card_number":"4242424242424242"}`))
		req.Header.Set("Authorization", "Bearer secret-token")

		var seen []byte
		echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
		})

		middleware.LoggingMiddleware(lg)(echo).ServeHTTP(httptest.NewRecorder(), req)

		Expect(string(seen)).To(ContainSubstring("4242424242424242"))
		Expect(out.String()).ToNot(ContainSubstring("4242424242424242"))
		Expect(out.String()).To(ContainSubstring("************4242"))
		Expect(out.String()).ToNot(ContainSubstring("secret-token"))
		Expect(out.String()).To(ContainSubstring(`"status_code":201`))
	})
})

var _ = Describe("BearerAuth", func() {
	const secret = "test-secret"

	sign := func(key, issuer string, exp time.Time) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "merchant-1",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(exp),
		})
		signed, err := token.SignedString([]byte(key))
		ExpectWithOffset(1, err).ToNot(HaveOccurred())
		return signed
	}

	var clientID string
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID = internal.ClientIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	serve := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		middleware.BearerAuth(secret, "ledger-idp", logger.Discard())(capture).ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		clientID = ""
	})

	It("should accept a valid token and expose its subject", func() {
		rec := serve(sign(secret, "ledger-idp", time.Now().Add(time.Hour)))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(clientID).To(Equal("merchant-1"))
	})

	It("should reject a missing token", func() {
		rec := serve("")

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(decodeError(rec).Error.Code).To(Equal(string(internal.ErrCodeInvalidToken)))
	})

	It("should reject a token signed with another key", func() {
		Expect(serve(sign("other", "ledger-idp", time.Now().Add(time.Hour))).Code).To(Equal(http.StatusUnauthorized))
		Expect(clientID).To(BeEmpty())
	})

	It("should reject an expired token", func() {
		Expect(serve(sign(secret, "ledger-idp", time.Now().Add(-time.Minute))).Code).To(Equal(http.StatusUnauthorized))
	})

	It("should reject a token from another issuer", func() {
		Expect(serve(sign(secret, "someone-else", time.Now().Add(time.Hour))).Code).To(Equal(http.StatusUnauthorized))
	})
})

var _ = Describe("OpenAPIValidator", func() {
	var validate func(http.Handler) http.Handler

	BeforeEach(func() {
		var err error
		validate, err = middleware.OpenAPIValidator(api.OpenAPI, logger.Discard())
		Expect(err).ToNot(HaveOccurred())
	})

	It("should refuse to load an invalid document", func() {
		_, err := middleware.OpenAPIValidator([]byte("openapi: [not valid"), logger.Discard())
		Expect(err).To(HaveOccurred())
	})

	It("should pass a conforming request with its body intact", func() {
		var seen []byte
		echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
		})
		body := `{"amount":100,"card_number":"4242424242424242"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		validate(echo).ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		Expect(string(seen)).To(Equal(body))
	})

	It("should reject a body with the wrong types", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/refunds",
			strings.NewReader(`{"payment_id":"abc","amount":"ten"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()

		validate(okHandler).ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(decodeError(rec).Error.Code).To(Equal(string(internal.ErrCodeValidationFailed)))
	})

	It("should leave undocumented paths to the router", func() {
		rec := httptest.NewRecorder()
		validate(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})
