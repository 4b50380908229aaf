package internal_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/payment-ledger/internal"
)

var _ = Describe("AppError", func() {
	It("should match sentinels after WithCause and WithDetails", func() {
		err := internal.ErrCardInUse.WithCause(errors.New("duplicate key")).WithDetails(map[string]string{"id": "x"})

		Expect(errors.Is(err, internal.ErrCardInUse)).To(BeTrue())
		Expect(errors.Is(err, internal.ErrPaymentNotFound)).To(BeFalse())
		Expect(internal.ErrCardInUse.Cause).To(BeNil())
		Expect(internal.ErrCardInUse.Details).To(BeNil())
	})

	It("should be found through wrapping", func() {
		wrapped := fmt.Errorf("submit: %w", internal.ErrRefundExceedsBalance)

		appErr, ok := internal.IsAppError(wrapped)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusUnprocessableEntity))
	})

	It("should keep the cause out of the JSON body", func() {
		appErr := internal.NewStorageError("ledger unavailable", errors.New("dial tcp: refused"))

		body, err := json.Marshal(internal.Response{Error: appErr})
		Expect(err).ToNot(HaveOccurred())
		Expect(string(body)).To(ContainSubstring(`"code":"LEDGER_UNAVAILABLE"`))
		Expect(string(body)).ToNot(ContainSubstring("refused"))
		Expect(appErr.Error()).To(ContainSubstring("refused"))
	})

	It("should carry the documented statuses", func() {
		Expect(internal.ErrZeroAmount.StatusCode).To(Equal(http.StatusNoContent))
		Expect(internal.ErrNegativeAmount.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(internal.ErrInvalidCard.StatusCode).To(Equal(http.StatusUnprocessableEntity))
		Expect(internal.ErrCardInUse.StatusCode).To(Equal(http.StatusConflict))
		Expect(internal.ErrPaymentNotRefundable.StatusCode).To(Equal(http.StatusUnprocessableEntity))
	})
})
