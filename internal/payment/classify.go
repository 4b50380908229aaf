package payment

import (
	"net/http"

	errors "github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/accounts"
)

// Outcome is where a failed accounts call leaves the payment and what the
// caller is told.
type Outcome struct {
	Status string
	Err    *errors.AppError
}

// Classify maps any accounts service failure to a terminal outcome. It is
// total: unrecognised codes and transport errors become failed/500.
func Classify(err error) Outcome {
	var out Outcome
	switch accounts.CodeOf(err) {
	case accounts.CodeDeclined:
		out = Outcome{StatusDeclined, errors.NewExternalError("payment declined by issuer", errors.ErrCodePaymentDeclined, http.StatusPaymentRequired)}
	case accounts.CodeInsufficientFunds:
		out = Outcome{StatusDeclined, errors.NewExternalError("insufficient funds", errors.ErrCodeInsufficientFunds, http.StatusPaymentRequired)}
	case accounts.CodeInvalidAccountNumber:
		out = Outcome{StatusDeclined, errors.NewExternalError("invalid account number", errors.ErrCodeInvalidAccount, http.StatusForbidden)}
	case accounts.CodeInvalidAmount:
		out = Outcome{StatusDeclined, errors.NewExternalError("amount rejected by accounts service", errors.ErrCodeInvalidAmount, http.StatusBadRequest)}
	case accounts.CodeServiceUnavailable:
		out = Outcome{StatusFailed, errors.NewExternalError("accounts service unavailable, retry later", errors.ErrCodeAccountsUnavailable, http.StatusServiceUnavailable)}
	default:
		out = Outcome{StatusFailed, errors.NewExternalError("cannot process the request", errors.ErrCodeAccountsInternalError, http.StatusInternalServerError)}
	}
	out.Err = out.Err.WithCause(err)
	return out
}
