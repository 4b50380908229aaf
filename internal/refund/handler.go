package refund

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	errors "github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/internal/transport"
)

type ServiceAPI interface {
	RequestRefund(ctx context.Context, paymentID string, amount int64) (*Refund, error)
	GetRefund(ctx context.Context, id string) (*Refund, error)
	ListRefunds(ctx context.Context, paymentID string) (*Summary, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

// CreateRefund handles POST /api/v1/refunds
func (h *Handler) CreateRefund(w http.ResponseWriter, r *http.Request) {
	var body CreateRefundRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.Logger.Warn("CreateRefund: failed to parse request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}

	req := body.Normalize()
	if err := req.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	refund, err := h.Service.RequestRefund(r.Context(), req.PaymentID, *req.Amount)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, DataResponse{Data: refund.ToResponse()})
}

// GetRefund handles GET /api/v1/refunds/{id}
func (h *Handler) GetRefund(w http.ResponseWriter, r *http.Request) {
	refund, err := h.Service.GetRefund(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, DataResponse{Data: refund.ToResponse()})
}

// ListPaymentRefunds handles GET /api/v1/payments/{id}/refunds
func (h *Handler) ListPaymentRefunds(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.ListRefunds(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, DataResponse{Data: summary.ToResponse()})
}
