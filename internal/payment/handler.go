package payment

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/payment-ledger/internal/transport"
)

type ServiceAPI interface {
	SubmitPayment(ctx context.Context, cardNumber string, amount int64) (*Payment, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
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

// CreatePayment handles POST /api/v1/payments
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var body CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.Logger.Warn("CreatePayment: failed to parse request body", "error", err)
		h.HandleError(w, errInvalidBody)
		return
	}

	req := body.Normalize()
	if err := req.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	p, err := h.Service.SubmitPayment(r.Context(), req.CardNumber, *req.Amount)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, DataResponse{Data: p.ToResponse()})
}

// GetPayment handles GET /api/v1/payments/{id}
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.Service.GetPayment(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, DataResponse{Data: p.ToResponse()})
}
