package transport

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/payment-ledger/internal"
	"github.com/frahmantamala/payment-ledger/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// HandleError renders an AppError as {"error": {...}}. 204 errors carry no body.
func (h *BaseHandler) HandleError(w http.ResponseWriter, appErr *errors.AppError) {
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		h.Logger.Error("http error", "status", status, "code", appErr.Code, "error", appErr.Error())
	} else {
		h.Logger.Debug("http error", "status", status, "code", appErr.Code, "message", appErr.Message)
	}

	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	h.WriteJSON(w, status, errors.Response{Error: appErr})
}

// HandleServiceError renders any error returned by a service.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := errors.IsAppError(err); ok {
		h.HandleError(w, appErr)
		return
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		h.HandleError(w, &errors.AppError{
			Type:       errors.ErrorTypeInternal,
			Code:       "REQUEST_CANCELLED",
			Message:    "request cancelled before processing",
			StatusCode: http.StatusServiceUnavailable,
			Cause:      err,
		})
		return
	}

	h.HandleError(w, errors.NewInternalError("internal server error", err))
}

// BearerToken returns the token of a "Bearer" Authorization header, or "".
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}
	return authHeader[7:]
}
