package handler

import (
	"errors"
	"net/http"

	"rentcar-be/internal/logger"
	"rentcar-be/internal/order"
	"rentcar-be/internal/utils"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error      string  `json:"error"`
	Field      string  `json:"field,omitempty"`
	PaymentURL *string `json:"paymentUrl,omitempty"`
}

// statusFor maps service error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, order.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, order.ErrConflict), errors.Is(err, order.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, order.ErrPaymentRequired):
		return http.StatusPaymentRequired
	case errors.Is(err, order.ErrPaymentVerificationFailed), errors.Is(err, order.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error, code int) errorResponse {
	body := errorResponse{Error: err.Error()}

	var vErr *order.ValidationError
	if errors.As(err, &vErr) {
		body.Error = vErr.Message
		body.Field = vErr.Field
	}
	if code == http.StatusInternalServerError {
		body.Error = "internal server error"
	}
	return body
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logger.FromCtx(r.Context()).Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	utils.WriteJSON(w, code, errorBody(err, code))
}
