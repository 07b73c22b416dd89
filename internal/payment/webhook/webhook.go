package webhook

import (
	"encoding/json"
	"errors"
	"net/http"

	"rentcar-be/internal/logger"
	"rentcar-be/internal/metrics"
	"rentcar-be/internal/order"
	"rentcar-be/internal/payment"
	"rentcar-be/internal/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Handler receives the provider's asynchronous payment notifications.
type Handler struct {
	OrderSvc order.Service
	Gateway  payment.Gateway
	Metrics  *metrics.Registry
}

func NewWebhookHandler(orderSvc order.Service, gateway payment.Gateway) *Handler {
	return &Handler{
		OrderSvc: orderSvc,
		Gateway:  gateway,
		Metrics:  metrics.Default,
	}
}

type response struct {
	Status        string              `json:"status"`
	OrderID       string              `json:"orderId,omitempty"`
	PaymentStatus order.PaymentStatus `json:"paymentStatus,omitempty"`
}

// PaymentNotificationHandler acknowledges every well-formed notification for
// a known order, including statuses that change nothing, so the provider
// stops retrying.
func (h *Handler) PaymentNotificationHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("handler", "payment_notification"))
	h.Metrics.Counter("webhook.received").Inc()

	var n payment.Notification
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&n); err != nil {
		log.Warn("invalid notification payload", zap.Error(err))
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	log = log.With(
		zap.String("external_order_id", n.OrderID),
		zap.String("transaction_status", string(n.TransactionStatus)),
	)

	if err := h.Gateway.VerifyNotification(n); err != nil {
		h.Metrics.Counter("webhook.rejected").Inc()
		log.Warn("notification signature rejected", zap.Error(err))
		utils.WriteJSONError(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	res, err := h.OrderSvc.HandlePaymentWebhook(ctx, n)
	switch {
	case err == nil:
	case errors.Is(err, order.ErrNotFound):
		utils.WriteJSONError(w, "Order not found", http.StatusNotFound)
		return
	case errors.Is(err, order.ErrValidation):
		utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	default:
		h.Metrics.Counter("webhook.failed").Inc()
		log.Error("failed to process payment notification", zap.Error(err))
		utils.WriteJSONError(w, "Server error", http.StatusInternalServerError)
		return
	}

	if res.Changed {
		h.Metrics.Counter("webhook.applied").Inc()
	}

	utils.WriteJSON(w, http.StatusOK, response{
		Status:        "ok",
		OrderID:       res.OrderID,
		PaymentStatus: res.PaymentStatus,
	})
}
