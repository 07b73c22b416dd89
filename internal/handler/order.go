package handler

import (
	"net/http"

	"rentcar-be/internal/order"
	"rentcar-be/internal/user"
	"rentcar-be/internal/utils"

	"github.com/gorilla/mux"
)

// POST /api/orders
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var req createOrderRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	in, err := req.toInput(userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	o, err := h.OrderSvc.CreateOrder(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, o)
}

// GET /api/orders/customer
func (h *Handler) ListCustomerOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	orders, err := h.OrderSvc.ListCustomerOrders(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// GET /api/orders/seller
func (h *Handler) ListSellerOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	role := user.Role(utils.GetUserRoleFromContext(r.Context()))

	orders, err := h.OrderSvc.ListSellerOrders(r.Context(), userID, role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

// GET /api/orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	o, err := h.OrderSvc.GetOrder(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

// PUT /api/orders/{id}/status
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	var req updateStatusRequest
	if err := h.decodeAndValidate(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	o, err := h.OrderSvc.UpdateOrderStatus(r.Context(), mux.Vars(r)["id"], order.OrderStatus(req.Status), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

// GET /api/orders/{id}/payment-status
func (h *Handler) CheckPaymentStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	check, err := h.OrderSvc.CheckPaymentStatus(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, check)
}

// POST /api/orders/{id}/payment
func (h *Handler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	o, err := h.OrderSvc.RetryPayment(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, o)
}

// GET /api/payments/{orderId}/details
func (h *Handler) GetPaymentDetails(w http.ResponseWriter, r *http.Request) {
	userID, _ := utils.GetUserIDFromContext(r.Context())

	details, err := h.OrderSvc.GetPaymentDetails(r.Context(), mux.Vars(r)["orderId"], userID)
	if err != nil {
		if details == nil {
			writeServiceError(w, r, err)
			return
		}
		// The stored payment page stays usable even when the lookup fails.
		code := statusFor(err)
		body := errorBody(err, code)
		body.PaymentURL = details.PaymentURL
		utils.WriteJSON(w, code, body)
		return
	}
	utils.WriteJSON(w, http.StatusOK, details)
}
