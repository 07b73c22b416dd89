package handler

import (
	"net/http"
	"reflect"
	"strings"

	"rentcar-be/internal/middleware"
	"rentcar-be/internal/order"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type Handler struct {
	OrderSvc order.Service
	V        *validator.Validate
}

func NewHandler(orderSvc order.Service) *Handler {
	return &Handler{
		OrderSvc: orderSvc,
		V:        newValidator(),
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Register mounts the authenticated order and payment routes. Literal paths
// come before {id} so mux does not treat "customer" as an order id.
func (h *Handler) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.RequireUser)

	api.HandleFunc("/orders", h.CreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/customer", h.ListCustomerOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/seller", h.ListSellerOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", h.GetOrder).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/status", h.UpdateOrderStatus).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id}/payment-status", h.CheckPaymentStatus).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}/payment", h.RetryPayment).Methods(http.MethodPost)
	api.HandleFunc("/payments/{orderId}/details", h.GetPaymentDetails).Methods(http.MethodGet)
}
