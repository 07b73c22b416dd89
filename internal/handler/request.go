package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"rentcar-be/internal/order"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

type createOrderRequest struct {
	CarID         string `json:"carId" validate:"required"`
	StartDate     string `json:"startDate" validate:"required"`
	EndDate       string `json:"endDate" validate:"required"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=CASH VIRTUAL_ACCOUNT CREDIT_CARD E_WALLET"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// Failures come back as order.ValidationError so they share the error path.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return &order.ValidationError{Message: "invalid JSON body"}
	}

	if err := h.V.Struct(dst); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			fe := vErrs[0]
			return &order.ValidationError{Field: fe.Field(), Message: describe(fe)}
		}
		return &order.ValidationError{Message: err.Error()}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// parseDate accepts RFC 3339 timestamps and plain dates (midnight UTC).
func parseDate(field, value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	return time.Time{}, &order.ValidationError{Field: field, Message: "must be an RFC 3339 timestamp or YYYY-MM-DD date"}
}

func (req createOrderRequest) toInput(customerID string) (order.CreateOrderInput, error) {
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return order.CreateOrderInput{}, err
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return order.CreateOrderInput{}, err
	}

	return order.CreateOrderInput{
		CarID:         req.CarID,
		StartDate:     start,
		EndDate:       end,
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		CustomerID:    customerID,
	}, nil
}
