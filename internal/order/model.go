package order

import (
	"time"

	"rentcar-be/internal/car"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusOngoing   OrderStatus = "ONGOING"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash           PaymentMethod = "CASH"
	PaymentVirtualAccount PaymentMethod = "VIRTUAL_ACCOUNT"
	PaymentCreditCard     PaymentMethod = "CREDIT_CARD"
	PaymentEWallet        PaymentMethod = "E_WALLET"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m.IsOnline()
}

// IsOnline reports methods settled through the payment gateway.
func (m PaymentMethod) IsOnline() bool {
	switch m {
	case PaymentVirtualAccount, PaymentCreditCard, PaymentEWallet:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type Order struct {
	ID            string        `json:"id"`
	CarID         string        `json:"carId"`
	CustomerID    string        `json:"customerId"`
	SellerID      string        `json:"sellerId"`
	StartDate     time.Time     `json:"startDate"`
	EndDate       time.Time     `json:"endDate"`
	TotalPrice    int64         `json:"totalPrice"`
	Status        OrderStatus   `json:"status"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	PaymentToken  *string       `json:"paymentToken"`
	PaymentURL    *string       `json:"paymentUrl"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`

	Car *car.Car `json:"car,omitempty"`
}

// IsParty reports whether userID is the order's customer or seller.
func (o *Order) IsParty(userID string) bool {
	return userID != "" && (userID == o.CustomerID || userID == o.SellerID)
}

// NeedsPaymentCheck is true for online orders the gateway has not yet settled.
func (o *Order) NeedsPaymentCheck() bool {
	return o.PaymentMethod.IsOnline() && o.PaymentStatus != PaymentPaid
}

type CreateOrderInput struct {
	CarID         string
	StartDate     time.Time
	EndDate       time.Time
	PaymentMethod PaymentMethod
	CustomerID    string
}

// PaymentCheck is the outcome of polling the gateway for an order.
type PaymentCheck struct {
	OrderID           string        `json:"orderId"`
	PaymentStatus     PaymentStatus `json:"status"`
	TransactionStatus string        `json:"transactionStatus"`
	FraudStatus       string        `json:"fraudStatus,omitempty"`
}

type PaymentDetails struct {
	OrderID           string        `json:"orderId"`
	PaymentStatus     PaymentStatus `json:"paymentStatus"`
	PaymentURL        *string       `json:"paymentUrl"`
	TransactionStatus string        `json:"transactionStatus,omitempty"`
	FraudStatus       string        `json:"fraudStatus,omitempty"`
	GrossAmount       string        `json:"grossAmount,omitempty"`
	PaymentType       string        `json:"paymentType,omitempty"`
}
