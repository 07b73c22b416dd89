package payment

import (
	"encoding/json"
	"strings"
)

// OrderIDPrefix is prepended to local order ids to form the provider's order_id.
const OrderIDPrefix = "ORDER-"

type TransactionStatus string

const (
	StatusCapture    TransactionStatus = "capture"
	StatusSettlement TransactionStatus = "settlement"
	StatusPending    TransactionStatus = "pending"
	StatusCancel     TransactionStatus = "cancel"
	StatusDeny       TransactionStatus = "deny"
	StatusExpire     TransactionStatus = "expire"
	StatusRefund     TransactionStatus = "refund"
	StatusNotFound   TransactionStatus = "not_found"
)

type FraudStatus string

const (
	FraudAccept    FraudStatus = "accept"
	FraudChallenge FraudStatus = "challenge"
	FraudDeny      FraudStatus = "deny"
)

type TransactionRequest struct {
	OrderID       string
	Amount        float64
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Description   string
}

type Transaction struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type StatusResult struct {
	OrderID           string            `json:"order_id"`
	TransactionStatus TransactionStatus `json:"transaction_status"`
	FraudStatus       FraudStatus       `json:"fraud_status,omitempty"`
	StatusCode        string            `json:"status_code,omitempty"`
	GrossAmount       string            `json:"gross_amount,omitempty"`
	PaymentType       string            `json:"payment_type,omitempty"`
	Raw               json.RawMessage   `json:"-"`
}

// Succeeded reports a captured or settled transaction whose fraud check
// accepted it or never ran.
func (s *StatusResult) Succeeded() bool {
	return IsSuccessful(s.TransactionStatus, s.FraudStatus)
}

// Notification is the JSON body pushed by the provider.
type Notification struct {
	OrderID           string            `json:"order_id"`
	TransactionStatus TransactionStatus `json:"transaction_status"`
	FraudStatus       FraudStatus       `json:"fraud_status,omitempty"`
	StatusCode        string            `json:"status_code,omitempty"`
	GrossAmount       string            `json:"gross_amount,omitempty"`
	SignatureKey      string            `json:"signature_key,omitempty"`
	PaymentType       string            `json:"payment_type,omitempty"`
	TransactionID     string            `json:"transaction_id,omitempty"`
}

func IsSuccessful(ts TransactionStatus, fs FraudStatus) bool {
	if ts != StatusCapture && ts != StatusSettlement {
		return false
	}
	return fs == FraudAccept || fs == ""
}

func IsFailed(ts TransactionStatus) bool {
	switch ts {
	case StatusCancel, StatusDeny, StatusExpire:
		return true
	}
	return false
}

// FormatOrderID strips an existing prefix before adding it back, so retried
// ids never end up as ORDER-ORDER-...
func FormatOrderID(orderID string) string {
	return OrderIDPrefix + strings.TrimPrefix(orderID, OrderIDPrefix)
}

// LocalOrderID is the inverse of FormatOrderID.
func LocalOrderID(externalID string) string {
	return strings.TrimPrefix(externalID, OrderIDPrefix)
}
