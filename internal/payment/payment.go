package payment

import (
	"context"
	"errors"
)

// ErrGateway marks every failure talking to the payment provider.
var ErrGateway = errors.New("payment gateway error")

type Gateway interface {
	// CreateTransaction opens a hosted payment page for the order.
	CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error)
	// GetStatus returns the provider's view of the order's transaction.
	// A transaction the provider does not know yields StatusNotFound, not an error.
	GetStatus(ctx context.Context, orderID string) (*StatusResult, error)
	// VerifyNotification checks the signature of an incoming notification.
	VerifyNotification(n Notification) error
}
