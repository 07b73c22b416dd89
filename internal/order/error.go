package order

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the service matches exactly one of
// these with errors.Is.
var (
	ErrValidation                = errors.New("validation error")
	ErrNotFound                  = errors.New("not found")
	ErrForbidden                 = errors.New("forbidden")
	ErrConflict                  = errors.New("conflict")
	ErrInvalidTransition         = errors.New("invalid status transition")
	ErrPaymentRequired           = errors.New("payment must be completed before confirming order")
	ErrPaymentVerificationFailed = errors.New("unable to verify payment status")
	ErrUpstream                  = errors.New("payment provider unavailable")
)

var (
	ErrOrderNotFound  = fmt.Errorf("order %w", ErrNotFound)
	ErrCarNotFound    = fmt.Errorf("car %w", ErrNotFound)
	ErrUserNotFound   = fmt.Errorf("user %w", ErrNotFound)
	ErrNotParty       = fmt.Errorf("%w: access denied", ErrForbidden)
	ErrSellerOnly     = fmt.Errorf("%w: only the seller can update this order status", ErrForbidden)
	ErrCustomerOnly   = fmt.Errorf("%w: only the customer can cancel pending orders", ErrForbidden)
	ErrNotSeller      = fmt.Errorf("%w: seller role required", ErrForbidden)
	ErrCarUnavailable = fmt.Errorf("%w: car is not available for rent", ErrConflict)
	ErrCarBooked      = fmt.Errorf("%w: car is not available for the selected dates", ErrConflict)
)

// ValidationError carries the offending field; it matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// TransitionError names both ends of a rejected transition.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// PaymentRequiredError reports the gateway status that blocked confirmation.
type PaymentRequiredError struct {
	TransactionStatus string
}

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("%s (transaction status: %s)", ErrPaymentRequired.Error(), e.TransactionStatus)
}

func (e *PaymentRequiredError) Unwrap() error {
	return ErrPaymentRequired
}

var (
	ErrUnauthenticated = fmt.Errorf("%w: authentication required", ErrForbidden)
	ErrCustomerPayment = fmt.Errorf("%w: only the customer can pay for this order", ErrForbidden)
	ErrAlreadyPaid     = fmt.Errorf("%w: order is already paid", ErrConflict)
)
