package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rentcar-be/internal/car"
	"rentcar-be/internal/logger"
	"rentcar-be/internal/payment"
	"rentcar-be/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status OrderStatus, actingUserID string) (*Order, error)
	HandlePaymentWebhook(ctx context.Context, n payment.Notification) (*WebhookResult, error)
	CheckPaymentStatus(ctx context.Context, orderID, actingUserID string) (*PaymentCheck, error)

	GetOrder(ctx context.Context, orderID, actingUserID string) (*Order, error)
	ListCustomerOrders(ctx context.Context, customerID string) ([]*Order, error)
	ListSellerOrders(ctx context.Context, sellerID string, role user.Role) ([]*Order, error)
	GetPaymentDetails(ctx context.Context, orderID, actingUserID string) (*PaymentDetails, error)
	RetryPayment(ctx context.Context, orderID, actingUserID string) (*Order, error)
}

type Options struct {
	// LenientPaymentVerification lets CONFIRMED through when the gateway
	// cannot be reached. Strict by default.
	LenientPaymentVerification bool

	Now   func() time.Time
	NewID func() string
}

type WebhookResult struct {
	OrderID       string        `json:"orderId"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Changed       bool          `json:"changed"`
}

type service struct {
	repo    Repository
	users   user.Repository
	gateway payment.Gateway
	opts    Options
}

func NewService(repo Repository, users user.Repository, gateway payment.Gateway, opts Options) Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &service{
		repo:    repo,
		users:   users,
		gateway: gateway,
		opts:    opts,
	}
}

func (s *service) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.String("car_id", in.CarID),
		zap.String("customer_id", in.CustomerID),
	)

	if in.CustomerID == "" {
		return nil, ErrUnauthenticated
	}
	if err := s.validateCreate(in); err != nil {
		log.Warn("invalid order input", zap.Error(err))
		return nil, err
	}

	o := &Order{
		ID:            s.opts.NewID(),
		CarID:         in.CarID,
		CustomerID:    in.CustomerID,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		Status:        StatusPending,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: PaymentUnpaid,
	}

	var rented *car.Car
	err := s.repo.WithinTx(ctx, func(st Store) error {
		c, err := st.FindCar(ctx, in.CarID)
		if errors.Is(err, car.ErrCarNotFound) {
			return ErrCarNotFound
		}
		if err != nil {
			return err
		}

		if !c.IsAvailable {
			return ErrCarUnavailable
		}

		conflicts, err := st.FindOverlappingOrders(ctx, c.ID, in.StartDate, in.EndDate, ActiveStatuses)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			log.Info("booking overlaps existing order", zap.String("conflicting_order_id", conflicts[0].ID))
			return ErrCarBooked
		}

		o.SellerID = c.OwnerID
		o.TotalPrice = TotalPrice(c.Price, in.StartDate, in.EndDate)
		rented = c

		return st.InsertOrder(ctx, o)
	})
	if err != nil {
		log.Warn("create order failed", zap.Error(err))
		return nil, err
	}
	o.Car = rented

	log = log.With(zap.String("order_id", o.ID), zap.Int64("total_price", o.TotalPrice))
	log.Info("order created")

	if !o.PaymentMethod.IsOnline() {
		return o, nil
	}

	tx, err := s.initiatePayment(ctx, o)
	if err != nil {
		// The order stands; the customer retries payment later.
		log.Error("payment creation failed, order kept as unpaid", zap.Error(err))
		if _, resetErr := s.repo.SetPaymentStatus(ctx, o.ID, PaymentUnpaid); resetErr != nil {
			log.Error("failed to reset payment status", zap.Error(resetErr))
		}
		o.PaymentStatus = PaymentUnpaid
		return o, nil
	}

	o.PaymentToken = &tx.Token
	o.PaymentURL = &tx.RedirectURL
	return o, nil
}

func (s *service) validateCreate(in CreateOrderInput) error {
	if in.CarID == "" {
		return invalid("carId", "is required")
	}
	if !in.PaymentMethod.Valid() {
		return invalid("paymentMethod", fmt.Sprintf("unsupported payment method %q", in.PaymentMethod))
	}
	if !in.StartDate.After(s.opts.Now()) {
		return invalid("startDate", "start date must be in the future")
	}
	if !in.EndDate.After(in.StartDate) {
		return invalid("endDate", "end date must be after start date")
	}
	return nil
}

// initiatePayment opens a gateway transaction and stores its token and URL.
// It never runs inside a store transaction.
func (s *service) initiatePayment(ctx context.Context, o *Order) (*payment.Transaction, error) {
	customer, err := s.users.GetByID(ctx, o.CustomerID)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}

	description := "Car rental"
	if o.Car != nil {
		description = "Car rental: " + o.Car.DisplayName()
	}

	tx, err := s.gateway.CreateTransaction(ctx, payment.TransactionRequest{
		OrderID:       o.ID,
		Amount:        float64(o.TotalPrice),
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		CustomerPhone: customer.Phone(),
		Description:   description,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetPaymentInfo(ctx, o.ID, tx.Token, tx.RedirectURL); err != nil {
		return nil, fmt.Errorf("store payment info: %w", err)
	}
	return tx, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, orderID string, to OrderStatus, actingUserID string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "UpdateOrderStatus"),
		zap.String("order_id", orderID),
		zap.String("requested_status", string(to)),
		zap.String("user_id", actingUserID),
	)

	o, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !o.IsParty(actingUserID) {
		return nil, ErrNotParty
	}
	if !to.Valid() {
		return nil, invalid("status", fmt.Sprintf("invalid status %q", to))
	}
	from := o.Status
	if !CanTransition(o.Status, to) {
		return nil, &TransitionError{From: o.Status, To: to}
	}
	if err := authorizeTransition(o, to, actingUserID); err != nil {
		log.Warn("transition not allowed for user", zap.Error(err))
		return nil, err
	}

	if to == StatusConfirmed && o.NeedsPaymentCheck() {
		if err := s.verifyPaymentForConfirmation(ctx, o); err != nil {
			log.Warn("payment verification blocked confirmation", zap.Error(err))
			return nil, err
		}
	}

	var updated *Order
	err = s.repo.WithinTx(ctx, func(st Store) error {
		cur, err := st.FindOrder(ctx, orderID)
		if err != nil {
			return err
		}
		// Re-checked under the row lock: another request may have moved it.
		if !CanTransition(cur.Status, to) {
			return &TransitionError{From: cur.Status, To: to}
		}

		cur.Status = to
		if err := st.UpdateOrder(ctx, cur); err != nil {
			return err
		}

		switch to {
		case StatusConfirmed:
			if err := st.UpdateCarAvailability(ctx, cur.CarID, false); err != nil {
				return err
			}
			if cur.Car != nil {
				cur.Car.IsAvailable = false
			}
		case StatusCompleted:
			others, err := st.CountCarOrders(ctx, cur.CarID, cur.ID, OccupyingStatuses)
			if err != nil {
				return err
			}
			if others == 0 {
				if err := st.UpdateCarAvailability(ctx, cur.CarID, true); err != nil {
					return err
				}
				if cur.Car != nil {
					cur.Car.IsAvailable = true
				}
			}
		}

		updated = cur
		return nil
	})
	if err != nil {
		log.Warn("status update failed", zap.Error(err))
		return nil, err
	}

	log.Info("order status updated", zap.String("from", string(from)))
	return updated, nil
}

// verifyPaymentForConfirmation polls the gateway before an online order is
// confirmed and persists PAID when the provider reports success.
func (s *service) verifyPaymentForConfirmation(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(zap.String("order_id", o.ID))

	res, err := s.gateway.GetStatus(ctx, o.ID)
	if err != nil {
		if s.opts.LenientPaymentVerification {
			log.Warn("continuing despite payment verification error", zap.Error(err))
			return nil
		}
		return fmt.Errorf("%w: %v", ErrPaymentVerificationFailed, err)
	}

	switch {
	case res.Succeeded():
		if _, err := s.repo.SetPaymentStatus(ctx, o.ID, PaymentPaid); err != nil {
			return err
		}
		o.PaymentStatus = PaymentPaid
		log.Info("payment verified with gateway")
		return nil
	case res.TransactionStatus == payment.StatusNotFound:
		log.Info("transaction unknown to gateway, allowing confirmation")
		return nil
	default:
		return &PaymentRequiredError{TransactionStatus: string(res.TransactionStatus)}
	}
}

func (s *service) HandlePaymentWebhook(ctx context.Context, n payment.Notification) (*WebhookResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "HandlePaymentWebhook"),
		zap.String("external_order_id", n.OrderID),
		zap.String("transaction_status", string(n.TransactionStatus)),
		zap.String("fraud_status", string(n.FraudStatus)),
	)

	if n.OrderID == "" {
		return nil, invalid("order_id", "is required")
	}

	o, err := s.repo.FindOrder(ctx, payment.LocalOrderID(n.OrderID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("payment notification for unknown order")
		}
		return nil, err
	}

	result := &WebhookResult{OrderID: o.ID, PaymentStatus: o.PaymentStatus}

	var target PaymentStatus
	switch {
	case payment.IsSuccessful(n.TransactionStatus, n.FraudStatus):
		target = PaymentPaid
	case payment.IsFailed(n.TransactionStatus):
		target = PaymentFailed
	default:
		log.Info("payment notification acknowledged without change")
		return result, nil
	}

	changed, err := s.repo.SetPaymentStatus(ctx, o.ID, target)
	if err != nil {
		return nil, err
	}

	result.PaymentStatus = target
	result.Changed = changed
	log.Info("payment status reconciled from notification",
		zap.String("payment_status", string(target)),
		zap.Bool("changed", changed),
	)
	return result, nil
}

func (s *service) CheckPaymentStatus(ctx context.Context, orderID, actingUserID string) (*PaymentCheck, error) {
	o, err := s.findForParty(ctx, orderID, actingUserID)
	if err != nil {
		return nil, err
	}

	if !o.PaymentMethod.IsOnline() {
		return nil, invalid("paymentMethod", "this order doesn't use online payment")
	}

	res, err := s.gateway.GetStatus(ctx, o.ID)
	if err != nil {
		logger.FromCtx(ctx).Error("payment status check failed", zap.String("order_id", o.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	check := &PaymentCheck{
		OrderID:           o.ID,
		PaymentStatus:     o.PaymentStatus,
		TransactionStatus: string(res.TransactionStatus),
		FraudStatus:       string(res.FraudStatus),
	}

	if settledAndAccepted(res) {
		if _, err := s.repo.SetPaymentStatus(ctx, o.ID, PaymentPaid); err != nil {
			return nil, err
		}
		check.PaymentStatus = PaymentPaid
	}
	return check, nil
}

// settledAndAccepted is the stricter success test used by read paths: the
// fraud check must have explicitly accepted the transaction.
func settledAndAccepted(res *payment.StatusResult) bool {
	return res.Succeeded() && res.FraudStatus == payment.FraudAccept
}

func (s *service) findForParty(ctx context.Context, orderID, actingUserID string) (*Order, error) {
	o, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.IsParty(actingUserID) {
		return nil, ErrNotParty
	}
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, orderID, actingUserID string) (*Order, error) {
	o, err := s.findForParty(ctx, orderID, actingUserID)
	if err != nil {
		return nil, err
	}

	if !o.NeedsPaymentCheck() {
		return o, nil
	}

	res, err := s.gateway.GetStatus(ctx, o.ID)
	if err != nil {
		logger.FromCtx(ctx).Warn("error checking payment status", zap.String("order_id", o.ID), zap.Error(err))
		return o, nil
	}

	if settledAndAccepted(res) {
		if _, err := s.repo.SetPaymentStatus(ctx, o.ID, PaymentPaid); err != nil {
			logger.FromCtx(ctx).Error("failed to persist paid status", zap.String("order_id", o.ID), zap.Error(err))
			return o, nil
		}
		o.PaymentStatus = PaymentPaid
	}
	return o, nil
}

func (s *service) ListCustomerOrders(ctx context.Context, customerID string) ([]*Order, error) {
	if customerID == "" {
		return nil, ErrUnauthenticated
	}
	return s.repo.ListByCustomer(ctx, customerID)
}

func (s *service) ListSellerOrders(ctx context.Context, sellerID string, role user.Role) ([]*Order, error) {
	if sellerID == "" {
		return nil, ErrUnauthenticated
	}
	if role != user.RoleSeller {
		return nil, ErrNotSeller
	}
	return s.repo.ListBySeller(ctx, sellerID)
}

func (s *service) GetPaymentDetails(ctx context.Context, orderID, actingUserID string) (*PaymentDetails, error) {
	o, err := s.findForParty(ctx, orderID, actingUserID)
	if err != nil {
		return nil, err
	}

	details := &PaymentDetails{
		OrderID:       o.ID,
		PaymentStatus: o.PaymentStatus,
		PaymentURL:    o.PaymentURL,
	}

	if o.PaymentToken == nil || *o.PaymentToken == "" {
		return details, invalid("paymentToken", "no payment token found for this order")
	}

	res, err := s.gateway.GetStatus(ctx, o.ID)
	if err != nil {
		logger.FromCtx(ctx).Warn("unable to fetch payment details", zap.String("order_id", o.ID), zap.Error(err))
		return details, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	details.TransactionStatus = string(res.TransactionStatus)
	details.FraudStatus = string(res.FraudStatus)
	details.GrossAmount = res.GrossAmount
	details.PaymentType = res.PaymentType
	return details, nil
}

func (s *service) RetryPayment(ctx context.Context, orderID, actingUserID string) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "RetryPayment"),
		zap.String("order_id", orderID),
	)

	o, err := s.findForParty(ctx, orderID, actingUserID)
	if err != nil {
		return nil, err
	}
	if actingUserID != o.CustomerID {
		return nil, ErrCustomerPayment
	}
	if !o.PaymentMethod.IsOnline() {
		return nil, invalid("paymentMethod", "this order doesn't use online payment")
	}
	if o.Status.IsTerminal() {
		return nil, invalid("status", fmt.Sprintf("order is %s", o.Status))
	}
	if o.PaymentStatus == PaymentPaid {
		return nil, ErrAlreadyPaid
	}

	tx, err := s.initiatePayment(ctx, o)
	if err != nil {
		log.Error("payment retry failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	o.PaymentToken = &tx.Token
	o.PaymentURL = &tx.RedirectURL
	log.Info("payment transaction re-created")
	return o, nil
}
