package webhook

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rentcar-be/internal/metrics"
	"rentcar-be/internal/order"
	"rentcar-be/internal/payment"
	"rentcar-be/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, in order.CreateOrderInput) (*order.Order, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, orderID string, status order.OrderStatus, actingUserID string) (*order.Order, error) {
	args := m.Called(ctx, orderID, status, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) HandlePaymentWebhook(ctx context.Context, n payment.Notification) (*order.WebhookResult, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.WebhookResult), args.Error(1)
}

func (m *MockOrderService) CheckPaymentStatus(ctx context.Context, orderID, actingUserID string) (*order.PaymentCheck, error) {
	args := m.Called(ctx, orderID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.PaymentCheck), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, orderID, actingUserID string) (*order.Order, error) {
	args := m.Called(ctx, orderID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListCustomerOrders(ctx context.Context, customerID string) ([]*order.Order, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) ListSellerOrders(ctx context.Context, sellerID string, role user.Role) ([]*order.Order, error) {
	args := m.Called(ctx, sellerID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) GetPaymentDetails(ctx context.Context, orderID, actingUserID string) (*order.PaymentDetails, error) {
	args := m.Called(ctx, orderID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.PaymentDetails), args.Error(1)
}

func (m *MockOrderService) RetryPayment(ctx context.Context, orderID, actingUserID string) (*order.Order, error) {
	args := m.Called(ctx, orderID, actingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateTransaction(ctx context.Context, req payment.TransactionRequest) (*payment.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *MockGateway) GetStatus(ctx context.Context, orderID string) (*payment.StatusResult, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.StatusResult), args.Error(1)
}

func (m *MockGateway) VerifyNotification(n payment.Notification) error {
	args := m.Called(n)
	return args.Error(0)
}

func newTestHandler() (*Handler, *MockOrderService, *MockGateway) {
	svc := new(MockOrderService)
	gw := new(MockGateway)
	h := NewWebhookHandler(svc, gw)
	h.Metrics = metrics.NewRegistry()
	return h, svc, gw
}

func post(h *Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payments/notification", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.PaymentNotificationHandler(w, req)
	return w
}

const settlementBody = `{
	"order_id": "ORDER-order-1",
	"transaction_status": "settlement",
	"status_code": "200",
	"gross_amount": "1500000.00",
	"signature_key": "sig"
}`

func TestHandler_PaymentNotificationHandler(t *testing.T) {
	expected := payment.Notification{
		OrderID:           "ORDER-order-1",
		TransactionStatus: payment.StatusSettlement,
		StatusCode:        "200",
		GrossAmount:       "1500000.00",
		SignatureKey:      "sig",
	}

	t.Run("Success_Paid", func(t *testing.T) {
		h, svc, gw := newTestHandler()
		gw.On("VerifyNotification", expected).Return(nil)
		svc.On("HandlePaymentWebhook", mock.Anything, expected).
			Return(&order.WebhookResult{OrderID: "order-1", PaymentStatus: order.PaymentPaid, Changed: true}, nil)

		w := post(h, settlementBody)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","orderId":"order-1","paymentStatus":"PAID"}`, w.Body.String())
		assert.Equal(t, uint64(1), h.Metrics.Counter("webhook.received").Load())
		assert.Equal(t, uint64(1), h.Metrics.Counter("webhook.applied").Load())
		svc.AssertExpectations(t)
		gw.AssertExpectations(t)
	})

	t.Run("Duplicate_StillOK", func(t *testing.T) {
		h, svc, gw := newTestHandler()
		gw.On("VerifyNotification", expected).Return(nil)
		svc.On("HandlePaymentWebhook", mock.Anything, expected).
			Return(&order.WebhookResult{OrderID: "order-1", PaymentStatus: order.PaymentPaid}, nil)

		w := post(h, settlementBody)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, uint64(0), h.Metrics.Counter("webhook.applied").Load())
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		h, svc, _ := newTestHandler()

		w := post(h, `{not json`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "HandlePaymentWebhook", mock.Anything, mock.Anything)
	})

	t.Run("InvalidSignature", func(t *testing.T) {
		h, svc, gw := newTestHandler()
		gw.On("VerifyNotification", expected).Return(payment.ErrInvalidSignature)

		w := post(h, settlementBody)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, uint64(1), h.Metrics.Counter("webhook.rejected").Load())
		svc.AssertNotCalled(t, "HandlePaymentWebhook", mock.Anything, mock.Anything)
	})

	t.Run("UnknownOrder", func(t *testing.T) {
		h, svc, gw := newTestHandler()
		gw.On("VerifyNotification", expected).Return(nil)
		svc.On("HandlePaymentWebhook", mock.Anything, expected).Return(nil, order.ErrOrderNotFound)

		w := post(h, settlementBody)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("MissingOrderID", func(t *testing.T) {
		h, svc, gw := newTestHandler()
		gw.On("VerifyNotification", mock.Anything).Return(nil)
		svc.On("HandlePaymentWebhook", mock.Anything, mock.Anything).
			Return(nil, &order.ValidationError{Field: "order_id", Message: "is required"})

		w := post(h, `{"transaction_status":"settlement"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		h, svc, gw := newTestHandler()
		gw.On("VerifyNotification", expected).Return(nil)
		svc.On("HandlePaymentWebhook", mock.Anything, expected).Return(nil, errors.New("db down"))

		w := post(h, settlementBody)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, uint64(1), h.Metrics.Counter("webhook.failed").Load())
	})
}
