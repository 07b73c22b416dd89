package payment

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"rentcar-be/internal/logger"
	"rentcar-be/internal/metrics"

	"go.uber.org/zap"
)

const (
	sandboxSnapURL    = "https://app.sandbox.midtrans.com/snap/v1"
	productionSnapURL = "https://app.midtrans.com/snap/v1"
	sandboxCoreURL    = "https://api.sandbox.midtrans.com/v2"
	productionCoreURL = "https://api.midtrans.com/v2"

	defaultTimeout       = 10 * time.Second
	defaultCustomerName  = "Customer"
	defaultCustomerPhone = "08123456789"
	defaultDescription   = "Order Payment"
)

var ErrInvalidSignature = errors.New("invalid notification signature")

type Options struct {
	ServerKey       string
	IsProduction    bool
	Timeout         time.Duration
	VerifySignature bool
}

type midtransGateway struct {
	serverKey       string
	snapURL         string
	coreURL         string
	verifySignature bool
	httpClient      *http.Client
	metrics         *metrics.Registry
}

func NewMidtransGateway(opts Options) Gateway {
	if opts.ServerKey == "" {
		logger.L().Warn("Midtrans server key is empty")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	snapURL, coreURL := sandboxSnapURL, sandboxCoreURL
	if opts.IsProduction {
		snapURL, coreURL = productionSnapURL, productionCoreURL
	}

	return &midtransGateway{
		serverKey:       opts.ServerKey,
		snapURL:         snapURL,
		coreURL:         coreURL,
		verifySignature: opts.VerifySignature,
		httpClient:      &http.Client{Timeout: timeout},
		metrics:         metrics.Default,
	}
}

type snapTransactionRequest struct {
	TransactionDetails struct {
		OrderID     string `json:"order_id"`
		GrossAmount int64  `json:"gross_amount"`
	} `json:"transaction_details"`
	CustomerDetails struct {
		FirstName string `json:"first_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	} `json:"customer_details"`
	ItemDetails []snapItem `json:"item_details"`
	CreditCard  struct {
		Secure bool `json:"secure"`
	} `json:"credit_card"`
}

type snapItem struct {
	ID       string `json:"id"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

func buildSnapRequest(externalID string, req TransactionRequest) snapTransactionRequest {
	// Amounts are whole currency units; fractions are truncated.
	amount := int64(req.Amount)

	var body snapTransactionRequest
	body.TransactionDetails.OrderID = externalID
	body.TransactionDetails.GrossAmount = amount
	body.CustomerDetails.FirstName = orDefault(req.CustomerName, defaultCustomerName)
	body.CustomerDetails.Email = req.CustomerEmail
	body.CustomerDetails.Phone = orDefault(req.CustomerPhone, defaultCustomerPhone)
	body.ItemDetails = []snapItem{{
		ID:       "1",
		Price:    amount,
		Quantity: 1,
		Name:     orDefault(req.Description, defaultDescription),
	}}
	body.CreditCard.Secure = true
	return body
}

func (m *midtransGateway) CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error) {
	externalID := FormatOrderID(req.OrderID)

	log := logger.FromCtx(ctx).With(
		zap.String("order_id", externalID),
		zap.Float64("amount", req.Amount),
	)

	m.metrics.Counter("gateway.create_transaction.calls").Inc()
	timer := metrics.StartTimer()

	jsonBody, err := json.Marshal(buildSnapRequest(externalID, req))
	if err != nil {
		log.Error("failed to marshal transaction request", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.snapURL+"/transactions", bytes.NewReader(jsonBody))
	if err != nil {
		log.Error("failed creating request", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	m.setHeaders(httpReq)

	log.Info("sending transaction request to Midtrans")

	status, body, err := m.do(httpReq)
	if err != nil {
		m.metrics.Counter("gateway.create_transaction.failures").Inc()
		log.Error("Midtrans request failed", zap.Error(err))
		return nil, err
	}

	if status != http.StatusOK && status != http.StatusCreated {
		m.metrics.Counter("gateway.create_transaction.failures").Inc()
		log.Error("Midtrans returned non-success status",
			zap.Int("status", status),
			zap.ByteString("response", body),
		)
		return nil, fmt.Errorf("%w: create transaction returned %d: %s", ErrGateway, status, string(body))
	}

	var res struct {
		Token       string `json:"token"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		m.metrics.Counter("gateway.create_transaction.failures").Inc()
		log.Error("failed decoding Midtrans response", zap.Error(err))
		return nil, fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}

	log.Info("Midtrans transaction created",
		zap.Bool("has_token", res.Token != ""),
		zap.Duration("duration", timer.Duration()),
	)

	return &Transaction{
		OrderID:     externalID,
		Token:       res.Token,
		RedirectURL: res.RedirectURL,
	}, nil
}

func (m *midtransGateway) GetStatus(ctx context.Context, orderID string) (*StatusResult, error) {
	externalID := FormatOrderID(orderID)
	log := logger.FromCtx(ctx).With(zap.String("order_id", externalID))

	m.metrics.Counter("gateway.get_status.calls").Inc()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, m.coreURL+"/"+externalID+"/status", nil)
	if err != nil {
		log.Error("failed building request", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	m.setHeaders(httpReq)

	status, body, err := m.do(httpReq)
	if err != nil {
		m.metrics.Counter("gateway.get_status.failures").Inc()
		log.Error("request to Midtrans failed", zap.Error(err))
		return nil, err
	}

	if status == http.StatusNotFound {
		log.Warn("transaction not found in Midtrans")
		return &StatusResult{OrderID: externalID, TransactionStatus: StatusNotFound}, nil
	}

	if status != http.StatusOK {
		m.metrics.Counter("gateway.get_status.failures").Inc()
		log.Error("Midtrans returned error",
			zap.Int("http_status", status),
			zap.ByteString("response", body),
		)
		return nil, fmt.Errorf("%w: get status returned %d: %s", ErrGateway, status, string(body))
	}

	var res StatusResult
	if err := json.Unmarshal(body, &res); err != nil {
		m.metrics.Counter("gateway.get_status.failures").Inc()
		log.Error("failed decoding status", zap.Error(err))
		return nil, fmt.Errorf("%w: decode status: %v", ErrGateway, err)
	}

	// The core API can answer 200 with the real code in the body.
	if res.StatusCode == "404" {
		log.Warn("transaction not found in Midtrans")
		return &StatusResult{OrderID: externalID, TransactionStatus: StatusNotFound, StatusCode: res.StatusCode, Raw: body}, nil
	}

	res.Raw = body
	if res.OrderID == "" {
		res.OrderID = externalID
	}

	log.Debug("Midtrans status fetched",
		zap.String("transaction_status", string(res.TransactionStatus)),
		zap.String("fraud_status", string(res.FraudStatus)),
	)

	return &res, nil
}

func (m *midtransGateway) VerifyNotification(n Notification) error {
	if !m.verifySignature {
		return nil
	}

	expected := NotificationSignature(n.OrderID, n.StatusCode, n.GrossAmount, m.serverKey)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// NotificationSignature is SHA512(order_id + status_code + gross_amount + server_key), hex encoded.
func NotificationSignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func (m *midtransGateway) setHeaders(req *http.Request) {
	req.SetBasicAuth(m.serverKey, "")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
}

func (m *midtransGateway) do(req *http.Request) (int, []byte, error) {
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}
	return resp.StatusCode, body, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
