package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentcar-be/internal/config"
	"rentcar-be/internal/db"
	"rentcar-be/internal/handler"
	"rentcar-be/internal/logger"
	"rentcar-be/internal/metrics"
	"rentcar-be/internal/middleware"
	"rentcar-be/internal/order"
	"rentcar-be/internal/payment"
	"rentcar-be/internal/payment/webhook"
	"rentcar-be/internal/user"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Both paths have been handed to the provider as notification URLs.
var webhookPaths = []string{
	"/api/orders/payment-webhook",
	"/api/payments/notification",
}

const shutdownTimeout = 10 * time.Second

// Swapped in tests.
var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(ctx, cfg, database),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.L().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newServer wires repositories, the payment gateway and the order service
// into an HTTP handler.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) http.Handler {
	gateway := payment.NewMidtransGateway(payment.Options{
		ServerKey:       cfg.MidtransServerKey,
		IsProduction:    cfg.MidtransIsProduction,
		Timeout:         cfg.GatewayTimeout,
		VerifySignature: cfg.MidtransVerifySignature,
	})

	orderSvc := order.NewService(
		order.NewRepository(database),
		user.NewRepository(database),
		gateway,
		order.Options{LenientPaymentVerification: cfg.LenientPaymentVerification},
	)

	webhookHandler := webhook.NewWebhookHandler(orderSvc, gateway)
	limiter := middleware.NewRateLimiter(ctx, cfg.InternalSecretKey, webhookPaths...)

	return setupRouter(cfg, handler.NewHandler(orderSvc), webhookHandler.PaymentNotificationHandler, limiter)
}

func setupRouter(cfg *config.Config, api *handler.Handler, webhookFn http.HandlerFunc, limiter *middleware.RateLimiter) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Auth(cfg.JWTSecret), middleware.LoggingMiddleware, limiter.Middleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods(http.MethodGet)
	r.Handle("/debug/metrics", metrics.Default.Handler()).Methods(http.MethodGet)

	// Registered before the authenticated /api subrouter so they stay public.
	for _, p := range webhookPaths {
		r.HandleFunc(p, webhookFn).Methods(http.MethodPost)
	}

	api.Register(r)

	return logger.RequestIDMiddleware(middleware.CORS(cfg.CORSAllowedOrigin)(r))
}
