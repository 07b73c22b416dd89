package middleware

import (
	"net/http"
	"time"

	"rentcar-be/internal/logger"
	"rentcar-be/internal/utils"

	"go.uber.org/zap"
)

// responseRecorder lets us capture HTTP status codes
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware writes one access log line per request. It expects
// logger.RequestIDMiddleware to run first.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		userID, _ := utils.GetUserIDFromContext(r.Context())

		logger.FromCtx(r.Context()).Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_ip", r.RemoteAddr),
			zap.String("user_id", userID),
		)
	})
}
