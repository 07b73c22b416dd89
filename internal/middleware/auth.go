package middleware

import (
	"net/http"

	"rentcar-be/internal/auth"
	"rentcar-be/internal/logger"
	"rentcar-be/internal/utils"

	"go.uber.org/zap"
)

// Auth attaches the caller's identity to the request context. Requests
// without a token pass through anonymously; a token that fails verification
// is rejected.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, tokenStr)
			if err != nil {
				logger.FromCtx(r.Context()).Info("rejected access token", zap.Error(err))
				utils.WriteJSONError(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.Email, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser answers 401 for anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
			utils.WriteJSONError(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
