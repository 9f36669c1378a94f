package handler

import (
	"context"
	"net/http"
	"time"
	"tush00nka/coachly_messaging/internal/pkg/auth"
	"tush00nka/coachly_messaging/internal/pkg/httputils"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type contextKey string

const claimsKey contextKey = "claims"

// AuthMiddleware проверяет bearer-токен и кладет claims в контекст.
// Неавторизованный запрос обрывается здесь, до обработчиков.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := auth.StripBearer(r.Header.Get("Authorization"))
		if token == "" {
			httputils.ResponseError(w, http.StatusUnauthorized, "missing token")
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			httputils.ResponseError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFrom возвращает claims аутентифицированного запроса
func ClaimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(claimsKey).(*auth.Claims)
	return claims
}

// LoggingMiddleware логирует запросы
func LoggingMiddleware(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("took", time.Since(start)))
		})
	}
}
