package revtest

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// AuthMiddleware проверяет заголовок Authorization вида "Rev {clientKey}:{userKey}".
type AuthMiddleware struct {
	expected string
}

// NewAuthMiddleware создаёт проверку для пары ключей.
func NewAuthMiddleware(clientKey, userKey string) *AuthMiddleware {
	return &AuthMiddleware{expected: "Rev " + clientKey + ":" + userKey}
}

// Middleware отклоняет запросы с отсутствующим или чужим ключом.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != a.expected {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logger пишет в лог метод, путь, статус и длительность каждого запроса.
func Logger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			logger.Debug("fake api request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
