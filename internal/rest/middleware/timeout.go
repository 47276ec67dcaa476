package middleware

import (
	"context"
	"net/http"
	"time"
)

// Timeout bounds request handling. The deadline is carried on the request
// context so downstream provider calls get cancelled too, and the response
// uses the API error envelope.
func Timeout(limit time.Duration) func(http.Handler) http.Handler {
	const body = `{"success":false,"error":{"code":"TIMEOUT","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		bounded := http.TimeoutHandler(next, limit, body)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), limit)
			defer cancel()

			bounded.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
