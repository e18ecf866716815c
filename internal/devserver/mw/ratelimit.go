package mw

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit bounds the request rate with a shared token bucket. The devserver
// serves a single developer, so one global limiter is enough.
func RateLimit(rps, burst int) func(http.Handler) http.Handler {
	if rps <= 0 {
		rps = 50
	}
	if burst <= 0 {
		burst = 100
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
