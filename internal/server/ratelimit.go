package server

import (
	"net/http"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// limitedRoutes are the routes that do OCR or extraction work.
var limitedRoutes = map[string]bool{
	"POST /api/extract": true,
	"POST /api/upload":  true,
}

// limiter throttles limitedRoutes with one shared token bucket.
type limiter struct {
	bucket  *rate.Limiter
	enabled atomic.Bool
}

func newLimiter(perSecond float64, burst int) *limiter {
	l := &limiter{bucket: rate.NewLimiter(rate.Inf, 0)}
	l.set(perSecond, burst)
	return l
}

// set applies new limits. A non-positive rate disables limiting.
func (l *limiter) set(perSecond float64, burst int) {
	if burst < 1 {
		burst = 1
	}
	l.bucket.SetBurst(burst)
	l.bucket.SetLimit(rate.Limit(perSecond))
	l.enabled.Store(perSecond > 0)
}

func (l *limiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.enabled.Load() && limitedRoutes[r.Method+" "+r.URL.Path] && !l.bucket.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
