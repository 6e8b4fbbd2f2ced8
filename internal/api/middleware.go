package api

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

// clientLimiters hands out one token bucket per client address.
type clientLimiters struct {
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func (c *clientLimiters) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	limiter, ok := c.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(c.rps, c.burst)
		c.limiters[key] = limiter
	}
	return limiter
}

// RateLimit rejects requests above rps per client with 429. It relies on
// middleware.RealIP having set RemoteAddr. A non-positive rps disables it.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	if burst < 1 {
		burst = 1
	}
	limits := &clientLimiters{rps: rate.Limit(rps), burst: burst, limiters: make(map[string]*rate.Limiter)}

	return func(next http.Handler) http.Handler {
		if rps <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if !limits.get(host).Allow() {
				w.Header().Set("Retry-After", "1")
				respondWithJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "Too many requests, slow down."})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
