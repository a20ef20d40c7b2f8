package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/believe-consult/backend/pkg/response"
)

// RateLimit returns a per-client-IP token bucket limiter. Used on the
// anonymous booking-creation endpoint so an unauthenticated caller
// cannot flood the store.
func RateLimit(perMinute int, burst int) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 5
	}
	var limiters sync.Map
	limit := rate.Limit(float64(perMinute) / 60.0)

	getLimiter := func(key string) *rate.Limiter {
		if v, ok := limiters.Load(key); ok {
			return v.(*rate.Limiter)
		}
		lim := rate.NewLimiter(limit, burst)
		actual, _ := limiters.LoadOrStore(key, lim)
		return actual.(*rate.Limiter)
	}

	return func(c *gin.Context) {
		if !getLimiter(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, response.Body{Success: false, Error: "too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
