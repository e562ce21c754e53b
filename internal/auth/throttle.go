package auth

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	apperrors "github.com/spec-kit/catalog-service/pkg/util/errorutil"
)

// Throttle limits credential endpoints per client IP with a token bucket.
type Throttle struct {
	limit    rate.Limit
	burst    int
	limiters *cache.Cache
}

// NewThrottle allows perMinute requests per IP on average with the given burst.
// Idle limiters are evicted after ten minutes.
func NewThrottle(perMinute, burst int) *Throttle {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttle{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		limiters: cache.New(10*time.Minute, 10*time.Minute),
	}
}

func (t *Throttle) limiterFor(key string) *rate.Limiter {
	if v, ok := t.limiters.Get(key); ok {
		t.limiters.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(t.limit, t.burst)
	if err := t.limiters.Add(key, limiter, cache.DefaultExpiration); err != nil {
		// lost the race for this key; use the stored limiter
		if v, ok := t.limiters.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// Handle rejects the request with 429 and Retry-After once the bucket is empty.
func (t *Throttle) Handle(c *fiber.Ctx) error {
	limiter := t.limiterFor(c.IP())
	reservation := limiter.Reserve()
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(delay.Seconds()))))
		return apperrors.NewTooManyRequests("too many attempts, try again later")
	}
	return c.Next()
}
