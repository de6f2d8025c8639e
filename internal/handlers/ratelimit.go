package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	Skipper middleware.Skipper
	// Limit requests are allowed per Window for each identifier.
	Limit  int
	Window time.Duration
	// Message is returned with the 429 response.
	Message string
	// IdentifierExtractor defaults to the client IP.
	IdentifierExtractor func(c echo.Context) string
	// Charge reports whether a finished request uses up quota. It defaults
	// to ChargeSuccessful.
	Charge func(c echo.Context, err error) bool
}

// ChargeSuccessful charges only requests answered with a status below 400.
func ChargeSuccessful(c echo.Context, err error) bool {
	return responseStatus(c, err) < http.StatusBadRequest
}

// ChargeAttempts charges every request the handler got to decide on, so
// rejected credentials count as well. Malformed requests (400) and server
// failures are not charged.
func ChargeAttempts(c echo.Context, err error) bool {
	status := responseStatus(c, err)
	return status != http.StatusBadRequest && status < http.StatusInternalServerError
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	limit       rate.Limit
	burst       int
	expiresIn   time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	if limit < 1 {
		limit = 1
	}
	every := rate.Inf
	if window > 0 {
		every = rate.Every(window / time.Duration(limit))
	}
	return &rateLimiter{
		visitors:  make(map[string]*visitor),
		limit:     every,
		burst:     limit,
		expiresIn: window,
		now:       time.Now,
	}
}

func (r *rateLimiter) visitor(identifier string, now time.Time) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.visitors[identifier]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.visitors[identifier] = v
	}
	v.lastSeen = now

	if now.Sub(r.lastCleanup) > r.expiresIn {
		for id, v := range r.visitors {
			if now.Sub(v.lastSeen) > r.expiresIn {
				delete(r.visitors, id)
			}
		}
		r.lastCleanup = now
	}

	return v.limiter
}

// RateLimit lets a request through while a token is available and takes
// the token once the handler has returned, if config.Charge says so.
func RateLimit(config RateLimitConfig) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = middleware.DefaultSkipper
	}
	if config.IdentifierExtractor == nil {
		config.IdentifierExtractor = func(c echo.Context) string {
			return c.RealIP()
		}
	}
	if config.Charge == nil {
		config.Charge = ChargeSuccessful
	}
	if config.Message == "" {
		config.Message = "Too many requests. Please try again later."
	}
	limiter := newRateLimiter(config.Limit, config.Window)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			identifier := config.IdentifierExtractor(c)
			bucket := limiter.visitor(identifier, limiter.now())
			if bucket.TokensAt(limiter.now()) < 1 {
				log.Warnf("rate limit exceeded for %s on %s", identifier, c.Path())
				return c.JSON(http.StatusTooManyRequests, &errorResponse{Message: config.Message})
			}

			err := next(c)
			if config.Charge(c, err) {
				bucket.AllowN(limiter.now(), 1)
			}
			return err
		}
	}
}
