package http

import (
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

const (
	// limiterIdle is how long a client may go without logging in before its
	// bucket is forgotten. Any bucket idle that long has refilled anyway.
	limiterIdle  = 10 * time.Minute
	limiterSweep = time.Minute
)

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// limiter hands out one token bucket per client key and evicts idle ones.
type limiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

func newLimiter(limit rate.Limit, burst int) *limiter {
	return &limiter{limit: limit, burst: burst, buckets: make(map[string]*bucket), now: time.Now}
}

func (l *limiter) allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= limiterSweep {
		l.sweep(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()
	return b.lim.AllowN(now, 1)
}

// sweep drops buckets idle for longer than limiterIdle. Callers hold mu.
func (l *limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > limiterIdle {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

func (h *handler) login(c *fiber.Ctx) error {
	if !h.logins.allow(c.IP()) {
		log.Warn().Str("ip", c.IP()).Msg("login throttled")
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many login attempts."})
	}

	var req loginRequest
	if v := decodeRequest(c, &req, false); !v.OK() {
		return badRequest(c, "login", v)
	}
	token, u, err := h.svcs.Auth.Login(c.UserContext(), *req.Email, *req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		log.Warn().Str("email", *req.Email).Msg("login rejected")
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password."})
	}
	if err != nil {
		return fail(c, "login", 0, err)
	}
	return c.JSON(fiber.Map{"token": token, "email": u.Email})
}
