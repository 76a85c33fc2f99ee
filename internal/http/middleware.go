package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

// TokenHeader carries the bearer token returned by /api/login.
const TokenHeader = "token"

const userKey = "user"

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (domain.User, error)
}

// OptionalAuth attaches the user to the request when a valid token is
// present and lets every request through.
func OptionalAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := c.Get(TokenHeader); token != "" {
			if u, err := v.Verify(c.UserContext(), token); err == nil {
				c.Locals(userKey, u)
			}
		}
		return c.Next()
	}
}

// RequiredAuth rejects requests without a token (403) or with an invalid
// or expired one (401).
func RequiredAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(TokenHeader)
		if token == "" {
			log.Warn().Str("path", c.Path()).Msg("missing token")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No token provided."})
		}
		u, err := v.Verify(c.UserContext(), token)
		if err != nil {
			if !errors.Is(err, domain.ErrInvalidToken) {
				log.Error().Err(err).Str("path", c.Path()).Msg("token verification failed")
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Failed to authenticate token."})
		}
		c.Locals(userKey, u)
		return c.Next()
	}
}

func authenticated(c *fiber.Ctx) bool {
	_, ok := c.Locals(userKey).(domain.User)
	return ok
}
