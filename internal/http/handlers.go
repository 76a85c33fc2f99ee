package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/service"
)

type Options struct {
	// LoginRate and LoginBurst throttle /api/login per client IP.
	LoginRate  rate.Limit
	LoginBurst int
}

type handler struct {
	svcs   *service.Services
	logins *limiter
}

func Register(app *fiber.App, svcs *service.Services, opts Options) {
	if opts.LoginRate == 0 {
		opts.LoginRate = rate.Every(200 * time.Millisecond)
	}
	if opts.LoginBurst == 0 {
		opts.LoginBurst = 10
	}
	h := &handler{svcs: svcs, logins: newLimiter(opts.LoginRate, opts.LoginBurst)}
	optional := OptionalAuth(svcs.Auth)
	required := RequiredAuth(svcs.Auth)

	api := app.Group("/api")
	api.Post("/login", h.login)

	maps := api.Group("/maps")
	maps.Get("/", optional, h.listMaps)
	maps.Get("/:map_id", optional, h.getMap)
	maps.Post("/create", required, h.createMap)
	maps.Post("/edit", required, h.editMap)
	maps.Post("/delete", required, h.deleteMap)

	groups := api.Group("/groups")
	groups.Get("/", optional, h.listGroups)
	groups.Get("/children/:group_id", optional, h.groupChildren)
	groups.Get("/deep/meters/:group_id", optional, h.deepMeters)
	groups.Get("/deep/groups/:group_id", optional, h.deepGroups)
	groups.Post("/create", required, h.createGroup)
	groups.Put("/edit", required, h.editGroup)
	groups.Post("/delete", required, h.deleteGroup)

	meters := api.Group("/meters")
	meters.Get("/", optional, h.listMeters)
	meters.Get("/:meter_id", optional, h.getMeter)
	meters.Post("/create", required, h.createMeter)
	meters.Post("/edit", required, h.editMeter)

	readings := api.Group("/readings/line")
	readings.Get("/meters/:meter_ids", optional, h.meterLine)
	readings.Get("/groups/:group_ids", optional, h.groupLine)
}

func badRequest(c *fiber.Ctx, op string, v Validation) error {
	log.Warn().Str("op", op).Strs("errors", v.Errors).Msg("invalid request")
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": v.Errors})
}

func badID(c *fiber.Ctx, op, param string) error {
	log.Warn().Str("op", op).Str(param, c.Params(param)).Msg("invalid id")
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": param + " must be a non-negative integer"})
}

// fail maps a service error to a response. Uniqueness and business-rule
// violations become 400 with a message; anything else is a logged 500 with
// an empty body.
func fail(c *fiber.Ctx, op string, id int64, err error) error {
	var ce *domain.ConstraintError
	switch {
	case errors.As(err, &ce):
		log.Warn().Err(err).Str("op", op).Int64("id", id).Msg("constraint violation")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ce.Error()})
	case errors.Is(err, domain.ErrCycle), errors.Is(err, domain.ErrUnpairedCorner), errors.Is(err, domain.ErrInvalidPoint):
		log.Warn().Err(err).Str("op", op).Int64("id", id).Msg("rejected")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Error().Err(err).Str("op", op).Int64("id", id).Msg("request failed")
		return c.Status(fiber.StatusInternalServerError).Send(nil)
	}
}

// done answers 200 with an empty body.
func done(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).Send(nil)
}
