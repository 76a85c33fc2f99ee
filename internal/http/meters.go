package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

// redact hides connection details from anonymous callers.
func redact(m domain.Meter) domain.Meter {
	m.IPAddress = nil
	m.MeterType = nil
	m.TimeZone = nil
	return m
}

func (h *handler) listMeters(c *fiber.Ctx) error {
	authed := authenticated(c)
	meters, err := h.svcs.Meters.List(c.UserContext(), authed)
	if err != nil {
		return fail(c, "list meters", 0, err)
	}
	if !authed {
		for i := range meters {
			meters[i] = redact(meters[i])
		}
	}
	return c.JSON(meters)
}

func (h *handler) getMeter(c *fiber.Ctx) error {
	id, ok := pathID(c, "meter_id")
	if !ok {
		return badID(c, "get meter", "meter_id")
	}
	m, err := h.svcs.Meters.Get(c.UserContext(), id)
	authed := authenticated(c)
	if err == nil && !m.Displayable && !authed {
		err = fmt.Errorf("meter %d is hidden: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fail(c, "get meter", id, err)
	}
	if !authed {
		m = redact(m)
	}
	return c.JSON(m)
}

func (h *handler) createMeter(c *fiber.Ctx) error {
	var req meterRequest
	if v := decodeRequest(c, &req, false); !v.OK() {
		return badRequest(c, "create meter", v)
	}
	m := req.toMeter()
	if err := h.svcs.Meters.Create(c.UserContext(), &m); err != nil {
		return fail(c, "create meter", 0, err)
	}
	return c.JSON(m)
}

func (h *handler) editMeter(c *fiber.Ctx) error {
	req := meterRequest{edit: true}
	if v := decodeRequest(c, &req, false); !v.OK() {
		return badRequest(c, "edit meter", v)
	}
	m := req.toMeter()
	if err := h.svcs.Meters.Edit(c.UserContext(), &m); err != nil {
		return fail(c, "edit meter", m.ID, err)
	}
	return done(c)
}
