package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

func (h *handler) listMaps(c *fiber.Ctx) error {
	maps, err := h.svcs.Maps.List(c.UserContext(), authenticated(c))
	if err != nil {
		return fail(c, "list maps", 0, err)
	}
	return c.JSON(maps)
}

// getMap answers 500, not 404, when the id does not resolve. Hidden maps do
// not resolve for anonymous callers.
func (h *handler) getMap(c *fiber.Ctx) error {
	id, ok := pathID(c, "map_id")
	if !ok {
		return badID(c, "get map", "map_id")
	}
	m, err := h.svcs.Maps.Get(c.UserContext(), id)
	if err == nil && !m.Displayable && !authenticated(c) {
		err = fmt.Errorf("map %d is hidden: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fail(c, "get map", id, err)
	}
	return c.JSON(m)
}

func (h *handler) createMap(c *fiber.Ctx) error {
	var req mapRequest
	if v := decodeRequest(c, &req, false); !v.OK() {
		return badRequest(c, "create map", v)
	}
	m := req.toMap()
	if err := h.svcs.Maps.Create(c.UserContext(), &m); err != nil {
		return fail(c, "create map", 0, err)
	}
	return c.JSON(m)
}

func (h *handler) editMap(c *fiber.Ctx) error {
	req := mapRequest{edit: true}
	if v := decodeRequest(c, &req, false); !v.OK() {
		return badRequest(c, "edit map", v)
	}
	m := req.toMap()
	if err := h.svcs.Maps.Edit(c.UserContext(), &m); err != nil {
		return fail(c, "edit map", m.ID, err)
	}
	return done(c)
}

func (h *handler) deleteMap(c *fiber.Ctx) error {
	var req idRequest
	if v := decodeRequest(c, &req, true); !v.OK() {
		return badRequest(c, "delete map", v)
	}
	if err := h.svcs.Maps.Delete(c.UserContext(), *req.ID); err != nil {
		return fail(c, "delete map", *req.ID, err)
	}
	return done(c)
}
