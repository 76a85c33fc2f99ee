package http

import (
	"github.com/gofiber/fiber/v2"
)

func (h *handler) listGroups(c *fiber.Ctx) error {
	groups, err := h.svcs.Groups.List(c.UserContext())
	if err != nil {
		return fail(c, "list groups", 0, err)
	}
	return c.JSON(groups)
}

func (h *handler) groupChildren(c *fiber.Ctx) error {
	id, ok := pathID(c, "group_id")
	if !ok {
		return badID(c, "group children", "group_id")
	}
	children, err := h.svcs.Groups.Children(c.UserContext(), id)
	if err != nil {
		return fail(c, "group children", id, err)
	}
	return c.JSON(children)
}

func (h *handler) deepMeters(c *fiber.Ctx) error {
	id, ok := pathID(c, "group_id")
	if !ok {
		return badID(c, "deep child meters", "group_id")
	}
	meters, err := h.svcs.Groups.DeepMeters(c.UserContext(), id)
	if err != nil {
		return fail(c, "deep child meters", id, err)
	}
	return c.JSON(fiber.Map{"deepMeters": meters})
}

func (h *handler) deepGroups(c *fiber.Ctx) error {
	id, ok := pathID(c, "group_id")
	if !ok {
		return badID(c, "deep child groups", "group_id")
	}
	groups, err := h.svcs.Groups.DeepGroups(c.UserContext(), id)
	if err != nil {
		return fail(c, "deep child groups", id, err)
	}
	return c.JSON(fiber.Map{"deepGroups": groups})
}

func (h *handler) createGroup(c *fiber.Ctx) error {
	var req groupRequest
	if v := decodeRequest(c, &req, false); !v.OK() {
		return badRequest(c, "create group", v)
	}
	g, children := req.toGroup()
	if err := h.svcs.Groups.Create(c.UserContext(), &g, children); err != nil {
		return fail(c, "create group", 0, err)
	}
	return done(c)
}

func (h *handler) editGroup(c *fiber.Ctx) error {
	req := groupRequest{edit: true}
	if v := decodeRequest(c, &req, false); !v.OK() {
		return badRequest(c, "edit group", v)
	}
	g, children := req.toGroup()
	if err := h.svcs.Groups.Edit(c.UserContext(), &g, children); err != nil {
		return fail(c, "edit group", g.ID, err)
	}
	return done(c)
}

func (h *handler) deleteGroup(c *fiber.Ctx) error {
	var req idRequest
	if v := decodeRequest(c, &req, true); !v.OK() {
		return badRequest(c, "delete group", v)
	}
	if err := h.svcs.Groups.Delete(c.UserContext(), *req.ID); err != nil {
		return fail(c, "delete group", *req.ID, err)
	}
	return done(c)
}
