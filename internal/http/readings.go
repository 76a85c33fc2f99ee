package http

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

// idList parses a comma separated list of ids such as "1,2,3".
func idList(raw string) ([]int64, bool) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		if !idPattern.MatchString(p) {
			return nil, false
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

type lineQuery func(ctx context.Context, ids []int64, ti domain.TimeInterval) (map[int64][]domain.Reading, error)

func (h *handler) meterLine(c *fiber.Ctx) error {
	return h.line(c, "meter line readings", "meter_ids", h.svcs.Readings.MeterLine)
}

func (h *handler) groupLine(c *fiber.Ctx) error {
	return h.line(c, "group line readings", "group_ids", h.svcs.Readings.GroupLine)
}

// line answers {"<id>": [readings...]} for the ids in param over the
// timeInterval query value.
func (h *handler) line(c *fiber.Ctx, op, param string, query lineQuery) error {
	ids, ok := idList(c.Params(param))
	if !ok {
		return badID(c, op, param)
	}
	ti, err := domain.ParseTimeInterval(c.Query("timeInterval"))
	if err != nil {
		log.Warn().Err(err).Str("op", op).Msg("invalid time interval")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	lines, err := query(c.UserContext(), ids, ti)
	if err != nil {
		return fail(c, op, ids[0], err)
	}
	out := make(map[string][]domain.Reading, len(lines))
	for id, rs := range lines {
		out[strconv.FormatInt(id, 10)] = rs
	}
	return c.JSON(out)
}
