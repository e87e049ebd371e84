package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/zimroute/internal/core/domain"
)

// routeDetail is a saved route with its latest traffic refresh, if any.
type routeDetail struct {
	domain.RouteRecord
	Traffic *domain.TrafficUpdate `json:"traffic,omitempty"`
}

// parseOrdering reads "field" or "-field".
func parseOrdering(s string) (field string, desc bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		return s[1:], true
	}
	return s, false
}

// RouteHistoryHandler lists the caller's saved routes.
func RouteHistoryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var mode domain.TravelMode
		if raw := c.Query("mode"); raw != "" {
			m, err := domain.ParseTravelMode(raw)
			if err != nil {
				return respondError(c, deps, err)
			}
			mode = m
		}

		filter := domain.RouteFilter{
			Mode:   mode,
			Offset: c.QueryInt("offset", 0),
			Limit:  c.QueryInt("limit", 20),
		}
		if raw := c.Query("ordering"); raw != "" {
			filter.OrderBy, filter.Desc = parseOrdering(raw)
		}

		routes, total, err := deps.Routes.History(c.UserContext(), UserID(c), filter)
		if err != nil {
			return respondError(c, deps, err)
		}
		if routes == nil {
			routes = []domain.RouteRecord{}
		}

		limit := filter.Limit
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		c.Set(fiber.HeaderCacheControl, "private, no-cache")
		return c.JSON(PaginatedResponse{Data: routes, Pagination: pg})
	}
}

// GetRouteHandler returns one of the caller's saved routes.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "route id is required")
		}

		rec, err := deps.Routes.Get(c.UserContext(), UserID(c), id)
		if err != nil {
			return respondError(c, deps, err)
		}

		detail := routeDetail{RouteRecord: *rec}
		if deps.Traffic != nil {
			if u, ok := deps.Traffic.Latest(c.UserContext(), rec.ID); ok {
				detail.Traffic = u
			}
		}
		c.Set(fiber.HeaderCacheControl, "private, max-age=60")
		return c.JSON(detail)
	}
}

// DeleteRouteHandler removes one of the caller's saved routes.
func DeleteRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Routes.Delete(c.UserContext(), UserID(c), c.Params("id")); err != nil {
			return respondError(c, deps, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
