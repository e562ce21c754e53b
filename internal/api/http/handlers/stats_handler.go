package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/catalog-service/internal/api/dto"
	"github.com/spec-kit/catalog-service/internal/service"
)

// StatsHandler serves the endpoint statistics read API.
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{service: statsService}
}

// List GET /api/stats.
func (h *StatsHandler) List(c *fiber.Ctx) error {
	stats, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStatResponses(stats))
}

// Search GET /api/stats/search?endpoint=...
func (h *StatsHandler) Search(c *fiber.Ctx) error {
	return h.search(c, c.Query("endpoint"))
}

// SearchPath GET /api/stats/<pattern...>. The wildcard may span several
// path segments.
func (h *StatsHandler) SearchPath(c *fiber.Ctx) error {
	pattern := c.Params("*")
	if decoded, err := url.PathUnescape(pattern); err == nil {
		pattern = decoded
	}
	return h.search(c, pattern)
}

func (h *StatsHandler) search(c *fiber.Ctx, pattern string) error {
	stats, err := h.service.Search(c.UserContext(), pattern)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStatResponses(stats))
}
