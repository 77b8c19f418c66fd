package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetCacheStats returns a snapshot of the query cache counters.
// GET /api/v1/cache/stats
func (s *APIV1Service) GetCacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Store.Cache().Stats())
}

// ClearCache removes all cache entries. Admin reset; the database remains
// the source of truth, so the only cost is a cold cache.
// POST /api/v1/cache/clear
func (s *APIV1Service) ClearCache(c echo.Context) error {
	stats := s.Store.Cache().Stats()
	s.Store.Cache().Clear(c.Request().Context())
	slog.Info("cache cleared", "evicted_entries", stats.Size)
	return c.JSON(http.StatusOK, map[string]any{"cleared": stats.Size})
}
