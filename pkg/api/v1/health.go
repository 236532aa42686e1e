package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/hazardkit/pkg/sources"
)

type HealthGroup struct {
	source      sources.Source
	routerGroup *echo.Group
}

func NewHealthGroup(g *echo.Group, src sources.Source) *HealthGroup {
	group := &HealthGroup{routerGroup: g, source: src}

	g.GET("", group.HealthCheck)

	return group
}

// HealthCheck reports ok once the output source can be listed
func (h *HealthGroup) HealthCheck(c echo.Context) error {
	if h.source != nil {
		if _, err := h.source.List(c.Request().Context()); err != nil {
			log.Error().Err(err).Str("source", h.source.Location()).Msg("health check failed")
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"status": "not ok",
				"error":  err.Error(),
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
