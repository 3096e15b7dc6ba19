package capabilities

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers capability routes
func RegisterRoutes(e *echo.Echo, h *Handler) {
	g := e.Group("/capabilities")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}
