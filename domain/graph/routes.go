package graph

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers graph routes
func RegisterRoutes(e *echo.Echo, h *Handler, limiter *QueryRateLimiter) {
	// Relationships are served at the top level and under /neo4j
	for _, prefix := range []string{"/relationships", "/neo4j/relationships"} {
		g := e.Group(prefix)
		g.POST("", h.CreateRelationship)
		g.DELETE("", h.DeleteRelationship)
		g.GET("/:label/:id", h.Relationships)
	}

	nodes := e.Group("/nodes")
	nodes.GET("", h.ListNodes)
	nodes.GET("/:id", h.GetNode)

	db := e.Group("/neo4j")
	db.POST("/query", h.Query, limiter.Middleware())
	db.GET("/stats", h.Stats)
	db.GET("/health", h.StoreHealth)
}
