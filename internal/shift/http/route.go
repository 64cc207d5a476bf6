package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers shift routes. Organization-scoped routes share the
// /organizations/:id prefix with the organization handlers.
func RegisterRoutes(g *gin.RouterGroup, h *ShiftHandler, authMiddleware gin.HandlerFunc) {
	orgGroup := g.Group("/organizations/:id")
	orgGroup.Use(authMiddleware)
	{
		orgGroup.GET("/shifts", h.List)
		orgGroup.POST("/shifts", h.Create)
		orgGroup.GET("/board", h.Board)
		orgGroup.GET("/roster", h.OrganizationRoster)
	}

	shiftGroup := g.Group("/shifts")
	shiftGroup.Use(authMiddleware)
	{
		shiftGroup.GET("/:id", h.Get)
		shiftGroup.GET("/:id/roster", h.ShiftRoster)

		// --- Lifecycle ---
		shiftGroup.POST("/:id/claim", h.Claim)
		shiftGroup.POST("/:id/start", h.Start)
		shiftGroup.POST("/:id/end", h.End)
		shiftGroup.POST("/:id/verify", h.Verify)
		shiftGroup.POST("/:id/cancel", h.Cancel)
	}
}
