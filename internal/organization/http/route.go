package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers organization-related routes.
func RegisterRoutes(g *gin.RouterGroup, h *OrganizationHandler, authMiddleware gin.HandlerFunc) {
	orgGroup := g.Group("/organizations")

	// === Authenticated Routes ===
	// Membership is checked per request by the handlers.
	orgGroup.Use(authMiddleware)
	{
		orgGroup.GET("", h.List)                    // List visible organizations
		orgGroup.GET("/:id", h.Get)                 // Organization details + caller role
		orgGroup.GET("/:id/members", h.ListMembers) // List members (managers only)
	}
}
