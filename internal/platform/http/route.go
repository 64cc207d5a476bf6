package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers platform administration routes.
func RegisterRoutes(g *gin.RouterGroup, h *PlatformHandler, authMiddleware, platformAdminMiddleware gin.HandlerFunc) {
	platformGroup := g.Group("/platform")

	// === Administration Routes (Platform Admin Only) ===
	platformGroup.Use(authMiddleware, platformAdminMiddleware)
	{
		platformGroup.POST("/create-organization", h.CreateOrganization)
		platformGroup.POST("/invite", h.Invite)
		platformGroup.GET("/organizations", h.ListOrganizations)
	}
}
