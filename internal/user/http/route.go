package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all identity routes.
// rateLimit guards the unauthenticated endpoints that send mail or check passwords.
func RegisterRoutes(g *gin.RouterGroup, h *UserHandler, authMiddleware, rateLimit gin.HandlerFunc) {
	// Public Routes
	authGroup := g.Group("/auth")
	{
		authGroup.POST("/sign-in", rateLimit, h.SignIn)
		authGroup.POST("/magic-link", rateLimit, h.RequestMagicLink)
		authGroup.POST("/password-reset", rateLimit, h.RequestPasswordReset)
		authGroup.POST("/exchange", rateLimit, h.Exchange)
		authGroup.POST("/sign-out", authMiddleware, h.SignOut)
	}

	// Authenticated Routes
	meGroup := g.Group("/me")
	meGroup.Use(authMiddleware)
	{
		meGroup.GET("", h.Me)
		meGroup.PUT("/password", h.UpdatePassword)
	}
}
