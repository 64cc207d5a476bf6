package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/daycare-sub-backend/internal/auth"
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/response"
)

// PlatformAdminChecker reports whether a user holds the platform admin grant.
type PlatformAdminChecker interface {
	IsPlatformAdmin(ctx context.Context, userID string) (bool, error)
}

// RequirePlatformAdmin ensures the authenticated user is a platform admin.
// It MUST be used after auth.AuthRequired middleware.
func RequirePlatformAdmin(checker PlatformAdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing auth token"})
			return
		}

		ok, err := checker.IsPlatformAdmin(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		c.Next()
	}
}
