package auth

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID     = "userID"
	ctxUserEmail  = "userEmail"
	ctxTokenID    = "tokenID"
	ctxTokenUntil = "tokenExpiresAt"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}

// GetTokenID returns the jti of the presented access token.
func GetTokenID(c *gin.Context) (string, time.Time) {
	return c.GetString(ctxTokenID), c.GetTime(ctxTokenUntil)
}
