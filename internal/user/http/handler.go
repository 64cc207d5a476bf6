package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/daycare-sub-backend/internal/auth"
	"github.com/nekogravitycat/daycare-sub-backend/internal/organization"
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/response"
	"github.com/nekogravitycat/daycare-sub-backend/internal/user"
)

// RoleResolver resolves the caller's highest-priority role.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) (organization.Role, error)
}

type UserHandler struct {
	userService user.Service
	roles       RoleResolver
	jwtManager  *auth.JWTManager
}

func NewHandler(userService user.Service, roles RoleResolver, jwtManager *auth.JWTManager) *UserHandler {
	return &UserHandler{
		userService: userService,
		roles:       roles,
		jwtManager:  jwtManager,
	}
}

// SignIn authenticates a user using email and password.
// On success, it returns a JWT access token and the user profile.
func (h *UserHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	u, err := h.userService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.startSession(c, u, nil)
}

// RequestMagicLink emails a one-time sign-in link.
// It always answers 202 so callers cannot probe for accounts.
func (h *UserHandler) RequestMagicLink(c *gin.Context) {
	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if err := h.userService.RequestMagicLink(c.Request.Context(), req.Email, req.RedirectTo); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

// RequestPasswordReset emails a recovery link.
func (h *UserHandler) RequestPasswordReset(c *gin.Context) {
	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if err := h.userService.RequestPasswordReset(c.Request.Context(), req.Email, req.RedirectTo); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

// Exchange trades the code from a magic link, recovery or invite email
// for an access token.
func (h *UserHandler) Exchange(c *gin.Context) {
	var req ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	u, token, err := h.userService.ExchangeCode(c.Request.Context(), req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.startSession(c, u, token)
}

func (h *UserHandler) startSession(c *gin.Context, u *user.User, token *user.LoginToken) {
	accessToken, err := h.jwtManager.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := SessionResponse{
		AccessToken:   accessToken,
		TokenType:     "bearer",
		ExpiresIn:     int(h.jwtManager.TTL().Seconds()),
		User:          NewUserResponse(u),
		NeedsPassword: !u.PasswordSet,
	}
	if token != nil {
		resp.Purpose = token.Purpose
		resp.RedirectTo = token.RedirectTo
		// Recovery and invite links always lead to the password form.
		if token.Purpose == user.PurposeRecovery || token.Purpose == user.PurposeInvite {
			resp.NeedsPassword = true
		}
	}

	c.JSON(http.StatusOK, resp)
}

// SignOut revokes the presented access token.
func (h *UserHandler) SignOut(c *gin.Context) {
	jti, until := auth.GetTokenID(c)
	if err := h.userService.RevokeSession(c.Request.Context(), jti, until); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Me retrieves the profile of the currently authenticated user
// together with the resolved role (null when the user has none).
func (h *UserHandler) Me(c *gin.Context) {
	userID := auth.GetUserID(c)
	ctx := c.Request.Context()

	u, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session"})
		return
	}

	role, err := h.roles.ResolveRole(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := MeResponse{User: NewUserResponse(u)}
	if role != organization.RoleNone {
		r := string(role)
		resp.Role = &r
	}

	c.JSON(http.StatusOK, resp)
}

// UpdatePassword sets the signed-in user's password. This completes the
// first-time setup for invited users.
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	if err := h.userService.UpdatePassword(c.Request.Context(), auth.GetUserID(c), req.Password, req.ConfirmPassword); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
