package http

import (
	"time"

	"github.com/nekogravitycat/daycare-sub-backend/internal/user"
)

// UserResponse is the shape of user data returned in API responses.
type UserResponse struct {
	ID            string                       `json:"id"`
	Email         string                       `json:"email"`
	CreatedAt     time.Time                    `json:"created_at"`
	LastLoginAt   *time.Time                   `json:"last_login_at"`
	PasswordSet   bool                         `json:"password_set"`
	Organizations []user.UserOrganizationBrief `json:"organizations"`
}

// NewUserResponse converts domain user.User to UserResponse used by the API.
func NewUserResponse(u *user.User) UserResponse {
	var lastLoginAt *time.Time
	if u.LastLoginAt != nil {
		ll := *u.LastLoginAt
		lastLoginAt = &ll
	}

	orgs := u.Organizations
	if orgs == nil {
		orgs = make([]user.UserOrganizationBrief, 0)
	}

	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   lastLoginAt,
		PasswordSet:   u.PasswordSet,
		Organizations: orgs,
	}
}

// SignInRequest defines the payload for password sign-in.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LinkRequest is the payload for magic link and password reset requests.
type LinkRequest struct {
	Email      string `json:"email" binding:"required,email"`
	RedirectTo string `json:"redirect_to" binding:"omitempty,max=2048"`
}

// ExchangeRequest trades a one-time code from an email link for a session.
type ExchangeRequest struct {
	Code string `json:"code" binding:"required"`
}

// UpdatePasswordRequest sets a new password for the signed-in user.
type UpdatePasswordRequest struct {
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// SessionResponse is returned by every endpoint that starts a session.
type SessionResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        UserResponse `json:"user"`
	// NeedsPassword is true until an invited user finishes setup.
	NeedsPassword bool    `json:"needs_password"`
	Purpose       string  `json:"purpose,omitempty"`
	RedirectTo    *string `json:"redirect_to,omitempty"`
}

// MeResponse wraps the current user with their resolved role.
type MeResponse struct {
	User UserResponse `json:"user"`
	Role *string      `json:"role"`
}
