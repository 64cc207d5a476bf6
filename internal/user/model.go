package user

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "user not found")
	ErrEmailAlreadyUsed   = apperror.New(http.StatusConflict, "email already used")
	ErrEmailRequired      = apperror.New(http.StatusBadRequest, "email is required")
	ErrInvalidCredentials = apperror.New(http.StatusUnauthorized, "Invalid login credentials")
	ErrInactiveUser       = apperror.New(http.StatusForbidden, "user is inactive")
	ErrInvalidCode        = apperror.New(http.StatusUnauthorized, "Invalid or expired link")
	ErrPasswordTooShort   = apperror.New(http.StatusBadRequest, "Password must be at least 8 characters.")
	ErrPasswordMismatch   = apperror.New(http.StatusBadRequest, "Passwords do not match.")
)

// Purposes of one-time login tokens.
const (
	PurposeMagicLink = "magiclink"
	PurposeRecovery  = "recovery"
	PurposeInvite    = "invite"
)

// User is an account in the identity store, joined with its profile.
type User struct {
	ID           string // UUID
	Email        string
	PasswordHash *string // nil until the user sets a password
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	IsActive     bool
	// PasswordSet gates first-time password setup after an invite.
	PasswordSet   bool
	Organizations []UserOrganizationBrief
}

// UserOrganizationBrief holds minimal membership info for the current user.
type UserOrganizationBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// LoginToken is a consumed one-time token.
type LoginToken struct {
	UserID     string
	Purpose    string
	RedirectTo *string
}
