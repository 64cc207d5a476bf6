package platform

import (
	"net/http"

	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/apperror"
)

var (
	ErrMissingName         = apperror.New(http.StatusBadRequest, "Missing name")
	ErrMissingInviteFields = apperror.New(http.StatusBadRequest, "Missing email or organization_id")
	ErrInvalidEmail        = apperror.New(http.StatusBadRequest, "Invalid email")
	ErrUnknownOrganization = apperror.New(http.StatusBadRequest, "Unknown organization")
)

// InviteRequest carries the raw invite input.
type InviteRequest struct {
	Email          string
	OrganizationID string
	Role           string
	RedirectTo     string
}
