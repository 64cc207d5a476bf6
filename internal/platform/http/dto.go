package http

import (
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/request"
)

// Field checks happen in the service so the error messages stay stable.

// CreateOrganizationRequest is the payload for POST /platform/create-organization.
type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

// InviteRequest is the payload for POST /platform/invite.
type InviteRequest struct {
	Email          string `json:"email"`
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
	RedirectTo     string `json:"redirect_to"`
}

// ListOrganizationsRequest holds query params for listing all organizations.
type ListOrganizationsRequest struct {
	request.ListParams
}

// OrganizationBrief is the organization shape returned on creation.
type OrganizationBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateOrganizationResponse is returned by POST /platform/create-organization.
type CreateOrganizationResponse struct {
	OK           bool              `json:"ok"`
	Organization OrganizationBrief `json:"organization"`
}

// InviteResponse is returned by POST /platform/invite.
type InviteResponse struct {
	OK            bool   `json:"ok"`
	InvitedUserID string `json:"invited_user_id"`
}
