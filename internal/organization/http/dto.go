package http

import (
	"time"

	"github.com/nekogravitycat/daycare-sub-backend/internal/organization"
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/request"
)

// OrganizationResponse is the public view of an organization.
type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// OrganizationDetailResponse adds the caller's effective role.
type OrganizationDetailResponse struct {
	OrganizationResponse
	MyRole string `json:"my_role"`
}

// MemberResponse is a member row.
type MemberResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ListOrganizationsRequest holds query params for listing organizations.
type ListOrganizationsRequest struct {
	request.ListParams
}

// ListMembersRequest holds query params for listing members.
type ListMembersRequest struct {
	request.ListParams
	Role string `form:"role" binding:"omitempty,oneof=admin manager substitute"`
}

func NewOrganizationResponse(o *organization.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:        o.ID,
		Name:      o.Name,
		CreatedAt: o.CreatedAt,
	}
}

func NewMemberResponse(m *organization.Member) MemberResponse {
	return MemberResponse{
		UserID:    m.UserID,
		Email:     m.Email,
		Role:      string(m.Role),
		CreatedAt: m.CreatedAt,
	}
}
