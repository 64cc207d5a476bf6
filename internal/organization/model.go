package organization

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/apperror"
)

var (
	ErrOrgNotFound      = apperror.New(http.StatusNotFound, "organization not found")
	ErrNameRequired     = apperror.New(http.StatusBadRequest, "Missing name")
	ErrInvalidRole      = apperror.New(http.StatusBadRequest, "Invalid role")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "Forbidden")
)

// Role is the caller's effective role.
type Role string

const (
	RoleNone          Role = ""
	RolePlatformAdmin Role = "platform_admin"
	RoleAdmin         Role = "admin"
	RoleManager       Role = "manager"
	RoleSubstitute    Role = "substitute"
)

// CanManage reports whether the role may create, verify and oversee shifts.
func (r Role) CanManage() bool {
	return r == RolePlatformAdmin || r == RoleAdmin || r == RoleManager
}

// ParseMemberRole validates a membership role. Platform admin is not a
// membership role and is rejected.
func ParseMemberRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleManager, RoleSubstitute:
		return r, nil
	default:
		return RoleNone, ErrInvalidRole
	}
}

// Organization represents a daycare tenant.
type Organization struct {
	ID        string
	Name      string
	CreatedBy *string
	CreatedAt time.Time
}

// OrganizationFilter defines filter options for listing organizations.
type OrganizationFilter struct {
	// MemberID limits the list to organizations the user belongs to.
	MemberID string
	Page     int
	PageSize int
}

// Member represents a user with a specific role within an organization.
// It joins data from memberships and users tables.
type Member struct {
	UserID    string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// MemberFilter defines filter options for listing members.
type MemberFilter struct {
	Role     Role
	Page     int
	PageSize int
}
