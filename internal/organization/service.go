package organization

import (
	"context"
)

// Service defines business logic for organizations and role resolution.
type Service interface {
	GetByID(ctx context.Context, id string) (*Organization, error)
	// ListForUser lists every organization for platform admins and the
	// member organizations for everyone else.
	ListForUser(ctx context.Context, userID string, filter OrganizationFilter) ([]*Organization, int, error)
	ListAll(ctx context.Context, filter OrganizationFilter) ([]*Organization, int, error)
	ListMembers(ctx context.Context, orgID string, filter MemberFilter) ([]*Member, int, error)

	// ResolveRole returns the caller's highest-priority role: platform admin
	// first, otherwise the role of the earliest membership, otherwise RoleNone.
	ResolveRole(ctx context.Context, userID string) (Role, error)
	// RoleIn returns the caller's effective role within one organization.
	// Platform admins get RolePlatformAdmin everywhere.
	RoleIn(ctx context.Context, orgID string, userID string) (Role, error)
	// RequireMember is RoleIn that fails with ErrOrgNotFound for a missing
	// organization and ErrPermissionDenied for outsiders.
	RequireMember(ctx context.Context, orgID string, userID string) (Role, error)
	// RequireManager additionally requires admin, manager or platform admin.
	RequireManager(ctx context.Context, orgID string, userID string) (Role, error)
	IsPlatformAdmin(ctx context.Context, userID string) (bool, error)
	GrantPlatformAdmin(ctx context.Context, userID string) error
}

type service struct {
	repo Repository
}

// NewService creates a new organization service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*Organization, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListForUser(ctx context.Context, userID string, filter OrganizationFilter) ([]*Organization, int, error) {
	isAdmin, err := s.repo.IsPlatformAdmin(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	filter.MemberID = ""
	if !isAdmin {
		filter.MemberID = userID
	}
	return s.repo.List(ctx, filter)
}

func (s *service) ListAll(ctx context.Context, filter OrganizationFilter) ([]*Organization, int, error) {
	filter.MemberID = ""
	return s.repo.List(ctx, filter)
}

func (s *service) ListMembers(ctx context.Context, orgID string, filter MemberFilter) ([]*Member, int, error) {
	// Verify organization exists
	if _, err := s.repo.GetByID(ctx, orgID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListMembers(ctx, orgID, filter)
}

// ------------------------
//     Role resolution
// ------------------------

func (s *service) ResolveRole(ctx context.Context, userID string) (Role, error) {
	if userID == "" {
		return RoleNone, nil
	}

	isAdmin, err := s.repo.IsPlatformAdmin(ctx, userID)
	if err != nil {
		return RoleNone, err
	}
	if isAdmin {
		return RolePlatformAdmin, nil
	}

	return s.repo.EarliestMemberRole(ctx, userID)
}

func (s *service) RoleIn(ctx context.Context, orgID string, userID string) (Role, error) {
	if userID == "" {
		return RoleNone, nil
	}

	isAdmin, err := s.repo.IsPlatformAdmin(ctx, userID)
	if err != nil {
		return RoleNone, err
	}
	if isAdmin {
		return RolePlatformAdmin, nil
	}

	return s.repo.GetMemberRole(ctx, orgID, userID)
}

func (s *service) RequireMember(ctx context.Context, orgID string, userID string) (Role, error) {
	if _, err := s.repo.GetByID(ctx, orgID); err != nil {
		return RoleNone, err
	}

	role, err := s.RoleIn(ctx, orgID, userID)
	if err != nil {
		return RoleNone, err
	}
	if role == RoleNone {
		return RoleNone, ErrPermissionDenied
	}
	return role, nil
}

func (s *service) RequireManager(ctx context.Context, orgID string, userID string) (Role, error) {
	role, err := s.RequireMember(ctx, orgID, userID)
	if err != nil {
		return RoleNone, err
	}
	if !role.CanManage() {
		return RoleNone, ErrPermissionDenied
	}
	return role, nil
}

func (s *service) IsPlatformAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.repo.IsPlatformAdmin(ctx, userID)
}

func (s *service) GrantPlatformAdmin(ctx context.Context, userID string) error {
	return s.repo.AddPlatformAdmin(ctx, userID)
}
