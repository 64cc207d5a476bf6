package platform

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/daycare-sub-backend/internal/organization"
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/daycare-sub-backend/internal/user"
)

// Organizations reads organizations for platform actions.
type Organizations interface {
	GetByID(ctx context.Context, id string) (*organization.Organization, error)
	ListAll(ctx context.Context, filter organization.OrganizationFilter) ([]*organization.Organization, int, error)
}

// Inviter loads invited users and emails them their invite link.
type Inviter interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
	SendInvite(ctx context.Context, u *user.User, orgName, role, redirectTo string) error
}

// Service implements the platform admin actions. Callers must already be
// verified platform admins.
type Service interface {
	CreateOrganization(ctx context.Context, callerID string, name string) (*organization.Organization, error)
	// Invite provisions the user and membership, then sends the invite email.
	// It is safe to retry: a repeated call converges on the same rows and
	// sends a fresh link.
	Invite(ctx context.Context, req InviteRequest) (string, error)
	ListOrganizations(ctx context.Context, filter organization.OrganizationFilter) ([]*organization.Organization, int, error)
}

type service struct {
	repo     Repository
	orgs     Organizations
	users    Inviter
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService creates a new platform service.
func NewService(repo Repository, orgs Organizations, users Inviter, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		orgs:     orgs,
		users:    users,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *service) CreateOrganization(ctx context.Context, callerID string, name string) (*organization.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}

	org, err := s.repo.CreateOrganization(ctx, name, callerID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("organization created",
		zap.String("organization_id", org.ID),
		zap.String("created_by", callerID),
	)
	return org, nil
}

func (s *service) Invite(ctx context.Context, req InviteRequest) (string, error) {
	email := user.NormalizeEmail(req.Email)
	orgID := strings.TrimSpace(req.OrganizationID)
	if email == "" || orgID == "" {
		return "", ErrMissingInviteFields
	}
	if err := s.validate.Var(email, "email"); err != nil {
		return "", ErrInvalidEmail
	}

	role, err := organization.ParseMemberRole(strings.TrimSpace(req.Role))
	if err != nil {
		return "", err
	}

	if _, err := uuid.Parse(orgID); err != nil {
		return "", ErrUnknownOrganization
	}
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, organization.ErrOrgNotFound) {
			return "", ErrUnknownOrganization
		}
		return "", err
	}

	userID, err := s.repo.UpsertInvitedMember(ctx, email, org.ID, role)
	if err != nil {
		return "", err
	}

	invited, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	// The rows are committed; a failed send is repaired by inviting again.
	if err := s.users.SendInvite(ctx, invited, org.Name, string(role), req.RedirectTo); err != nil {
		s.logger.Error("invite email failed",
			zap.String("user_id", userID),
			zap.String("organization_id", org.ID),
			zap.Error(err),
		)
		return "", apperror.Wrap(err, http.StatusInternalServerError, "Invite email could not be sent")
	}

	s.logger.Info("user invited",
		zap.String("user_id", userID),
		zap.String("organization_id", org.ID),
		zap.String("role", string(role)),
	)
	return userID, nil
}

func (s *service) ListOrganizations(ctx context.Context, filter organization.OrganizationFilter) ([]*organization.Organization, int, error) {
	return s.orgs.ListAll(ctx, filter)
}
