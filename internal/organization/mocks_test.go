package organization

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) GetByID(ctx context.Context, id string) (*Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Organization), args.Error(1)
}

func (m *MockRepo) List(ctx context.Context, filter OrganizationFilter) ([]*Organization, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*Organization), args.Int(1), args.Error(2)
}

func (m *MockRepo) GetMemberRole(ctx context.Context, orgID string, userID string) (Role, error) {
	args := m.Called(ctx, orgID, userID)
	return args.Get(0).(Role), args.Error(1)
}

func (m *MockRepo) EarliestMemberRole(ctx context.Context, userID string) (Role, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(Role), args.Error(1)
}

func (m *MockRepo) ListMembers(ctx context.Context, orgID string, filter MemberFilter) ([]*Member, int, error) {
	args := m.Called(ctx, orgID, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*Member), args.Int(1), args.Error(2)
}

func (m *MockRepo) IsPlatformAdmin(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) AddPlatformAdmin(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
