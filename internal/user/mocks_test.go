package user

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/nekogravitycat/daycare-sub-backend/internal/mailer"
)

type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepo) GetByID(ctx context.Context, id string) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepo) Create(ctx context.Context, u *User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockRepo) UpdateLastLogin(ctx context.Context, id string, t time.Time) error {
	return m.Called(ctx, id, t).Error(0)
}

func (m *MockRepo) SetPassword(ctx context.Context, id string, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func (m *MockRepo) CreateLoginToken(ctx context.Context, hash, userID, purpose string, redirectTo *string, expiresAt time.Time) error {
	return m.Called(ctx, hash, userID, purpose, redirectTo, expiresAt).Error(0)
}

func (m *MockRepo) ConsumeLoginToken(ctx context.Context, hash string) (*LoginToken, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LoginToken), args.Error(1)
}

func (m *MockRepo) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	return m.Called(ctx, jti, expiresAt).Error(0)
}

func (m *MockRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepo) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg mailer.Message) error {
	return m.Called(ctx, msg).Error(0)
}
