package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/daycare-sub-backend/internal/auth"
	"github.com/nekogravitycat/daycare-sub-backend/internal/organization"
	"github.com/nekogravitycat/daycare-sub-backend/internal/user"
)

type mockUserService struct {
	mock.Mock
}

func (m *mockUserService) SignIn(ctx context.Context, email, password string) (*user.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserService) RequestMagicLink(ctx context.Context, email, redirectTo string) error {
	return m.Called(ctx, email, redirectTo).Error(0)
}

func (m *mockUserService) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	return m.Called(ctx, email, redirectTo).Error(0)
}

func (m *mockUserService) SendInvite(ctx context.Context, u *user.User, orgName, role, redirectTo string) error {
	return m.Called(ctx, u, orgName, role, redirectTo).Error(0)
}

func (m *mockUserService) ExchangeCode(ctx context.Context, code string) (*user.User, *user.LoginToken, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*user.User), args.Get(1).(*user.LoginToken), args.Error(2)
}

func (m *mockUserService) UpdatePassword(ctx context.Context, userID, password, confirm string) error {
	return m.Called(ctx, userID, password, confirm).Error(0)
}

func (m *mockUserService) GetByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserService) EnsureUser(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserService) RevokeSession(ctx context.Context, jti string, until time.Time) error {
	return m.Called(ctx, jti, until).Error(0)
}

func (m *mockUserService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockRoles struct {
	mock.Mock
}

func (m *mockRoles) ResolveRole(ctx context.Context, userID string) (organization.Role, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(organization.Role), args.Error(1)
}

const testUserID = "7f1c9a52-0e2d-4c52-9d38-0c0b7c1f2a11"

func setupRouter(svc *mockUserService, roles *mockRoles) (*gin.Engine, *auth.JWTManager) {
	gin.SetMode(gin.TestMode)
	jwtManager := auth.NewJWTManager("test-secret", 30*time.Minute)

	r := gin.New()
	noLimit := func(c *gin.Context) { c.Next() }
	RegisterRoutes(r.Group("/v1"), NewHandler(svc, roles, jwtManager), auth.AuthRequired(jwtManager, nil), noLimit)
	return r, jwtManager
}

func executeRequest(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req, _ := http.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSignIn(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(mockUserService)
		r, jwtManager := setupRouter(svc, new(mockRoles))

		u := &user.User{ID: testUserID, Email: "sub@daycare.test", IsActive: true, PasswordSet: true}
		svc.On("SignIn", mock.Anything, "sub@daycare.test", "password123").Return(u, nil)

		w := executeRequest(r, "POST", "/v1/auth/sign-in", SignInRequest{Email: "sub@daycare.test", Password: "password123"}, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "bearer", resp.TokenType)
		assert.Equal(t, 1800, resp.ExpiresIn)
		assert.False(t, resp.NeedsPassword)
		assert.Equal(t, testUserID, resp.User.ID)

		claims, err := jwtManager.ParseAndValidate(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, testUserID, claims.UserID)
	})

	t.Run("Invalid Credentials", func(t *testing.T) {
		svc := new(mockUserService)
		r, _ := setupRouter(svc, new(mockRoles))
		svc.On("SignIn", mock.Anything, "sub@daycare.test", "wrong").Return(nil, user.ErrInvalidCredentials)

		w := executeRequest(r, "POST", "/v1/auth/sign-in", SignInRequest{Email: "sub@daycare.test", Password: "wrong"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Invalid login credentials"}`, w.Body.String())
	})

	t.Run("Malformed Body", func(t *testing.T) {
		svc := new(mockUserService)
		r, _ := setupRouter(svc, new(mockRoles))

		w := executeRequest(r, "POST", "/v1/auth/sign-in", map[string]string{"email": "not-an-email"}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "SignIn", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRequestLinks(t *testing.T) {
	svc := new(mockUserService)
	r, _ := setupRouter(svc, new(mockRoles))
	svc.On("RequestMagicLink", mock.Anything, "sub@daycare.test", "/board").Return(nil)
	svc.On("RequestPasswordReset", mock.Anything, "sub@daycare.test", "").Return(nil)

	w := executeRequest(r, "POST", "/v1/auth/magic-link", LinkRequest{Email: "sub@daycare.test", RedirectTo: "/board"}, "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = executeRequest(r, "POST", "/v1/auth/password-reset", LinkRequest{Email: "sub@daycare.test"}, "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	svc.AssertExpectations(t)
}

func TestExchange(t *testing.T) {
	t.Run("Invite Needs Password", func(t *testing.T) {
		svc := new(mockUserService)
		r, _ := setupRouter(svc, new(mockRoles))

		redirect := "/setup"
		u := &user.User{ID: testUserID, Email: "new@daycare.test", IsActive: true}
		svc.On("ExchangeCode", mock.Anything, "abc").
			Return(u, &user.LoginToken{UserID: testUserID, Purpose: user.PurposeInvite, RedirectTo: &redirect}, nil)

		w := executeRequest(r, "POST", "/v1/auth/exchange", ExchangeRequest{Code: "abc"}, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.NeedsPassword)
		assert.Equal(t, user.PurposeInvite, resp.Purpose)
		require.NotNil(t, resp.RedirectTo)
		assert.Equal(t, "/setup", *resp.RedirectTo)
	})

	t.Run("Recovery Always Needs Password", func(t *testing.T) {
		svc := new(mockUserService)
		r, _ := setupRouter(svc, new(mockRoles))

		u := &user.User{ID: testUserID, Email: "sub@daycare.test", IsActive: true, PasswordSet: true}
		svc.On("ExchangeCode", mock.Anything, "abc").
			Return(u, &user.LoginToken{UserID: testUserID, Purpose: user.PurposeRecovery}, nil)

		w := executeRequest(r, "POST", "/v1/auth/exchange", ExchangeRequest{Code: "abc"}, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.NeedsPassword)
	})

	t.Run("Reinvite Needs Password", func(t *testing.T) {
		svc := new(mockUserService)
		r, _ := setupRouter(svc, new(mockRoles))

		u := &user.User{ID: testUserID, Email: "sub@daycare.test", IsActive: true, PasswordSet: true}
		svc.On("ExchangeCode", mock.Anything, "abc").
			Return(u, &user.LoginToken{UserID: testUserID, Purpose: user.PurposeInvite}, nil)

		w := executeRequest(r, "POST", "/v1/auth/exchange", ExchangeRequest{Code: "abc"}, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.NeedsPassword)
	})

	t.Run("Magic Link Keeps Password State", func(t *testing.T) {
		svc := new(mockUserService)
		r, _ := setupRouter(svc, new(mockRoles))

		u := &user.User{ID: testUserID, Email: "sub@daycare.test", IsActive: true, PasswordSet: true}
		svc.On("ExchangeCode", mock.Anything, "abc").
			Return(u, &user.LoginToken{UserID: testUserID, Purpose: user.PurposeMagicLink}, nil)

		w := executeRequest(r, "POST", "/v1/auth/exchange", ExchangeRequest{Code: "abc"}, "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp SessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.NeedsPassword)
	})

	t.Run("Expired Code", func(t *testing.T) {
		svc := new(mockUserService)
		r, _ := setupRouter(svc, new(mockRoles))
		svc.On("ExchangeCode", mock.Anything, "old").Return(nil, nil, user.ErrInvalidCode)

		w := executeRequest(r, "POST", "/v1/auth/exchange", ExchangeRequest{Code: "old"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestMe(t *testing.T) {
	u := &user.User{
		ID:            testUserID,
		Email:         "sub@daycare.test",
		IsActive:      true,
		PasswordSet:   true,
		Organizations: []user.UserOrganizationBrief{{ID: "o1", Name: "Little Oaks", Role: "substitute"}},
	}

	t.Run("Unauthenticated", func(t *testing.T) {
		r, _ := setupRouter(new(mockUserService), new(mockRoles))
		w := executeRequest(r, "GET", "/v1/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("With Role", func(t *testing.T) {
		svc := new(mockUserService)
		roles := new(mockRoles)
		r, jwtManager := setupRouter(svc, roles)
		svc.On("GetByID", mock.Anything, testUserID).Return(u, nil)
		roles.On("ResolveRole", mock.Anything, testUserID).Return(organization.RoleSubstitute, nil)

		token, err := jwtManager.GenerateAccessToken(testUserID, u.Email)
		require.NoError(t, err)

		w := executeRequest(r, "GET", "/v1/me", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var resp MeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Role)
		assert.Equal(t, "substitute", *resp.Role)
		assert.Len(t, resp.User.Organizations, 1)
	})

	t.Run("No Role Is Null", func(t *testing.T) {
		svc := new(mockUserService)
		roles := new(mockRoles)
		r, jwtManager := setupRouter(svc, roles)
		svc.On("GetByID", mock.Anything, testUserID).Return(u, nil)
		roles.On("ResolveRole", mock.Anything, testUserID).Return(organization.RoleNone, nil)

		token, err := jwtManager.GenerateAccessToken(testUserID, u.Email)
		require.NoError(t, err)

		w := executeRequest(r, "GET", "/v1/me", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
		assert.Contains(t, raw, "role")
		assert.Nil(t, raw["role"])
	})
}

func TestSignOut(t *testing.T) {
	svc := new(mockUserService)
	r, jwtManager := setupRouter(svc, new(mockRoles))

	token, err := jwtManager.GenerateAccessToken(testUserID, "sub@daycare.test")
	require.NoError(t, err)
	claims, err := jwtManager.ParseAndValidate(token)
	require.NoError(t, err)

	svc.On("RevokeSession", mock.Anything, claims.ID, mock.AnythingOfType("time.Time")).Return(nil)

	w := executeRequest(r, "POST", "/v1/auth/sign-out", nil, token)
	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestUpdatePassword(t *testing.T) {
	svc := new(mockUserService)
	r, jwtManager := setupRouter(svc, new(mockRoles))

	token, err := jwtManager.GenerateAccessToken(testUserID, "sub@daycare.test")
	require.NoError(t, err)

	svc.On("UpdatePassword", mock.Anything, testUserID, "short", "short").Return(user.ErrPasswordTooShort)
	svc.On("UpdatePassword", mock.Anything, testUserID, "password123", "password123").Return(nil)

	w := executeRequest(r, "PUT", "/v1/me/password", UpdatePasswordRequest{Password: "short", ConfirmPassword: "short"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Password must be at least 8 characters."}`, w.Body.String())

	w = executeRequest(r, "PUT", "/v1/me/password", UpdatePasswordRequest{Password: "password123", ConfirmPassword: "password123"}, token)
	assert.Equal(t, http.StatusOK, w.Code)
}
