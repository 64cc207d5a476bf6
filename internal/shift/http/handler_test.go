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
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/request"
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/response"
	"github.com/nekogravitycat/daycare-sub-backend/internal/shift"
)

type mockShiftService struct {
	mock.Mock
}

func (m *mockShiftService) Create(ctx context.Context, callerID string, req shift.CreateShiftRequest) (*shift.Shift, error) {
	args := m.Called(ctx, callerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shift.Shift), args.Error(1)
}

func (m *mockShiftService) List(ctx context.Context, callerID string, filter shift.Filter) ([]*shift.Shift, int, error) {
	args := m.Called(ctx, callerID, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*shift.Shift), args.Int(1), args.Error(2)
}

func (m *mockShiftService) Board(ctx context.Context, callerID string, orgID string) (*shift.Board, error) {
	args := m.Called(ctx, callerID, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shift.Board), args.Error(1)
}

func (m *mockShiftService) Detail(ctx context.Context, callerID string, shiftID string) (*shift.Detail, error) {
	args := m.Called(ctx, callerID, shiftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shift.Detail), args.Error(1)
}

func (m *mockShiftService) Claim(ctx context.Context, callerID string, shiftID string) (*shift.Detail, error) {
	args := m.Called(ctx, callerID, shiftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shift.Detail), args.Error(1)
}

func (m *mockShiftService) Start(ctx context.Context, callerID string, shiftID string) (*shift.Detail, error) {
	args := m.Called(ctx, callerID, shiftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shift.Detail), args.Error(1)
}

func (m *mockShiftService) End(ctx context.Context, callerID string, shiftID string) (*shift.Detail, error) {
	args := m.Called(ctx, callerID, shiftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shift.Detail), args.Error(1)
}

func (m *mockShiftService) Verify(ctx context.Context, callerID string, shiftID string) (*shift.Detail, error) {
	args := m.Called(ctx, callerID, shiftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shift.Detail), args.Error(1)
}

func (m *mockShiftService) Cancel(ctx context.Context, callerID string, shiftID string) (*shift.Detail, error) {
	args := m.Called(ctx, callerID, shiftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shift.Detail), args.Error(1)
}

func (m *mockShiftService) RosterByOrganization(ctx context.Context, callerID string, orgID string) ([]*shift.RosterRow, error) {
	args := m.Called(ctx, callerID, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shift.RosterRow), args.Error(1)
}

func (m *mockShiftService) RosterByShift(ctx context.Context, callerID string, shiftID string) ([]*shift.RosterRow, error) {
	args := m.Called(ctx, callerID, shiftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shift.RosterRow), args.Error(1)
}

const (
	testUserID  = "2b0c3c57-5d4e-4a43-9f0f-5f9d6c1e7a01"
	testOrgID   = "0d8c0d3e-8f3a-4d7a-9a53-3b6f0b1c2d44"
	testShiftID = "9a1f2e3d-4c5b-4a69-8877-665544332211"
)

func setupRouter(t *testing.T, svc *mockShiftService) (*gin.Engine, string) {
	gin.SetMode(gin.TestMode)
	require.NoError(t, request.RegisterValidators())

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.GenerateAccessToken(testUserID, "sub@daycare.test")
	require.NoError(t, err)

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc), auth.AuthRequired(jwtManager, nil))
	return r, token
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

func sampleShift(status shift.Status) *shift.Shift {
	title := "Toddler room"
	return &shift.Shift{
		ID:             testShiftID,
		OrganizationID: testOrgID,
		Date:           time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
		StartTime:      "08:00",
		EndTime:        "12:30",
		Title:          &title,
		Status:         status,
	}
}

func TestCreateShift(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(mockShiftService)
		r, token := setupRouter(t, svc)

		want := shift.CreateShiftRequest{
			OrganizationID: testOrgID,
			Date:           "2026-03-16",
			StartTime:      "08:00",
			EndTime:        "12:30",
			Title:          "Toddler room",
		}
		svc.On("Create", mock.Anything, testUserID, want).Return(sampleShift(shift.StatusOpen), nil)

		body := CreateShiftRequest{Date: "2026-03-16", StartTime: "08:00", EndTime: "12:30", Title: "Toddler room"}
		w := executeRequest(r, "POST", "/v1/organizations/"+testOrgID+"/shifts", body, token)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp ShiftResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "2026-03-16", resp.Date)
		assert.Equal(t, "open", resp.Status)
		assert.Nil(t, resp.Claim)
	})

	t.Run("Invalid Time Format", func(t *testing.T) {
		svc := new(mockShiftService)
		r, token := setupRouter(t, svc)

		body := CreateShiftRequest{Date: "2026-03-16", StartTime: "8am", EndTime: "12:30"}
		w := executeRequest(r, "POST", "/v1/organizations/"+testOrgID+"/shifts", body, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Forbidden", func(t *testing.T) {
		svc := new(mockShiftService)
		r, token := setupRouter(t, svc)
		svc.On("Create", mock.Anything, testUserID, mock.Anything).Return(nil, organization.ErrPermissionDenied)

		body := CreateShiftRequest{Date: "2026-03-16", StartTime: "08:00", EndTime: "12:30"}
		w := executeRequest(r, "POST", "/v1/organizations/"+testOrgID+"/shifts", body, token)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestListShifts(t *testing.T) {
	svc := new(mockShiftService)
	r, token := setupRouter(t, svc)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.On("List", mock.Anything, testUserID, shift.Filter{
		OrganizationID: testOrgID,
		Status:         shift.StatusOpen,
		From:           &from,
		Page:           1,
		PageSize:       20,
	}).Return([]*shift.Shift{sampleShift(shift.StatusOpen)}, 1, nil)

	w := executeRequest(r, "GET", "/v1/organizations/"+testOrgID+"/shifts?status=open&from=2026-03-01", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp response.PageResponse[ShiftResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Len(t, resp.Items, 1)

	w = executeRequest(r, "GET", "/v1/organizations/"+testOrgID+"/shifts?status=pending", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransitions(t *testing.T) {
	t.Run("Claim Returns Fresh Detail", func(t *testing.T) {
		svc := new(mockShiftService)
		r, token := setupRouter(t, svc)

		claimed := sampleShift(shift.StatusClaimed)
		claimed.Claim = &shift.Claim{ID: "c1", ShiftID: testShiftID, UserID: testUserID, ClaimedAt: time.Now().UTC()}
		svc.On("Claim", mock.Anything, testUserID, testShiftID).Return(&shift.Detail{
			Shift:   claimed,
			Role:    organization.RoleSubstitute,
			Actions: []shift.Action{shift.ActionStart, shift.ActionCancel},
		}, nil)

		w := executeRequest(r, "POST", "/v1/shifts/"+testShiftID+"/claim", nil, token)
		require.Equal(t, http.StatusOK, w.Code)

		var resp DetailResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "claimed", resp.Shift.Status)
		require.NotNil(t, resp.Shift.Claim)
		assert.Equal(t, testUserID, resp.Shift.Claim.UserID)
		assert.Equal(t, []string{"start", "cancel"}, resp.Actions)
		assert.Equal(t, "substitute", resp.MyRole)
		assert.Nil(t, resp.Roster)
	})

	t.Run("Lost Race Is Conflict", func(t *testing.T) {
		svc := new(mockShiftService)
		r, token := setupRouter(t, svc)
		svc.On("Claim", mock.Anything, testUserID, testShiftID).Return(nil, shift.ErrAlreadyClaimed)

		w := executeRequest(r, "POST", "/v1/shifts/"+testShiftID+"/claim", nil, token)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"error":"shift already claimed"}`, w.Body.String())
	})

	t.Run("Each Action Is Routed", func(t *testing.T) {
		for _, action := range []string{"Start", "End", "Verify", "Cancel"} {
			svc := new(mockShiftService)
			r, token := setupRouter(t, svc)
			svc.On(action, mock.Anything, testUserID, testShiftID).Return(nil, shift.ErrStateChanged)

			path := "/v1/shifts/" + testShiftID + "/" + map[string]string{
				"Start": "start", "End": "end", "Verify": "verify", "Cancel": "cancel",
			}[action]
			w := executeRequest(r, "POST", path, nil, token)
			assert.Equal(t, http.StatusConflict, w.Code, action)
			svc.AssertExpectations(t)
		}
	})

	t.Run("Bad Shift ID", func(t *testing.T) {
		svc := new(mockShiftService)
		r, token := setupRouter(t, svc)

		w := executeRequest(r, "POST", "/v1/shifts/not-a-uuid/claim", nil, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		svc := new(mockShiftService)
		r, _ := setupRouter(t, svc)

		w := executeRequest(r, "POST", "/v1/shifts/"+testShiftID+"/claim", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestBoardAndRoster(t *testing.T) {
	svc := new(mockShiftService)
	r, token := setupRouter(t, svc)

	svc.On("Board", mock.Anything, testUserID, testOrgID).Return(&shift.Board{
		Open: []*shift.Shift{sampleShift(shift.StatusOpen)},
	}, nil)
	svc.On("RosterByShift", mock.Anything, testUserID, testShiftID).Return(nil, organization.ErrPermissionDenied)

	w := executeRequest(r, "GET", "/v1/organizations/"+testOrgID+"/board", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var board BoardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &board))
	assert.Len(t, board.Open, 1)
	assert.NotNil(t, board.Mine)
	assert.Empty(t, board.Mine)

	w = executeRequest(r, "GET", "/v1/shifts/"+testShiftID+"/roster", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
