package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/daycare-sub-backend/internal/auth"
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/request"
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/response"
	"github.com/nekogravitycat/daycare-sub-backend/internal/shift"
)

type ShiftHandler struct {
	service shift.Service
}

func NewHandler(service shift.Service) *ShiftHandler {
	return &ShiftHandler{service: service}
}

// List retrieves a paginated list of an organization's shifts,
// ordered by date then start time.
func (h *ShiftHandler) List(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var req ListShiftsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	req.Normalize()

	filter := shift.Filter{
		OrganizationID: uri.ID,
		Status:         shift.Status(req.Status),
		From:           parseDate(req.From),
		To:             parseDate(req.To),
		Page:           req.Page,
		PageSize:       req.PageSize,
	}

	shifts, total, err := h.service.List(c.Request.Context(), auth.GetUserID(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewPageResponse(NewShiftResponses(shifts), req.Page, req.PageSize, total))
}

// Create posts a new open shift.
// Access Control: admins, managers and platform admins.
func (h *ShiftHandler) Create(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var body CreateShiftRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	req := shift.CreateShiftRequest{
		OrganizationID: uri.ID,
		Date:           body.Date,
		StartTime:      body.StartTime,
		EndTime:        body.EndTime,
		Title:          body.Title,
		Notes:          body.Notes,
	}

	s, err := h.service.Create(c.Request.Context(), auth.GetUserID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewShiftResponse(s))
}

// Board groups an organization's shifts into dashboard sections.
func (h *ShiftHandler) Board(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	board, err := h.service.Board(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBoardResponse(board))
}

// OrganizationRoster lists every claim in the organization with claimant emails.
// Access Control: admins, managers and platform admins.
func (h *ShiftHandler) OrganizationRoster(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	rows, err := h.service.RosterByOrganization(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": NewRosterResponses(rows)})
}

// ShiftRoster returns the roster of one shift (zero or one row).
func (h *ShiftHandler) ShiftRoster(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	rows, err := h.service.RosterByShift(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": NewRosterResponses(rows)})
}

// Get retrieves a shift with its claim and the caller's allowed actions.
func (h *ShiftHandler) Get(c *gin.Context) {
	h.respond(c, h.service.Detail)
}

func (h *ShiftHandler) Claim(c *gin.Context)  { h.respond(c, h.service.Claim) }
func (h *ShiftHandler) Start(c *gin.Context)  { h.respond(c, h.service.Start) }
func (h *ShiftHandler) End(c *gin.Context)    { h.respond(c, h.service.End) }
func (h *ShiftHandler) Verify(c *gin.Context) { h.respond(c, h.service.Verify) }
func (h *ShiftHandler) Cancel(c *gin.Context) { h.respond(c, h.service.Cancel) }

type detailFunc func(ctx context.Context, callerID string, shiftID string) (*shift.Detail, error)

// respond binds the shift ID, runs fn and writes the resulting detail.
func (h *ShiftHandler) respond(c *gin.Context, fn detailFunc) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	d, err := fn(c.Request.Context(), auth.GetUserID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewDetailResponse(d))
}

// parseDate expects a value already validated by the isodate binding.
func parseDate(v string) *time.Time {
	if v == "" {
		return nil
	}
	t, err := time.Parse(request.DateLayout, v)
	if err != nil {
		return nil
	}
	return &t
}
