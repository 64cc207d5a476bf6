package http

import (
	"time"

	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/request"
	"github.com/nekogravitycat/daycare-sub-backend/internal/shift"
)

// CreateShiftRequest is the payload for POST /organizations/:id/shifts.
type CreateShiftRequest struct {
	Date      string `json:"date" binding:"required,isodate"`
	StartTime string `json:"start_time" binding:"required,hhmm"`
	EndTime   string `json:"end_time" binding:"required,hhmm"`
	Title     string `json:"title" binding:"omitempty,max=200"`
	Notes     string `json:"notes" binding:"omitempty,max=2000"`
}

// ListShiftsRequest holds query params for listing shifts.
type ListShiftsRequest struct {
	request.ListParams
	Status string `form:"status" binding:"omitempty,oneof=open claimed completed verified"`
	From   string `form:"from" binding:"omitempty,isodate"`
	To     string `form:"to" binding:"omitempty,isodate"`
}

// ClaimResponse is the public view of a claim.
type ClaimResponse struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	ClaimedAt  time.Time  `json:"claimed_at"`
	CheckInAt  *time.Time `json:"check_in_at"`
	CheckOutAt *time.Time `json:"check_out_at"`
}

// ShiftResponse is the public view of a shift.
type ShiftResponse struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	Date           string         `json:"date"`
	StartTime      string         `json:"start_time"`
	EndTime        string         `json:"end_time"`
	Title          *string        `json:"title"`
	Notes          *string        `json:"notes"`
	Status         string         `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	VerifiedAt     *time.Time     `json:"verified_at"`
	VerifiedBy     *string        `json:"verified_by"`
	Claim          *ClaimResponse `json:"claim"`
}

// RosterRowResponse joins a claim to the claimant's email.
type RosterRowResponse struct {
	ShiftID    string     `json:"shift_id"`
	Date       string     `json:"date"`
	StartTime  string     `json:"start_time"`
	EndTime    string     `json:"end_time"`
	Title      *string    `json:"title"`
	Status     string     `json:"status"`
	ClaimID    string     `json:"claim_id"`
	UserID     string     `json:"user_id"`
	Email      string     `json:"email"`
	ClaimedAt  time.Time  `json:"claimed_at"`
	CheckInAt  *time.Time `json:"check_in_at"`
	CheckOutAt *time.Time `json:"check_out_at"`
}

// DetailResponse is a shift with the caller's allowed actions.
type DetailResponse struct {
	Shift   ShiftResponse      `json:"shift"`
	MyRole  string             `json:"my_role"`
	Actions []string           `json:"actions"`
	Roster  *RosterRowResponse `json:"roster"`
}

// BoardResponse groups an organization's shifts for the caller.
type BoardResponse struct {
	Open              []ShiftResponse `json:"open"`
	Mine              []ShiftResponse `json:"mine"`
	NeedsVerification []ShiftResponse `json:"needs_verification"`
	Verified          []ShiftResponse `json:"verified"`
	Other             []ShiftResponse `json:"other"`
}

func NewShiftResponse(s *shift.Shift) ShiftResponse {
	resp := ShiftResponse{
		ID:             s.ID,
		OrganizationID: s.OrganizationID,
		Date:           s.Date.Format(request.DateLayout),
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		Title:          s.Title,
		Notes:          s.Notes,
		Status:         string(s.Status),
		CreatedAt:      s.CreatedAt,
		VerifiedAt:     s.VerifiedAt,
		VerifiedBy:     s.VerifiedBy,
	}
	if s.Claim != nil {
		resp.Claim = &ClaimResponse{
			ID:         s.Claim.ID,
			UserID:     s.Claim.UserID,
			ClaimedAt:  s.Claim.ClaimedAt,
			CheckInAt:  s.Claim.CheckInAt,
			CheckOutAt: s.Claim.CheckOutAt,
		}
	}
	return resp
}

func NewShiftResponses(shifts []*shift.Shift) []ShiftResponse {
	items := make([]ShiftResponse, len(shifts))
	for i, s := range shifts {
		items[i] = NewShiftResponse(s)
	}
	return items
}

func NewRosterRowResponse(r *shift.RosterRow) RosterRowResponse {
	return RosterRowResponse{
		ShiftID:    r.ShiftID,
		Date:       r.Date.Format(request.DateLayout),
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		Title:      r.Title,
		Status:     string(r.Status),
		ClaimID:    r.ClaimID,
		UserID:     r.UserID,
		Email:      r.Email,
		ClaimedAt:  r.ClaimedAt,
		CheckInAt:  r.CheckInAt,
		CheckOutAt: r.CheckOutAt,
	}
}

func NewRosterResponses(rows []*shift.RosterRow) []RosterRowResponse {
	items := make([]RosterRowResponse, len(rows))
	for i, r := range rows {
		items[i] = NewRosterRowResponse(r)
	}
	return items
}

func NewDetailResponse(d *shift.Detail) DetailResponse {
	actions := make([]string, len(d.Actions))
	for i, a := range d.Actions {
		actions[i] = string(a)
	}

	resp := DetailResponse{
		Shift:   NewShiftResponse(d.Shift),
		MyRole:  string(d.Role),
		Actions: actions,
	}
	if d.Roster != nil {
		roster := NewRosterRowResponse(d.Roster)
		resp.Roster = &roster
	}
	return resp
}

func NewBoardResponse(b *shift.Board) BoardResponse {
	return BoardResponse{
		Open:              NewShiftResponses(b.Open),
		Mine:              NewShiftResponses(b.Mine),
		NeedsVerification: NewShiftResponses(b.NeedsVerification),
		Verified:          NewShiftResponses(b.Verified),
		Other:             NewShiftResponses(b.Other),
	}
}
