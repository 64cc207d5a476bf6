package shift

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/daycare-sub-backend/internal/organization"
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/apperror"
)

var (
	ErrShiftNotFound    = apperror.New(http.StatusNotFound, "shift not found")
	ErrInvalidDate      = apperror.New(http.StatusBadRequest, "Invalid date")
	ErrInvalidTime      = apperror.New(http.StatusBadRequest, "Invalid time")
	ErrInvalidTimeRange = apperror.New(http.StatusBadRequest, "End time must be after start time.")
	ErrForbidden        = apperror.New(http.StatusForbidden, "Forbidden")
	ErrNotClaimant      = apperror.New(http.StatusForbidden, "only the claimant can do this")
	ErrAlreadyClaimed   = apperror.New(http.StatusConflict, "shift already claimed")
	ErrNotClaimed       = apperror.New(http.StatusConflict, "shift is not claimed")
	ErrAlreadyStarted   = apperror.New(http.StatusConflict, "shift already started")
	ErrNotStarted       = apperror.New(http.StatusConflict, "shift not started")
	ErrAlreadyEnded     = apperror.New(http.StatusConflict, "shift already ended")
	ErrNotCompleted     = apperror.New(http.StatusConflict, "shift is not completed")
	ErrShiftClosed      = apperror.New(http.StatusConflict, "shift is already completed")
	ErrStateChanged     = apperror.New(http.StatusConflict, "shift state changed")
	ErrInFlight         = apperror.New(http.StatusConflict, "request already in progress")
)

// Status is the persisted shift status.
type Status string

const (
	StatusOpen      Status = "open"
	StatusClaimed   Status = "claimed"
	StatusCompleted Status = "completed"
	StatusVerified  Status = "verified"
)

// Closed reports whether the work on the shift is over.
func (s Status) Closed() bool {
	return s == StatusCompleted || s == StatusVerified
}

// Action is a lifecycle transition a caller may perform.
type Action string

const (
	ActionClaim  Action = "claim"
	ActionStart  Action = "start"
	ActionEnd    Action = "end"
	ActionVerify Action = "verify"
	ActionCancel Action = "cancel"
)

// Shift is a dated work window posted by an organization.
type Shift struct {
	ID             string
	OrganizationID string
	Date           time.Time
	StartTime      string // HH:MM
	EndTime        string // HH:MM
	Title          *string
	Notes          *string
	Status         Status
	CreatedBy      *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	VerifiedAt     *time.Time
	VerifiedBy     *string
	// Claim is nil while nobody holds the shift.
	Claim *Claim
}

// Claim is a substitute's reservation of a shift.
type Claim struct {
	ID         string
	ShiftID    string
	UserID     string
	ClaimedAt  time.Time
	CheckInAt  *time.Time
	CheckOutAt *time.Time
}

// RosterRow joins a claim to the claimant's identity.
type RosterRow struct {
	ShiftID    string
	Date       time.Time
	StartTime  string
	EndTime    string
	Title      *string
	Status     Status
	ClaimID    string
	UserID     string
	Email      string
	ClaimedAt  time.Time
	CheckInAt  *time.Time
	CheckOutAt *time.Time
}

// Filter defines filter options for listing shifts.
type Filter struct {
	OrganizationID string
	Status         Status
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
}

// CreateShiftRequest carries the raw form input for a new shift.
type CreateShiftRequest struct {
	OrganizationID string
	Date           string // YYYY-MM-DD
	StartTime      string // HH:MM
	EndTime        string // HH:MM
	Title          string
	Notes          string
}

// Actor is the caller together with their role in the shift's organization.
type Actor struct {
	UserID string
	Role   organization.Role
}

// Detail is a shift as seen by one caller.
type Detail struct {
	Shift   *Shift
	Role    organization.Role
	Actions []Action
	// Roster is only loaded for callers who can manage the organization.
	Roster *RosterRow
}

// Board groups an organization's shifts for the caller's dashboard.
// Every shift appears in exactly one group.
type Board struct {
	Open              []*Shift
	Mine              []*Shift
	NeedsVerification []*Shift
	Verified          []*Shift
	Other             []*Shift
}
