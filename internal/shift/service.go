package shift

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/daycare-sub-backend/internal/organization"
	"github.com/nekogravitycat/daycare-sub-backend/internal/pkg/request"
)

// Memberships resolves the caller's role within an organization.
type Memberships interface {
	// RequireMember fails for missing organizations and non-members.
	RequireMember(ctx context.Context, orgID string, userID string) (organization.Role, error)
	RequireManager(ctx context.Context, orgID string, userID string) (organization.Role, error)
}

// Service is the shift lifecycle controller. Mutations return the state
// re-read after the write.
type Service interface {
	Create(ctx context.Context, callerID string, req CreateShiftRequest) (*Shift, error)
	List(ctx context.Context, callerID string, filter Filter) ([]*Shift, int, error)
	Board(ctx context.Context, callerID string, orgID string) (*Board, error)
	Detail(ctx context.Context, callerID string, shiftID string) (*Detail, error)

	Claim(ctx context.Context, callerID string, shiftID string) (*Detail, error)
	Start(ctx context.Context, callerID string, shiftID string) (*Detail, error)
	End(ctx context.Context, callerID string, shiftID string) (*Detail, error)
	Verify(ctx context.Context, callerID string, shiftID string) (*Detail, error)
	Cancel(ctx context.Context, callerID string, shiftID string) (*Detail, error)

	RosterByOrganization(ctx context.Context, callerID string, orgID string) ([]*RosterRow, error)
	RosterByShift(ctx context.Context, callerID string, shiftID string) ([]*RosterRow, error)
}

type service struct {
	repo     Repository
	orgs     Memberships
	logger   *zap.Logger
	inflight *inflight
	now      func() time.Time
}

// NewService creates a new shift service.
func NewService(repo Repository, orgs Memberships, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		orgs:     orgs,
		logger:   logger,
		inflight: newInflight(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Create(ctx context.Context, callerID string, req CreateShiftRequest) (*Shift, error) {
	if _, err := s.orgs.RequireManager(ctx, req.OrganizationID, callerID); err != nil {
		return nil, err
	}

	date, err := time.Parse(request.DateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return nil, ErrInvalidDate
	}
	start, err := time.Parse(request.TimeLayout, strings.TrimSpace(req.StartTime))
	if err != nil {
		return nil, ErrInvalidTime
	}
	end, err := time.Parse(request.TimeLayout, strings.TrimSpace(req.EndTime))
	if err != nil {
		return nil, ErrInvalidTime
	}
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}

	sh := &Shift{
		OrganizationID: req.OrganizationID,
		Date:           date,
		StartTime:      start.Format(request.TimeLayout),
		EndTime:        end.Format(request.TimeLayout),
		Title:          optional(req.Title),
		Notes:          optional(req.Notes),
		Status:         StatusOpen,
		CreatedBy:      &callerID,
	}
	if err := s.repo.Create(ctx, sh); err != nil {
		return nil, err
	}

	s.logger.Info("shift created",
		zap.String("shift_id", sh.ID),
		zap.String("organization_id", sh.OrganizationID),
		zap.String("user_id", callerID),
	)
	return sh, nil
}

func (s *service) List(ctx context.Context, callerID string, filter Filter) ([]*Shift, int, error) {
	if _, err := s.orgs.RequireMember(ctx, filter.OrganizationID, callerID); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter)
}

func (s *service) Board(ctx context.Context, callerID string, orgID string) (*Board, error) {
	if _, err := s.orgs.RequireMember(ctx, orgID, callerID); err != nil {
		return nil, err
	}

	shifts, err := s.repo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return Group(shifts, callerID), nil
}

func (s *service) Detail(ctx context.Context, callerID string, shiftID string) (*Detail, error) {
	sh, actor, err := s.load(ctx, callerID, shiftID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, sh, actor)
}

// load reads the shift and the caller's role in its organization.
func (s *service) load(ctx context.Context, callerID string, shiftID string) (*Shift, Actor, error) {
	sh, err := s.repo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, Actor{}, err
	}

	role, err := s.orgs.RequireMember(ctx, sh.OrganizationID, callerID)
	if err != nil {
		return nil, Actor{}, err
	}
	return sh, Actor{UserID: callerID, Role: role}, nil
}

func (s *service) detail(ctx context.Context, sh *Shift, actor Actor) (*Detail, error) {
	d := &Detail{
		Shift:   sh,
		Role:    actor.Role,
		Actions: AllowedActions(sh, actor),
	}

	if actor.Role.CanManage() {
		rows, err := s.repo.RosterByShift(ctx, sh.ID)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			d.Roster = rows[0]
		}
	}
	return d, nil
}

// ------------------------
//       Transitions
// ------------------------

func (s *service) Claim(ctx context.Context, callerID string, shiftID string) (*Detail, error) {
	return s.transition(ctx, callerID, shiftID, ActionClaim, CanClaim,
		func(ctx context.Context, sh *Shift, at time.Time) error {
			return s.repo.Claim(ctx, sh.ID, callerID, at)
		})
}

func (s *service) Start(ctx context.Context, callerID string, shiftID string) (*Detail, error) {
	return s.transition(ctx, callerID, shiftID, ActionStart, CanStart,
		func(ctx context.Context, sh *Shift, at time.Time) error {
			return s.repo.Start(ctx, sh.ID, sh.Claim.ID, callerID, at)
		})
}

func (s *service) End(ctx context.Context, callerID string, shiftID string) (*Detail, error) {
	return s.transition(ctx, callerID, shiftID, ActionEnd, CanEnd,
		func(ctx context.Context, sh *Shift, at time.Time) error {
			return s.repo.End(ctx, sh.ID, sh.Claim.ID, callerID, at)
		})
}

func (s *service) Verify(ctx context.Context, callerID string, shiftID string) (*Detail, error) {
	return s.transition(ctx, callerID, shiftID, ActionVerify, CanVerify,
		func(ctx context.Context, sh *Shift, at time.Time) error {
			return s.repo.Verify(ctx, sh.ID, callerID, at)
		})
}

func (s *service) Cancel(ctx context.Context, callerID string, shiftID string) (*Detail, error) {
	return s.transition(ctx, callerID, shiftID, ActionCancel, CanCancel,
		func(ctx context.Context, sh *Shift, at time.Time) error {
			return s.repo.Cancel(ctx, sh.ID, sh.Claim.ID, at)
		})
}

type writeFunc func(ctx context.Context, sh *Shift, at time.Time) error

// transition runs one guarded write. A failed write leaves nothing applied
// and its error is returned as is; a successful one is followed by a fresh read.
func (s *service) transition(ctx context.Context, callerID, shiftID string, action Action, guard func(*Shift, Actor) error, write writeFunc) (*Detail, error) {
	release, ok := s.inflight.acquire(shiftID, callerID)
	if !ok {
		return nil, ErrInFlight
	}
	defer release()

	sh, actor, err := s.load(ctx, callerID, shiftID)
	if err != nil {
		return nil, err
	}
	if err := guard(sh, actor); err != nil {
		return nil, err
	}

	if err := write(ctx, sh, s.now()); err != nil {
		s.logger.Warn("shift transition rejected",
			zap.String("action", string(action)),
			zap.String("shift_id", shiftID),
			zap.String("user_id", callerID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("shift transition",
		zap.String("action", string(action)),
		zap.String("shift_id", shiftID),
		zap.String("user_id", callerID),
		zap.String("from", string(sh.Status)),
	)

	fresh, err := s.repo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, fresh, actor)
}

// ------------------------
//         Rosters
// ------------------------

func (s *service) RosterByOrganization(ctx context.Context, callerID string, orgID string) ([]*RosterRow, error) {
	if _, err := s.orgs.RequireManager(ctx, orgID, callerID); err != nil {
		return nil, err
	}
	return s.repo.RosterByOrganization(ctx, orgID)
}

func (s *service) RosterByShift(ctx context.Context, callerID string, shiftID string) ([]*RosterRow, error) {
	sh, err := s.repo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if _, err := s.orgs.RequireManager(ctx, sh.OrganizationID, callerID); err != nil {
		return nil, err
	}
	return s.repo.RosterByShift(ctx, shiftID)
}

// optional trims v and maps an empty result to nil.
func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
