package shift

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nekogravitycat/daycare-sub-backend/internal/organization"
)

// memRepo is an in-memory Repository that applies the same conditional
// predicates as the SQL implementation under a single lock.
type memRepo struct {
	mu     sync.Mutex
	seq    int
	shifts map[string]*Shift
	emails map[string]string
	// beforeWrite, when set, runs before each transition takes the lock.
	beforeWrite func()
}

func newMemRepo() *memRepo {
	return &memRepo{
		shifts: make(map[string]*Shift),
		emails: make(map[string]string),
	}
}

func (r *memRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func clone(s *Shift) *Shift {
	c := *s
	if s.Claim != nil {
		cl := *s.Claim
		c.Claim = &cl
	}
	return &c
}

func (r *memRepo) Create(ctx context.Context, s *Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.ID = r.nextID("shift")
	s.Status = StatusOpen
	r.shifts[s.ID] = clone(s)
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shifts[id]
	if !ok {
		return nil, ErrShiftNotFound
	}
	return clone(s), nil
}

func (r *memRepo) ListByOrganization(ctx context.Context, orgID string) ([]*Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*Shift
	for _, s := range r.shifts {
		if s.OrganizationID == orgID {
			out = append(out, clone(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *memRepo) List(ctx context.Context, filter Filter) ([]*Shift, int, error) {
	all, err := r.ListByOrganization(ctx, filter.OrganizationID)
	if err != nil {
		return nil, 0, err
	}
	var out []*Shift
	for _, s := range all {
		if filter.Status == "" || s.Status == filter.Status {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (r *memRepo) write(fn func() error) error {
	if r.beforeWrite != nil {
		r.beforeWrite()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}

func (r *memRepo) Claim(ctx context.Context, shiftID, userID string, at time.Time) error {
	return r.write(func() error {
		s, ok := r.shifts[shiftID]
		if !ok || s.Status != StatusOpen {
			return ErrAlreadyClaimed
		}
		if s.Claim != nil {
			return ErrAlreadyClaimed
		}
		s.Status = StatusClaimed
		s.Claim = &Claim{ID: r.nextID("claim"), ShiftID: shiftID, UserID: userID, ClaimedAt: at}
		return nil
	})
}

func (r *memRepo) Start(ctx context.Context, shiftID, claimID, userID string, at time.Time) error {
	return r.write(func() error {
		s, ok := r.shifts[shiftID]
		if !ok || s.Status != StatusClaimed || s.Claim == nil ||
			s.Claim.ID != claimID || s.Claim.UserID != userID || s.Claim.CheckInAt != nil {
			return ErrStateChanged
		}
		s.Claim.CheckInAt = &at
		return nil
	})
}

func (r *memRepo) End(ctx context.Context, shiftID, claimID, userID string, at time.Time) error {
	return r.write(func() error {
		s, ok := r.shifts[shiftID]
		if !ok || s.Status != StatusClaimed || s.Claim == nil || s.Claim.ID != claimID ||
			s.Claim.UserID != userID || s.Claim.CheckInAt == nil || s.Claim.CheckOutAt != nil {
			return ErrStateChanged
		}
		s.Claim.CheckOutAt = &at
		s.Status = StatusCompleted
		return nil
	})
}

func (r *memRepo) Verify(ctx context.Context, shiftID, verifierID string, at time.Time) error {
	return r.write(func() error {
		s, ok := r.shifts[shiftID]
		if !ok || s.Status != StatusCompleted {
			return ErrStateChanged
		}
		s.Status = StatusVerified
		s.VerifiedAt = &at
		s.VerifiedBy = &verifierID
		return nil
	})
}

func (r *memRepo) Cancel(ctx context.Context, shiftID, claimID string, at time.Time) error {
	return r.write(func() error {
		s, ok := r.shifts[shiftID]
		if !ok || s.Status != StatusClaimed || s.Claim == nil || s.Claim.ID != claimID || s.Claim.CheckInAt != nil {
			return ErrStateChanged
		}
		s.Claim = nil
		s.Status = StatusOpen
		return nil
	})
}

func (r *memRepo) rosterRow(s *Shift) *RosterRow {
	return &RosterRow{
		ShiftID:    s.ID,
		Date:       s.Date,
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		Title:      s.Title,
		Status:     s.Status,
		ClaimID:    s.Claim.ID,
		UserID:     s.Claim.UserID,
		Email:      r.emails[s.Claim.UserID],
		ClaimedAt:  s.Claim.ClaimedAt,
		CheckInAt:  s.Claim.CheckInAt,
		CheckOutAt: s.Claim.CheckOutAt,
	}
}

func (r *memRepo) RosterByOrganization(ctx context.Context, orgID string) ([]*RosterRow, error) {
	all, _ := r.ListByOrganization(ctx, orgID)
	var out []*RosterRow
	for _, s := range all {
		if s.Claim != nil {
			out = append(out, r.rosterRow(s))
		}
	}
	return out, nil
}

func (r *memRepo) RosterByShift(ctx context.Context, shiftID string) ([]*RosterRow, error) {
	s, err := r.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if s.Claim == nil {
		return nil, nil
	}
	return []*RosterRow{r.rosterRow(s)}, nil
}

// memberships is a fixed role table keyed by organization then user.
type memberships map[string]map[string]organization.Role

func (m memberships) RequireMember(ctx context.Context, orgID string, userID string) (organization.Role, error) {
	members, ok := m[orgID]
	if !ok {
		return organization.RoleNone, organization.ErrOrgNotFound
	}
	role, ok := members[userID]
	if !ok {
		return organization.RoleNone, organization.ErrPermissionDenied
	}
	return role, nil
}

func (m memberships) RequireManager(ctx context.Context, orgID string, userID string) (organization.Role, error) {
	role, err := m.RequireMember(ctx, orgID, userID)
	if err != nil {
		return organization.RoleNone, err
	}
	if !role.CanManage() {
		return organization.RoleNone, organization.ErrPermissionDenied
	}
	return role, nil
}
