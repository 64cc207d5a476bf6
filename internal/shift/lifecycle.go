package shift

// The guards below decide whether a caller may perform a transition on the
// shift as last read. The repository repeats the state predicates inside the
// write, so a guard passing here does not guarantee the write succeeds.

// CanClaim requires an open shift with no claim.
func CanClaim(s *Shift, a Actor) error {
	if s.Claim != nil || s.Status == StatusClaimed {
		return ErrAlreadyClaimed
	}
	if s.Status != StatusOpen {
		return ErrShiftClosed
	}
	return nil
}

// CanStart requires the claimant, no check-in yet, and a shift still in progress.
func CanStart(s *Shift, a Actor) error {
	if s.Claim == nil {
		return ErrNotClaimed
	}
	if s.Claim.UserID != a.UserID {
		return ErrNotClaimant
	}
	if s.Status.Closed() {
		return ErrShiftClosed
	}
	if s.Claim.CheckInAt != nil {
		return ErrAlreadyStarted
	}
	return nil
}

// CanEnd requires the claimant to have checked in and not yet checked out.
func CanEnd(s *Shift, a Actor) error {
	if s.Claim == nil {
		return ErrNotClaimed
	}
	if s.Claim.UserID != a.UserID {
		return ErrNotClaimant
	}
	if s.Status.Closed() {
		return ErrShiftClosed
	}
	if s.Claim.CheckInAt == nil {
		return ErrNotStarted
	}
	if s.Claim.CheckOutAt != nil {
		return ErrAlreadyEnded
	}
	return nil
}

// CanVerify requires a manager and a completed shift.
func CanVerify(s *Shift, a Actor) error {
	if !a.Role.CanManage() {
		return ErrForbidden
	}
	if s.Status != StatusCompleted {
		return ErrNotCompleted
	}
	return nil
}

// CanCancel requires a claim without check-in, held by the caller unless the
// caller manages the organization.
func CanCancel(s *Shift, a Actor) error {
	if s.Claim == nil {
		return ErrNotClaimed
	}
	if s.Claim.CheckInAt != nil {
		return ErrAlreadyStarted
	}
	if s.Status.Closed() {
		return ErrShiftClosed
	}
	if s.Claim.UserID != a.UserID && !a.Role.CanManage() {
		return ErrForbidden
	}
	return nil
}

var guards = []struct {
	action Action
	check  func(*Shift, Actor) error
}{
	{ActionClaim, CanClaim},
	{ActionStart, CanStart},
	{ActionEnd, CanEnd},
	{ActionVerify, CanVerify},
	{ActionCancel, CanCancel},
}

// AllowedActions lists the transitions the actor may attempt right now.
func AllowedActions(s *Shift, a Actor) []Action {
	actions := make([]Action, 0, len(guards))
	for _, g := range guards {
		if g.check(s, a) == nil {
			actions = append(actions, g.action)
		}
	}
	return actions
}

// Group places each shift into exactly one board section for userID.
func Group(shifts []*Shift, userID string) *Board {
	b := &Board{
		Open:              []*Shift{},
		Mine:              []*Shift{},
		NeedsVerification: []*Shift{},
		Verified:          []*Shift{},
		Other:             []*Shift{},
	}

	for _, s := range shifts {
		mine := s.Claim != nil && s.Claim.UserID == userID
		switch {
		case s.Status == StatusCompleted:
			b.NeedsVerification = append(b.NeedsVerification, s)
		case s.Status == StatusVerified:
			b.Verified = append(b.Verified, s)
		case mine:
			b.Mine = append(b.Mine, s)
		case s.Status == StatusOpen:
			b.Open = append(b.Open, s)
		default:
			b.Other = append(b.Other, s)
		}
	}
	return b
}
