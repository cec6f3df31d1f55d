package service

import "github.com/iliyamo/restaurant-reservation/internal/model"

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint64
	Role   string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// Guard decides which reservation operations an actor may run.
//
// Booking is reserved to customers.  Editing the order, the schedule, the
// friend list or the table is left to the owner.  Lifecycle changes
// (status and payment) may also be run by staff with the admin role.
// Reading is open to the owner, invited friends and admins.  Edits by a
// stranger answer "not found" so reservation ids cannot be enumerated.
type Guard struct{}

// CanCreate allows booking to signed-in customers only.
func (Guard) CanCreate(a Actor) error {
	if a.UserID == 0 || a.Role != model.RoleUser {
		return ErrForbidden
	}
	return nil
}

// CanView lets admins and the reservation's members read res.
func (Guard) CanView(a Actor, res *model.Reservation) error {
	if a.IsAdmin() || res.IsParticipant(a.UserID) {
		return nil
	}
	return ErrForbidden
}

// CanEdit allows only the owner to change the order, schedule, friends or
// table of res.
func (Guard) CanEdit(a Actor, res *model.Reservation) error {
	if res.UserID != a.UserID {
		return ErrReservationNotFound
	}
	return nil
}

// CanManageLifecycle allows the owner or an admin to move status and
// payment.
func (Guard) CanManageLifecycle(a Actor, res *model.Reservation) error {
	if a.IsAdmin() || res.UserID == a.UserID {
		return nil
	}
	return ErrReservationNotFound
}

// CanListAll gates the admin listings.
func (Guard) CanListAll(a Actor) error {
	if !a.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
