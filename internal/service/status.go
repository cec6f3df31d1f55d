package service

import (
	"fmt"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// validNext lists the lifecycle moves a reservation may make.  canceled
// and leave have no outgoing edges.
var validNext = map[model.Status]map[model.Status]bool{
	model.StatusPending: {
		model.StatusConfirm:  true,
		model.StatusProcess:  true,
		model.StatusLeave:    true,
		model.StatusCanceled: true,
	},
	model.StatusConfirm: {
		model.StatusProcess:  true,
		model.StatusCanceled: true,
	},
	model.StatusProcess: {
		model.StatusConfirm:  true,
		model.StatusLeave:    true,
		model.StatusCanceled: true,
	},
}

// CanTransition reports whether a reservation in from may move to to.
func CanTransition(from, to model.Status) bool {
	return validNext[from][to]
}

// IsTerminal reports whether s accepts no further mutation.
func IsTerminal(s model.Status) bool {
	return s == model.StatusCanceled || s == model.StatusLeave
}

// ensureMutable rejects any write to a reservation in a terminal state.
func ensureMutable(res *model.Reservation) error {
	if !IsTerminal(res.Status) {
		return nil
	}
	if res.Status == model.StatusCanceled {
		return ErrReservationCanceled
	}
	return ErrReservationCompleted
}

// checkTransition validates a status change on a live reservation.
func checkTransition(res *model.Reservation, to model.Status) error {
	if err := ensureMutable(res); err != nil {
		return err
	}
	if !CanTransition(res.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, to)
	}
	return nil
}

// checkDeposit enforces 0 < deposit < total.
func checkDeposit(depositCents, totalCents int64) error {
	if depositCents <= 0 || depositCents >= totalCents {
		return ErrInvalidDepositAmount
	}
	return nil
}
