package service

import "errors"

// Kind classifies a business failure so the HTTP layer can pick a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidState
	KindConflict
	KindValidation
	KindForbidden
)

// Error is a typed business-rule failure.  Code is a stable machine
// readable identifier; Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrTableNotFound       = newError(KindNotFound, "table_not_found", "table not found")
	ErrFoodNotFound        = newError(KindNotFound, "food_not_found", "food not found")
	ErrUserNotFound        = newError(KindNotFound, "user_not_found", "user not found")
	ErrReservationNotFound = newError(KindNotFound, "reservation_not_found", "reservation not found")
	ErrFriendNotFound      = newError(KindNotFound, "friend_not_found", "friend not found in reservation")

	ErrTableUnavailable = newError(KindConflict, "table_unavailable", "table is not available")
	ErrDuplicateFriend  = newError(KindConflict, "duplicate_friend", "friend already added")

	ErrReservationCanceled  = newError(KindInvalidState, "reservation_canceled", "reservation is canceled")
	ErrReservationCompleted = newError(KindInvalidState, "reservation_completed", "reservation is already completed")
	ErrInvalidStatus        = newError(KindInvalidState, "invalid_status", "invalid status")
	ErrInvalidPaymentStatus = newError(KindInvalidState, "invalid_payment_status", "invalid payment status")
	ErrInvalidTransition    = newError(KindInvalidState, "invalid_transition", "status change not allowed")
	ErrNotPending           = newError(KindInvalidState, "not_pending", "table can only be changed while the reservation is pending")

	ErrInvalidQuantity      = newError(KindValidation, "invalid_quantity", "quantity must be between 1 and 1000")
	ErrInvalidPrice         = newError(KindValidation, "invalid_price", "menu price is not a number")
	ErrInvalidDepositAmount = newError(KindValidation, "invalid_deposit_amount", "deposit must be greater than 0 and less than the total")
	ErrInvalidFriend        = newError(KindValidation, "invalid_friend", "the owner cannot be added as a friend")
	ErrOrderTooLarge        = newError(KindValidation, "order_too_large", "order total is too large")

	ErrForbidden = newError(KindForbidden, "forbidden", "forbidden")
)

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the Code of the first *Error in err's chain.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal_error"
}
