package model

import "time"

// Status is the lifecycle state of a reservation.
type Status string

const (
    StatusPending  Status = "pending"
    StatusCanceled Status = "canceled"
    StatusConfirm  Status = "confirm"
    StatusProcess  Status = "process"
    StatusLeave    Status = "leave"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
    switch s {
    case StatusPending, StatusCanceled, StatusConfirm, StatusProcess, StatusLeave:
        return true
    }
    return false
}

// PayStatus is the payment state of a reservation.
type PayStatus string

const (
    PayUnpaid   PayStatus = "unpaid"
    PayDeposit  PayStatus = "deposit"
    PayPaid     PayStatus = "paid"
    PayCanceled PayStatus = "canceled"
)

// Valid reports whether p is one of the known payment states.
func (p PayStatus) Valid() bool {
    switch p {
    case PayUnpaid, PayDeposit, PayPaid, PayCanceled:
        return true
    }
    return false
}

// Reservation is the aggregate that binds a user, a table, a time slot and
// a food order.  It owns its line items and friend list; the user and the
// table are referenced by id only.  Money is kept in cents.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – owner; never changes after creation.
//  TableID       – table currently held by the reservation.
//  Date, Time    – schedule strings kept exactly as submitted.
//  Friends       – invited user ids in insertion order, owner excluded.
//  Items         – ordered line items with price/image snapshots.
//  SubtotalCents – sum of line totals.
//  TaxCents      – tax on the subtotal.
//  TotalCents    – subtotal plus tax.
//  DepositCents  – deposit taken when PayStatus is PayDeposit.
type Reservation struct {
    ID            uint64     // reservations.id
    UserID        uint64     // reservations.user_id
    TableID       uint64     // reservations.table_id
    Date          string     // reservations.res_date
    Time          string     // reservations.res_time
    Note          string     // reservations.note
    NoteFood      string     // reservations.note_food
    Friends       []uint64   // reservation_friends.user_id
    Items         []LineItem // reservation_items
    SubtotalCents int64      // reservations.subtotal_cents
    TaxCents      int64      // reservations.tax_cents
    TotalCents    int64      // reservations.total_cents
    DepositCents  int64      // reservations.deposit_cents
    Status        Status     // reservations.status
    PayStatus     PayStatus  // reservations.pay_status
    CreatedAt     time.Time  // reservations.created_at
    UpdatedAt     time.Time  // reservations.updated_at
}

// HasFriend reports whether userID is on the friend list.
func (r *Reservation) HasFriend(userID uint64) bool {
    for _, id := range r.Friends {
        if id == userID {
            return true
        }
    }
    return false
}

// IsParticipant reports whether userID owns the reservation or was invited to it.
func (r *Reservation) IsParticipant(userID uint64) bool {
    return r.UserID == userID || r.HasFriend(userID)
}

// LineItem is one ordered food.  UnitPriceCents and Image are copied from
// the menu when the order is written and are never re-resolved.
type LineItem struct {
    ID             uint64 // reservation_items.id
    FoodID         uint64 // reservation_items.food_id
    Quantity       int    // reservation_items.quantity
    UnitPriceCents int64  // reservation_items.unit_price_cents
    PriceCents     int64  // reservation_items.price_cents (unit * quantity)
    Image          string // reservation_items.image
}

// ReservationFilter narrows reservation listings.  Zero values mean "any".
type ReservationFilter struct {
    Status        Status // only this status when non-empty
    ParticipantID uint64 // owner or friend when non-zero
}
