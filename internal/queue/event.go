// Package queue defines reservation events and the brokers that carry them.
package queue

import (
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// Event types published after a reservation transaction commits.
const (
    EventReservationCreated = "reservation.created"
    EventStatusChanged      = "reservation.status_changed"
    EventPaymentUpdated     = "reservation.payment_updated"
    EventOrderUpdated       = "reservation.order_updated"
    EventTableChanged       = "reservation.table_changed"
)

// ReservationEvent describes one committed change.  It carries enough for
// downstream consumers to log, notify, or feed analytics without querying
// the primary database.
type ReservationEvent struct {
    ID              string `json:"id"`
    Type            string `json:"type"`
    ReservationID   uint64 `json:"reservation_id"`
    UserID          uint64 `json:"user_id"`
    TableID         uint64 `json:"table_id"`
    PreviousTableID uint64 `json:"previous_table_id,omitempty"`
    Status          string `json:"status"`
    PreviousStatus  string `json:"previous_status,omitempty"`
    PayStatus       string `json:"pay_status"`
    TotalCents      int64  `json:"total_cents"`
    DepositCents    int64  `json:"deposit_cents"`
    OccurredAt      string `json:"occurred_at"`
}

// NewReservationEvent snapshots res into an event of the given type.
func NewReservationEvent(typ string, res *model.Reservation) ReservationEvent {
    return ReservationEvent{
        ID:            uuid.NewString(),
        Type:          typ,
        ReservationID: res.ID,
        UserID:        res.UserID,
        TableID:       res.TableID,
        Status:        string(res.Status),
        PayStatus:     string(res.PayStatus),
        TotalCents:    res.TotalCents,
        DepositCents:  res.DepositCents,
        OccurredAt:    time.Now().UTC().Format(time.RFC3339),
    }
}
