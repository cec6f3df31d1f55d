package repository

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// ReservationTx is the set of writes the reservation engine performs inside
// one storage transaction.  Every method runs on the same *sql.Tx, so either
// all of them are committed or none are.
type ReservationTx interface {
    ClaimTable(ctx context.Context, tableID uint64) error
    ReleaseTable(ctx context.Context, tableID uint64) error
    InsertReservation(ctx context.Context, res *model.Reservation) error
    LockReservation(ctx context.Context, id uint64) (*model.Reservation, error)
    UpdateReservation(ctx context.Context, res *model.Reservation) error
    ReplaceItems(ctx context.Context, reservationID uint64, items []model.LineItem) error
    AddFriend(ctx context.Context, reservationID, userID uint64) error
    RemoveFriend(ctx context.Context, reservationID, userID uint64) error
}

// Store runs reservation work against MySQL.  It pairs the table and
// reservation repositories behind one transaction boundary.
type Store struct {
    db           *sql.DB
    tables       *TableRepo
    reservations *ReservationRepo
}

// NewStore returns a Store bound to db.
func NewStore(db *sql.DB, tables *TableRepo, reservations *ReservationRepo) *Store {
    return &Store{db: db, tables: tables, reservations: reservations}
}

// WithinTx begins a transaction, hands it to fn and commits when fn returns
// nil.  Any error from fn, or a panic, rolls the transaction back.
func (s *Store) WithinTx(ctx context.Context, fn func(tx ReservationTx) error) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return fmt.Errorf("begin tx: %w", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&sqlReservationTx{tx: tx, tables: s.tables, reservations: s.reservations}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return fmt.Errorf("commit tx: %w", err)
    }
    committed = true
    return nil
}

// GetReservation loads a reservation outside of any transaction.
func (s *Store) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
    return s.reservations.GetByID(ctx, id)
}

// ListReservations returns reservations matching f, newest first.
func (s *Store) ListReservations(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
    return s.reservations.List(ctx, f)
}

type sqlReservationTx struct {
    tx           *sql.Tx
    tables       *TableRepo
    reservations *ReservationRepo
}

func (t *sqlReservationTx) ClaimTable(ctx context.Context, tableID uint64) error {
    return t.tables.ClaimTx(ctx, t.tx, tableID)
}

func (t *sqlReservationTx) ReleaseTable(ctx context.Context, tableID uint64) error {
    return t.tables.ReleaseTx(ctx, t.tx, tableID)
}

func (t *sqlReservationTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
    return t.reservations.CreateTx(ctx, t.tx, res)
}

func (t *sqlReservationTx) LockReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
    return t.reservations.LockTx(ctx, t.tx, id)
}

func (t *sqlReservationTx) UpdateReservation(ctx context.Context, res *model.Reservation) error {
    return t.reservations.UpdateTx(ctx, t.tx, res)
}

func (t *sqlReservationTx) ReplaceItems(ctx context.Context, reservationID uint64, items []model.LineItem) error {
    return t.reservations.ReplaceItemsTx(ctx, t.tx, reservationID, items)
}

func (t *sqlReservationTx) AddFriend(ctx context.Context, reservationID, userID uint64) error {
    return t.reservations.AddFriendTx(ctx, t.tx, reservationID, userID)
}

func (t *sqlReservationTx) RemoveFriend(ctx context.Context, reservationID, userID uint64) error {
    return t.reservations.RemoveFriendTx(ctx, t.tx, reservationID, userID)
}
