package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// ReservationRepo persists reservations together with their line items
// (reservation_items) and invited friends (reservation_friends).  Writes
// always happen inside a caller-owned transaction; reads may run on the
// pool or on a transaction.  All timestamps are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
    QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const reservationColumns = `r.id, r.user_id, r.table_id, r.res_date, r.res_time, r.note, r.note_food, r.status, r.pay_status,
    r.subtotal_cents, r.tax_cents, r.total_cents, r.deposit_cents, r.created_at, r.updated_at`

func scanReservation(s rowScanner) (*model.Reservation, error) {
    var res model.Reservation
    err := s.Scan(&res.ID, &res.UserID, &res.TableID, &res.Date, &res.Time, &res.Note, &res.NoteFood,
        &res.Status, &res.PayStatus, &res.SubtotalCents, &res.TaxCents, &res.TotalCents, &res.DepositCents,
        &res.CreatedAt, &res.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrReservationNotFound
    }
    if err != nil {
        return nil, err
    }
    return &res, nil
}

// CreateTx inserts a reservation with its items and friends within the
// scope of an existing transaction.  It populates the generated ids and
// timestamps on res.  The caller must commit or rollback the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `INSERT INTO reservations (user_id, table_id, res_date, res_time, note, note_food, status, pay_status,
        subtotal_cents, tax_cents, total_cents, deposit_cents) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    result, err := tx.ExecContext(ctx, q, res.UserID, res.TableID, res.Date, res.Time, res.Note, res.NoteFood,
        res.Status, res.PayStatus, res.SubtotalCents, res.TaxCents, res.TotalCents, res.DepositCents)
    if err != nil {
        return err
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    if err := r.insertItems(ctx, tx, res.ID, res.Items); err != nil {
        return err
    }
    for _, friendID := range res.Friends {
        if err := r.AddFriendTx(ctx, tx, res.ID, friendID); err != nil {
            return err
        }
    }
    return r.readTimestamps(ctx, tx, res)
}

// LockTx loads a reservation and holds its row lock until the transaction
// ends, so concurrent mutations of the same reservation run one at a time.
func (r *ReservationRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
    row := tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations r WHERE r.id = ? FOR UPDATE`, id)
    res, err := scanReservation(row)
    if err != nil {
        return nil, err
    }
    if err := r.loadChildren(ctx, tx, []*model.Reservation{res}); err != nil {
        return nil, err
    }
    return res, nil
}

// GetByID loads a reservation without locking it.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations r WHERE r.id = ?`, id)
    res, err := scanReservation(row)
    if err != nil {
        return nil, err
    }
    if err := r.loadChildren(ctx, r.db, []*model.Reservation{res}); err != nil {
        return nil, err
    }
    return res, nil
}

// UpdateTx writes every scalar column of res.  Items and friends have
// their own statements.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `UPDATE reservations SET table_id = ?, res_date = ?, res_time = ?, note = ?, note_food = ?, status = ?,
        pay_status = ?, subtotal_cents = ?, tax_cents = ?, total_cents = ?, deposit_cents = ? WHERE id = ?`
    _, err := tx.ExecContext(ctx, q, res.TableID, res.Date, res.Time, res.Note, res.NoteFood, res.Status,
        res.PayStatus, res.SubtotalCents, res.TaxCents, res.TotalCents, res.DepositCents, res.ID)
    if err != nil {
        return err
    }
    return r.readTimestamps(ctx, tx, res)
}

// ReplaceItemsTx deletes every line item of a reservation and inserts
// items in order, filling in their new ids.
func (r *ReservationRepo) ReplaceItemsTx(ctx context.Context, tx *sql.Tx, reservationID uint64, items []model.LineItem) error {
    if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_items WHERE reservation_id = ?`, reservationID); err != nil {
        return err
    }
    return r.insertItems(ctx, tx, reservationID, items)
}

func (r *ReservationRepo) insertItems(ctx context.Context, tx *sql.Tx, reservationID uint64, items []model.LineItem) error {
    if len(items) == 0 {
        return nil
    }
    stmt, err := tx.PrepareContext(ctx, `INSERT INTO reservation_items
        (reservation_id, position, food_id, quantity, unit_price_cents, price_cents, image) VALUES (?, ?, ?, ?, ?, ?, ?)`)
    if err != nil {
        return err
    }
    defer stmt.Close()
    for i := range items {
        it := &items[i]
        result, err := stmt.ExecContext(ctx, reservationID, i, it.FoodID, it.Quantity, it.UnitPriceCents, it.PriceCents, it.Image)
        if err != nil {
            return err
        }
        id, err := result.LastInsertId()
        if err != nil {
            return err
        }
        it.ID = uint64(id)
    }
    return nil
}

// AddFriendTx invites a user.  ErrConflict is returned when the user is
// already on the list.
func (r *ReservationRepo) AddFriendTx(ctx context.Context, tx *sql.Tx, reservationID, userID uint64) error {
    _, err := tx.ExecContext(ctx, `INSERT INTO reservation_friends (reservation_id, user_id) VALUES (?, ?)`, reservationID, userID)
    if isMySQLError(err, mysqlDuplicateEntry) {
        return ErrConflict
    }
    return err
}

// RemoveFriendTx removes an invited user.  ErrFriendNotFound is returned
// when the user was not on the list.
func (r *ReservationRepo) RemoveFriendTx(ctx context.Context, tx *sql.Tx, reservationID, userID uint64) error {
    res, err := tx.ExecContext(ctx, `DELETE FROM reservation_friends WHERE reservation_id = ? AND user_id = ?`, reservationID, userID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrFriendNotFound
    }
    return nil
}

// List returns the reservations matching f, newest created first.  A
// participant filter matches the owner as well as invited friends.
func (r *ReservationRepo) List(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
    var (
        where []string
        args  []interface{}
    )
    if f.Status != "" {
        where = append(where, "r.status = ?")
        args = append(args, f.Status)
    }
    if f.ParticipantID != 0 {
        where = append(where, `(r.user_id = ? OR EXISTS (
            SELECT 1 FROM reservation_friends rf WHERE rf.reservation_id = r.id AND rf.user_id = ?))`)
        args = append(args, f.ParticipantID, f.ParticipantID)
    }
    q := `SELECT ` + reservationColumns + ` FROM reservations r`
    if len(where) > 0 {
        q += " WHERE " + strings.Join(where, " AND ")
    }
    q += " ORDER BY r.created_at DESC, r.id DESC"

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    var list []*model.Reservation
    for rows.Next() {
        res, err := scanReservation(rows)
        if err != nil {
            rows.Close()
            return nil, err
        }
        list = append(list, res)
    }
    if err := rows.Err(); err != nil {
        rows.Close()
        return nil, err
    }
    rows.Close()
    if err := r.loadChildren(ctx, r.db, list); err != nil {
        return nil, err
    }
    out := make([]model.Reservation, len(list))
    for i, res := range list {
        out[i] = *res
    }
    return out, nil
}

// loadChildren fills Items and Friends of every reservation in list with
// two batched queries.
func (r *ReservationRepo) loadChildren(ctx context.Context, q queryer, list []*model.Reservation) error {
    if len(list) == 0 {
        return nil
    }
    byID := make(map[uint64]*model.Reservation, len(list))
    ids := make([]uint64, 0, len(list))
    for _, res := range list {
        byID[res.ID] = res
        ids = append(ids, res.ID)
    }
    marks, args := inClause(ids)

    rows, err := q.QueryContext(ctx, `SELECT reservation_id, id, food_id, quantity, unit_price_cents, price_cents, image
        FROM reservation_items WHERE reservation_id IN (`+marks+`) ORDER BY reservation_id, position`, args...)
    if err != nil {
        return err
    }
    for rows.Next() {
        var (
            resID uint64
            it    model.LineItem
        )
        if err := rows.Scan(&resID, &it.ID, &it.FoodID, &it.Quantity, &it.UnitPriceCents, &it.PriceCents, &it.Image); err != nil {
            rows.Close()
            return err
        }
        if res := byID[resID]; res != nil {
            res.Items = append(res.Items, it)
        }
    }
    if err := rows.Err(); err != nil {
        rows.Close()
        return err
    }
    rows.Close()

    rows, err = q.QueryContext(ctx, `SELECT reservation_id, user_id FROM reservation_friends
        WHERE reservation_id IN (`+marks+`) ORDER BY id`, args...)
    if err != nil {
        return err
    }
    defer rows.Close()
    for rows.Next() {
        var resID, userID uint64
        if err := rows.Scan(&resID, &userID); err != nil {
            return err
        }
        if res := byID[resID]; res != nil {
            res.Friends = append(res.Friends, userID)
        }
    }
    return rows.Err()
}

func (r *ReservationRepo) readTimestamps(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    return tx.QueryRowContext(ctx, `SELECT created_at, updated_at FROM reservations WHERE id = ?`, res.ID).
        Scan(&res.CreatedAt, &res.UpdatedAt)
}
