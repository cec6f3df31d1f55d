package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// TableRepo provides access to the tables table.  Availability is only
// flipped inside a caller-owned transaction through ClaimTx and ReleaseTx.
type TableRepo struct {
    db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

// Create inserts a table on an existing floor.  New tables start available.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
    const q = `INSERT INTO tables (floor_id, name, pos_top, pos_left, capacity, available) VALUES (?, ?, ?, ?, ?, 1)`
    res, err := r.db.ExecContext(ctx, q, t.FloorID, t.Name, t.PosTop, t.PosLeft, t.Capacity)
    if err != nil {
        if isMySQLError(err, mysqlNoReferencedRow) {
            return ErrFloorNotFound
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    t.ID = uint64(id)
    t.Available = true
    return nil
}

// FindTable fetches a table by id.  ErrTableNotFound is returned when the
// row does not exist.
func (r *TableRepo) FindTable(ctx context.Context, id uint64) (model.Table, error) {
    const q = `SELECT id, floor_id, name, pos_top, pos_left, capacity, available FROM tables WHERE id = ?`
    var t model.Table
    err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.FloorID, &t.Name, &t.PosTop, &t.PosLeft, &t.Capacity, &t.Available)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Table{}, ErrTableNotFound
    }
    return t, err
}

// ListByFloor returns the tables on a floor ordered by id.
func (r *TableRepo) ListByFloor(ctx context.Context, floorID uint64) ([]model.Table, error) {
    const q = `SELECT id, floor_id, name, pos_top, pos_left, capacity, available FROM tables WHERE floor_id = ? ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, floorID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Table{}
    for rows.Next() {
        var t model.Table
        if err := rows.Scan(&t.ID, &t.FloorID, &t.Name, &t.PosTop, &t.PosLeft, &t.Capacity, &t.Available); err != nil {
            return nil, err
        }
        out = append(out, t)
    }
    return out, rows.Err()
}

// Update rewrites the layout columns of a table.  When available is not
// nil the flag is set as well, except that a table held by a live
// reservation cannot be freed (ErrTableHeld).
func (r *TableRepo) Update(ctx context.Context, t *model.Table, available *bool) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var current bool
    err = tx.QueryRowContext(ctx, `SELECT available FROM tables WHERE id = ? FOR UPDATE`, t.ID).Scan(&current)
    switch {
    case errors.Is(err, sql.ErrNoRows):
        return ErrTableNotFound
    case err != nil:
        return err
    }
    next := current
    if available != nil && *available != current {
        if *available {
            held, err := heldTx(ctx, tx, t.ID)
            if err != nil {
                return err
            }
            if held {
                return ErrTableHeld
            }
        }
        next = *available
    }
    const q = `UPDATE tables SET floor_id = ?, name = ?, pos_top = ?, pos_left = ?, capacity = ?, available = ? WHERE id = ?`
    if _, err := tx.ExecContext(ctx, q, t.FloorID, t.Name, t.PosTop, t.PosLeft, t.Capacity, next, t.ID); err != nil {
        if isMySQLError(err, mysqlNoReferencedRow) {
            return ErrFloorNotFound
        }
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    t.Available = next
    return nil
}

// Delete removes a table unless a live reservation holds it.  Finished and
// canceled reservations keep the removed id.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    var exists int
    err = tx.QueryRowContext(ctx, `SELECT 1 FROM tables WHERE id = ? FOR UPDATE`, id).Scan(&exists)
    switch {
    case errors.Is(err, sql.ErrNoRows):
        return ErrTableNotFound
    case err != nil:
        return err
    }
    held, err := heldTx(ctx, tx, id)
    if err != nil {
        return err
    }
    if held {
        return ErrTableHeld
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM tables WHERE id = ?`, id); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// heldTx reports whether a pending, confirmed or seated reservation points
// at the table.  The caller must already hold the table row lock so no
// claim can slip in between the check and the write.
func heldTx(ctx context.Context, tx *sql.Tx, tableID uint64) (bool, error) {
    const q = `SELECT 1 FROM reservations
               WHERE table_id = ? AND status IN ('pending', 'confirm', 'process')
               LIMIT 1 LOCK IN SHARE MODE`
    var one int
    err := tx.QueryRowContext(ctx, q, tableID).Scan(&one)
    if errors.Is(err, sql.ErrNoRows) {
        return false, nil
    }
    return err == nil, err
}

// Placements loads the given tables together with their floors, keyed by
// table id.  Ids without a row are simply absent from the result.
func (r *TableRepo) Placements(ctx context.Context, ids []uint64) (map[uint64]model.TablePlacement, error) {
    ids = uniqueIDs(ids)
    out := make(map[uint64]model.TablePlacement, len(ids))
    if len(ids) == 0 {
        return out, nil
    }
    marks, args := inClause(ids)
    q := `SELECT t.id, t.floor_id, t.name, t.pos_top, t.pos_left, t.capacity, t.available, f.id, f.name, f.created_at
          FROM tables t
          JOIN floors f ON f.id = t.floor_id
          WHERE t.id IN (` + marks + `)`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var p model.TablePlacement
        if err := rows.Scan(&p.Table.ID, &p.Table.FloorID, &p.Table.Name, &p.Table.PosTop, &p.Table.PosLeft,
            &p.Table.Capacity, &p.Table.Available, &p.Floor.ID, &p.Floor.Name, &p.Floor.CreatedAt); err != nil {
            return nil, err
        }
        out[p.Table.ID] = p
    }
    return out, rows.Err()
}

// ClaimTx marks a table unavailable if, and only if, it is currently
// available.  The conditional UPDATE is the compare-and-swap that keeps two
// concurrent reservations from holding the same table: MySQL row locking
// lets exactly one of them see available = 1.  When nothing was updated
// the row is read again to tell a missing table from a taken one.
func (r *TableRepo) ClaimTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    const q = `UPDATE tables SET available = 0 WHERE id = ? AND available = 1`
    res, err := tx.ExecContext(ctx, q, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 1 {
        return nil
    }
    var available bool
    err = tx.QueryRowContext(ctx, `SELECT available FROM tables WHERE id = ? FOR UPDATE`, id).Scan(&available)
    switch {
    case errors.Is(err, sql.ErrNoRows):
        return ErrTableNotFound
    case err != nil:
        return err
    }
    return ErrTableUnavailable
}

// ReleaseTx marks a table available again.  Releasing an available table
// is a no-op; ErrTableNotFound is returned when the row is gone.
func (r *TableRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    res, err := tx.ExecContext(ctx, `UPDATE tables SET available = 1 WHERE id = ?`, id)
    if err != nil {
        return err
    }
    // MySQL reports 0 affected rows when the value did not change, so a
    // second lookup decides between "already available" and "missing".
    if n, err := res.RowsAffected(); err != nil || n == 1 {
        return err
    }
    var exists int
    err = tx.QueryRowContext(ctx, `SELECT 1 FROM tables WHERE id = ?`, id).Scan(&exists)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrTableNotFound
    }
    return err
}
