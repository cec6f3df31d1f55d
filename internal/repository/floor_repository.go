package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// FloorRepo provides access to the floors table.
type FloorRepo struct {
    db *sql.DB
}

// NewFloorRepo returns a new FloorRepo bound to the given database.
func NewFloorRepo(db *sql.DB) *FloorRepo { return &FloorRepo{db: db} }

// Create inserts a floor and fills in its id.
func (r *FloorRepo) Create(ctx context.Context, f *model.Floor) error {
    res, err := r.db.ExecContext(ctx, `INSERT INTO floors (name) VALUES (?)`, f.Name)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    f.ID = uint64(id)
    return nil
}

// GetByID fetches a floor by id.
func (r *FloorRepo) GetByID(ctx context.Context, id uint64) (model.Floor, error) {
    var f model.Floor
    err := r.db.QueryRowContext(ctx, `SELECT id, name, created_at FROM floors WHERE id = ?`, id).
        Scan(&f.ID, &f.Name, &f.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Floor{}, ErrFloorNotFound
    }
    return f, err
}

// Update renames a floor.
func (r *FloorRepo) Update(ctx context.Context, f *model.Floor) error {
    res, err := r.db.ExecContext(ctx, `UPDATE floors SET name = ? WHERE id = ?`, f.Name, f.ID)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err != nil || n > 0 {
        return err
    }
    // An unchanged name also affects zero rows.
    _, err = r.GetByID(ctx, f.ID)
    return err
}

// Delete removes a floor and every table on it in one transaction and
// returns the number of tables removed.  Reservations that referenced
// those tables are left untouched.
func (r *FloorRepo) Delete(ctx context.Context, id uint64) (int64, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return 0, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    res, err := tx.ExecContext(ctx, `DELETE FROM tables WHERE floor_id = ?`, id)
    if err != nil {
        return 0, err
    }
    tables, err := res.RowsAffected()
    if err != nil {
        return 0, err
    }
    res, err = tx.ExecContext(ctx, `DELETE FROM floors WHERE id = ?`, id)
    if err != nil {
        return 0, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return 0, err
    }
    if n == 0 {
        return 0, ErrFloorNotFound
    }
    if err := tx.Commit(); err != nil {
        return 0, err
    }
    committed = true
    return tables, nil
}
