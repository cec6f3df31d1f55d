package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// FoodRepo provides access to the menu (foods and categories tables).
type FoodRepo struct {
    db *sql.DB
}

// NewFoodRepo returns a new FoodRepo bound to the given database.
func NewFoodRepo(db *sql.DB) *FoodRepo { return &FoodRepo{db: db} }

// CreateCategory inserts a category and fills in its id.
func (r *FoodRepo) CreateCategory(ctx context.Context, c *model.Category) error {
    res, err := r.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, c.Name)
    if err != nil {
        if isMySQLError(err, mysqlDuplicateEntry) {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    c.ID = uint64(id)
    return nil
}

// FindCategory fetches a category by id.
func (r *FoodRepo) FindCategory(ctx context.Context, id uint64) (model.Category, error) {
    var c model.Category
    err := r.db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE id = ?`, id).Scan(&c.ID, &c.Name)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Category{}, ErrCategoryNotFound
    }
    return c, err
}

// UpdateCategory renames a category.  Names stay unique.
func (r *FoodRepo) UpdateCategory(ctx context.Context, c *model.Category) error {
    res, err := r.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, c.Name, c.ID)
    if err != nil {
        if isMySQLError(err, mysqlDuplicateEntry) {
            return ErrConflict
        }
        return err
    }
    if n, err := res.RowsAffected(); err != nil || n > 0 {
        return err
    }
    _, err = r.FindCategory(ctx, c.ID)
    return err
}

// DeleteCategory removes an empty category.  ErrCategoryInUse is returned
// while foods still reference it.
func (r *FoodRepo) DeleteCategory(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
    if err != nil {
        if isMySQLError(err, mysqlRowIsReferenced) {
            return ErrCategoryInUse
        }
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrCategoryNotFound
    }
    return nil
}

// ListByCategory returns the foods of a category ordered by id.
func (r *FoodRepo) ListByCategory(ctx context.Context, categoryID uint64) ([]model.Food, error) {
    const q = `SELECT id, category_id, name, image, prep_time, rating, price, is_best_sale
               FROM foods WHERE category_id = ? ORDER BY id`
    rows, err := r.db.QueryContext(ctx, q, categoryID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Food{}
    for rows.Next() {
        var f model.Food
        if err := rows.Scan(&f.ID, &f.CategoryID, &f.Name, &f.Image, &f.PrepTime, &f.Rating, &f.Price, &f.IsBestSale); err != nil {
            return nil, err
        }
        out = append(out, f)
    }
    return out, rows.Err()
}

// Create inserts a food under an existing category.
func (r *FoodRepo) Create(ctx context.Context, f *model.Food) error {
    const q = `INSERT INTO foods (category_id, name, image, prep_time, rating, price, is_best_sale)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, f.CategoryID, f.Name, f.Image, f.PrepTime, f.Rating, f.Price, f.IsBestSale)
    if err != nil {
        if isMySQLError(err, mysqlNoReferencedRow) {
            return ErrCategoryNotFound
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    f.ID = uint64(id)
    return nil
}

// Update overwrites every editable column of a food.  Reservations keep
// the price and image they captured when they were ordered.
func (r *FoodRepo) Update(ctx context.Context, f *model.Food) error {
    const q = `UPDATE foods SET category_id = ?, name = ?, image = ?, prep_time = ?, rating = ?, price = ?, is_best_sale = ?
               WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, f.CategoryID, f.Name, f.Image, f.PrepTime, f.Rating, f.Price, f.IsBestSale, f.ID)
    if err != nil {
        if isMySQLError(err, mysqlNoReferencedRow) {
            return ErrCategoryNotFound
        }
        return err
    }
    if n, err := res.RowsAffected(); err != nil || n > 0 {
        return err
    }
    // Zero rows also means "nothing changed", so confirm the row exists.
    _, err = r.FindFood(ctx, f.ID)
    return err
}

// Delete removes a food from the menu.  Orders that already contain it
// keep their captured price and image.
func (r *FoodRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM foods WHERE id = ?`, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrFoodNotFound
    }
    return nil
}

// FindFood fetches a food by id.  ErrFoodNotFound is returned when the row
// does not exist.
func (r *FoodRepo) FindFood(ctx context.Context, id uint64) (model.Food, error) {
    const q = `SELECT id, category_id, name, image, prep_time, rating, price, is_best_sale FROM foods WHERE id = ?`
    var f model.Food
    err := r.db.QueryRowContext(ctx, q, id).
        Scan(&f.ID, &f.CategoryID, &f.Name, &f.Image, &f.PrepTime, &f.Rating, &f.Price, &f.IsBestSale)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Food{}, ErrFoodNotFound
    }
    return f, err
}
