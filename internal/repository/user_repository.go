package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/utils"
)

// UserRepo provides access to the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,name,email,phone,address,password_hash,role,created_at,updated_at"

// NewUser carries the fields accepted at registration.
type NewUser struct {
    Name     string
    Email    string
    Phone    string
    Address  string
    Password string
    Role     string
}

// Create hashes the password, inserts the user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, u NewUser, cost int) (uint64, error) {
    email := normalizeEmail(u.Email)
    hash, err := utils.HashPassword(u.Password, cost)
    if err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO users (name, email, phone, address, password_hash, role) VALUES (?,?,?,?,?,?)",
        strings.TrimSpace(u.Name), email, u.Phone, u.Address, hash, u.Role)
    if err != nil {
        if isMySQLError(err, mysqlDuplicateEntry) {
            return 0, ErrEmailExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    row := r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email))
    return scanUser(row)
}

// FindUser fetches a user by id.
func (r *UserRepo) FindUser(ctx context.Context, id uint64) (model.User, error) {
    row := r.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
    return scanUser(row)
}

// FindUsers loads several users at once, keyed by id.  Unknown ids are
// left out of the map.
func (r *UserRepo) FindUsers(ctx context.Context, ids []uint64) (map[uint64]model.User, error) {
    ids = uniqueIDs(ids)
    out := make(map[uint64]model.User, len(ids))
    if len(ids) == 0 {
        return out, nil
    }
    marks, args := inClause(ids)
    rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users WHERE id IN ("+marks+")", args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        u, err := scanUser(rows)
        if err != nil {
            return nil, err
        }
        out[u.ID] = u
    }
    return out, rows.Err()
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
    rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.User
    for rows.Next() {
        u, err := scanUser(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, u)
    }
    return out, rows.Err()
}

// UpdateProfile rewrites the contact fields of a user.
func (r *UserRepo) UpdateProfile(ctx context.Context, u model.User) error {
    res, err := r.DB.ExecContext(ctx,
        "UPDATE users SET name=?, phone=?, address=? WHERE id=?",
        strings.TrimSpace(u.Name), u.Phone, u.Address, u.ID)
    if err != nil {
        return err
    }
    if n, err := res.RowsAffected(); err != nil || n > 0 {
        return err
    }
    _, err = r.FindUser(ctx, u.ID)
    return err
}

type rowScanner interface {
    Scan(dest ...interface{}) error
}

func scanUser(s rowScanner) (model.User, error) {
    var u model.User
    err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.User{}, ErrUserNotFound
    }
    return u, err
}

func normalizeEmail(email string) string {
    return strings.ToLower(strings.TrimSpace(email))
}
