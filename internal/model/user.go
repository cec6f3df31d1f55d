package model

import "time"

// Roles carried in the users.role column and the JWT role claim.
const (
    RoleUser  = "user"
    RoleAdmin = "admin"
)

// User represents an application user record as stored in the
// `users` table. Contact fields are free text; only Email is unique.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name shown on reservations.
//  Email        – unique, lower-cased email address.
//  Phone        – optional phone number.
//  Address      – optional postal address.
//  PasswordHash – bcrypt hashed password.
//  Role         – RoleUser or RoleAdmin.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email
    Phone        string    // users.phone
    Address      string    // users.address
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// IsAdmin reports whether the user may run administrative operations.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is never stored, only its SHA‑256 hash.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
