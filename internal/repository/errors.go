// Package repository holds the MySQL and Redis backed data access layer.
// The sentinel values below let higher layers tell failure scenarios
// apart without inspecting driver errors.  ErrTableUnavailable, for
// example, means a compare-and-swap on tables.available lost the race,
// while ErrConflict signals a unique-key collision.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"
)

var (
    ErrTableNotFound       = errors.New("table not found")
    ErrTableUnavailable    = errors.New("table unavailable")
    ErrFloorNotFound       = errors.New("floor not found")
    ErrFoodNotFound        = errors.New("food not found")
    ErrCategoryNotFound    = errors.New("category not found")
    ErrUserNotFound        = errors.New("user not found")
    ErrReservationNotFound = errors.New("reservation not found")
    ErrFriendNotFound      = errors.New("friend not found")
    ErrEmailExists         = errors.New("email already exists")
    ErrTableHeld           = errors.New("table is held by an active reservation")
    ErrCategoryInUse       = errors.New("category still has foods")
)

// ErrConflict is returned when a write collides with a unique key, such as
// inviting the same friend twice.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers used to classify driver failures.
const (
    mysqlDuplicateEntry  = 1062
    mysqlRowIsReferenced = 1451
    mysqlNoReferencedRow = 1452
)

func isMySQLError(err error, number uint16) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == number
}
