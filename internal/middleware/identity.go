package middleware

// identity.go holds helpers that read the caller identity placed in the
// Echo context by JWTAuth.

import (
    "strconv"

    "github.com/labstack/echo/v4"
)

// subject returns the authenticated user id as a string, or "anon" when
// the request carries no identity (for example before JWTAuth ran).
func subject(c echo.Context) string {
    switch v := c.Get(CtxUserID).(type) {
    case uint64:
        if v != 0 {
            return strconv.FormatUint(v, 10)
        }
    case string:
        if v != "" {
            return v
        }
    }
    return "anon"
}
