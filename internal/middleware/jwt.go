package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context"
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/restaurant-reservation/internal/utils"
)

// Context keys set by JWTAuth.
const (
    CtxUserID   = "user_id"
    CtxRole     = "role"
    CtxTokenID  = "jti"
    CtxTokenExp = "token_exp"
)

// RevocationChecker reports whether an access token id was revoked.
type RevocationChecker interface {
    IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer access token,
// rejects tokens on the revocation list and injects the caller's identity
// into the request context.  Handlers read it via c.Get("user_id") (a
// uint64) and c.Get("role").  revoked may be nil.
func JWTAuth(secret string, revoked RevocationChecker) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearer(c.Request().Header.Get("Authorization"))
            if !ok {
                return deny(c, http.StatusUnauthorized, "missing bearer token")
            }
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return deny(c, http.StatusUnauthorized, "invalid token")
            }
            if revoked != nil {
                gone, err := revoked.IsRevoked(c.Request().Context(), claims.ID)
                if err != nil {
                    c.Logger().Errorf("[auth] revocation lookup for jti=%s: %v", claims.ID, err)
                    return deny(c, http.StatusServiceUnavailable, "authentication temporarily unavailable")
                }
                if gone {
                    return deny(c, http.StatusUnauthorized, "token revoked")
                }
            }
            c.Set(CtxUserID, claims.UserID)
            c.Set(CtxRole, claims.Role)
            c.Set(CtxTokenID, claims.ID)
            c.Set(CtxTokenExp, claims.Exp)
            return next(c)
        }
    }
}

// bearer extracts the token from an "Authorization: Bearer <token>" header.
func bearer(header string) (string, bool) {
    if !strings.HasPrefix(header, "Bearer ") {
        return "", false
    }
    raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
    return raw, raw != ""
}

// deny writes the standard error envelope.
func deny(c echo.Context, status int, msg string) error {
    return c.JSON(status, echo.Map{"success": false, "message": msg})
}
