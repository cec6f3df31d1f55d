package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only the health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// profile endpoints under /v1.  auth is the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, auth echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout needs the access token so its jti can be revoked.
	g.POST("/logout", a.Logout, auth)

	e.GET("/v1/me", a.Me, auth)
	e.PUT("/v1/me", a.UpdateMe, auth)
	e.GET("/v1/users", a.ListUsers, auth, middleware.RequireRole(model.RoleAdmin))
}
