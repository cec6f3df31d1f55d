package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/handler"
    "github.com/iliyamo/restaurant-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-reservation/internal/model"
)

// RegisterCatalog registers the menu and floor plan endpoints.  Reads are
// public and go through the response cache; writes need an admin token.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, auth, cache echo.MiddlewareFunc) {
    e.GET("/v1/categories/:id", h.GetCategory, cache)
    e.GET("/v1/foods/:id", h.GetFood, cache)
    e.GET("/v1/floors/:id", h.GetFloor, cache)
    e.GET("/v1/tables/:id", h.GetTable, cache)

    g := e.Group("/v1", auth, middleware.RequireRole(model.RoleAdmin))
    g.POST("/categories", h.CreateCategory)
    g.PUT("/categories/:id", h.UpdateCategory)
    g.DELETE("/categories/:id", h.DeleteCategory)
    g.POST("/foods", h.CreateFood)
    g.PUT("/foods/:id", h.UpdateFood)
    g.DELETE("/foods/:id", h.DeleteFood)
    g.POST("/floors", h.CreateFloor)
    g.PUT("/floors/:id", h.UpdateFloor)
    g.DELETE("/floors/:id", h.DeleteFloor)
    g.POST("/tables", h.CreateTable)
    g.PUT("/tables/:id", h.UpdateTable)
    g.DELETE("/tables/:id", h.DeleteTable)
}
