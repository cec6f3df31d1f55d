package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
	"github.com/iliyamo/restaurant-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-reservation/internal/model"
)

// RegisterReservations registers the booking and history endpoints.  All
// of them require a valid JWT; ownership and friend checks happen in the
// service, so only the admin listings are gated by role here.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, auth echo.MiddlewareFunc) {
	admin := middleware.RequireRole(model.RoleAdmin)

	g := e.Group("/v1/reservations", auth)
	g.POST("", h.Create, middleware.RequireRole(model.RoleUser))
	g.GET("", h.All, admin)
	g.GET("/me", h.Mine)
	g.GET("/:id", h.Get)
	g.PUT("/:id/change-table", h.ChangeTable)
	g.PATCH("/:id/status/:status", h.UpdateStatus)
	g.PUT("/:id/food-items", h.UpdateFoodItems)
	g.PATCH("/:id/payment/:status", h.UpdatePayment)
	g.PATCH("/:id/details", h.UpdateDetails)
	g.POST("/:id/friends", h.AddFriend)
	g.DELETE("/:id/friends/:friendId", h.RemoveFriend)

	hist := e.Group("/v1/history", auth)
	hist.GET("", h.AllHistory, admin)
	hist.GET("/me", h.MyHistory)
	hist.GET("/:id", h.HistoryDetail)
}
