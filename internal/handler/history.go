package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// MyHistory handles GET /v1/history/me: finished visits the caller owned
// or joined, newest first.
func (h *ReservationHandler) MyHistory(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Views.MyHistory(ctx, actor)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, "history", list)
}

// AllHistory handles GET /v1/history (admin).
func (h *ReservationHandler) AllHistory(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Views.AllHistory(ctx, actor)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, "history", list)
}

// HistoryDetail handles GET /v1/history/:id.
func (h *ReservationHandler) HistoryDetail(c echo.Context) error {
	return withReservation(c, func(ctx context.Context, actor service.Actor, id uint64) error {
		view, err := h.Views.HistoryDetail(ctx, actor, id)
		if err != nil {
			return respondError(c, err)
		}
		return ok(c, http.StatusOK, "history", view)
	})
}
