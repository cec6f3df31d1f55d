package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

// ReservationEngine is the part of service.ReservationService the HTTP
// layer drives.
type ReservationEngine interface {
	Create(ctx context.Context, actor service.Actor, in service.CreateInput) (*model.Reservation, error)
	Get(ctx context.Context, actor service.Actor, id uint64) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, actor service.Actor, id uint64, status string) (*model.Reservation, error)
	UpdatePayment(ctx context.Context, actor service.Actor, id uint64, payStatus string, deposit *float64) (*model.Reservation, error)
	UpdateFoodItems(ctx context.Context, actor service.Actor, id uint64, items []service.OrderItem) (*model.Reservation, error)
	UpdateDetails(ctx context.Context, actor service.Actor, id uint64, in service.DetailsInput) (*model.Reservation, error)
	AddFriend(ctx context.Context, actor service.Actor, id, friendID uint64) (*model.Reservation, error)
	RemoveFriend(ctx context.Context, actor service.Actor, id, friendID uint64) (*model.Reservation, error)
	ChangeTable(ctx context.Context, actor service.Actor, id, newTableID uint64) (*model.Reservation, error)
}

// ReservationViews renders reservations for clients.
type ReservationViews interface {
	View(ctx context.Context, res *model.Reservation) (service.ReservationView, error)
	MyReservations(ctx context.Context, actor service.Actor, status string) ([]service.ReservationView, error)
	AllReservations(ctx context.Context, actor service.Actor, status string) ([]service.ReservationView, error)
	MyHistory(ctx context.Context, actor service.Actor) ([]service.ReservationView, error)
	AllHistory(ctx context.Context, actor service.Actor) ([]service.ReservationView, error)
	HistoryDetail(ctx context.Context, actor service.Actor, id uint64) (service.ReservationView, error)
}

// ReservationHandler serves /v1/reservations and /v1/history.
type ReservationHandler struct {
	Engine ReservationEngine
	Views  ReservationViews
}

func NewReservationHandler(engine ReservationEngine, views ReservationViews) *ReservationHandler {
	if engine == nil || views == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: engine, Views: views}
}

// ----- DTOs -----

type orderItemReq struct {
	FoodID   uint64 `json:"food_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"lte=1000"`
}

type createReservationReq struct {
	TableID    uint64         `json:"table_id" validate:"required"`
	Date       string         `json:"date" validate:"required"`
	Time       string         `json:"time" validate:"required"`
	Note       string         `json:"note"`
	NoteFood   string         `json:"note_food"`
	FoodItems  []orderItemReq `json:"food_items" validate:"dive"`
	FriendList []uint64       `json:"friend_list" validate:"dive,gt=0"`
}

type changeTableReq struct {
	NewTableID uint64 `json:"new_table_id" validate:"required"`
}

type foodItemsReq struct {
	FoodItems []orderItemReq `json:"food_items" validate:"dive"`
}

type paymentReq struct {
	MoneyDeposit *float64 `json:"money_deposit"`
}

type detailsReq struct {
	Date     *string `json:"date"`
	Time     *string `json:"time"`
	Note     *string `json:"note"`
	NoteFood *string `json:"note_food"`
}

type friendReq struct {
	FriendID uint64 `json:"friend_id" validate:"required"`
}

func toOrderItems(in []orderItemReq) []service.OrderItem {
	out := make([]service.OrderItem, len(in))
	for i, it := range in {
		out[i] = service.OrderItem{FoodID: it.FoodID, Quantity: it.Quantity}
	}
	return out
}

// render projects res and writes it with status.
func (h *ReservationHandler) render(ctx context.Context, c echo.Context, status int, msg string, res *model.Reservation) error {
	view, err := h.Views.View(ctx, res)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, status, msg, view)
}

// withReservation resolves the caller and the :id parameter, then runs fn
// under the request timeout.
func withReservation(c echo.Context, fn func(ctx context.Context, actor service.Actor, id uint64) error) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	id, valid := parseID(c, "id")
	if !valid {
		return fail(c, http.StatusBadRequest, "invalid reservation id")
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	return fn(ctx, actor, id)
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	var req createReservationReq
	if handled, err := bindValid(c, &req); handled {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	res, err := h.Engine.Create(ctx, actor, service.CreateInput{
		TableID:  req.TableID,
		Date:     req.Date,
		Time:     req.Time,
		Note:     req.Note,
		NoteFood: req.NoteFood,
		Items:    toOrderItems(req.FoodItems),
		Friends:  req.FriendList,
	})
	if err != nil {
		return respondError(c, err)
	}
	return h.render(ctx, c, http.StatusCreated, "reservation created", res)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	return withReservation(c, func(ctx context.Context, actor service.Actor, id uint64) error {
		res, err := h.Engine.Get(ctx, actor, id)
		if err != nil {
			return respondError(c, err)
		}
		return h.render(ctx, c, http.StatusOK, "reservation", res)
	})
}

// Mine handles GET /v1/reservations/me?status=.
func (h *ReservationHandler) Mine(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Views.MyReservations(ctx, actor, c.QueryParam("status"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, "reservations", list)
}

// All handles GET /v1/reservations?status= for admins.
func (h *ReservationHandler) All(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Views.AllReservations(ctx, actor, c.QueryParam("status"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, http.StatusOK, "reservations", list)
}

// ChangeTable handles PUT /v1/reservations/:id/change-table.
func (h *ReservationHandler) ChangeTable(c echo.Context) error {
	return withReservation(c, func(ctx context.Context, actor service.Actor, id uint64) error {
		var req changeTableReq
		if handled, err := bindValid(c, &req); handled {
			return err
		}
		res, err := h.Engine.ChangeTable(ctx, actor, id, req.NewTableID)
		if err != nil {
			return respondError(c, err)
		}
		return h.render(ctx, c, http.StatusOK, "table changed", res)
	})
}

// UpdateStatus handles PATCH /v1/reservations/:id/status/:status.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	return withReservation(c, func(ctx context.Context, actor service.Actor, id uint64) error {
		res, err := h.Engine.UpdateStatus(ctx, actor, id, c.Param("status"))
		if err != nil {
			return respondError(c, err)
		}
		return h.render(ctx, c, http.StatusOK, "status updated", res)
	})
}

// UpdateFoodItems handles PUT /v1/reservations/:id/food-items.
func (h *ReservationHandler) UpdateFoodItems(c echo.Context) error {
	return withReservation(c, func(ctx context.Context, actor service.Actor, id uint64) error {
		var req foodItemsReq
		if handled, err := bindValid(c, &req); handled {
			return err
		}
		res, err := h.Engine.UpdateFoodItems(ctx, actor, id, toOrderItems(req.FoodItems))
		if err != nil {
			return respondError(c, err)
		}
		return h.render(ctx, c, http.StatusOK, "food items updated", res)
	})
}

// UpdatePayment handles PATCH /v1/reservations/:id/payment/:status.  The
// body is only read for the deposit amount and may be empty.
func (h *ReservationHandler) UpdatePayment(c echo.Context) error {
	return withReservation(c, func(ctx context.Context, actor service.Actor, id uint64) error {
		var req paymentReq
		if c.Request().ContentLength != 0 {
			if err := c.Bind(&req); err != nil {
				return fail(c, http.StatusBadRequest, "invalid body")
			}
		}
		res, err := h.Engine.UpdatePayment(ctx, actor, id, c.Param("status"), req.MoneyDeposit)
		if err != nil {
			return respondError(c, err)
		}
		return h.render(ctx, c, http.StatusOK, "payment updated", res)
	})
}

// UpdateDetails handles PATCH /v1/reservations/:id/details.
func (h *ReservationHandler) UpdateDetails(c echo.Context) error {
	return withReservation(c, func(ctx context.Context, actor service.Actor, id uint64) error {
		var req detailsReq
		if handled, err := bindValid(c, &req); handled {
			return err
		}
		res, err := h.Engine.UpdateDetails(ctx, actor, id, service.DetailsInput{
			Date:     req.Date,
			Time:     req.Time,
			Note:     req.Note,
			NoteFood: req.NoteFood,
		})
		if err != nil {
			return respondError(c, err)
		}
		return h.render(ctx, c, http.StatusOK, "details updated", res)
	})
}

// AddFriend handles POST /v1/reservations/:id/friends.
func (h *ReservationHandler) AddFriend(c echo.Context) error {
	return withReservation(c, func(ctx context.Context, actor service.Actor, id uint64) error {
		var req friendReq
		if handled, err := bindValid(c, &req); handled {
			return err
		}
		res, err := h.Engine.AddFriend(ctx, actor, id, req.FriendID)
		if err != nil {
			return respondError(c, err)
		}
		return h.render(ctx, c, http.StatusOK, "friend added", res)
	})
}

// RemoveFriend handles DELETE /v1/reservations/:id/friends/:friendId.
func (h *ReservationHandler) RemoveFriend(c echo.Context) error {
	return withReservation(c, func(ctx context.Context, actor service.Actor, id uint64) error {
		friendID, valid := parseID(c, "friendId")
		if !valid {
			return fail(c, http.StatusBadRequest, "invalid friend id")
		}
		res, err := h.Engine.RemoveFriend(ctx, actor, id, friendID)
		if err != nil {
			return respondError(c, err)
		}
		return h.render(ctx, c, http.StatusOK, "friend removed", res)
	})
}
