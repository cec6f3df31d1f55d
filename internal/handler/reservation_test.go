package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/service"
)

type mockEngine struct {
	mock.Mock
	deadlines []bool
}

func (m *mockEngine) seen(ctx context.Context) {
	_, has := ctx.Deadline()
	m.deadlines = append(m.deadlines, has)
}

func (m *mockEngine) result(args mock.Arguments) (*model.Reservation, error) {
	res, _ := args.Get(0).(*model.Reservation)
	return res, args.Error(1)
}

func (m *mockEngine) Create(ctx context.Context, actor service.Actor, in service.CreateInput) (*model.Reservation, error) {
	m.seen(ctx)
	return m.result(m.Called(actor, in))
}

func (m *mockEngine) Get(ctx context.Context, actor service.Actor, id uint64) (*model.Reservation, error) {
	m.seen(ctx)
	return m.result(m.Called(actor, id))
}

func (m *mockEngine) UpdateStatus(ctx context.Context, actor service.Actor, id uint64, status string) (*model.Reservation, error) {
	m.seen(ctx)
	return m.result(m.Called(actor, id, status))
}

func (m *mockEngine) UpdatePayment(ctx context.Context, actor service.Actor, id uint64, payStatus string, deposit *float64) (*model.Reservation, error) {
	return m.result(m.Called(actor, id, payStatus, deposit))
}

func (m *mockEngine) UpdateFoodItems(ctx context.Context, actor service.Actor, id uint64, items []service.OrderItem) (*model.Reservation, error) {
	return m.result(m.Called(actor, id, items))
}

func (m *mockEngine) UpdateDetails(ctx context.Context, actor service.Actor, id uint64, in service.DetailsInput) (*model.Reservation, error) {
	return m.result(m.Called(actor, id, in))
}

func (m *mockEngine) AddFriend(ctx context.Context, actor service.Actor, id, friendID uint64) (*model.Reservation, error) {
	return m.result(m.Called(actor, id, friendID))
}

func (m *mockEngine) RemoveFriend(ctx context.Context, actor service.Actor, id, friendID uint64) (*model.Reservation, error) {
	return m.result(m.Called(actor, id, friendID))
}

func (m *mockEngine) ChangeTable(ctx context.Context, actor service.Actor, id, newTableID uint64) (*model.Reservation, error) {
	return m.result(m.Called(actor, id, newTableID))
}

type mockViews struct{ mock.Mock }

func (m *mockViews) list(args mock.Arguments) ([]service.ReservationView, error) {
	out, _ := args.Get(0).([]service.ReservationView)
	return out, args.Error(1)
}

func (m *mockViews) View(ctx context.Context, res *model.Reservation) (service.ReservationView, error) {
	args := m.Called(res)
	return args.Get(0).(service.ReservationView), args.Error(1)
}

func (m *mockViews) MyReservations(ctx context.Context, actor service.Actor, status string) ([]service.ReservationView, error) {
	return m.list(m.Called(actor, status))
}

func (m *mockViews) AllReservations(ctx context.Context, actor service.Actor, status string) ([]service.ReservationView, error) {
	return m.list(m.Called(actor, status))
}

func (m *mockViews) MyHistory(ctx context.Context, actor service.Actor) ([]service.ReservationView, error) {
	return m.list(m.Called(actor))
}

func (m *mockViews) AllHistory(ctx context.Context, actor service.Actor) ([]service.ReservationView, error) {
	return m.list(m.Called(actor))
}

func (m *mockViews) HistoryDetail(ctx context.Context, actor service.Actor, id uint64) (service.ReservationView, error) {
	args := m.Called(actor, id)
	return args.Get(0).(service.ReservationView), args.Error(1)
}

var customer = service.Actor{UserID: 4, Role: model.RoleUser}

// identity stands in for JWTAuth.
func identity(actor service.Actor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if actor.UserID != 0 {
				c.Set("user_id", actor.UserID)
				c.Set("role", actor.Role)
			}
			return next(c)
		}
	}
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Errors  map[string]string `json:"errors"`
	Data    json.RawMessage   `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func reservationServer(actor service.Actor) (*echo.Echo, *mockEngine, *mockViews) {
	engine, views := &mockEngine{}, &mockViews{}
	h := NewReservationHandler(engine, views)
	e := newEcho()
	g := e.Group("/v1", identity(actor))
	g.POST("/reservations", h.Create)
	g.GET("/reservations/me", h.Mine)
	g.GET("/reservations/:id", h.Get)
	g.PATCH("/reservations/:id/status/:status", h.UpdateStatus)
	g.PATCH("/reservations/:id/payment/:status", h.UpdatePayment)
	g.PUT("/reservations/:id/food-items", h.UpdateFoodItems)
	g.DELETE("/reservations/:id/friends/:friendId", h.RemoveFriend)
	g.GET("/history/:id", h.HistoryDetail)
	return e, engine, views
}

func TestReservationHandler_Create(t *testing.T) {
	e, engine, views := reservationServer(customer)
	res := &model.Reservation{ID: 7, UserID: customer.UserID}
	engine.On("Create", customer, service.CreateInput{
		TableID: 3,
		Date:    "2024-05-02",
		Time:    "19:30",
		Items:   []service.OrderItem{{FoodID: 10, Quantity: 2}},
		Friends: []uint64{5},
	}).Return(res, nil)
	views.On("View", res).Return(service.ReservationView{ID: 7, Status: "pending", Total: 110}, nil)

	rec := do(e, http.MethodPost, "/v1/reservations",
		`{"table_id":3,"date":"2024-05-02","time":"19:30","food_items":[{"food_id":10,"quantity":2}],"friend_list":[5]}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	var view service.ReservationView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, uint64(7), view.ID)
	assert.Equal(t, 110.0, view.Total)
	engine.AssertExpectations(t)
	views.AssertExpectations(t)
}

func TestReservationHandler_CreateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		actor  service.Actor
		body   string
		status int
		field  string
	}{
		{name: "no identity", body: `{}`, status: http.StatusUnauthorized},
		{name: "malformed json", actor: customer, body: `{"table_id":`, status: http.StatusBadRequest},
		{name: "missing table", actor: customer, body: `{"date":"d","time":"t"}`, status: http.StatusBadRequest, field: "table_id"},
		{name: "missing date", actor: customer, body: `{"table_id":3,"time":"t"}`, status: http.StatusBadRequest, field: "date"},
		{name: "quantity above cap", actor: customer, body: `{"table_id":3,"date":"d","time":"t","food_items":[{"food_id":10,"quantity":4611686018427387904}]}`, status: http.StatusBadRequest, field: "quantity"},
		{name: "zero friend", actor: customer, body: `{"table_id":3,"date":"d","time":"t","friend_list":[0]}`, status: http.StatusBadRequest, field: "friend_list[0]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e, engine, _ := reservationServer(tc.actor)
			rec := do(e, http.MethodPost, "/v1/reservations", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.Success)
			if tc.field != "" {
				assert.Contains(t, env.Errors, tc.field)
			}
			engine.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestReservationHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrReservationNotFound, http.StatusNotFound, "reservation_not_found"},
		{service.ErrForbidden, http.StatusForbidden, "forbidden"},
		{service.ErrTableUnavailable, http.StatusBadRequest, "table_unavailable"},
		{service.ErrInvalidTransition, http.StatusBadRequest, "invalid_transition"},
		{service.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
		{errors.New("connection reset"), http.StatusInternalServerError, ""},
	}
	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			e, engine, _ := reservationServer(customer)
			engine.On("UpdateStatus", customer, uint64(7), "confirm").Return(nil, tc.err)

			rec := do(e, http.MethodPatch, "/v1/reservations/7/status/confirm", "")
			assert.Equal(t, tc.status, rec.Code)
			env := decode(t, rec)
			assert.False(t, env.Success)
			assert.Equal(t, tc.code, env.Code)
			if tc.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", env.Message)
			}
		})
	}
}

func TestReservationHandler_BoundsStorageCalls(t *testing.T) {
	e, engine, views := reservationServer(customer)
	res := &model.Reservation{ID: 7, UserID: customer.UserID}
	engine.On("Create", customer, mock.Anything).Return(res, nil)
	engine.On("Get", customer, uint64(7)).Return(res, nil)
	engine.On("UpdateStatus", customer, uint64(7), "confirm").Return(res, nil)
	views.On("View", res).Return(service.ReservationView{ID: 7}, nil)

	do(e, http.MethodPost, "/v1/reservations", `{"table_id":3,"date":"d","time":"t"}`)
	do(e, http.MethodGet, "/v1/reservations/7", "")
	do(e, http.MethodPatch, "/v1/reservations/7/status/confirm", "")

	assert.Equal(t, []bool{true, true, true}, engine.deadlines)
}

func TestReservationHandler_InvalidIDs(t *testing.T) {
	e, engine, _ := reservationServer(customer)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/v1/reservations/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/v1/reservations/0", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodDelete, "/v1/reservations/7/friends/x", "").Code)
	engine.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	engine.AssertNotCalled(t, "RemoveFriend", mock.Anything, mock.Anything, mock.Anything)
}

func TestReservationHandler_UpdatePayment(t *testing.T) {
	e, engine, views := reservationServer(customer)
	res := &model.Reservation{ID: 7}
	views.On("View", res).Return(service.ReservationView{ID: 7}, nil)

	engine.On("UpdatePayment", customer, uint64(7), "paid", (*float64)(nil)).Return(res, nil).Once()
	rec := do(e, http.MethodPatch, "/v1/reservations/7/payment/paid", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	engine.On("UpdatePayment", customer, uint64(7), "deposit", mock.MatchedBy(func(d *float64) bool {
		return d != nil && *d == 25.5
	})).Return(res, nil).Once()
	rec = do(e, http.MethodPatch, "/v1/reservations/7/payment/deposit", `{"money_deposit":25.5}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	engine.AssertExpectations(t)
}

func TestReservationHandler_UpdateFoodItems(t *testing.T) {
	e, engine, views := reservationServer(customer)
	res := &model.Reservation{ID: 7}
	engine.On("UpdateFoodItems", customer, uint64(7), []service.OrderItem{{FoodID: 11, Quantity: 3}}).Return(res, nil)
	views.On("View", res).Return(service.ReservationView{ID: 7}, nil)

	rec := do(e, http.MethodPut, "/v1/reservations/7/food-items", `{"food_items":[{"food_id":11,"quantity":3}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodPut, "/v1/reservations/7/food-items", `{"food_items":[{"quantity":3}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec).Errors, "food_id")
	engine.AssertNumberOfCalls(t, "UpdateFoodItems", 1)
}

func TestReservationHandler_Listings(t *testing.T) {
	e, _, views := reservationServer(customer)
	views.On("MyReservations", customer, "pending").Return([]service.ReservationView{{ID: 2}, {ID: 1}}, nil)
	views.On("MyReservations", customer, "bogus").Return(nil, service.ErrInvalidStatus)
	views.On("HistoryDetail", customer, uint64(9)).Return(service.ReservationView{}, service.ErrReservationNotFound)

	rec := do(e, http.MethodGet, "/v1/reservations/me?status=pending", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var list []service.ReservationView
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &list))
	assert.Len(t, list, 2)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/v1/reservations/me?status=bogus", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/v1/history/9", "").Code)
}
