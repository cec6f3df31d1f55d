package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/restaurant-reservation/internal/handler"
)

func denyAll(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error { return c.NoContent(http.StatusUnauthorized) }
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func newServer() *echo.Echo {
	e := echo.New()
	RegisterRoutes(e, nil)
	RegisterAuth(e, &handler.AuthHandler{}, denyAll)
	RegisterReservations(e, &handler.ReservationHandler{}, denyAll)
	RegisterCatalog(e, &handler.CatalogHandler{}, denyAll, passthrough)
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer()
	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /v1/auth/register",
		"POST /v1/auth/logout",
		"PUT /v1/me",
		"GET /v1/users",
		"POST /v1/reservations",
		"GET /v1/reservations/me",
		"PUT /v1/reservations/:id/change-table",
		"PATCH /v1/reservations/:id/status/:status",
		"PATCH /v1/reservations/:id/payment/:status",
		"PUT /v1/reservations/:id/food-items",
		"PATCH /v1/reservations/:id/details",
		"POST /v1/reservations/:id/friends",
		"DELETE /v1/reservations/:id/friends/:friendId",
		"GET /v1/history",
		"GET /v1/history/me",
		"GET /v1/history/:id",
		"GET /v1/categories/:id",
		"GET /v1/foods/:id",
		"GET /v1/floors/:id",
		"GET /v1/tables/:id",
		"POST /v1/floors",
		"PUT /v1/floors/:id",
		"DELETE /v1/floors/:id",
		"POST /v1/tables",
		"PUT /v1/tables/:id",
		"DELETE /v1/tables/:id",
		"POST /v1/categories",
		"PUT /v1/categories/:id",
		"DELETE /v1/categories/:id",
		"POST /v1/foods",
		"PUT /v1/foods/:id",
		"DELETE /v1/foods/:id",
	} {
		assert.True(t, got[want], "missing route %s", want)
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	e := newServer()
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/me"},
		{http.MethodPost, "/v1/auth/logout"},
		{http.MethodGet, "/v1/reservations/me"},
		{http.MethodPatch, "/v1/reservations/1/status/confirm"},
		{http.MethodGet, "/v1/history/me"},
		{http.MethodPost, "/v1/floors"},
		{http.MethodDelete, "/v1/tables/3"},
		{http.MethodPut, "/v1/categories/1"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
