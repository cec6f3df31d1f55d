package handler // handler defines the HTTP handlers of the reservation API

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/service"
)

var errNoIdentity = errors.New("invalid user_id in context")

// requestTimeout bounds the storage work behind one request.
const requestTimeout = 5 * time.Second

// requestContext derives the context handlers pass to storage.
func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID extracts the user_id placed by JWTAuth and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		if t != 0 {
			return t, nil
		}
	case int64:
		if t > 0 {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
			return n, nil
		}
	}
	return 0, errNoIdentity
}

// actorFrom builds the service.Actor for the authenticated caller.
func actorFrom(c echo.Context) (service.Actor, error) {
	uid, err := getUserID(c)
	if err != nil {
		return service.Actor{}, err
	}
	role, _ := c.Get("role").(string)
	return service.Actor{UserID: uid, Role: role}, nil
}

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// ok writes the success envelope.
func ok(c echo.Context, status int, msg string, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "message": msg, "data": data})
}

// fail writes the error envelope.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

func unauthorized(c echo.Context) error { return fail(c, http.StatusUnauthorized, "unauthorized") }

// statusFor maps a service error kind to an HTTP status code.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindConflict, service.KindInvalidState, service.KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError turns a service failure into the error envelope.  Business
// errors carry their code; anything else is logged and hidden behind a
// generic 500.
func respondError(c echo.Context, err error) error {
	kind := service.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("[%s %s] %v", c.Request().Method, c.Path(), err)
		return fail(c, status, "internal server error")
	}
	return c.JSON(status, echo.Map{
		"success": false,
		"message": err.Error(),
		"code":    service.CodeOf(err),
	})
}

// bindValid binds the request body into dst and runs the registered
// validator.  On failure it has already written a 400 response and the
// returned error is the result of that write (usually nil), so callers
// must return it when handled is true.
func bindValid(c echo.Context, dst interface{}) (handled bool, err error) {
	if err := c.Bind(dst); err != nil {
		return true, fail(c, http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(dst); err != nil {
		return true, c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "validation failed",
			"errors":  validationErrors(err),
		})
	}
	return false, nil
}
