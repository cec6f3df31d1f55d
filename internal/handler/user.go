package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/repository"
)

type profileReq struct {
	Name    string `json:"name" validate:"required,max=100"`
	Phone   string `json:"phone" validate:"max=32"`
	Address string `json:"address" validate:"max=255"`
}

type profileResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func toProfile(u model.User) profileResp {
	return profileResp{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Address: u.Address, Role: u.Role, CreatedAt: u.CreatedAt}
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	u, err := h.Users.FindUser(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "load user failed")
	}
	return ok(c, http.StatusOK, "profile", toProfile(u))
}

// UpdateMe rewrites the caller's contact details.  Email and role are not
// editable here.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req profileReq
	if handled, err := bindValid(c, &req); handled {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	err = h.Users.UpdateProfile(ctx, model.User{
		ID:      uid,
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, "user not found")
		}
		return fail(c, http.StatusInternalServerError, "update profile failed")
	}
	u, err := h.Users.FindUser(ctx, uid)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "load user failed")
	}
	return ok(c, http.StatusOK, "profile updated", toProfile(u))
}

// ListUsers returns every account (admin).
func (h *AuthHandler) ListUsers(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	users, err := h.Users.List(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "list users failed")
	}
	out := make([]profileResp, 0, len(users))
	for _, u := range users {
		out = append(out, toProfile(u))
	}
	return ok(c, http.StatusOK, "users", out)
}
