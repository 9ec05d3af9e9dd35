package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bookstore-api/internal/apperr"
	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/repository"
	"github.com/iliyamo/bookstore-api/internal/service"
)

// UserHandler serves the /v1/users endpoints.
type UserHandler struct {
	Users  *service.UserService
	Orders *service.OrderService
}

func NewUserHandler(u *service.UserService, o *service.OrderService) *UserHandler {
	return &UserHandler{Users: u, Orders: o}
}

// Me returns the caller's account.
func (h *UserHandler) Me(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Get(ctx, id.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OK", u)
}

// UpdateMe applies a partial profile update to the caller's account.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	var req profileReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, id.UserID, service.ProfilePatch{Name: req.Name, Phone: req.Phone, Region: req.Region})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Profile updated", u)
}

// List pages through accounts. Filters: keyword, role, status.
func (h *UserHandler) List(c echo.Context) error {
	f := repository.UserFilter{Keyword: c.QueryParam("keyword")}
	if raw := c.QueryParam("role"); raw != "" {
		role, err := model.ParseRole(raw)
		if err != nil {
			return apperr.Validation(err.Error())
		}
		f.Role = role
	}
	if raw := c.QueryParam("status"); raw != "" {
		st, err := model.ParseUserStatus(raw)
		if err != nil {
			return apperr.Validation(err.Error())
		}
		f.Status = st
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	page, err := h.Users.List(ctx, f, pageOf(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OK", page)
}

// Get returns one account by id.
func (h *UserHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OK", u)
}

// ChangeRole sets the role of an account.
func (h *UserHandler) ChangeRole(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req roleReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.ChangeRole(ctx, c.Param("id"), req.Role, actor.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Role updated", u)
}

// ChangeStatus sets the status of an account; leaving ACTIVE signs the
// account out everywhere.
func (h *UserHandler) ChangeStatus(c echo.Context) error {
	actor, err := identity(c)
	if err != nil {
		return err
	}
	var req userStatusReq
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.ChangeStatus(ctx, c.Param("id"), req.Status, actor.UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Status updated", u)
}

// ListOrders pages through the orders of one account.
func (h *UserHandler) ListOrders(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	page, err := h.Orders.ListForUser(ctx, u.ID, pageOf(c), c.QueryParam("sort"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OK", page)
}
