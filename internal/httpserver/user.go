package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	jwthelp "github.com/Skotchmaster/marketplace/pkg/jwt"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

type UserHTTP struct {
	Svc   *service.UserService
	Views *service.ViewService
}

func (h *UserHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.me")

	u, err := h.Svc.Me(ctx, authmw.UserID(c))
	if err != nil {
		return fail(l, "get_me_error", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update")

	var req transport.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "update_me_error", "invalid body", err)
	}

	u, err := h.Svc.Update(ctx, authmw.UserID(c), req)
	if err != nil {
		return fail(l, "update_me_error", err)
	}

	l.Info("update_me_success", "user_id", u.ID)
	return c.JSON(http.StatusOK, u)
}

func (h *UserHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.change_password")

	var req transport.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "change_password_error", "invalid body", err)
	}

	if err := h.Svc.ChangePassword(ctx, authmw.UserID(c), req); err != nil {
		return fail(l, "change_password_error", err)
	}

	l.Info("change_password_success")
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete")

	if err := h.Svc.Delete(ctx, authmw.UserID(c)); err != nil {
		return fail(l, "delete_me_error", err)
	}

	c.SetCookie(jwthelp.DeleteCookie(accessCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(refreshCookie, "/"))
	l.Info("delete_me_success")
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.history")

	p := pageParams(c)
	total, items, err := h.Views.History(ctx, authmw.UserID(c), p.Offset, p.Limit)
	if err != nil {
		return fail(l, "get_history_error", err)
	}
	return paged(c, p, total, items)
}
