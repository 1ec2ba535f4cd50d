package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

type AddressHTTP struct {
	Svc *service.AddressService
}

func (h *AddressHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.list")

	items, err := h.Svc.List(ctx, authmw.UserID(c))
	if err != nil {
		return fail(l, "list_addresses_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *AddressHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.create")

	var req transport.AddressRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "create_address_error", "invalid body", err)
	}

	a, err := h.Svc.Create(ctx, authmw.UserID(c), req)
	if err != nil {
		return fail(l, "create_address_error", err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *AddressHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.update")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "update_address_error", err.Error(), err)
	}
	var req transport.AddressRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "update_address_error", "invalid body", err)
	}

	a, err := h.Svc.Update(ctx, authmw.UserID(c), id, req)
	if err != nil {
		return fail(l, "update_address_error", err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AddressHTTP) SetDefault(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.set_default")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "set_default_address_error", err.Error(), err)
	}

	a, err := h.Svc.SetDefault(ctx, authmw.UserID(c), id)
	if err != nil {
		return fail(l, "set_default_address_error", err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AddressHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "address.delete")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "delete_address_error", err.Error(), err)
	}
	if err := h.Svc.Delete(ctx, authmw.UserID(c), id); err != nil {
		return fail(l, "delete_address_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
