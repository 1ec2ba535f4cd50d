package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

type WishlistHTTP struct {
	Svc *service.WishlistService
}

func (h *WishlistHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.list")

	p := pageParams(c)
	total, items, err := h.Svc.List(ctx, authmw.UserID(c), p.Offset, p.Limit)
	if err != nil {
		return fail(l, "get_wishlist_error", err)
	}
	return paged(c, p, total, items)
}

func (h *WishlistHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.add")

	var req transport.WishlistRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "add_wishlist_error", "invalid body", err)
	}

	item, err := h.Svc.Add(ctx, authmw.UserID(c), req.ProductID)
	if err != nil {
		return fail(l, "add_wishlist_error", err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *WishlistHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.remove")

	productID, err := idParam(c, "productId")
	if err != nil {
		return badRequest(l, "remove_wishlist_error", err.Error(), err)
	}
	if err := h.Svc.Remove(ctx, authmw.UserID(c), productID); err != nil {
		return fail(l, "remove_wishlist_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
