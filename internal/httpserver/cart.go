package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

type CartHTTP struct {
	Svc *service.CartService
}

// owner is the signed-in user when a token was sent, otherwise the guest id.
func cartOwner(c echo.Context) service.CartOwner {
	if uid := authmw.UserID(c); uid != 0 {
		return service.CartOwner{UserID: uid}
	}
	return service.CartOwner{GuestID: strings.TrimSpace(c.Request().Header.Get(guestHeader))}
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	view, err := h.Svc.Get(ctx, cartOwner(c))
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	var req transport.CartItemRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "add_to_cart_error", "invalid body", err)
	}

	owner := cartOwner(c)
	if err := h.Svc.Add(ctx, owner, req.ProductID, req.Quantity); err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", req.ProductID, "quantity", req.Quantity)
	return h.GetCart(c)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	productID, err := idParam(c, "productId")
	if err != nil {
		return badRequest(l, "set_quantity_error", err.Error(), err)
	}
	var req transport.CartQuantityRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "set_quantity_error", "invalid body", err)
	}

	if err := h.Svc.SetQuantity(ctx, cartOwner(c), productID, req.Quantity); err != nil {
		return fail(l, "set_quantity_error", err)
	}
	return h.GetCart(c)
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	productID, err := idParam(c, "productId")
	if err != nil {
		return badRequest(l, "remove_from_cart_error", err.Error(), err)
	}
	if err := h.Svc.Remove(ctx, cartOwner(c), productID); err != nil {
		return fail(l, "remove_from_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	if err := h.Svc.Clear(ctx, cartOwner(c)); err != nil {
		return fail(l, "clear_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) MergeCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.merge")

	guestID := strings.TrimSpace(c.Request().Header.Get(guestHeader))
	if guestID == "" {
		return badRequest(l, "merge_cart_error", fmt.Sprintf("%s header is required", guestHeader), nil)
	}

	n, err := h.Svc.Merge(ctx, authmw.UserID(c), guestID)
	if err != nil {
		return fail(l, "merge_cart_error", err)
	}

	l.Info("merge_cart_success", "lines", n)
	return h.GetCart(c)
}
