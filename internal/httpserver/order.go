package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/e"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

var orderStatuses = map[string]bool{
	"":                                  true,
	string(models.OrderPending):         true,
	string(models.OrderPaid):            true,
	string(models.OrderConfirmed):       true,
	string(models.OrderCancelled):       true,
	string(models.OrderRefundRequested): true,
	string(models.OrderRefunded):        true,
}

type OrderHTTP struct {
	Svc      *service.OrderService
	Payments *service.PaymentService
}

func (h *OrderHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	var req transport.CreateOrderRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "create_order_error", "invalid body", err)
	}

	order, err := h.Svc.Create(ctx, authmw.UserID(c), req)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", order.ID, "total", order.TotalAmount)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	status := strings.ToUpper(c.QueryParam("status"))
	if !orderStatuses[status] {
		return badRequest(l, "list_orders_error", "unknown status", nil)
	}

	p := pageParams(c)
	total, items, err := h.Svc.List(ctx, repo.OrderFilter{UserID: authmw.UserID(c), Status: status}, p.Offset, p.Limit)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return paged(c, p, total, items)
}

func (h *OrderHTTP) AdminList(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.admin_list")

	status := strings.ToUpper(c.QueryParam("status"))
	if !orderStatuses[status] {
		return badRequest(l, "list_orders_error", "unknown status", nil)
	}

	p := pageParams(c)
	total, items, err := h.Svc.List(ctx, repo.OrderFilter{Status: status}, p.Offset, p.Limit)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return paged(c, p, total, items)
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "get_order_error", err.Error(), err)
	}

	order, err := h.Svc.Get(ctx, authmw.UserID(c), authmw.IsAdmin(c), id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "cancel_order_error", err.Error(), err)
	}

	order, err := h.Svc.Cancel(ctx, authmw.UserID(c), authmw.IsAdmin(c), id)
	if err != nil {
		return fail(l, "cancel_order_error", err)
	}

	l.Info("cancel_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Confirm(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.confirm")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "confirm_order_error", err.Error(), err)
	}

	order, err := h.Svc.Confirm(ctx, authmw.UserID(c), authmw.IsAdmin(c), id)
	if err != nil {
		return fail(l, "confirm_order_error", err)
	}

	l.Info("confirm_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}

// Pay answers a declined charge with 402 and the FAILED payment record.
func (h *OrderHTTP) Pay(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.pay")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "pay_order_error", err.Error(), err)
	}
	var req transport.PayRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "pay_order_error", "invalid body", err)
	}

	payment, err := h.Payments.Pay(ctx, authmw.UserID(c), id, req)
	if err != nil {
		if errors.Is(err, service.ErrPaymentFailed) && payment != nil {
			l.Warn("pay_order_error", "status", http.StatusPaymentRequired, "payment_id", payment.ID, "error", err)
			return c.JSON(http.StatusPaymentRequired, map[string]any{
				"code":    e.ERROR_PAYMENT_FAILED,
				"message": err.Error(),
				"payment": payment,
			})
		}
		return fail(l, "pay_order_error", err)
	}

	l.Info("pay_order_success", "order_id", id, "payment_id", payment.ID, "amount", payment.Amount)
	return c.JSON(http.StatusOK, payment)
}

func (h *OrderHTTP) ListPayments(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list_payments")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "list_payments_error", err.Error(), err)
	}

	items, err := h.Payments.ListForOrder(ctx, authmw.UserID(c), authmw.IsAdmin(c), id)
	if err != nil {
		return fail(l, "list_payments_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": items})
}

func (h *OrderHTTP) GetPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.get")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "get_payment_error", err.Error(), err)
	}

	payment, err := h.Payments.Get(ctx, authmw.UserID(c), authmw.IsAdmin(c), id)
	if err != nil {
		return fail(l, "get_payment_error", err)
	}
	return c.JSON(http.StatusOK, payment)
}

func (h *OrderHTTP) CancelPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.cancel")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "cancel_payment_error", err.Error(), err)
	}

	payment, err := h.Payments.Cancel(ctx, authmw.UserID(c), authmw.IsAdmin(c), id)
	if err != nil {
		return fail(l, "cancel_payment_error", err)
	}

	l.Info("cancel_payment_success", "payment_id", payment.ID, "order_id", payment.OrderID)
	return c.JSON(http.StatusOK, payment)
}
