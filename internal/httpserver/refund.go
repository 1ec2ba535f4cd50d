package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

var refundStatuses = map[string]bool{
	"":                             true,
	string(models.RefundRequested): true,
	string(models.RefundApproved):  true,
	string(models.RefundRejected):  true,
	string(models.RefundCompleted): true,
}

type RefundHTTP struct {
	Svc *service.RefundService
}

func (h *RefundHTTP) Request(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "refund.request")

	orderID, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "request_refund_error", err.Error(), err)
	}
	var req transport.RefundRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "request_refund_error", "invalid body", err)
	}

	rf, err := h.Svc.Request(ctx, authmw.UserID(c), orderID, req.Reason)
	if err != nil {
		return fail(l, "request_refund_error", err)
	}

	l.Info("request_refund_success", "refund_id", rf.ID, "order_id", orderID)
	return c.JSON(http.StatusCreated, rf)
}

func (h *RefundHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "refund.list")

	p := pageParams(c)
	total, items, err := h.Svc.List(ctx, repo.RefundFilter{UserID: authmw.UserID(c)}, p.Offset, p.Limit)
	if err != nil {
		return fail(l, "list_refunds_error", err)
	}
	return paged(c, p, total, items)
}

func (h *RefundHTTP) AdminList(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "refund.admin_list")

	status := strings.ToUpper(c.QueryParam("status"))
	if !refundStatuses[status] {
		return badRequest(l, "list_refunds_error", "unknown status", nil)
	}

	p := pageParams(c)
	total, items, err := h.Svc.List(ctx, repo.RefundFilter{Status: status}, p.Offset, p.Limit)
	if err != nil {
		return fail(l, "list_refunds_error", err)
	}
	return paged(c, p, total, items)
}

func (h *RefundHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "refund.get")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "get_refund_error", err.Error(), err)
	}

	rf, err := h.Svc.Get(ctx, authmw.UserID(c), authmw.IsAdmin(c), id)
	if err != nil {
		return fail(l, "get_refund_error", err)
	}
	return c.JSON(http.StatusOK, rf)
}

func (h *RefundHTTP) Approve(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "refund.approve")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "approve_refund_error", err.Error(), err)
	}

	rf, err := h.Svc.Approve(ctx, id)
	if err != nil {
		return fail(l, "approve_refund_error", err)
	}

	l.Info("approve_refund_success", "refund_id", rf.ID, "order_id", rf.OrderID)
	return c.JSON(http.StatusOK, rf)
}

func (h *RefundHTTP) Reject(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "refund.reject")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "reject_refund_error", err.Error(), err)
	}
	var req transport.RejectRefundRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "reject_refund_error", "invalid body", err)
	}

	rf, err := h.Svc.Reject(ctx, id, req.Reason)
	if err != nil {
		return fail(l, "reject_refund_error", err)
	}

	l.Info("reject_refund_success", "refund_id", rf.ID)
	return c.JSON(http.StatusOK, rf)
}

func (h *RefundHTTP) Complete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "refund.complete")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "complete_refund_error", err.Error(), err)
	}

	rf, err := h.Svc.Complete(ctx, id)
	if err != nil {
		return fail(l, "complete_refund_error", err)
	}

	l.Info("complete_refund_success", "refund_id", rf.ID)
	return c.JSON(http.StatusOK, rf)
}
