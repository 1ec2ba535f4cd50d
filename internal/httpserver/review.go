package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

type ReviewHTTP struct {
	Svc *service.ReviewService
}

func (h *ReviewHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.create")

	var req transport.CreateReviewRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "create_review_error", "invalid body", err)
	}

	rv, err := h.Svc.Create(ctx, authmw.UserID(c), req)
	if err != nil {
		return fail(l, "create_review_error", err)
	}

	l.Info("create_review_success", "review_id", rv.ID, "product_id", rv.ProductID)
	return c.JSON(http.StatusCreated, rv)
}

func (h *ReviewHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.list")

	productID, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "list_reviews_error", err.Error(), err)
	}

	p := pageParams(c)
	total, items, err := h.Svc.List(ctx, productID, p.Offset, p.Limit)
	if err != nil {
		return fail(l, "list_reviews_error", err)
	}
	return paged(c, p, total, items)
}

func (h *ReviewHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.delete")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "delete_review_error", err.Error(), err)
	}
	if err := h.Svc.Delete(ctx, authmw.UserID(c), authmw.IsAdmin(c), id); err != nil {
		return fail(l, "delete_review_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ReviewHTTP) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "review.summary")

	productID, ok := util.ParseUint(c.QueryParam("product_id"))
	if !ok {
		return badRequest(l, "review_summary_error", "product_id must be a positive integer", nil)
	}

	summary, err := h.Svc.Summary(ctx, productID)
	if err != nil {
		return fail(l, "review_summary_error", err)
	}
	return c.JSON(http.StatusOK, summary)
}
