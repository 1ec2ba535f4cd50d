package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

type PointHTTP struct {
	Svc *service.PointService
}

func (h *PointHTTP) Balance(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "point.balance")

	uid := authmw.UserID(c)
	balance, err := h.Svc.Balance(ctx, uid)
	if err != nil {
		return fail(l, "get_points_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"user_id": uid, "balance": balance})
}

func (h *PointHTTP) History(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "point.history")

	p := pageParams(c)
	total, items, err := h.Svc.History(ctx, authmw.UserID(c), p.Offset, p.Limit)
	if err != nil {
		return fail(l, "get_point_history_error", err)
	}
	return paged(c, p, total, items)
}

func (h *PointHTTP) Adjust(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "point.adjust")

	userID, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "adjust_points_error", err.Error(), err)
	}
	var req transport.AdjustPointsRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "adjust_points_error", "invalid body", err)
	}

	entry, err := h.Svc.Adjust(ctx, userID, req.Amount, req.Reason)
	if err != nil {
		return fail(l, "adjust_points_error", err)
	}

	l.Info("adjust_points_success", "user_id", userID, "amount", req.Amount, "admin_id", authmw.UserID(c))
	return c.JSON(http.StatusOK, entry)
}
