package httpserver

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/util"
)

const guestHeader = "X-Guest-Id"

// RequestValidator plugs go-playground/validator into echo's c.Validate.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (rv *RequestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

// bind decodes and validates the request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	if err := c.Validate(req); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}

func idParam(c echo.Context, name string) (uint, error) {
	id, ok := util.ParseUint(c.Param(name))
	if !ok {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

type pageQuery struct {
	Page   int
	Offset int
	Limit  int
}

func pageParams(c echo.Context) pageQuery {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)
	if page < 1 {
		page = 1
	}
	return pageQuery{Page: page, Offset: offset, Limit: limit}
}

func paged[T any](c echo.Context, p pageQuery, total int64, items []T) error {
	if items == nil {
		items = []T{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": util.NewMeta(p.Page, p.Offset, p.Limit, total),
	})
}
