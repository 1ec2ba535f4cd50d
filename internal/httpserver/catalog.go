package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	authmw "github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

var productSorts = map[string]bool{"": true, "latest": true, "price_asc": true, "price_desc": true, "popular": true}

type CatalogHTTP struct {
	Svc   *service.CatalogService
	Views *service.ViewService
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	sort := c.QueryParam("sort")
	if !productSorts[sort] {
		return badRequest(l, "get_products_error", "sort must be latest, price_asc, price_desc or popular", nil)
	}

	p := pageParams(c)
	total, items, err := h.Svc.ListProducts(ctx, repo.ProductFilter{Category: c.QueryParam("category"), Sort: sort}, p.Offset, p.Limit)
	if err != nil {
		return fail(l, "get_products_error", err)
	}
	return paged(c, p, total, items)
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "get_product_error", err.Error(), err)
	}

	product, err := h.Svc.ViewProduct(ctx, id, authmw.UserID(c))
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return badRequest(l, "search_error", "q is required", nil)
	}

	p := pageParams(c)
	total, items, err := h.Svc.Search(ctx, q, p.Offset, p.Limit)
	if err != nil {
		return fail(l, "search_error", err)
	}
	return paged(c, p, total, items)
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "create_product_error", "invalid body", err)
	}

	prod, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusCreated, prod)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "patch_product_error", err.Error(), err)
	}
	var req transport.PatchProductRequest
	if err := bind(c, &req); err != nil {
		return badRequest(l, "patch_product_error", "invalid body", err)
	}

	prod, err := h.Svc.PatchProduct(ctx, id, req)
	if err != nil {
		return fail(l, "patch_product_error", err)
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, prod)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := idParam(c, "id")
	if err != nil {
		return badRequest(l, "delete_product_error", err.Error(), err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return fail(l, "delete_product_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) Reindex(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.reindex")

	n, err := h.Svc.Reindex(ctx)
	if err != nil {
		return fail(l, "reindex_error", err)
	}

	l.Info("reindex_success", "products", n)
	return c.JSON(http.StatusOK, map[string]int{"indexed": n})
}

func (h *CatalogHTTP) VisitStats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "stats.visits")

	var productID uint
	if raw := c.QueryParam("product_id"); raw != "" {
		id, ok := util.ParseUint(raw)
		if !ok {
			return badRequest(l, "visit_stats_error", "product_id must be a positive integer", nil)
		}
		productID = id
	}

	stats, err := h.Views.Stats(ctx, productID, c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return fail(l, "visit_stats_error", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"data": stats})
}
