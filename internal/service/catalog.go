package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/cache"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

const productCacheTTL = 10 * time.Minute

type CatalogService struct {
	Repo  *repo.GormRepo
	Index ProductIndex
	Cache *cache.Cache
	Views *ViewService
}

func productCacheKey(id uint) string { return fmt.Sprintf("product:%d", id) }

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	if s.Cache != nil {
		var p models.Product
		if ok, err := s.Cache.Get(ctx, productCacheKey(id), &p); err == nil && ok {
			return &p, nil
		}
	}
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "product")
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, productCacheKey(id), p, productCacheTTL); err != nil {
			logging.FromContext(ctx).Warn("product_cache_set_error", "product_id", id, "error", err)
		}
	}
	return p, nil
}

// ViewProduct returns the product and records the view for the given viewer (0 = anonymous).
func (s *CatalogService) ViewProduct(ctx context.Context, id, viewerID uint) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Views != nil {
		if err := s.Views.Record(ctx, id, viewerID); err != nil {
			logging.FromContext(ctx).Warn("record_view_error", "product_id", id, "error", err)
		}
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, f, repo.Page{Offset: offset, Limit: limit})
}

// Search queries the index and falls back to the database when it is unavailable.
func (s *CatalogService) Search(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, []models.Product{}, nil
	}
	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "fallback", "db", "error", err)
	}
	return s.Repo.SearchProductsLike(ctx, q, repo.Page{Offset: offset, Limit: limit})
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, validationf("name is required")
	}
	if req.Price < 0 || req.Stock < 0 {
		return nil, validationf("price and stock must be >= 0")
	}
	p := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.syncIndex(ctx, p)
	return p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uint, req transport.PatchProductRequest) (*models.Product, error) {
	if (req.Price != nil && *req.Price < 0) || (req.Stock != nil && *req.Stock < 0) {
		return nil, validationf("price and stock must be >= 0")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, validationf("name must not be empty")
	}

	var prod *models.Product
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		p, err := tx.LockProduct(ctx, id)
		if err != nil {
			return mapRepoErr(err, "product")
		}
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.Category != nil {
			p.Category = *req.Category
		}
		if req.Price != nil {
			p.Price = *req.Price
		}
		if req.Stock != nil {
			p.Stock = *req.Stock
		}
		prod = p
		return tx.SaveProduct(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	s.syncIndex(ctx, prod)
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return mapRepoErr(err, "product")
	}
	s.invalidate(ctx, id)
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index_delete_error", "product_id", id, "error", err)
		}
	}
	return nil
}

// DecreaseStock must run inside the caller's transaction; the row is locked FOR UPDATE.
func DecreaseStock(ctx context.Context, tx *repo.GormRepo, productID uint, qty int64) (*models.Product, error) {
	p, err := tx.LockProduct(ctx, productID)
	if err != nil {
		return nil, mapRepoErr(err, fmt.Sprintf("product %d", productID))
	}
	if p.Stock < qty {
		return nil, fmt.Errorf("%w: product %d has %d left", ErrOutOfStock, productID, p.Stock)
	}
	if err := tx.AdjustStock(ctx, productID, -qty); err != nil {
		return nil, err
	}
	p.Stock -= qty
	return p, nil
}

func IncreaseStock(ctx context.Context, tx *repo.GormRepo, productID uint, qty int64) error {
	if _, err := tx.LockProduct(ctx, productID); err != nil {
		return mapRepoErr(err, fmt.Sprintf("product %d", productID))
	}
	return tx.AdjustStock(ctx, productID, qty)
}

// Restock returns order quantities to inventory.
func (s *CatalogService) Restock(ctx context.Context, items []models.OrderProduct) error {
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		return restockItems(ctx, tx, items)
	})
	if err != nil {
		return err
	}
	for _, it := range items {
		s.invalidate(ctx, it.ProductID)
	}
	return nil
}

func restockItems(ctx context.Context, tx *repo.GormRepo, items []models.OrderProduct) error {
	for _, it := range sortedItems(items) {
		if err := IncreaseStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Reindex pushes every product into the search index.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, fmt.Errorf("%w: search index not configured", ErrUpstream)
	}
	n := 0
	err := s.Repo.AllProducts(ctx, 200, func(batch []models.Product) error {
		for i := range batch {
			if err := s.Index.IndexProduct(ctx, &batch[i]); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

func (s *CatalogService) invalidate(ctx context.Context, id uint) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, productCacheKey(id)); err != nil {
		logging.FromContext(ctx).Warn("product_cache_delete_error", "product_id", id, "error", err)
	}
}

func (s *CatalogService) syncIndex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_error", "product_id", p.ID, "error", err)
	}
}
