package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

type WishlistService struct {
	Repo *repo.GormRepo
}

func (s *WishlistService) List(ctx context.Context, userID uint, offset, limit int) (int64, []models.WishlistItem, error) {
	return s.Repo.ListWishlist(ctx, userID, repo.Page{Offset: offset, Limit: limit})
}

func (s *WishlistService) Add(ctx context.Context, userID, productID uint) (*models.WishlistItem, error) {
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		return nil, mapRepoErr(err, "product")
	}
	exists, err := s.Repo.WishlistExists(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: product already in wishlist", ErrConflict)
	}
	item := &models.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.Repo.AddWishlist(ctx, item); err != nil {
		return nil, mapRepoErr(err, "product already in wishlist")
	}
	return item, nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID uint) error {
	return mapRepoErr(s.Repo.DeleteWishlist(ctx, userID, productID), "wishlist item")
}
