package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).Preload("Product").
		Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// LockCartItem returns the locked line or nil when the user has none for the product.
func (r *GormRepo) LockCartItem(ctx context.Context, userID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := forUpdate(r.DB.WithContext(ctx)).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Create(item).Error
}

func (r *GormRepo) SetCartQuantity(ctx context.Context, item *models.CartItem, qty int64) error {
	if err := r.DB.WithContext(ctx).Model(item).Update("quantity", qty).Error; err != nil {
		return err
	}
	item.Quantity = qty
	return nil
}

func (r *GormRepo) DeleteCartItem(ctx context.Context, userID, productID uint) error {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) DeleteCartItems(ctx context.Context, userID uint, productIDs []uint) error {
	q := r.DB.WithContext(ctx).Where("user_id = ?", userID)
	if productIDs != nil {
		q = q.Where("product_id IN ?", productIDs)
	}
	return q.Delete(&models.CartItem{}).Error
}
