package repo

import (
	"context"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) ListAddresses(ctx context.Context, userID uint) ([]models.Address, error) {
	var items []models.Address
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).
		Order("is_default DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetAddress(ctx context.Context, userID, id uint) (*models.Address, error) {
	var a models.Address
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) GetDefaultAddress(ctx context.Context, userID uint) (*models.Address, error) {
	var a models.Address
	if err := r.DB.WithContext(ctx).Where("user_id = ? AND is_default = ?", userID, true).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) CountAddresses(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Address{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *GormRepo) CreateAddress(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *GormRepo) SaveAddress(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Save(a).Error
}

func (r *GormRepo) ClearDefaultAddress(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

func (r *GormRepo) DeleteAddress(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Delete(a).Error
}

func (r *GormRepo) LatestAddress(ctx context.Context, userID uint) (*models.Address, error) {
	var a models.Address
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
