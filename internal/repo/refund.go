package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type RefundFilter struct {
	UserID uint
	Status string
}

func (r *GormRepo) CreateRefund(ctx context.Context, rf *models.Refund) error {
	return r.DB.WithContext(ctx).Create(rf).Error
}

func (r *GormRepo) LockRefund(ctx context.Context, id uint) (*models.Refund, error) {
	var rf models.Refund
	if err := forUpdate(r.DB.WithContext(ctx)).First(&rf, id).Error; err != nil {
		return nil, err
	}
	return &rf, nil
}

func (r *GormRepo) GetRefund(ctx context.Context, id uint) (*models.Refund, error) {
	var rf models.Refund
	if err := r.DB.WithContext(ctx).First(&rf, id).Error; err != nil {
		return nil, err
	}
	return &rf, nil
}

func (r *GormRepo) OpenRefundExists(ctx context.Context, orderID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Refund{}).
		Where("order_id = ? AND status IN ?", orderID, []models.RefundStatus{models.RefundRequested, models.RefundApproved}).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRepo) ListRefunds(ctx context.Context, f RefundFilter, p Page) (int64, []models.Refund, error) {
	q := r.DB.WithContext(ctx).Model(&models.Refund{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Refund
	if err := q.Order("id DESC").Offset(p.Offset).Limit(p.Limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) SaveRefund(ctx context.Context, rf *models.Refund) error {
	return r.DB.WithContext(ctx).Save(rf).Error
}
