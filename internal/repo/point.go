package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

// LockPoint returns the locked balance row, creating it on first use.
func (r *GormRepo) LockPoint(ctx context.Context, userID uint) (*models.Point, error) {
	var p models.Point
	err := forUpdate(r.DB.WithContext(ctx)).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p = models.Point{UserID: userID}
		if err := r.DB.WithContext(ctx).Create(&p).Error; err != nil {
			return nil, err
		}
		return &p, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetPoint(ctx context.Context, userID uint) (*models.Point, error) {
	var p models.Point
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) SetPointBalance(ctx context.Context, p *models.Point, balance int64) error {
	if err := r.DB.WithContext(ctx).Model(p).Update("balance", balance).Error; err != nil {
		return err
	}
	p.Balance = balance
	return nil
}

func (r *GormRepo) AddPointHistory(ctx context.Context, h *models.PointHistory) error {
	return r.DB.WithContext(ctx).Create(h).Error
}

func (r *GormRepo) ListPointHistory(ctx context.Context, userID uint, p Page) (int64, []models.PointHistory, error) {
	q := r.DB.WithContext(ctx).Model(&models.PointHistory{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.PointHistory
	if err := q.Order("id DESC").Offset(p.Offset).Limit(p.Limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// SumPointsByOrder returns the net points of the given type recorded for an order.
func (r *GormRepo) SumPointsByOrder(ctx context.Context, orderID uint, typ models.PointType) (int64, error) {
	var sum int64
	err := r.DB.WithContext(ctx).Model(&models.PointHistory{}).
		Where("order_id = ? AND type = ?", orderID, typ).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return sum, err
}
