package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) AddProductViews(ctx context.Context, productID uint, n int64) error {
	return r.DB.WithContext(ctx).Model(&models.Product{}).Unscoped().
		Where("id = ?", productID).
		Update("view_count", gorm.Expr("view_count + ?", n)).Error
}

func (r *GormRepo) AddVisitStat(ctx context.Context, productID uint, day string, n int64) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{"count": gorm.Expr("visit_stats.count + ?", n)}),
	}).Create(&models.VisitStat{ProductID: productID, Day: day, Count: n}).Error
}

func (r *GormRepo) ListVisitStats(ctx context.Context, productID uint, from, to string) ([]models.VisitStat, error) {
	q := r.DB.WithContext(ctx).Model(&models.VisitStat{})
	if productID != 0 {
		q = q.Where("product_id = ?", productID)
	}
	if from != "" {
		q = q.Where("day >= ?", from)
	}
	if to != "" {
		q = q.Where("day <= ?", to)
	}
	var items []models.VisitStat
	if err := q.Order("day ASC, product_id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) TouchHistory(ctx context.Context, userID, productID uint, at time.Time) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"viewed_at"}),
	}).Create(&models.History{UserID: userID, ProductID: productID, ViewedAt: at}).Error
}

func (r *GormRepo) ListHistory(ctx context.Context, userID uint, p Page) (int64, []models.History, error) {
	q := r.DB.WithContext(ctx).Model(&models.History{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.History
	if err := q.Preload("Product").Order("viewed_at DESC, id DESC").Offset(p.Offset).Limit(p.Limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}
