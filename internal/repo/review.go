package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) CreateReview(ctx context.Context, rv *models.Review) error {
	return r.DB.WithContext(ctx).Create(rv).Error
}

func (r *GormRepo) ReviewExists(ctx context.Context, userID, productID, orderID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Unscoped().Model(&models.Review{}).
		Where("user_id = ? AND product_id = ? AND order_id = ?", userID, productID, orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormRepo) GetReview(ctx context.Context, id uint) (*models.Review, error) {
	var rv models.Review
	if err := r.DB.WithContext(ctx).First(&rv, id).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *GormRepo) DeleteReview(ctx context.Context, rv *models.Review) error {
	return r.DB.WithContext(ctx).Delete(rv).Error
}

func (r *GormRepo) ListReviews(ctx context.Context, productID uint, p Page) (int64, []models.Review, error) {
	q := r.DB.WithContext(ctx).Model(&models.Review{}).Where("product_id = ?", productID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Review
	if err := q.Order("created_at DESC, id DESC").Offset(p.Offset).Limit(p.Limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ReviewStats(ctx context.Context, productID uint) (count int64, avg float64, err error) {
	var row struct {
		Count int64
		Avg   float64
	}
	err = r.DB.WithContext(ctx).Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg").
		Where("product_id = ?", productID).
		Scan(&row).Error
	return row.Count, row.Avg, err
}

func (r *GormRepo) GetReviewSummary(ctx context.Context, productID uint) (*models.ReviewSummary, error) {
	var s models.ReviewSummary
	if err := r.DB.WithContext(ctx).Where("product_id = ?", productID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) UpsertReviewSummary(ctx context.Context, s *models.ReviewSummary) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"summary", "average_rating", "review_count", "expires_at", "updated_at"}),
	}).Create(s).Error
}

// ExpireReviewSummary forces regeneration on the next read.
func (r *GormRepo) ExpireReviewSummary(ctx context.Context, productID uint, now time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.ReviewSummary{}).
		Where("product_id = ?", productID).
		Update("expires_at", now).Error
}
