package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) CreateQuestion(ctx context.Context, q *models.Question) error {
	return r.DB.WithContext(ctx).Create(q).Error
}

func (r *GormRepo) GetQuestion(ctx context.Context, id uint) (*models.Question, error) {
	var q models.Question
	if err := r.DB.WithContext(ctx).Preload("Answer").First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *GormRepo) LockQuestion(ctx context.Context, id uint) (*models.Question, error) {
	var q models.Question
	if err := forUpdate(r.DB.WithContext(ctx)).First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *GormRepo) ListQuestions(ctx context.Context, productID uint, p Page) (int64, []models.Question, error) {
	q := r.DB.WithContext(ctx).Model(&models.Question{}).Where("product_id = ?", productID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Question
	if err := q.Preload("Answer").Order("id DESC").Offset(p.Offset).Limit(p.Limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) DeleteQuestion(ctx context.Context, q *models.Question) error {
	return r.DB.WithContext(ctx).Delete(q).Error
}

func (r *GormRepo) CreateAnswer(ctx context.Context, a *models.Answer) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *GormRepo) MarkAnswered(ctx context.Context, questionID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Question{}).Where("id = ?", questionID).Update("answered", true).Error
}
