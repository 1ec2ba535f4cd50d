package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type OrderFilter struct {
	UserID uint
	Status string
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) LockOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := forUpdate(r.DB.WithContext(ctx)).First(&order, id).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Where("order_id = ?", id).Order("id ASC").Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter, p Page) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
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

	var orders []models.Order
	if err := q.Preload("Items").Order("created_at DESC, id DESC").Limit(p.Limit).Offset(p.Offset).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// UpdateOrderStatus moves the order only if it is still in from.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uint, from, to models.OrderStatus, extra map[string]any) (bool, error) {
	fields := map[string]any{"status": to}
	for k, v := range extra {
		fields[k] = v
	}
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return res.RowsAffected == 1, res.Error
}

// HasConfirmedPurchase reports whether orderID is a confirmed order of userID containing productID.
func (r *GormRepo) HasConfirmedPurchase(ctx context.Context, userID, orderID, productID uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.OrderProduct{}).
		Joins("JOIN orders ON orders.id = order_products.order_id").
		Where("orders.id = ? AND orders.user_id = ? AND orders.status = ? AND order_products.product_id = ?",
			orderID, userID, models.OrderConfirmed, productID).
		Count(&count).Error
	return count > 0, err
}
