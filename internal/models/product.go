package models

import (
	"time"

	"gorm.io/gorm"
)

// Prices and amounts are minor currency units.
type Product struct {
	ID          uint           `gorm:"primaryKey;autoIncrement"   json:"id"`
	Name        string         `gorm:"size:200;not null"          json:"name"`
	Description string         `gorm:"type:text;not null"         json:"description"`
	Category    string         `gorm:"size:64;index"              json:"category"`
	Price       int64          `gorm:"not null;check:price >= 0"  json:"price"`
	Stock       int64          `gorm:"not null;check:stock >= 0"  json:"stock"`
	ViewCount   int64          `gorm:"not null;default:0"         json:"view_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index"                      json:"-"`
}

type VisitStat struct {
	ID        uint   `gorm:"primaryKey"                                json:"id"`
	ProductID uint   `gorm:"not null;uniqueIndex:idx_visit_product_day" json:"product_id"`
	Day       string `gorm:"size:10;not null;uniqueIndex:idx_visit_product_day" json:"day"`
	Count     int64  `gorm:"not null;default:0"                        json:"count"`
}

// History is the recently-viewed list; one row per user and product.
type History struct {
	ID        uint      `gorm:"primaryKey"                                 json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_history_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_history_user_product" json:"product_id"`
	ViewedAt  time.Time `gorm:"not null;index"                             json:"viewed_at"`
	Product   *Product  `gorm:"foreignKey:ProductID"                       json:"product,omitempty"`
}
