package models

import (
	"time"

	"gorm.io/gorm"
)

type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                   json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_product"   json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_user_product"   json:"product_id"`
	Quantity  int64     `gorm:"not null;default:1;check:quantity >= 1"       json:"quantity"`
	Product   *Product  `gorm:"foreignKey:ProductID"                         json:"product,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type WishlistItem struct {
	ID        uint      `gorm:"primaryKey"                                     json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_wishlist_user_product" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID"                           json:"product,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (WishlistItem) TableName() string { return "wishlists" }

type Address struct {
	ID        uint           `gorm:"primaryKey"          json:"id"`
	UserID    uint           `gorm:"not null;index"      json:"user_id"`
	Name      string         `gorm:"size:50;not null"    json:"name"`
	Recipient string         `gorm:"size:50;not null"    json:"recipient"`
	Phone     string         `gorm:"size:32;not null"    json:"phone"`
	ZipCode   string         `gorm:"size:16;not null"    json:"zip_code"`
	Line1     string         `gorm:"size:255;not null"   json:"line1"`
	Line2     string         `gorm:"size:255"            json:"line2"`
	IsDefault bool           `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index"               json:"-"`
}
