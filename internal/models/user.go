package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey;autoIncrement"        json:"id"`
	Email        string         `gorm:"size:255;uniqueIndex;not null"   json:"email"`
	Name         string         `gorm:"size:100;not null"               json:"name"`
	Phone        string         `gorm:"size:32"                         json:"phone"`
	PasswordHash string         `gorm:"not null"                        json:"-"`
	Role         string         `gorm:"size:16;not null;default:user"   json:"role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index"                           json:"-"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"            json:"id"`
	Token     string `gorm:"uniqueIndex;not null"  json:"-"`
	UserID    uint   `gorm:"index;not null"        json:"user_id"`
	JTI       string `gorm:"uniqueIndex;not null"  json:"jti"`
	ExpiresAt int64  `gorm:"not null"              json:"expires_at"`
	Revoked   bool   `gorm:"default:false"         json:"revoked"`
	CreatedAt time.Time
}
