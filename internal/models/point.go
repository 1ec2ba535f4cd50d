package models

import "time"

type Point struct {
	ID        uint      `gorm:"primaryKey"                   json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null"         json:"user_id"`
	Balance   int64     `gorm:"not null;default:0;check:balance >= 0" json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PointType string

const (
	PointEarn    PointType = "EARN"
	PointUse     PointType = "USE"
	PointRestore PointType = "RESTORE"
	PointRevoke  PointType = "REVOKE"
)

type PointHistory struct {
	ID           uint      `gorm:"primaryKey"          json:"id"`
	UserID       uint      `gorm:"index;not null"      json:"user_id"`
	Amount       int64     `gorm:"not null"            json:"amount"`
	Type         PointType `gorm:"size:16;not null"    json:"type"`
	Reason       string    `gorm:"size:255"            json:"reason"`
	OrderID      *uint     `gorm:"index"               json:"order_id,omitempty"`
	BalanceAfter int64     `gorm:"not null"            json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}
