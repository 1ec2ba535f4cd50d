package models

import (
	"time"

	"gorm.io/gorm"
)

type Review struct {
	ID        uint           `gorm:"primaryKey"                                  json:"id"`
	ProductID uint           `gorm:"not null;index;uniqueIndex:idx_review_once"  json:"product_id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_review_once"        json:"user_id"`
	OrderID   uint           `gorm:"not null;uniqueIndex:idx_review_once"        json:"order_id"`
	Rating    int            `gorm:"not null;check:rating BETWEEN 1 AND 5"       json:"rating"`
	Content   string         `gorm:"type:text;not null"                          json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index"                                       json:"-"`
}

// ReviewSummary caches the generated summary until ExpiresAt.
type ReviewSummary struct {
	ID            uint      `gorm:"primaryKey"           json:"id"`
	ProductID     uint      `gorm:"uniqueIndex;not null" json:"product_id"`
	Summary       string    `gorm:"type:text"            json:"summary"`
	AverageRating float64   `gorm:"not null;default:0"   json:"average_rating"`
	ReviewCount   int64     `gorm:"not null;default:0"   json:"review_count"`
	ExpiresAt     time.Time `gorm:"not null"             json:"expires_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *ReviewSummary) Fresh(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}

type Question struct {
	ID        uint           `gorm:"primaryKey"          json:"id"`
	ProductID uint           `gorm:"index;not null"      json:"product_id"`
	UserID    uint           `gorm:"index;not null"      json:"user_id"`
	Title     string         `gorm:"size:200;not null"   json:"title"`
	Content   string         `gorm:"type:text;not null"  json:"content"`
	Secret    bool           `gorm:"not null;default:false" json:"secret"`
	Answered  bool           `gorm:"not null;default:false" json:"answered"`
	Answer    *Answer        `gorm:"foreignKey:QuestionID" json:"answer,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index"               json:"-"`
}

type Answer struct {
	ID         uint      `gorm:"primaryKey"           json:"id"`
	QuestionID uint      `gorm:"uniqueIndex;not null" json:"question_id"`
	AdminID    uint      `gorm:"not null"             json:"admin_id"`
	Content    string    `gorm:"type:text;not null"   json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
