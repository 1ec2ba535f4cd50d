package models

import "time"

type OrderStatus string

const (
	OrderPending         OrderStatus = "PENDING"
	OrderPaid            OrderStatus = "PAID"
	OrderConfirmed       OrderStatus = "CONFIRMED"
	OrderCancelled       OrderStatus = "CANCELLED"
	OrderRefundRequested OrderStatus = "REFUND_REQUESTED"
	OrderRefunded        OrderStatus = "REFUNDED"
)

type Order struct {
	ID          uint           `gorm:"primaryKey"                  json:"id"`
	OrderNumber string         `gorm:"size:36;uniqueIndex;not null" json:"order_number"`
	UserID      uint           `gorm:"index;not null"              json:"user_id"`
	Status      OrderStatus    `gorm:"size:20;index;not null"      json:"status"`
	TotalAmount int64          `gorm:"not null"                    json:"total_amount"`
	UsedPoints  int64          `gorm:"not null;default:0"          json:"used_points"`
	PayAmount   int64          `gorm:"not null;default:0"          json:"pay_amount"`
	Recipient   string         `gorm:"size:50"                     json:"recipient"`
	Phone       string         `gorm:"size:32"                     json:"phone"`
	ZipCode     string         `gorm:"size:16"                     json:"zip_code"`
	Line1       string         `gorm:"size:255"                    json:"line1"`
	Line2       string         `gorm:"size:255"                    json:"line2"`
	Items       []OrderProduct `gorm:"foreignKey:OrderID"          json:"items,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type OrderProduct struct {
	ID          uint   `gorm:"primaryKey"                      json:"id"`
	OrderID     uint   `gorm:"index;not null"                  json:"order_id"`
	ProductID   uint   `gorm:"index;not null"                  json:"product_id"`
	ProductName string `gorm:"size:200;not null"               json:"product_name"`
	Price       int64  `gorm:"not null"                        json:"price"`
	Quantity    int64  `gorm:"not null;check:quantity >= 1"    json:"quantity"`
}

type PaymentStatus string

const (
	PaymentReady     PaymentStatus = "READY"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

type Payment struct {
	ID            uint          `gorm:"primaryKey"                  json:"id"`
	OrderID       uint          `gorm:"index;not null"              json:"order_id"`
	UserID        uint          `gorm:"index;not null"              json:"user_id"`
	MerchantUID   string        `gorm:"size:36;uniqueIndex;not null" json:"merchant_uid"`
	Method        string        `gorm:"size:32;not null"            json:"method"`
	Amount        int64         `gorm:"not null"                    json:"amount"`
	Status        PaymentStatus `gorm:"size:16;not null"            json:"status"`
	FailureReason string        `gorm:"size:255"                    json:"failure_reason,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CancelledAt   *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type RefundStatus string

const (
	RefundRequested RefundStatus = "REQUESTED"
	RefundApproved  RefundStatus = "APPROVED"
	RefundRejected  RefundStatus = "REJECTED"
	RefundCompleted RefundStatus = "COMPLETED"
)

type Refund struct {
	ID           uint         `gorm:"primaryKey"          json:"id"`
	OrderID      uint         `gorm:"index;not null"      json:"order_id"`
	UserID       uint         `gorm:"index;not null"      json:"user_id"`
	Reason       string       `gorm:"size:500;not null"   json:"reason"`
	Amount       int64        `gorm:"not null"            json:"amount"`
	Status       RefundStatus `gorm:"size:16;index;not null" json:"status"`
	RejectReason string       `gorm:"size:500"            json:"reject_reason,omitempty"`
	ProcessedAt  *time.Time   `json:"processed_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
