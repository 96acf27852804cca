package model

import (
	"time"

	"gorm.io/gorm"
)

// SubmittedOrder 本地提交流水。Redis 暂存会过期，
// 这张表留一份「session -> Shopify 订单」的持久对账记录。
type SubmittedOrder struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	SessionID       string `gorm:"size:128;uniqueIndex;not null" json:"session_id"`
	OrderID         int64  `gorm:"not null;index" json:"order_id"`
	OrderName       string `gorm:"size:64" json:"order_name"`
	TotalPrice      string `gorm:"size:32" json:"total_price"`
	FinancialStatus string `gorm:"size:32" json:"financial_status"`
	OrderStatusURL  string `gorm:"size:512" json:"order_status_url"`
}

func (SubmittedOrder) TableName() string { return "submitted_orders" }
