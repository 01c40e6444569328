package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is one checkout commit. Amounts satisfy
// FinalAmount = ItemsTotal + ShippingFee - PointsUsed, never negative.
// The row, its items, the points debit and the pending payment are
// written in a single transaction.
type Order struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	OrderNo       string         `gorm:"uniqueIndex;not null" json:"order_no"`
	UserID        uint           `gorm:"index;not null" json:"user_id"`
	Status        string         `gorm:"index;not null" json:"status"`
	ItemsTotal    Money          `gorm:"type:decimal(20,0);not null;default:0" json:"items_total"`
	ShippingFee   Money          `gorm:"type:decimal(20,0);not null;default:0" json:"shipping_fee"`
	PointsUsed    int64          `gorm:"not null;default:0" json:"points_used"`
	FinalAmount   Money          `gorm:"type:decimal(20,0);not null;default:0" json:"final_amount"`
	AddrSnapshot  JSON           `gorm:"type:json" json:"addr_snapshot"`
	PaymentMethod string         `gorm:"type:varchar(50);not null" json:"payment_method"`
	Memo          string         `gorm:"type:text" json:"memo"`
	ExpiresAt     *time.Time     `gorm:"index" json:"expires_at"`
	PaidAt        *time.Time     `gorm:"index" json:"paid_at"`
	CanceledAt    *time.Time     `gorm:"index" json:"canceled_at"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName sets the table name.
func (Order) TableName() string {
	return "orders"
}
