package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment is the pending payment record created at checkout. Gateway
// capture and callbacks live outside this service; only the pending
// row is written here.
type Payment struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	OrderID    uint           `gorm:"index;not null" json:"order_id"`
	UserID     uint           `gorm:"index;not null" json:"user_id"`
	Method     string         `gorm:"type:varchar(50);not null" json:"method"`
	Amount     Money          `gorm:"type:decimal(20,0);not null" json:"amount"`
	Status     string         `gorm:"index;not null" json:"status"`
	PaymentKey *string        `gorm:"type:varchar(200)" json:"payment_key,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`
	PaidAt     *time.Time     `gorm:"index" json:"paid_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Payment) TableName() string {
	return "payments"
}
