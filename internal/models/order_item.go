package models

import "time"

// OrderItem is one purchased line, frozen at checkout. OptionSnapshot
// keeps the size/print-type selection and any design-file metadata so
// later catalog edits cannot change what was sold.
type OrderItem struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	OrderID        uint      `gorm:"index;not null" json:"order_id"`
	ProductID      uint      `gorm:"index;not null" json:"product_id"`
	ProductName    string    `gorm:"not null" json:"product_name"`
	SizeID         string    `gorm:"type:varchar(50);not null" json:"size_id"`
	PrintTypeID    string    `gorm:"type:varchar(50);not null" json:"print_type_id"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	UnitPrice      Money     `gorm:"type:decimal(20,0);not null" json:"unit_price"`
	TotalPrice     Money     `gorm:"type:decimal(20,0);not null" json:"total_price"`
	OptionSnapshot JSON      `gorm:"type:json" json:"option_snapshot"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// TableName sets the table name.
func (OrderItem) TableName() string {
	return "order_items"
}
