package models

import "time"

// CartItem is one cart line. A line is unique per
// (user, product, size, print type); repeat adds merge into the
// existing row by summing quantity, so the unique index doubles as the
// upsert conflict target. Rows are hard-deleted on checkout.
type CartItem struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_cart_line" json:"user_id"`
	ProductID     uint      `gorm:"not null;uniqueIndex:idx_cart_line" json:"product_id"`
	SizeID        string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_cart_line" json:"size_id"`
	PrintTypeID   string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_cart_line" json:"print_type_id"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	UnitPrice     Money     `gorm:"type:decimal(20,0);not null" json:"unit_price"`
	CustomOptions JSON      `gorm:"type:json" json:"custom_options"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName sets the table name.
func (CartItem) TableName() string {
	return "cart_items"
}
