package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a custom-print catalog item. Pricing holds the tiered
// price table; products without one sell at the flat ListPrice.
type Product struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Slug         string         `gorm:"uniqueIndex;not null" json:"slug"`
	Name         string         `gorm:"not null" json:"name"`
	NameEn       string         `gorm:"default:''" json:"name_en"`
	Description  string         `gorm:"type:text" json:"description"`
	ListPrice    Money          `gorm:"type:decimal(20,0);not null;default:0" json:"list_price"`
	Pricing      *PricingConfig `gorm:"type:json" json:"pricing,omitempty"`
	ThumbnailURL string         `gorm:"type:varchar(500)" json:"thumbnail_url"`
	Images       StringArray    `gorm:"type:json" json:"images"`
	IsActive     bool           `gorm:"default:true;index" json:"is_active"`
	SortOrder    int            `gorm:"default:0;index" json:"sort_order"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Product) TableName() string {
	return "products"
}
