package repository

import (
	"errors"

	"github.com/acrilgoods-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository is the cart data access interface.
type CartRepository interface {
	ListByUser(userID uint) ([]models.CartItem, error)
	GetLine(userID, productID uint, sizeID, printTypeID string) (*models.CartItem, error)
	GetByID(userID, id uint) (*models.CartItem, error)
	AtomicAdd(item *models.CartItem) error
	UpdateLinePricing(id uint, price models.Money, options models.JSON) error
	DeleteByID(userID, id uint) error
	ClearByUser(userID uint) error
	WithTx(tx *gorm.DB) *GormCartRepository
}

// GormCartRepository is the GORM implementation.
type GormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a cart repository.
func NewCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormCartRepository) WithTx(tx *gorm.DB) *GormCartRepository {
	if tx == nil {
		return r
	}
	return &GormCartRepository{db: tx}
}

// ListByUser returns the user's cart lines with products preloaded.
func (r *GormCartRepository) ListByUser(userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.Preload("Product").Where("user_id = ?", userID).Order("updated_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetLine fetches the line for the exact (user, product, size, print type) tuple.
func (r *GormCartRepository) GetLine(userID, productID uint, sizeID, printTypeID string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.Where(
		"user_id = ? AND product_id = ? AND size_id = ? AND print_type_id = ?",
		userID, productID, sizeID, printTypeID,
	).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByID fetches one of the user's lines by primary key.
func (r *GormCartRepository) GetByID(userID, id uint) (*models.CartItem, error) {
	if userID == 0 || id == 0 {
		return nil, nil
	}
	var item models.CartItem
	err := r.db.Where("user_id = ? AND id = ?", userID, id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AtomicAdd inserts the line or, on the unique tuple index, increments
// the stored quantity in the same statement. Quantity arithmetic never
// happens in application code, so two concurrent adds both land.
func (r *GormCartRepository) AtomicAdd(item *models.CartItem) error {
	if item == nil {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "product_id"},
			{Name: "size_id"},
			{Name: "print_type_id"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":       gorm.Expr("cart_items.quantity + ?", item.Quantity),
			"custom_options": item.CustomOptions,
			"updated_at":     item.UpdatedAt,
		}),
	}).Create(item).Error
}

// UpdateLinePricing rewrites the frozen unit price and option blob.
func (r *GormCartRepository) UpdateLinePricing(id uint, price models.Money, options models.JSON) error {
	updates := map[string]interface{}{
		"unit_price": price,
	}
	if options != nil {
		updates["custom_options"] = options
	}
	return r.db.Model(&models.CartItem{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteByID removes one of the user's lines.
func (r *GormCartRepository) DeleteByID(userID, id uint) error {
	return r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&models.CartItem{}).Error
}

// ClearByUser empties the user's cart.
func (r *GormCartRepository) ClearByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
