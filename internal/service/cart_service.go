package service

import (
	"fmt"
	"time"

	"github.com/acrilgoods-next/internal/models"
	"github.com/acrilgoods-next/internal/repository"

	"gorm.io/gorm"
)

// AddToCartParams describes one add-to-cart request.
type AddToCartParams struct {
	UserID        uint
	ProductID     uint
	SizeID        string
	PrintTypeID   string
	Quantity      int
	CustomOptions models.JSON
}

// CartView is a user's cart with line and order totals.
type CartView struct {
	Items      []models.CartItem `json:"items"`
	ItemsTotal models.Money      `json:"items_total"`
	ItemCount  int               `json:"item_count"`
}

// CartService aggregates cart lines. Lines are keyed by the full
// (product, size, print type) tuple: a repeat add merges quantities in
// one statement and the line is re-priced at the merged quantity, so a
// merge that crosses a tier boundary picks up the cheaper tier.
type CartService struct {
	db       *gorm.DB
	carts    repository.CartRepository
	products repository.ProductRepository
	pricing  *PricingService
}

// NewCartService creates the cart service.
func NewCartService(db *gorm.DB, carts repository.CartRepository, products repository.ProductRepository, pricing *PricingService) *CartService {
	return &CartService{db: db, carts: carts, products: products, pricing: pricing}
}

// Add upserts a cart line atomically and returns the merged line.
func (s *CartService) Add(params AddToCartParams) (*models.CartItem, error) {
	if params.Quantity <= 0 {
		return nil, ErrCartItemInvalid
	}

	var line *models.CartItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		carts := s.carts.WithTx(tx)

		product, err := products.GetByID(params.ProductID)
		if err != nil {
			return err
		}
		if product == nil || !product.IsActive {
			return ErrProductNotFound
		}
		if product.Pricing != nil {
			if err := product.Pricing.Validate(); err != nil {
				return fmt.Errorf("%w: %v", ErrPricingConfigInvalid, err)
			}
			if params.SizeID == "" || params.PrintTypeID == "" {
				return ErrCartItemInvalid
			}
		}

		// Price at the requested quantity first so a bad tuple fails
		// before anything is written.
		if _, err := s.pricing.ResolveUnitPrice(product, params.SizeID, params.PrintTypeID, params.Quantity); err != nil {
			return err
		}

		now := time.Now()
		item := &models.CartItem{
			UserID:        params.UserID,
			ProductID:     params.ProductID,
			SizeID:        params.SizeID,
			PrintTypeID:   params.PrintTypeID,
			Quantity:      params.Quantity,
			CustomOptions: params.CustomOptions,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := carts.AtomicAdd(item); err != nil {
			return err
		}

		// Re-read the merged line and re-price at the merged quantity.
		merged, err := carts.GetLine(params.UserID, params.ProductID, params.SizeID, params.PrintTypeID)
		if err != nil {
			return err
		}
		if merged == nil {
			return ErrCartItemNotFound
		}
		price, err := s.pricing.ResolveUnitPrice(product, params.SizeID, params.PrintTypeID, merged.Quantity)
		if err != nil {
			return err
		}
		if err := carts.UpdateLinePricing(merged.ID, price, params.CustomOptions); err != nil {
			return err
		}
		merged.UnitPrice = price
		if params.CustomOptions != nil {
			merged.CustomOptions = params.CustomOptions
		}
		line = merged
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// List returns the user's cart with totals.
func (s *CartService) List(userID uint) (*CartView, error) {
	items, err := s.carts.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	view := &CartView{Items: make([]models.CartItem, 0, len(items))}
	total := models.NewMoneyFromInt(0)
	for i := range items {
		// Lines for products pulled from the catalog stay in the table
		// but are hidden from the view.
		if items[i].Product != nil && !items[i].Product.IsActive {
			continue
		}
		total = total.Add(items[i].UnitPrice.MulInt(int64(items[i].Quantity)))
		view.ItemCount += items[i].Quantity
		view.Items = append(view.Items, items[i])
	}
	view.ItemsTotal = total
	return view, nil
}

// Remove deletes one of the user's lines.
func (s *CartService) Remove(userID, lineID uint) error {
	item, err := s.carts.GetByID(userID, lineID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrCartItemNotFound
	}
	return s.carts.DeleteByID(userID, lineID)
}
