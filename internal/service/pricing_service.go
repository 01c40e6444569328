package service

import (
	"github.com/acrilgoods-next/internal/models"
)

// PricingService resolves unit prices from a product's tiered pricing
// config. It is pure: same product, tuple and quantity always yield the
// same price.
type PricingService struct{}

// NewPricingService creates the pricing service.
func NewPricingService() *PricingService {
	return &PricingService{}
}

// ResolveUnitPrice returns the per-unit price for (size, print type) at
// the given quantity.
//
// Products without a pricing config sell at their flat list price. A
// product that has a config but no price for the requested tuple is
// rejected with ErrNotPriced, never priced at zero.
func (s *PricingService) ResolveUnitPrice(product *models.Product, sizeID, printTypeID string, quantity int) (models.Money, error) {
	if product == nil {
		return models.Money{}, ErrProductNotFound
	}
	if quantity <= 0 {
		return models.Money{}, ErrCartItemInvalid
	}
	if product.Pricing == nil {
		return product.ListPrice, nil
	}

	cfg := product.Pricing
	if !cfg.HasSize(sizeID) || !cfg.HasPrintType(printTypeID) {
		return models.Money{}, ErrNotPriced
	}

	tier := cfg.TierFor(quantity)
	if tier == nil {
		return models.Money{}, ErrNotPriced
	}
	price, ok := tier.Prices[models.PriceKey(printTypeID, sizeID)]
	if !ok {
		return models.Money{}, ErrNotPriced
	}
	return models.NewMoneyFromInt(price), nil
}

// MinDisplayPrice returns the lowest positive price in the first
// tier's price map, for "from N won" listings. Products without a
// config, or with an empty first tier, fall back to the list price.
func (s *PricingService) MinDisplayPrice(product *models.Product) models.Money {
	if product == nil {
		return models.Money{}
	}
	if product.Pricing == nil || len(product.Pricing.Tiers) == 0 {
		return product.ListPrice
	}
	var min int64
	found := false
	for _, price := range product.Pricing.Tiers[0].Prices {
		if price <= 0 {
			continue
		}
		if !found || price < min {
			min = price
			found = true
		}
	}
	if !found {
		return product.ListPrice
	}
	return models.NewMoneyFromInt(min)
}
