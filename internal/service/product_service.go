package service

import (
	"context"
	"fmt"
	"time"

	"github.com/acrilgoods-next/internal/cache"
	"github.com/acrilgoods-next/internal/logger"
	"github.com/acrilgoods-next/internal/models"
	"github.com/acrilgoods-next/internal/repository"
)

const productListCacheTTL = 60 * time.Second

// ProductSummary is a catalog listing row.
type ProductSummary struct {
	ID           uint         `json:"id"`
	Slug         string       `json:"slug"`
	Name         string       `json:"name"`
	NameEn       string       `json:"name_en,omitempty"`
	ThumbnailURL string       `json:"thumbnail_url,omitempty"`
	MinPrice     models.Money `json:"min_price"`
	HasTiers     bool         `json:"has_tiers"`
}

// ProductListResult is a paginated catalog page.
type ProductListResult struct {
	Items    []ProductSummary `json:"items"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// ProductService serves the public catalog.
type ProductService struct {
	products repository.ProductRepository
	pricing  *PricingService
}

// NewProductService creates the product service.
func NewProductService(products repository.ProductRepository, pricing *PricingService) *ProductService {
	return &ProductService{products: products, pricing: pricing}
}

// List returns active products with their "from N won" display price.
func (s *ProductService) List(ctx context.Context, filter repository.ProductListFilter) (*ProductListResult, error) {
	cacheKey := fmt.Sprintf("products:list:%d:%d:%s", filter.Page, filter.PageSize, filter.Keyword)
	if filter.Keyword == "" {
		var cached ProductListResult
		if ok, err := cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
			return &cached, nil
		}
	}

	products, total, err := s.products.List(filter)
	if err != nil {
		return nil, err
	}

	items := make([]ProductSummary, 0, len(products))
	for i := range products {
		p := &products[i]
		items = append(items, ProductSummary{
			ID:           p.ID,
			Slug:         p.Slug,
			Name:         p.Name,
			NameEn:       p.NameEn,
			ThumbnailURL: p.ThumbnailURL,
			MinPrice:     s.pricing.MinDisplayPrice(p),
			HasTiers:     p.Pricing != nil,
		})
	}

	result := &ProductListResult{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	if filter.Keyword == "" {
		if err := cache.SetJSON(ctx, cacheKey, result, productListCacheTTL); err != nil {
			logger.Warnw("product_list_cache_write_failed", "error", err)
		}
	}
	return result, nil
}

// GetBySlug returns one active product with its full pricing table.
// A stored config that fails validation is an error, never a partial
// price table.
func (s *ProductService) GetBySlug(slug string) (*models.Product, error) {
	product, err := s.products.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	if product.Pricing != nil {
		if err := product.Pricing.Validate(); err != nil {
			logger.Errorw("pricing_config_invalid", "product_id", product.ID, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrPricingConfigInvalid, err)
		}
	}
	return product, nil
}

// GetByID returns one active product.
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.products.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}
