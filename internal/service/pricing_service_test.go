package service

import (
	"errors"
	"testing"

	"github.com/acrilgoods-next/internal/models"
)

func intPtr(v int) *int { return &v }

func testPricedProduct() *models.Product {
	return &models.Product{
		ID:        1,
		Slug:      "acrylic-keyring",
		Name:      "아크릴 키링",
		ListPrice: models.NewMoneyFromInt(2000),
		IsActive:  true,
		Pricing: &models.PricingConfig{
			Version: models.PricingConfigVersion,
			Sizes: []models.PricingSize{
				{ID: "40x40", Label: "40x40mm"},
				{ID: "50x50", Label: "50x50mm"},
			},
			PrintTypes: []models.PrintType{
				{ID: "single", Label: "single", PriceMultiplier: 1.0},
				{ID: "double", Label: "double", PriceMultiplier: 1.2},
			},
			Tiers: []models.PricingTier{
				{MinQty: 1, MaxQty: intPtr(10), Prices: map[string]int64{
					"single-40x40": 2000, "single-50x50": 2500,
					"double-40x40": 2400, "double-50x50": 3000,
				}},
				{MinQty: 11, MaxQty: intPtr(50), Prices: map[string]int64{
					"single-40x40": 1800, "single-50x50": 2200,
					"double-40x40": 2160, "double-50x50": 2640,
				}},
				{MinQty: 51, Prices: map[string]int64{
					"single-40x40": 1600, "single-50x50": 2000,
					"double-40x40": 1920, "double-50x50": 2400,
				}},
			},
		},
	}
}

func testFlatProduct() *models.Product {
	return &models.Product{
		ID:        2,
		Slug:      "sticker-pack",
		Name:      "스티커 팩",
		ListPrice: models.NewMoneyFromInt(4500),
		IsActive:  true,
	}
}

func TestResolveUnitPriceTierBoundaries(t *testing.T) {
	svc := NewPricingService()
	product := testPricedProduct()

	cases := []struct {
		qty  int
		want int64
	}{
		{1, 2000},
		{10, 2000},
		{11, 1800},
		{50, 1800},
		{51, 1600},
		{999, 1600},
	}
	for _, tc := range cases {
		price, err := svc.ResolveUnitPrice(product, "40x40", "single", tc.qty)
		if err != nil {
			t.Fatalf("qty %d: %v", tc.qty, err)
		}
		if price.Cmp(models.NewMoneyFromInt(tc.want)) != 0 {
			t.Fatalf("qty %d: got %s, want %d", tc.qty, price.String(), tc.want)
		}
	}
}

func TestResolveUnitPriceDeterministic(t *testing.T) {
	svc := NewPricingService()
	product := testPricedProduct()

	first, err := svc.ResolveUnitPrice(product, "50x50", "double", 25)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := svc.ResolveUnitPrice(product, "50x50", "double", 25)
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if first.Cmp(again) != 0 {
			t.Fatalf("resolution not deterministic: %s vs %s", first.String(), again.String())
		}
	}
}

func TestResolveUnitPriceFlatFallback(t *testing.T) {
	svc := NewPricingService()

	price, err := svc.ResolveUnitPrice(testFlatProduct(), "", "", 3)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if price.Cmp(models.NewMoneyFromInt(4500)) != 0 {
		t.Fatalf("got %s, want list price 4500", price.String())
	}
}

func TestResolveUnitPriceNotPriced(t *testing.T) {
	svc := NewPricingService()
	product := testPricedProduct()

	// Declared size, undeclared print type.
	if _, err := svc.ResolveUnitPrice(product, "40x40", "matte", 5); !errors.Is(err, ErrNotPriced) {
		t.Fatalf("expected ErrNotPriced, got %v", err)
	}
	// Undeclared size.
	if _, err := svc.ResolveUnitPrice(product, "70x70", "single", 5); !errors.Is(err, ErrNotPriced) {
		t.Fatalf("expected ErrNotPriced, got %v", err)
	}
	// Declared pair with a hole in the tier map.
	delete(product.Pricing.Tiers[0].Prices, "double-50x50")
	if _, err := svc.ResolveUnitPrice(product, "50x50", "double", 5); !errors.Is(err, ErrNotPriced) {
		t.Fatalf("expected ErrNotPriced for missing key, got %v", err)
	}
}

func TestResolveUnitPriceInvalidQuantity(t *testing.T) {
	svc := NewPricingService()
	if _, err := svc.ResolveUnitPrice(testPricedProduct(), "40x40", "single", 0); !errors.Is(err, ErrCartItemInvalid) {
		t.Fatalf("expected ErrCartItemInvalid, got %v", err)
	}
	if _, err := svc.ResolveUnitPrice(nil, "40x40", "single", 1); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestMinDisplayPrice(t *testing.T) {
	svc := NewPricingService()

	// Lowest positive price in the first tier: single-40x40 at 2000.
	min := svc.MinDisplayPrice(testPricedProduct())
	if min.Cmp(models.NewMoneyFromInt(2000)) != 0 {
		t.Fatalf("got %s, want 2000", min.String())
	}
	flat := svc.MinDisplayPrice(testFlatProduct())
	if flat.Cmp(models.NewMoneyFromInt(4500)) != 0 {
		t.Fatalf("got %s, want 4500", flat.String())
	}
}
