package main

import (
	"time"

	"github.com/acrilgoods-next/internal/config"
	"github.com/acrilgoods-next/internal/constants"
	"github.com/acrilgoods-next/internal/logger"
	"github.com/acrilgoods-next/internal/models"
	"github.com/acrilgoods-next/internal/repository"
	"github.com/acrilgoods-next/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("failed to migrate database: %v", err)
	}

	products := []models.Product{
		{
			Slug:         "acrylic-keyring",
			Name:         "아크릴 키링",
			NameEn:       "Acrylic Keyring",
			Description:  "투명 아크릴에 커스텀 디자인을 인쇄한 키링입니다.",
			ListPrice:    models.NewMoneyFromInt(2000),
			Pricing:      acrylicPricing(),
			ThumbnailURL: "/uploads/products/acrylic-keyring.jpg",
			Images: models.StringArray{
				"/uploads/products/acrylic-keyring-1.jpg",
				"/uploads/products/acrylic-keyring-2.jpg",
			},
			IsActive:  true,
			SortOrder: 1,
		},
		{
			Slug:         "acrylic-stand",
			Name:         "아크릴 스탠드",
			NameEn:       "Acrylic Stand",
			Description:  "캐릭터용 아크릴 스탠드, 받침대 포함.",
			ListPrice:    models.NewMoneyFromInt(5000),
			Pricing:      standPricing(),
			ThumbnailURL: "/uploads/products/acrylic-stand.jpg",
			IsActive:     true,
			SortOrder:    2,
		},
		{
			// Flat-priced goods sell at the list price with no option grid.
			Slug:         "sticker-pack",
			Name:         "스티커 팩",
			NameEn:       "Sticker Pack",
			Description:  "방수 스티커 10매 세트.",
			ListPrice:    models.NewMoneyFromInt(4500),
			ThumbnailURL: "/uploads/products/sticker-pack.jpg",
			IsActive:     true,
			SortOrder:    3,
		},
	}
	for i := range products {
		if products[i].Pricing != nil {
			if err := products[i].Pricing.Validate(); err != nil {
				stdLog.Fatalf("seed pricing config invalid for %s: %v", products[i].Slug, err)
			}
		}
		if err := models.DB.Where("slug = ?", products[i].Slug).
			FirstOrCreate(&products[i]).Error; err != nil {
			stdLog.Fatalf("failed to seed product %s: %v", products[i].Slug, err)
		}
	}
	stdLog.Printf("seeded %d products", len(products))

	hash, err := service.HashPassword("demo1234")
	if err != nil {
		stdLog.Fatalf("failed to hash demo password: %v", err)
	}
	user := models.User{
		Email:        "demo@acrilgoods.kr",
		PasswordHash: hash,
		DisplayName:  "데모 회원",
		Status:       constants.UserStatusActive,
	}
	if err := models.DB.Where("email = ?", user.Email).FirstOrCreate(&user).Error; err != nil {
		stdLog.Fatalf("failed to seed demo user: %v", err)
	}
	stdLog.Printf("seeded demo user %s (id=%d)", user.Email, user.ID)

	points := service.NewPointsService(models.DB, repository.NewPointLedgerRepository(models.DB), cfg.Points)
	balance, err := points.Balance(user.ID)
	if err != nil {
		stdLog.Fatalf("failed to read demo balance: %v", err)
	}
	if balance == 0 {
		if _, err := points.Append(service.AppendParams{
			UserID:      user.ID,
			Direction:   constants.PointDirectionEarn,
			Amount:      5000,
			Description: "welcome points",
			Reference:   "seed:welcome:" + user.Email,
			ExpiresAt:   points.EarnExpiry(time.Now()),
		}); err != nil {
			stdLog.Fatalf("failed to seed welcome points: %v", err)
		}
		stdLog.Printf("seeded welcome points for %s", user.Email)
	}

	stdLog.Printf("seed complete")
}

func intPtr(v int) *int { return &v }

// acrylicPricing is the keyring price grid: double-sided printing runs
// 20 percent over single-sided.
func acrylicPricing() *models.PricingConfig {
	return &models.PricingConfig{
		Version: models.PricingConfigVersion,
		Sizes: []models.PricingSize{
			{ID: "40x40", Label: "40x40mm", Dimension: "40x40mm"},
			{ID: "50x50", Label: "50x50mm", Dimension: "50x50mm"},
			{ID: "60x60", Label: "60x60mm", Dimension: "60x60mm"},
			{ID: "80x80", Label: "80x80mm", Dimension: "80x80mm"},
		},
		PrintTypes: []models.PrintType{
			{ID: "single", Label: "단면 인쇄", PriceMultiplier: 1.0},
			{ID: "double", Label: "양면 인쇄", PriceMultiplier: 1.2},
		},
		Tiers: []models.PricingTier{
			{
				MinQty: 1, MaxQty: intPtr(10),
				Prices: map[string]int64{
					"single-40x40": 2000, "single-50x50": 2500, "single-60x60": 3000, "single-80x80": 4000,
					"double-40x40": 2400, "double-50x50": 3000, "double-60x60": 3600, "double-80x80": 4800,
				},
			},
			{
				MinQty: 11, MaxQty: intPtr(50),
				Prices: map[string]int64{
					"single-40x40": 1800, "single-50x50": 2200, "single-60x60": 2700, "single-80x80": 3600,
					"double-40x40": 2160, "double-50x50": 2640, "double-60x60": 3240, "double-80x80": 4320,
				},
			},
			{
				MinQty: 51,
				Prices: map[string]int64{
					"single-40x40": 1600, "single-50x50": 2000, "single-60x60": 2400, "single-80x80": 3200,
					"double-40x40": 1920, "double-50x50": 2400, "double-60x60": 2880, "double-80x80": 3840,
				},
			},
		},
	}
}

func standPricing() *models.PricingConfig {
	return &models.PricingConfig{
		Version: models.PricingConfigVersion,
		Sizes: []models.PricingSize{
			{ID: "100x150", Label: "100x150mm", Dimension: "100x150mm"},
			{ID: "150x200", Label: "150x200mm", Dimension: "150x200mm"},
		},
		PrintTypes: []models.PrintType{
			{ID: "single", Label: "단면 인쇄", PriceMultiplier: 1.0},
			{ID: "double", Label: "양면 인쇄", PriceMultiplier: 1.2},
		},
		Tiers: []models.PricingTier{
			{
				MinQty: 1, MaxQty: intPtr(20),
				Prices: map[string]int64{
					"single-100x150": 6000, "single-150x200": 8500,
					"double-100x150": 7200, "double-150x200": 10200,
				},
			},
			{
				MinQty: 21,
				Prices: map[string]int64{
					"single-100x150": 5200, "single-150x200": 7400,
					"double-100x150": 6240, "double-150x200": 8880,
				},
			},
		},
	}
}
