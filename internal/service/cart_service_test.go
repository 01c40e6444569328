package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/acrilgoods-next/internal/models"
	"github.com/acrilgoods-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupCartServiceTest(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db)
	return NewCartService(db, cartRepo, productRepo, NewPricingService()), db
}

func createCartTestProducts(t *testing.T, db *gorm.DB) {
	t.Helper()
	priced := testPricedProduct()
	flat := testFlatProduct()
	if err := db.Create(priced).Error; err != nil {
		t.Fatalf("create priced product failed: %v", err)
	}
	if err := db.Create(flat).Error; err != nil {
		t.Fatalf("create flat product failed: %v", err)
	}
}

func TestCartAddMergesQuantity(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	createCartTestProducts(t, db)

	first, err := svc.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 3})
	if err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	second, err := svc.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 2})
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected merge into line %d, got new line %d", first.ID, second.ID)
	}
	if second.Quantity != 5 {
		t.Fatalf("got quantity %d, want 5", second.Quantity)
	}
	if second.UnitPrice.Cmp(models.NewMoneyFromInt(2000)) != 0 {
		t.Fatalf("got unit price %s, want 2000", second.UnitPrice.String())
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("got %d lines, want 1", count)
	}
}

func TestCartAddMergeCrossesTier(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	createCartTestProducts(t, db)

	if _, err := svc.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 6}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	merged, err := svc.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 6})
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if merged.Quantity != 12 {
		t.Fatalf("got quantity %d, want 12", merged.Quantity)
	}
	// 12 units moves the whole line into the 11-50 tier.
	if merged.UnitPrice.Cmp(models.NewMoneyFromInt(1800)) != 0 {
		t.Fatalf("got unit price %s, want 1800", merged.UnitPrice.String())
	}
}

func TestCartAddDistinctTuplesStaySeparate(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	createCartTestProducts(t, db)

	if _, err := svc.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "double", Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	view, err := svc.List(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("got %d lines, want 2", len(view.Items))
	}
}

func TestCartAddOptionsLastWriteWins(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	createCartTestProducts(t, db)

	if _, err := svc.Add(AddToCartParams{
		UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 1,
		CustomOptions: models.JSON{"design_url": "/uploads/designs/a.png"},
	}); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	merged, err := svc.Add(AddToCartParams{
		UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 1,
		CustomOptions: models.JSON{"design_url": "/uploads/designs/b.png"},
	})
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if merged.CustomOptions["design_url"] != "/uploads/designs/b.png" {
		t.Fatalf("got options %v, want last write", merged.CustomOptions)
	}
}

func TestCartAddNotPricedWritesNothing(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	createCartTestProducts(t, db)

	_, err := svc.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "70x70", PrintTypeID: "single", Quantity: 1})
	if !errors.Is(err, ErrNotPriced) {
		t.Fatalf("expected ErrNotPriced, got %v", err)
	}
	var count int64
	if err := db.Model(&models.CartItem{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected add left %d lines behind", count)
	}
}

func TestCartAddFlatProduct(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	createCartTestProducts(t, db)

	line, err := svc.Add(AddToCartParams{UserID: 1, ProductID: 2, Quantity: 2})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if line.UnitPrice.Cmp(models.NewMoneyFromInt(4500)) != 0 {
		t.Fatalf("got unit price %s, want list price 4500", line.UnitPrice.String())
	}
}

func TestCartListTotals(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	createCartTestProducts(t, db)

	if _, err := svc.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.Add(AddToCartParams{UserID: 1, ProductID: 2, Quantity: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	view, err := svc.List(1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	// 2 x 2000 + 1 x 4500.
	if view.ItemsTotal.Cmp(models.NewMoneyFromInt(8500)) != 0 {
		t.Fatalf("got total %s, want 8500", view.ItemsTotal.String())
	}
	if view.ItemCount != 3 {
		t.Fatalf("got item count %d, want 3", view.ItemCount)
	}
}

func TestCartRemoveMissing(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	createCartTestProducts(t, db)

	if err := svc.Remove(1, 99); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}
}
