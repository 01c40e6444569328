package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/acrilgoods-next/internal/config"
	"github.com/acrilgoods-next/internal/constants"
	"github.com/acrilgoods-next/internal/models"
	"github.com/acrilgoods-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type enqueueRecorder struct {
	orderIDs []uint
	delays   []time.Duration
}

func (r *enqueueRecorder) EnqueueOrderTimeoutCancel(orderID uint, delay time.Duration) error {
	r.orderIDs = append(r.orderIDs, orderID)
	r.delays = append(r.delays, delay)
	return nil
}

type orderTestEnv struct {
	orders   *OrderService
	carts    *CartService
	points   *PointsService
	enqueuer *enqueueRecorder
	db       *gorm.DB
}

func setupOrderServiceTest(t *testing.T, tables ...interface{}) *orderTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if len(tables) == 0 {
		tables = []interface{}{
			&models.User{},
			&models.Product{},
			&models.CartItem{},
			&models.Order{},
			&models.OrderItem{},
			&models.Payment{},
			&models.PointAccount{},
			&models.PointLedgerEntry{},
		}
	}
	if err := db.AutoMigrate(tables...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	ledgerRepo := repository.NewPointLedgerRepository(db)

	pricing := NewPricingService()
	points := NewPointsService(db, ledgerRepo, config.PointsConfig{EarnExpireDays: 365})
	carts := NewCartService(db, cartRepo, productRepo, pricing)
	enqueuer := &enqueueRecorder{}
	orders := NewOrderService(db, orderRepo, cartRepo, productRepo, paymentRepo, pricing, points, enqueuer, config.OrderConfig{
		ShippingFee:           3000,
		FreeShippingThreshold: 30000,
		PaymentExpireMinutes:  60,
	})

	if err := db.Create(&models.User{
		ID: 1, Email: "demo@example.com", PasswordHash: "hash", Status: constants.UserStatusActive,
	}).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if err := db.Create(testPricedProduct()).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	return &orderTestEnv{orders: orders, carts: carts, points: points, enqueuer: enqueuer, db: db}
}

func shippingParams(usePoints int64) PlaceOrderParams {
	return PlaceOrderParams{
		UserID:     1,
		Recipient:  "홍길동",
		Phone:      "010-1234-5678",
		Address1:   "서울시 마포구 월드컵북로 123",
		Address2:   "101호",
		PostalCode: "03925",
		UsePoints:  usePoints,
	}
}

func TestPlaceOrderComputesTotals(t *testing.T) {
	env := setupOrderServiceTest(t)

	if _, err := env.points.Append(AppendParams{UserID: 1, Direction: constants.PointDirectionEarn, Amount: 5000}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	// 5 x 2000 = 10000, under the free shipping threshold.
	if _, err := env.carts.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 5}); err != nil {
		t.Fatalf("cart add failed: %v", err)
	}

	order, err := env.orders.PlaceOrder(shippingParams(1000))
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}

	if order.ItemsTotal.Cmp(models.NewMoneyFromInt(10000)) != 0 {
		t.Fatalf("items total %s, want 10000", order.ItemsTotal.String())
	}
	if order.ShippingFee.Cmp(models.NewMoneyFromInt(3000)) != 0 {
		t.Fatalf("shipping fee %s, want 3000", order.ShippingFee.String())
	}
	if order.PointsUsed != 1000 {
		t.Fatalf("points used %d, want 1000", order.PointsUsed)
	}
	if order.FinalAmount.Cmp(models.NewMoneyFromInt(12000)) != 0 {
		t.Fatalf("final amount %s, want 12000", order.FinalAmount.String())
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("status %s, want pending", order.Status)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 5 {
		t.Fatalf("unexpected items: %+v", order.Items)
	}

	// Cart is cleared inside the same transaction.
	var cartCount int64
	if err := env.db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&cartCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if cartCount != 0 {
		t.Fatalf("cart still has %d lines", cartCount)
	}

	balance, _ := env.points.Balance(1)
	if balance != 4000 {
		t.Fatalf("balance %d after checkout, want 4000", balance)
	}

	var payment models.Payment
	if err := env.db.Where("order_id = ?", order.ID).First(&payment).Error; err != nil {
		t.Fatalf("payment lookup failed: %v", err)
	}
	if payment.Status != constants.PaymentStatusPending || payment.Amount.Cmp(order.FinalAmount) != 0 {
		t.Fatalf("unexpected payment: %+v", payment)
	}

	if len(env.enqueuer.orderIDs) != 1 || env.enqueuer.orderIDs[0] != order.ID {
		t.Fatalf("timeout cancel not enqueued: %+v", env.enqueuer.orderIDs)
	}
}

func TestPlaceOrderFreeShipping(t *testing.T) {
	env := setupOrderServiceTest(t)

	// 20 x 1800 = 36000, over the threshold.
	if _, err := env.carts.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 20}); err != nil {
		t.Fatalf("cart add failed: %v", err)
	}

	order, err := env.orders.PlaceOrder(shippingParams(0))
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if !order.ShippingFee.IsZero() {
		t.Fatalf("shipping fee %s, want 0", order.ShippingFee.String())
	}
	if order.FinalAmount.Cmp(models.NewMoneyFromInt(36000)) != 0 {
		t.Fatalf("final amount %s, want 36000", order.FinalAmount.String())
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	env := setupOrderServiceTest(t)

	if _, err := env.orders.PlaceOrder(shippingParams(0)); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestPlaceOrderMissingShippingFields(t *testing.T) {
	env := setupOrderServiceTest(t)

	params := shippingParams(0)
	params.Address1 = "  "
	if _, err := env.orders.PlaceOrder(params); !errors.Is(err, ErrMissingShippingFields) {
		t.Fatalf("expected ErrMissingShippingFields, got %v", err)
	}
}

func TestPlaceOrderInsufficientPoints(t *testing.T) {
	env := setupOrderServiceTest(t)

	if _, err := env.points.Append(AppendParams{UserID: 1, Direction: constants.PointDirectionEarn, Amount: 500}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	if _, err := env.carts.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 2}); err != nil {
		t.Fatalf("cart add failed: %v", err)
	}

	_, err := env.orders.PlaceOrder(shippingParams(1000))
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}

	// Whole checkout rolled back: no order, cart intact, balance intact.
	var orderCount int64
	if err := env.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("failed checkout left %d orders", orderCount)
	}
	var cartCount int64
	if err := env.db.Model(&models.CartItem{}).Count(&cartCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if cartCount != 1 {
		t.Fatalf("failed checkout emptied the cart")
	}
	balance, _ := env.points.Balance(1)
	if balance != 500 {
		t.Fatalf("balance %d after failed checkout, want 500", balance)
	}
}

func TestPlaceOrderClampsPointsToPayable(t *testing.T) {
	env := setupOrderServiceTest(t)

	if _, err := env.points.Append(AppendParams{UserID: 1, Direction: constants.PointDirectionEarn, Amount: 50000}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	// 2 x 2000 + 3000 shipping = 7000 payable.
	if _, err := env.carts.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 2}); err != nil {
		t.Fatalf("cart add failed: %v", err)
	}

	order, err := env.orders.PlaceOrder(shippingParams(99999))
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if order.PointsUsed != 7000 {
		t.Fatalf("points used %d, want 7000", order.PointsUsed)
	}
	if !order.FinalAmount.IsZero() {
		t.Fatalf("final amount %s, want 0", order.FinalAmount.String())
	}
}

func TestPlaceOrderSeqConflictSurfaces(t *testing.T) {
	env := setupOrderServiceTest(t)

	if _, err := env.points.Append(AppendParams{UserID: 1, Direction: constants.PointDirectionEarn, Amount: 5000}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	if _, err := env.carts.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 5}); err != nil {
		t.Fatalf("cart add failed: %v", err)
	}
	// Plant a ledger row at seq 2 without moving the account cursor, as
	// a racing append would between the balance read and the insert.
	// Both the checkout's spend and its one retry collide on the unique
	// (user_id, seq) index, so the typed conflict error must come back
	// instead of a raw constraint failure.
	if err := env.db.Create(&models.PointLedgerEntry{
		UserID: 1, Seq: 2, Direction: constants.PointDirectionEarn, Amount: 100, Balance: 5100,
	}).Error; err != nil {
		t.Fatalf("plant conflicting entry failed: %v", err)
	}

	_, err := env.orders.PlaceOrder(shippingParams(1000))
	if !errors.Is(err, ErrConcurrentBalanceConflict) {
		t.Fatalf("expected ErrConcurrentBalanceConflict, got %v", err)
	}

	// Both attempts rolled back completely.
	var orderCount int64
	if err := env.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("conflicted checkout left %d orders", orderCount)
	}
	var cartCount int64
	if err := env.db.Model(&models.CartItem{}).Count(&cartCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if cartCount != 1 {
		t.Fatalf("conflicted checkout emptied the cart")
	}
	balance, _ := env.points.Balance(1)
	if balance != 5000 {
		t.Fatalf("balance %d after conflicted checkout, want 5000", balance)
	}
}

func TestPlaceOrderAtomicRollback(t *testing.T) {
	// Migrate without the payments table so the final insert of the
	// checkout transaction fails; every earlier write must roll back.
	env := setupOrderServiceTest(t,
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.PointAccount{},
		&models.PointLedgerEntry{},
	)

	if _, err := env.points.Append(AppendParams{UserID: 1, Direction: constants.PointDirectionEarn, Amount: 5000}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	if _, err := env.carts.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 5}); err != nil {
		t.Fatalf("cart add failed: %v", err)
	}

	if _, err := env.orders.PlaceOrder(shippingParams(1000)); err == nil {
		t.Fatal("expected checkout to fail without payments table")
	}

	var orderCount int64
	if err := env.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("partial checkout left %d orders", orderCount)
	}
	var cartCount int64
	if err := env.db.Model(&models.CartItem{}).Count(&cartCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if cartCount != 1 {
		t.Fatalf("partial checkout emptied the cart")
	}
	balance, _ := env.points.Balance(1)
	if balance != 5000 {
		t.Fatalf("balance %d after rollback, want 5000", balance)
	}
}

func TestCancelExpiredOrderRefundsOnce(t *testing.T) {
	env := setupOrderServiceTest(t)

	if _, err := env.points.Append(AppendParams{UserID: 1, Direction: constants.PointDirectionEarn, Amount: 5000}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	if _, err := env.carts.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 5}); err != nil {
		t.Fatalf("cart add failed: %v", err)
	}
	order, err := env.orders.PlaceOrder(shippingParams(1000))
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}

	// Force the payment window into the past.
	past := time.Now().Add(-time.Minute)
	if err := env.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("expires_at", past).Error; err != nil {
		t.Fatalf("update expires_at failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := env.orders.CancelExpiredOrder(order.ID); err != nil {
			t.Fatalf("cancel attempt %d failed: %v", i, err)
		}
	}

	var reloaded models.Order
	if err := env.db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCanceled || reloaded.CanceledAt == nil {
		t.Fatalf("order not canceled: %+v", reloaded)
	}

	var payment models.Payment
	if err := env.db.Where("order_id = ?", order.ID).First(&payment).Error; err != nil {
		t.Fatalf("payment lookup failed: %v", err)
	}
	if payment.Status != constants.PaymentStatusCanceled {
		t.Fatalf("payment status %s, want canceled", payment.Status)
	}

	// Refunded exactly once despite the repeated cancel.
	balance, _ := env.points.Balance(1)
	if balance != 5000 {
		t.Fatalf("balance %d after cancel, want 5000", balance)
	}
}

func TestCancelSkipsUnexpiredOrder(t *testing.T) {
	env := setupOrderServiceTest(t)

	if _, err := env.carts.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 2}); err != nil {
		t.Fatalf("cart add failed: %v", err)
	}
	order, err := env.orders.PlaceOrder(shippingParams(0))
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}

	if err := env.orders.CancelExpiredOrder(order.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	var reloaded models.Order
	if err := env.db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPending {
		t.Fatalf("unexpired order was canceled: %s", reloaded.Status)
	}
}

func TestGetOrderOwnership(t *testing.T) {
	env := setupOrderServiceTest(t)

	if _, err := env.carts.Add(AddToCartParams{UserID: 1, ProductID: 1, SizeID: "40x40", PrintTypeID: "single", Quantity: 2}); err != nil {
		t.Fatalf("cart add failed: %v", err)
	}
	order, err := env.orders.PlaceOrder(shippingParams(0))
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}

	if _, err := env.orders.GetOrder(1, order.OrderNo); err != nil {
		t.Fatalf("owner lookup failed: %v", err)
	}
	if _, err := env.orders.GetOrder(2, order.OrderNo); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for other user, got %v", err)
	}
}
