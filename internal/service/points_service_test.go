package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/acrilgoods-next/internal/config"
	"github.com/acrilgoods-next/internal/constants"
	"github.com/acrilgoods-next/internal/models"
	"github.com/acrilgoods-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupPointsServiceTest(t *testing.T) (*PointsService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:points_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.PointAccount{},
		&models.PointLedgerEntry{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	ledgerRepo := repository.NewPointLedgerRepository(db)
	return NewPointsService(db, ledgerRepo, config.PointsConfig{EarnExpireDays: 365}), db
}

func TestPointsAppendRunningBalance(t *testing.T) {
	svc, _ := setupPointsServiceTest(t)

	earn, err := svc.Append(AppendParams{UserID: 7, Direction: constants.PointDirectionEarn, Amount: 5000, Description: "welcome"})
	if err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	if earn.Seq != 1 || earn.Balance != 5000 {
		t.Fatalf("got seq %d balance %d, want 1/5000", earn.Seq, earn.Balance)
	}

	spend, err := svc.Append(AppendParams{UserID: 7, Direction: constants.PointDirectionSpend, Amount: 1200, Description: "order"})
	if err != nil {
		t.Fatalf("spend failed: %v", err)
	}
	if spend.Seq != 2 || spend.Balance != 3800 {
		t.Fatalf("got seq %d balance %d, want 2/3800", spend.Seq, spend.Balance)
	}

	balance, err := svc.Balance(7)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 3800 {
		t.Fatalf("got balance %d, want 3800", balance)
	}
}

func TestPointsOverspendWritesNothing(t *testing.T) {
	svc, db := setupPointsServiceTest(t)

	if _, err := svc.Append(AppendParams{UserID: 8, Direction: constants.PointDirectionEarn, Amount: 5000}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	_, err := svc.Append(AppendParams{UserID: 8, Direction: constants.PointDirectionSpend, Amount: 6000})
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}

	var count int64
	if err := db.Model(&models.PointLedgerEntry{}).Where("user_id = ?", 8).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("rejected spend left %d entries, want 1", count)
	}
	balance, _ := svc.Balance(8)
	if balance != 5000 {
		t.Fatalf("balance changed to %d after rejected spend", balance)
	}
}

func TestPointsAppendRejectsBadInput(t *testing.T) {
	svc, _ := setupPointsServiceTest(t)

	if _, err := svc.Append(AppendParams{UserID: 9, Direction: constants.PointDirectionEarn, Amount: 0}); !errors.Is(err, ErrInvalidPointsAmount) {
		t.Fatalf("expected ErrInvalidPointsAmount for zero, got %v", err)
	}
	if _, err := svc.Append(AppendParams{UserID: 9, Direction: constants.PointDirectionEarn, Amount: -10}); !errors.Is(err, ErrInvalidPointsAmount) {
		t.Fatalf("expected ErrInvalidPointsAmount for negative, got %v", err)
	}
	if _, err := svc.Append(AppendParams{UserID: 9, Direction: "BONUS", Amount: 10}); !errors.Is(err, ErrInvalidPointsAmount) {
		t.Fatalf("expected ErrInvalidPointsAmount for unknown direction, got %v", err)
	}
}

func TestPointsSeqConflictSurfaces(t *testing.T) {
	svc, db := setupPointsServiceTest(t)

	if _, err := svc.Append(AppendParams{UserID: 10, Direction: constants.PointDirectionEarn, Amount: 1000}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	// Plant a ledger row at seq 2 without moving the account cursor.
	// Both the first attempt and the retry then collide on the unique
	// (user_id, seq) index, so the typed conflict error must surface
	// instead of a raw constraint failure.
	if err := db.Create(&models.PointLedgerEntry{
		UserID: 10, Seq: 2, Direction: constants.PointDirectionEarn, Amount: 100, Balance: 1100,
	}).Error; err != nil {
		t.Fatalf("plant conflicting entry failed: %v", err)
	}

	_, err := svc.Append(AppendParams{UserID: 10, Direction: constants.PointDirectionEarn, Amount: 50})
	if !errors.Is(err, ErrConcurrentBalanceConflict) {
		t.Fatalf("expected ErrConcurrentBalanceConflict, got %v", err)
	}
	balance, _ := svc.Balance(10)
	if balance != 1000 {
		t.Fatalf("failed append changed balance to %d", balance)
	}
}

func TestPointsConcurrentSpendSingleWinner(t *testing.T) {
	svc, db := setupPointsServiceTest(t)

	// The shared-cache in-memory database rejects overlapping writers,
	// so the pool is pinned to one connection; the two appends still
	// race for the same balance at the service level.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if _, err := svc.Append(AppendParams{UserID: 14, Direction: constants.PointDirectionEarn, Amount: 5000}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}

	// Two spends each want the full balance. Exactly one can land.
	results := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Append(AppendParams{
				UserID: 14, Direction: constants.PointDirectionSpend, Amount: 5000, Description: "race",
			})
		}(i)
	}
	wg.Wait()

	wins, losses := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInsufficientPoints) || errors.Is(err, ErrConcurrentBalanceConflict):
			losses++
		default:
			t.Fatalf("unexpected error from racing spend: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("got %d wins and %d losses, want exactly one of each", wins, losses)
	}

	balance, _ := svc.Balance(14)
	if balance != 0 {
		t.Fatalf("balance %d after racing spends, want 0", balance)
	}
	var spendCount int64
	if err := db.Model(&models.PointLedgerEntry{}).
		Where("user_id = ? AND direction = ?", 14, constants.PointDirectionSpend).
		Count(&spendCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if spendCount != 1 {
		t.Fatalf("racing spends wrote %d SPEND entries, want 1", spendCount)
	}
}

func TestPointsRefundIdempotent(t *testing.T) {
	svc, db := setupPointsServiceTest(t)

	if _, err := svc.Append(AppendParams{UserID: 11, Direction: constants.PointDirectionEarn, Amount: 2000}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	if _, err := svc.Append(AppendParams{UserID: 11, Direction: constants.PointDirectionSpend, Amount: 1500}); err != nil {
		t.Fatalf("spend failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			return svc.RefundTx(tx, 11, 1500, "refund", nil, "refund:order:AG1")
		})
		if err != nil {
			t.Fatalf("refund attempt %d failed: %v", i, err)
		}
	}

	balance, err := svc.Balance(11)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 2000 {
		t.Fatalf("got balance %d after repeated refunds, want 2000", balance)
	}
}

func TestPointsExpireDuePoints(t *testing.T) {
	svc, _ := setupPointsServiceTest(t)

	past := time.Now().Add(-time.Hour)
	if _, err := svc.Append(AppendParams{
		UserID: 12, Direction: constants.PointDirectionEarn, Amount: 3000, ExpiresAt: &past,
	}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	future := time.Now().Add(24 * time.Hour)
	if _, err := svc.Append(AppendParams{
		UserID: 12, Direction: constants.PointDirectionEarn, Amount: 1000, ExpiresAt: &future,
	}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}

	processed, err := svc.ExpireDuePoints(time.Now(), 100)
	if err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	if processed != 1 {
		t.Fatalf("processed %d entries, want 1", processed)
	}
	balance, _ := svc.Balance(12)
	if balance != 1000 {
		t.Fatalf("got balance %d after expiry, want 1000", balance)
	}

	// Rerun must be a no-op.
	processed, err = svc.ExpireDuePoints(time.Now(), 100)
	if err != nil {
		t.Fatalf("expire rerun failed: %v", err)
	}
	if processed != 0 {
		t.Fatalf("rerun processed %d entries, want 0", processed)
	}
	balance, _ = svc.Balance(12)
	if balance != 1000 {
		t.Fatalf("rerun changed balance to %d", balance)
	}
}

func TestPointsExpireClampsToBalance(t *testing.T) {
	svc, _ := setupPointsServiceTest(t)

	past := time.Now().Add(-time.Hour)
	if _, err := svc.Append(AppendParams{
		UserID: 13, Direction: constants.PointDirectionEarn, Amount: 3000, ExpiresAt: &past,
	}); err != nil {
		t.Fatalf("earn failed: %v", err)
	}
	if _, err := svc.Append(AppendParams{UserID: 13, Direction: constants.PointDirectionSpend, Amount: 2500}); err != nil {
		t.Fatalf("spend failed: %v", err)
	}

	if _, err := svc.ExpireDuePoints(time.Now(), 100); err != nil {
		t.Fatalf("expire failed: %v", err)
	}
	balance, _ := svc.Balance(13)
	if balance != 0 {
		t.Fatalf("got balance %d, want 0 (never negative)", balance)
	}
}
