package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/acrilgoods-next/internal/config"
	"github.com/acrilgoods-next/internal/constants"
	"github.com/acrilgoods-next/internal/logger"
	"github.com/acrilgoods-next/internal/models"
	"github.com/acrilgoods-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderTaskEnqueuer schedules deferred order work. The queue client
// implements it; tests substitute a recorder.
type OrderTaskEnqueuer interface {
	EnqueueOrderTimeoutCancel(orderID uint, delay time.Duration) error
}

// PlaceOrderParams describes one checkout request.
type PlaceOrderParams struct {
	UserID        uint
	Recipient     string
	Phone         string
	Address1      string
	Address2      string
	PostalCode    string
	Memo          string
	PaymentMethod string
	UsePoints     int64
}

// OrderService turns a cart into an order in one transaction: items are
// snapshotted at re-resolved prices, the point spend is appended under
// the account lock, a pending payment is opened and the cart is
// cleared. Any failure rolls the whole checkout back. A sequence
// conflict on the point spend retries the whole transaction once
// before surfacing ErrConcurrentBalanceConflict.
type OrderService struct {
	db       *gorm.DB
	orders   repository.OrderRepository
	carts    repository.CartRepository
	products repository.ProductRepository
	payments repository.PaymentRepository
	pricing  *PricingService
	points   *PointsService
	enqueuer OrderTaskEnqueuer
	cfg      config.OrderConfig
}

// NewOrderService creates the order service.
func NewOrderService(
	db *gorm.DB,
	orders repository.OrderRepository,
	carts repository.CartRepository,
	products repository.ProductRepository,
	payments repository.PaymentRepository,
	pricing *PricingService,
	points *PointsService,
	enqueuer OrderTaskEnqueuer,
	cfg config.OrderConfig,
) *OrderService {
	return &OrderService{
		db:       db,
		orders:   orders,
		carts:    carts,
		products: products,
		payments: payments,
		pricing:  pricing,
		points:   points,
		enqueuer: enqueuer,
		cfg:      cfg,
	}
}

// PlaceOrder checks out the user's entire cart.
func (s *OrderService) PlaceOrder(params PlaceOrderParams) (*models.Order, error) {
	if strings.TrimSpace(params.Recipient) == "" ||
		strings.TrimSpace(params.Phone) == "" ||
		strings.TrimSpace(params.Address1) == "" {
		return nil, ErrMissingShippingFields
	}
	if params.UsePoints < 0 {
		return nil, ErrInvalidPointsAmount
	}
	if params.PaymentMethod == "" {
		params.PaymentMethod = constants.PaymentMethodCard
	}

	var order *models.Order
	checkout := func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		products := s.products.WithTx(tx)
		orders := s.orders.WithTx(tx)
		payments := s.payments.WithTx(tx)

		lines, err := carts.ListByUser(params.UserID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		itemsTotal := models.NewMoneyFromInt(0)
		orderItems := make([]models.OrderItem, 0, len(lines))
		for i := range lines {
			line := &lines[i]
			product, err := products.GetByID(line.ProductID)
			if err != nil {
				return err
			}
			if product == nil || !product.IsActive {
				return fmt.Errorf("%w: cart line %d", ErrProductNotFound, line.ID)
			}
			// Re-resolve at checkout so a stale frozen price or a config
			// change since add time cannot leak into the order.
			unitPrice, err := s.pricing.ResolveUnitPrice(product, line.SizeID, line.PrintTypeID, line.Quantity)
			if err != nil {
				return err
			}
			lineTotal := unitPrice.MulInt(int64(line.Quantity))
			itemsTotal = itemsTotal.Add(lineTotal)
			orderItems = append(orderItems, models.OrderItem{
				ProductID:      product.ID,
				ProductName:    product.Name,
				SizeID:         line.SizeID,
				PrintTypeID:    line.PrintTypeID,
				Quantity:       line.Quantity,
				UnitPrice:      unitPrice,
				TotalPrice:     lineTotal,
				OptionSnapshot: line.CustomOptions,
			})
		}

		shippingFee := models.NewMoneyFromInt(s.cfg.ShippingFee)
		if itemsTotal.Cmp(models.NewMoneyFromInt(s.cfg.FreeShippingThreshold)) >= 0 {
			shippingFee = models.NewMoneyFromInt(0)
		}
		payable := itemsTotal.Add(shippingFee)

		pointsUsed := params.UsePoints
		if payableInt := payable.IntPart(); pointsUsed > payableInt {
			pointsUsed = payableInt
		}
		finalAmount := payable.Sub(models.NewMoneyFromInt(pointsUsed))

		now := time.Now()
		expiresAt := now.Add(time.Duration(s.cfg.PaymentExpireMinutes) * time.Minute)
		order = &models.Order{
			OrderNo:     generateOrderNo(now),
			UserID:      params.UserID,
			Status:      constants.OrderStatusPending,
			ItemsTotal:  itemsTotal,
			ShippingFee: shippingFee,
			PointsUsed:  pointsUsed,
			FinalAmount: finalAmount,
			AddrSnapshot: models.JSON{
				"recipient":   params.Recipient,
				"phone":       params.Phone,
				"address1":    params.Address1,
				"address2":    params.Address2,
				"postal_code": params.PostalCode,
			},
			PaymentMethod: params.PaymentMethod,
			Memo:          params.Memo,
			ExpiresAt:     &expiresAt,
			Items:         orderItems,
		}
		if err := orders.Create(order); err != nil {
			return err
		}

		if pointsUsed > 0 {
			_, err := s.points.AppendTx(tx, AppendParams{
				UserID:      params.UserID,
				Direction:   constants.PointDirectionSpend,
				Amount:      pointsUsed,
				Description: fmt.Sprintf("order %s", order.OrderNo),
				OrderID:     &order.ID,
				Reference:   spendReference(order.OrderNo),
			})
			if err != nil {
				return err
			}
		}

		payment := &models.Payment{
			OrderID: order.ID,
			UserID:  params.UserID,
			Method:  params.PaymentMethod,
			Amount:  finalAmount,
			Status:  constants.PaymentStatusPending,
		}
		if err := payments.Create(payment); err != nil {
			return err
		}

		return carts.ClearByUser(params.UserID)
	}

	// A racing append can win the ledger's (user_id, seq) slot between
	// the balance read and the insert on dialects without row locks. The
	// rolled-back checkout is retried once against the fresh balance.
	for attempt := 0; attempt < 2; attempt++ {
		err := s.db.Transaction(checkout)
		if err == nil {
			if s.enqueuer != nil && order.ExpiresAt != nil {
				delay := time.Until(*order.ExpiresAt)
				if err := s.enqueuer.EnqueueOrderTimeoutCancel(order.ID, delay); err != nil {
					logger.Warnw("order_timeout_enqueue_failed", "order_id", order.ID, "error", err)
				}
			}
			return order, nil
		}
		if isSeqConflict(err) {
			logger.Warnw("order_points_conflict_retry", "user_id", params.UserID, "attempt", attempt)
			continue
		}
		return nil, err
	}
	return nil, ErrConcurrentBalanceConflict
}

// CancelExpiredOrder cancels an unpaid order past its payment window
// and refunds its spent points. Reruns are no-ops: the status check
// skips already-canceled orders and the refund reference blocks a
// double credit.
func (s *OrderService) CancelExpiredOrder(orderID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		payments := s.payments.WithTx(tx)

		order, err := orders.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			logger.Warnw("order_timeout_cancel_missing", "order_id", orderID)
			return nil
		}
		if order.Status != constants.OrderStatusPending || order.PaidAt != nil {
			return nil
		}
		if order.ExpiresAt != nil && time.Now().Before(*order.ExpiresAt) {
			return nil
		}

		now := time.Now()
		if err := orders.UpdateFields(order.ID, map[string]interface{}{
			"status":      constants.OrderStatusCanceled,
			"canceled_at": now,
		}); err != nil {
			return err
		}

		payment, err := payments.GetByOrderID(order.ID)
		if err != nil {
			return err
		}
		if payment != nil && payment.Status == constants.PaymentStatusPending {
			if err := payments.UpdateFields(payment.ID, map[string]interface{}{
				"status": constants.PaymentStatusCanceled,
			}); err != nil {
				return err
			}
		}

		if order.PointsUsed > 0 {
			return s.points.RefundTx(tx, order.UserID, order.PointsUsed,
				fmt.Sprintf("refund for canceled order %s", order.OrderNo),
				&order.ID, refundReference(order.OrderNo))
		}
		return nil
	})
}

// GetOrder returns one of the user's orders by public number.
func (s *OrderService) GetOrder(userID uint, orderNo string) (*models.Order, error) {
	order, err := s.orders.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders returns the user's orders newest first.
func (s *OrderService) ListOrders(userID uint, filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orders.ListByUser(userID, filter)
}

// generateOrderNo builds a public order number: AG + timestamp + random
// tail pulled from a UUID.
func generateOrderNo(now time.Time) string {
	tail := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("AG%s%s", now.Format("20060102150405"), tail)
}

func spendReference(orderNo string) string {
	return "spend:order:" + orderNo
}

func refundReference(orderNo string) string {
	return "refund:order:" + orderNo
}
