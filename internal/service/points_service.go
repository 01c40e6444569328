package service

import (
	"errors"
	"strings"
	"time"

	"github.com/acrilgoods-next/internal/config"
	"github.com/acrilgoods-next/internal/constants"
	"github.com/acrilgoods-next/internal/logger"
	"github.com/acrilgoods-next/internal/models"
	"github.com/acrilgoods-next/internal/repository"

	"gorm.io/gorm"
)

// AppendParams describes one ledger append.
type AppendParams struct {
	UserID      uint
	Direction   string
	Amount      int64 // always positive, direction carries the sign
	Description string
	OrderID     *uint
	Reference   string     // idempotency key, optional
	ExpiresAt   *time.Time // EARN only
}

// PointsSummary is the account overview returned to clients.
type PointsSummary struct {
	Balance      int64                     `json:"balance"`
	TotalEarned  int64                     `json:"total_earned"`
	TotalSpent   int64                     `json:"total_spent"`
	TotalExpired int64                     `json:"total_expired"`
	Recent       []models.PointLedgerEntry `json:"recent"`
}

// PointsService owns the append-only point ledger. Every balance change
// goes through an append under the account row lock, and the unique
// (user_id, seq) index turns any remaining race into an insert failure
// that is retried once before surfacing ErrConcurrentBalanceConflict.
type PointsService struct {
	db     *gorm.DB
	ledger repository.PointLedgerRepository
	cfg    config.PointsConfig
}

// NewPointsService creates the points service.
func NewPointsService(db *gorm.DB, ledger repository.PointLedgerRepository, cfg config.PointsConfig) *PointsService {
	return &PointsService{db: db, ledger: ledger, cfg: cfg}
}

// Balance returns the user's current balance, creating the account on
// first touch.
func (s *PointsService) Balance(userID uint) (int64, error) {
	account, err := s.ledger.EnsureAccount(userID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Summary returns balance plus lifetime totals and recent entries.
func (s *PointsService) Summary(userID uint) (*PointsSummary, error) {
	account, err := s.ledger.EnsureAccount(userID)
	if err != nil {
		return nil, err
	}
	earned, err := s.ledger.SumByDirection(userID, constants.PointDirectionEarn)
	if err != nil {
		return nil, err
	}
	spent, err := s.ledger.SumByDirection(userID, constants.PointDirectionSpend)
	if err != nil {
		return nil, err
	}
	expired, err := s.ledger.SumByDirection(userID, constants.PointDirectionExpire)
	if err != nil {
		return nil, err
	}
	recent, _, err := s.ledger.List(userID, repository.PointLedgerListFilter{Page: 1, PageSize: 10})
	if err != nil {
		return nil, err
	}
	return &PointsSummary{
		Balance:      account.Balance,
		TotalEarned:  earned,
		TotalSpent:   spent,
		TotalExpired: expired,
		Recent:       recent,
	}, nil
}

// List returns ledger entries newest first.
func (s *PointsService) List(userID uint, filter repository.PointLedgerListFilter) ([]models.PointLedgerEntry, int64, error) {
	return s.ledger.List(userID, filter)
}

// Append writes one ledger entry in its own transaction, retrying once
// on a sequence conflict.
func (s *PointsService) Append(params AppendParams) (*models.PointLedgerEntry, error) {
	var entry *models.PointLedgerEntry
	for attempt := 0; attempt < 2; attempt++ {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			e, err := s.AppendTx(tx, params)
			if err != nil {
				return err
			}
			entry = e
			return nil
		})
		if err == nil {
			return entry, nil
		}
		if isSeqConflict(err) {
			logger.Warnw("points_seq_conflict_retry", "user_id", params.UserID, "attempt", attempt)
			continue
		}
		return nil, err
	}
	return nil, ErrConcurrentBalanceConflict
}

// AppendTx writes one ledger entry inside the caller's transaction.
// The account row is locked first so the read balance stays valid until
// commit. Either both the entry and the balance land, or neither does.
func (s *PointsService) AppendTx(tx *gorm.DB, params AppendParams) (*models.PointLedgerEntry, error) {
	if params.Amount <= 0 {
		return nil, ErrInvalidPointsAmount
	}
	return s.appendLocked(tx, params)
}

func (s *PointsService) appendLocked(tx *gorm.DB, params AppendParams) (*models.PointLedgerEntry, error) {
	if params.Amount < 0 {
		return nil, ErrInvalidPointsAmount
	}
	ledger := s.ledger.WithTx(tx)

	account, err := ledger.GetAccountForUpdate(params.UserID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		if account, err = ledger.EnsureAccount(params.UserID); err != nil {
			return nil, err
		}
	}

	delta := params.Amount
	switch params.Direction {
	case constants.PointDirectionEarn, constants.PointDirectionAdjust:
	case constants.PointDirectionSpend, constants.PointDirectionExpire:
		delta = -delta
	default:
		return nil, ErrInvalidPointsAmount
	}

	newBalance := account.Balance + delta
	if newBalance < 0 {
		return nil, ErrInsufficientPoints
	}

	entry := &models.PointLedgerEntry{
		UserID:      params.UserID,
		Seq:         account.LastSeq + 1,
		Direction:   params.Direction,
		Amount:      params.Amount,
		Balance:     newBalance,
		Description: params.Description,
		OrderID:     params.OrderID,
		Reference:   params.Reference,
		ExpiresAt:   params.ExpiresAt,
	}
	if err := ledger.CreateEntry(entry); err != nil {
		return nil, err
	}
	if err := ledger.UpdateAccount(params.UserID, newBalance, entry.Seq); err != nil {
		return nil, err
	}
	return entry, nil
}

// RefundTx credits points back inside the caller's transaction. The
// reference makes it idempotent: a second call with the same reference
// is a no-op, so a requeued cancel task cannot double-refund.
func (s *PointsService) RefundTx(tx *gorm.DB, userID uint, amount int64, description string, orderID *uint, reference string) error {
	if amount <= 0 {
		return nil
	}
	existing, err := s.ledger.WithTx(tx).GetByReference(userID, reference)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	_, err = s.AppendTx(tx, AppendParams{
		UserID:      userID,
		Direction:   constants.PointDirectionAdjust,
		Amount:      amount,
		Description: description,
		OrderID:     orderID,
		Reference:   reference,
	})
	return err
}

// ExpireDuePoints writes EXPIRE entries for EARN rows past their expiry
// and returns how many were processed. The expired amount is clamped to
// the current balance so an account never goes negative. Each EXPIRE
// carries a derived reference, so a rerun skips already-processed rows.
func (s *PointsService) ExpireDuePoints(now time.Time, limit int) (int, error) {
	due, err := s.ledger.ListExpirable(now, limit)
	if err != nil {
		return 0, err
	}
	processed := 0
	for i := range due {
		earn := &due[i]
		err := s.db.Transaction(func(tx *gorm.DB) error {
			ledger := s.ledger.WithTx(tx)
			reference := repository.ExpireReference(earn.ID)
			existing, err := ledger.GetByReference(earn.UserID, reference)
			if err != nil {
				return err
			}
			if existing != nil {
				return nil
			}
			account, err := ledger.GetAccountForUpdate(earn.UserID)
			if err != nil {
				return err
			}
			amount := earn.Amount
			if account != nil && account.Balance < amount {
				amount = account.Balance
			}
			if account == nil {
				amount = 0
			}
			_, err = s.appendLocked(tx, AppendParams{
				UserID:      earn.UserID,
				Direction:   constants.PointDirectionExpire,
				Amount:      amount,
				Description: "points expired",
				Reference:   reference,
			})
			return err
		})
		if err != nil {
			logger.Errorw("points_expire_failed", "entry_id", earn.ID, "user_id", earn.UserID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

// EarnExpiry returns the expiry timestamp for a new EARN entry, or nil
// when expiry is disabled.
func (s *PointsService) EarnExpiry(now time.Time) *time.Time {
	if s.cfg.EarnExpireDays <= 0 {
		return nil
	}
	t := now.AddDate(0, 0, s.cfg.EarnExpireDays)
	return &t
}

// isSeqConflict reports whether err is a unique index violation on the
// ledger's (user_id, seq) pair.
func isSeqConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
