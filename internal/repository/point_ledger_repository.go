package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/acrilgoods-next/internal/constants"
	"github.com/acrilgoods-next/internal/models"

	"gorm.io/gorm"
)

// PointLedgerRepository is the point ledger data access interface.
type PointLedgerRepository interface {
	GetAccount(userID uint) (*models.PointAccount, error)
	GetAccountForUpdate(userID uint) (*models.PointAccount, error)
	EnsureAccount(userID uint) (*models.PointAccount, error)
	UpdateAccount(userID uint, balance int64, lastSeq uint64) error
	CreateEntry(entry *models.PointLedgerEntry) error
	GetLatestEntry(userID uint) (*models.PointLedgerEntry, error)
	GetByReference(userID uint, reference string) (*models.PointLedgerEntry, error)
	List(userID uint, filter PointLedgerListFilter) ([]models.PointLedgerEntry, int64, error)
	SumByDirection(userID uint, direction string) (int64, error)
	ListExpirable(now time.Time, limit int) ([]models.PointLedgerEntry, error)
	WithTx(tx *gorm.DB) *GormPointLedgerRepository
}

// GormPointLedgerRepository is the GORM implementation.
type GormPointLedgerRepository struct {
	db *gorm.DB
}

// NewPointLedgerRepository creates a point ledger repository.
func NewPointLedgerRepository(db *gorm.DB) *GormPointLedgerRepository {
	return &GormPointLedgerRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormPointLedgerRepository) WithTx(tx *gorm.DB) *GormPointLedgerRepository {
	if tx == nil {
		return r
	}
	return &GormPointLedgerRepository{db: tx}
}

// GetAccount fetches the user's balance row without locking.
func (r *GormPointLedgerRepository) GetAccount(userID uint) (*models.PointAccount, error) {
	var account models.PointAccount
	err := r.db.Where("user_id = ?", userID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountForUpdate locks the user's balance row for an append.
func (r *GormPointLedgerRepository) GetAccountForUpdate(userID uint) (*models.PointAccount, error) {
	var account models.PointAccount
	err := withForUpdate(r.db).Where("user_id = ?", userID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// EnsureAccount fetches the balance row, creating a zero-balance one on
// first touch.
func (r *GormPointLedgerRepository) EnsureAccount(userID uint) (*models.PointAccount, error) {
	account, err := r.GetAccount(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.PointAccount{UserID: userID}
	if err := r.db.Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateAccount writes the denormalized balance and sequence cursor.
func (r *GormPointLedgerRepository) UpdateAccount(userID uint, balance int64, lastSeq uint64) error {
	return r.db.Model(&models.PointAccount{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{"balance": balance, "last_seq": lastSeq}).Error
}

// CreateEntry appends a ledger row. The unique (user_id, seq) index
// turns a lost-update race into an insert error the service can retry.
func (r *GormPointLedgerRepository) CreateEntry(entry *models.PointLedgerEntry) error {
	return r.db.Create(entry).Error
}

// GetLatestEntry returns the newest ledger row for the user.
func (r *GormPointLedgerRepository) GetLatestEntry(userID uint) (*models.PointLedgerEntry, error) {
	var entry models.PointLedgerEntry
	err := r.db.Where("user_id = ?", userID).Order("seq desc").First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetByReference looks up an entry by its idempotency reference.
func (r *GormPointLedgerRepository) GetByReference(userID uint, reference string) (*models.PointLedgerEntry, error) {
	if reference == "" {
		return nil, nil
	}
	var entry models.PointLedgerEntry
	err := r.db.Where("user_id = ? AND reference = ?", userID, reference).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns ledger rows newest first.
func (r *GormPointLedgerRepository) List(userID uint, filter PointLedgerListFilter) ([]models.PointLedgerEntry, int64, error) {
	query := r.db.Model(&models.PointLedgerEntry{}).Where("user_id = ?", userID)
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at < ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.PointLedgerEntry
	err := applyPagination(query, filter.Page, filter.PageSize).
		Order("seq desc").
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// SumByDirection totals entry amounts for one direction.
func (r *GormPointLedgerRepository) SumByDirection(userID uint, direction string) (int64, error) {
	var sum int64
	err := r.db.Model(&models.PointLedgerEntry{}).
		Where("user_id = ? AND direction = ?", userID, direction).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return sum, nil
}

// ExpireReference is the idempotency key an EXPIRE entry carries for
// the EARN row it consumed.
func ExpireReference(earnEntryID uint) string {
	return fmt.Sprintf("expire:earn:%d", earnEntryID)
}

// ListExpirable returns EARN entries whose expiry has passed and that
// have not yet been consumed by an EXPIRE entry referencing them.
func (r *GormPointLedgerRepository) ListExpirable(now time.Time, limit int) ([]models.PointLedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	sub := r.db.Model(&models.PointLedgerEntry{}).
		Select("reference").
		Where("direction = ? AND reference <> ''", constants.PointDirectionExpire)

	var entries []models.PointLedgerEntry
	err := r.db.Model(&models.PointLedgerEntry{}).
		Where("direction = ?", constants.PointDirectionEarn).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Where("('expire:earn:' || CAST(id AS TEXT)) NOT IN (?)", sub).
		Order("expires_at asc").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
