package models

import "time"

// PointAccount is the denormalized balance row for fast reads and the
// per-user lock target for ledger appends. The append-only
// point_ledger table remains the source of truth; Balance and LastSeq
// are updated in the same transaction as every ledger insert.
type PointAccount struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	LastSeq   uint64    `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name.
func (PointAccount) TableName() string {
	return "point_accounts"
}
