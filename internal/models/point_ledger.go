package models

import "time"

// PointLedgerEntry is one immutable point balance change. Entries are
// never updated or deleted; corrections are new ADJUST entries. Seq is
// a per-user monotonic counter: the unique (user_id, seq) index turns
// two appends racing over the same balance read into a constraint
// violation instead of a silent lost update.
type PointLedgerEntry struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	UserID      uint       `gorm:"index;not null;uniqueIndex:idx_point_user_seq" json:"user_id"`
	Seq         uint64     `gorm:"not null;uniqueIndex:idx_point_user_seq" json:"-"`
	Direction   string     `gorm:"type:varchar(20);index;not null" json:"direction"`
	Amount      int64      `gorm:"not null" json:"amount"`
	Balance     int64      `gorm:"not null" json:"balance"`
	Description string     `gorm:"type:varchar(500)" json:"description"`
	OrderID     *uint      `gorm:"index" json:"order_id,omitempty"`
	Reference   string     `gorm:"index;type:varchar(100)" json:"reference,omitempty"`
	ExpiresAt   *time.Time `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

// TableName sets the table name.
func (PointLedgerEntry) TableName() string {
	return "point_ledger"
}
