package repository

import "time"

// PointLedgerListFilter filters ledger entry queries.
type PointLedgerListFilter struct {
	UserID      uint
	Direction   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// OrderListFilter filters order queries.
type OrderListFilter struct {
	UserID   uint
	Status   string
	Page     int
	PageSize int
}

// ProductListFilter filters catalog queries.
type ProductListFilter struct {
	ActiveOnly bool
	Keyword    string
	Page       int
	PageSize   int
}
