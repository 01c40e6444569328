package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// withForUpdate applies a FOR UPDATE row lock on dialects that support
// it. SQLite serializes writers at the connection level, so the clause
// is skipped there.
func withForUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector.Name() == "sqlite" {
		return db
	}
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
