package persistence

import (
	"context"

	appprod "github.com/Oscarts/backery2-app-sub003/internal/application/production"
	"gorm.io/gorm"
)

// NewGormRepositories returns the production repositories bound to db. The
// same constructor serves plain reads and transaction-scoped work.
func NewGormRepositories(db *gorm.DB) appprod.RepositorySet {
	return appprod.RepositorySet{
		BatchRepo:      NewGormMaterialBatchRepository(db),
		LocationRepo:   NewGormStorageLocationRepository(db),
		RecipeRepo:     NewGormRecipeRepository(db),
		RunRepo:        NewGormProductionRunRepository(db),
		AllocationRepo: NewGormAllocationRepository(db),
	}
}

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn inside a database transaction with repositories bound to
// it. A returned error rolls everything back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appprod.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormRepositories(tx))
	})
}

var _ appprod.TransactionScope = (*GormTransactionScope)(nil)
