package production

import (
	"context"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
)

// TransactionScope runs a unit of work. Every repository handed to fn shares
// one database transaction which is committed when fn returns nil and rolled
// back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to the repositories the production services use.
// Outside a transaction scope the same interface is served by plain,
// auto-committing repositories.
//
// Services must not mix the two: while a scope is open, every read goes
// through the scoped repositories.
type Repositories interface {
	Batches() inventory.MaterialBatchRepository
	Locations() inventory.StorageLocationRepository
	Recipes() production.RecipeRepository
	Runs() production.ProductionRunRepository
	Allocations() production.AllocationRepository
}

// RepositorySet is a plain Repositories value
type RepositorySet struct {
	BatchRepo      inventory.MaterialBatchRepository
	LocationRepo   inventory.StorageLocationRepository
	RecipeRepo     production.RecipeRepository
	RunRepo        production.ProductionRunRepository
	AllocationRepo production.AllocationRepository
}

func (s RepositorySet) Batches() inventory.MaterialBatchRepository     { return s.BatchRepo }
func (s RepositorySet) Locations() inventory.StorageLocationRepository { return s.LocationRepo }
func (s RepositorySet) Recipes() production.RecipeRepository           { return s.RecipeRepo }
func (s RepositorySet) Runs() production.ProductionRunRepository       { return s.RunRepo }
func (s RepositorySet) Allocations() production.AllocationRepository   { return s.AllocationRepo }

// NoOpTransactionScope runs fn against fixed repositories without a
// transaction. Used by unit tests.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s.repos)
}
