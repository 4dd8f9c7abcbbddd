package production

import (
	"context"

	"github.com/google/uuid"
)

// RecipeRepository defines persistence for recipes
type RecipeRepository interface {
	// FindByID loads a recipe with its ingredients, or shared.ErrNotFound
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Recipe, error)

	// Create inserts a recipe with its ingredients
	Create(ctx context.Context, recipe *Recipe) error
}

// ProductionRunRepository defines persistence for production runs and their steps
type ProductionRunRepository interface {
	// FindByID loads a run with its steps ordered by step order
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ProductionRun, error)

	// FindByIDForUpdate loads and row-locks a run; use inside a transaction
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*ProductionRun, error)

	// Create inserts a run with its steps
	Create(ctx context.Context, run *ProductionRun) error

	// Save updates a run and its steps with an optimistic version check
	Save(ctx context.Context, run *ProductionRun) error
}

// AllocationRepository defines persistence for allocation rows
type AllocationRepository interface {
	// FindByRun lists every allocation of a run in allocation order
	FindByRun(ctx context.Context, tenantID, runID uuid.UUID) ([]*Allocation, error)

	// FindActiveByRunForUpdate lists and row-locks the ALLOCATED rows of a run
	FindActiveByRunForUpdate(ctx context.Context, tenantID, runID uuid.UUID) ([]*Allocation, error)

	// CreateBatch inserts allocation rows
	CreateBatch(ctx context.Context, allocations []*Allocation) error

	// Save updates an allocation row
	Save(ctx context.Context, allocation *Allocation) error
}
