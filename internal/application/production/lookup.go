package production

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
)

func loadRecipe(ctx context.Context, repos Repositories, tenantID, recipeID uuid.UUID) (*production.Recipe, error) {
	recipe, err := repos.Recipes().FindByID(ctx, tenantID, recipeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrRecipeNotFound.WithDetails(map[string]any{"recipe_id": recipeID})
		}
		return nil, fmt.Errorf("load recipe %s: %w", recipeID, err)
	}
	return recipe, nil
}

func loadRun(ctx context.Context, repos Repositories, tenantID, runID uuid.UUID) (*production.ProductionRun, error) {
	run, err := repos.Runs().FindByID(ctx, tenantID, runID)
	return run, wrapRunErr(runID, err)
}

func lockRun(ctx context.Context, repos Repositories, tenantID, runID uuid.UUID) (*production.ProductionRun, error) {
	run, err := repos.Runs().FindByIDForUpdate(ctx, tenantID, runID)
	return run, wrapRunErr(runID, err)
}

func wrapRunErr(runID uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrNotFound) {
		return shared.ErrRunNotFound.WithDetails(map[string]any{"production_run_id": runID})
	}
	return fmt.Errorf("load production run %s: %w", runID, err)
}

// materialStock is every eligible batch of the material an ingredient names
type materialStock struct {
	Name    string
	Batches []*inventory.MaterialBatch
}

// findMaterialStock resolves ref to the batch it points at and gathers every
// eligible batch sharing its name. A reference that no longer resolves yields
// an empty stock rather than an error.
func findMaterialStock(ctx context.Context, batches inventory.MaterialBatchRepository, tenantID uuid.UUID, ref inventory.MaterialRef, at time.Time, forUpdate bool) (materialStock, error) {
	head, err := batches.FindByRef(ctx, tenantID, ref)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return materialStock{}, nil
		}
		return materialStock{}, fmt.Errorf("resolve material %s: %w", ref, err)
	}

	find := batches.FindEligibleByName
	if forUpdate {
		find = batches.FindEligibleByNameForUpdate
	}
	eligible, err := find(ctx, tenantID, ref.Kind(), head.NameKey(), at)
	if err != nil {
		return materialStock{}, fmt.Errorf("load batches of %q: %w", head.Name, err)
	}
	return materialStock{Name: head.Name, Batches: eligible}, nil
}
