package production

import (
	"context"
	"testing"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostService_ActualFromAllocations(t *testing.T) {
	f := newFixture(t)
	flour := f.addBatch("Flour", "5", "3.50", nil)
	recipe := f.addRecipe("Bread", "1", ingredientSpec{flour, "2"})
	run := f.addRun(recipe, "1")
	_, err := f.allocationService().Allocate(context.Background(), f.tenantID, run.ID, AllocateRequest{})
	require.NoError(t, err)

	cost, err := f.costService().CalculateProductionCost(context.Background(), f.tenantID, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(production.CostSourceActual), cost.Source)
	assert.True(t, cost.MaterialCost.Equal(dec("7")))
	assert.True(t, cost.OverheadPercentage.Equal(dec("50")))
	assert.True(t, cost.OverheadCost.Equal(dec("3.5")))
	assert.True(t, cost.TotalCost.Equal(dec("10.5")))
	assert.True(t, cost.CostPerUnit.Equal(dec("10.5")))
	require.Len(t, cost.Materials, 1)
	assert.Equal(t, "Flour", cost.Materials[0].Name)
}

func TestCostService_EstimatedWithoutAllocations(t *testing.T) {
	f := newFixture(t)
	flour := f.addBatch("Flour", "10", "2.50", nil)
	recipe := f.addRecipe("Rolls", "5", ingredientSpec{flour, "2"})
	run := f.addRun(recipe, "5")

	cost, err := f.costService().CalculateProductionCost(context.Background(), f.tenantID, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(production.CostSourceEstimated), cost.Source)
	assert.True(t, cost.MaterialCost.Equal(dec("5")))
	assert.True(t, cost.OverheadCost.Equal(dec("2.5")))
	assert.True(t, cost.TotalCost.Equal(dec("7.5")))
	assert.True(t, cost.CostPerUnit.Equal(dec("1.5")))
	assert.True(t, production.SalePrice(cost.CostPerUnit, DefaultSettings().DefaultMarkupPercentage).Equal(dec("2.25")))
}

func TestCostService_ReleasedAllocationsDoNotCount(t *testing.T) {
	f := newFixture(t)
	flour := f.addBatch("Flour", "10", "2.50", nil)
	recipe := f.addRecipe("Rolls", "5", ingredientSpec{flour, "2"})
	run := f.addRun(recipe, "5")
	svc := f.allocationService()
	_, err := svc.Allocate(context.Background(), f.tenantID, run.ID, AllocateRequest{})
	require.NoError(t, err)
	_, err = svc.Release(context.Background(), f.tenantID, run.ID)
	require.NoError(t, err)

	cost, err := f.costService().CalculateProductionCost(context.Background(), f.tenantID, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(production.CostSourceEstimated), cost.Source)
}

func TestCostService_DefaultWhenNothingIsPriced(t *testing.T) {
	f := newFixture(t)
	stale := f.addBatch("Yeast", "1", "9.00", datePtr(2025, 1, 1))
	recipe := f.addRecipe("Bread", "2", ingredientSpec{stale, "0.1"})
	run := f.addRun(recipe, "4")

	cost, err := f.costService().CalculateProductionCost(context.Background(), f.tenantID, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(production.CostSourceDefault), cost.Source)
	assert.True(t, cost.MaterialCost.Equal(dec("10")))
	assert.True(t, cost.TotalCost.Equal(dec("15")))
	assert.True(t, cost.CostPerUnit.Equal(dec("3.75")))
}

func TestCostService_RecipeOverheadWins(t *testing.T) {
	f := newFixture(t)
	flour := f.addBatch("Flour", "10", "2.50", nil)
	recipe := f.addRecipe("Rolls", "5", ingredientSpec{flour, "2"})
	stored := f.store.recipes[recipe.ID]
	require.NoError(t, stored.SetOverheadPercentage(dec("20")))
	f.store.recipes[recipe.ID] = stored
	run := f.addRun(recipe, "5")

	cost, err := f.costService().CalculateProductionCost(context.Background(), f.tenantID, run.ID)
	require.NoError(t, err)
	assert.True(t, cost.OverheadPercentage.Equal(dec("20")))
	assert.True(t, cost.TotalCost.Equal(dec("6")))
}

func TestCostService_MissingRecipeFallsBack(t *testing.T) {
	f := newFixture(t)
	flour := f.addBatch("Flour", "10", "2.50", nil)
	recipe := f.addRecipe("Rolls", "5", ingredientSpec{flour, "2"})
	run := f.addRun(recipe, "5")
	delete(f.store.recipes, recipe.ID)

	cost, err := f.costService().CalculateProductionCost(context.Background(), f.tenantID, run.ID)
	require.NoError(t, err)
	assert.Equal(t, string(production.CostSourceDefault), cost.Source)
	assert.True(t, cost.OverheadPercentage.Equal(production.DefaultOverheadPercentage))
}

func TestCostService_CalculateProductionCost_UnknownRun(t *testing.T) {
	f := newFixture(t)
	_, err := f.costService().CalculateProductionCost(context.Background(), f.tenantID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrRunNotFound)
}

func TestCostService_EstimateRecipeCost(t *testing.T) {
	f := newFixture(t)
	flour := f.addBatch("Flour", "10", "2.50", nil)
	recipe := f.addRecipe("Rolls", "5", ingredientSpec{flour, "2"})
	svc := f.costService()

	cost, err := svc.EstimateRecipeCost(context.Background(), f.tenantID, recipe.ID, dec("2"))
	require.NoError(t, err)
	assert.Equal(t, string(production.CostSourceEstimated), cost.Source)
	assert.True(t, cost.Quantity.Equal(dec("10")))
	assert.True(t, cost.MaterialCost.Equal(dec("10")))
	assert.True(t, cost.CostPerUnit.Equal(dec("1.5")))

	_, err = svc.EstimateRecipeCost(context.Background(), f.tenantID, uuid.New(), dec("1"))
	assert.ErrorIs(t, err, shared.ErrRecipeNotFound)

	_, err = svc.EstimateRecipeCost(context.Background(), f.tenantID, recipe.ID, dec("0"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
