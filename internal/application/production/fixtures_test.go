package production

import (
	"testing"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

type ingredientSpec struct {
	material *inventory.MaterialBatch
	quantity string
}

type fixture struct {
	t         *testing.T
	store     *memStore
	tenantID  uuid.UUID
	publisher *MockEventPublisher
	logger    *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		t:         t,
		store:     newMemStore(),
		tenantID:  uuid.New(),
		publisher: NewMockEventPublisher(),
		logger:    zap.NewNop(),
	}
}

func (f *fixture) addBatch(name, qty, unitCost string, expires *time.Time) *inventory.MaterialBatch {
	b, err := inventory.NewMaterialBatch(f.tenantID, inventory.NewBatchInput{
		Kind:           inventory.MaterialKindRawMaterial,
		Name:           name,
		BatchNumber:    "LOT-" + uuid.NewString()[:6],
		Quantity:       dec(qty),
		Unit:           "kg",
		UnitCost:       dec(unitCost),
		ExpirationDate: expires,
	})
	require.NoError(f.t, err)
	f.store.batches[b.ID] = *b
	return b
}

func (f *fixture) addRecipe(name, yield string, ingredients ...ingredientSpec) *production.Recipe {
	r, err := production.NewRecipe(f.tenantID, name, dec(yield), "loaf")
	require.NoError(f.t, err)
	for _, ing := range ingredients {
		require.NoError(f.t, r.AddIngredient(ing.material.Ref(), dec(ing.quantity), "kg"))
	}
	f.store.recipes[r.ID] = *r
	return r
}

func (f *fixture) addRun(recipe *production.Recipe, target string, steps ...production.StepTemplate) *production.ProductionRun {
	run, err := production.NewProductionRun(f.tenantID, recipe, "", dec(target), steps)
	require.NoError(f.t, err)
	f.store.runs[run.ID] = *run
	return run
}

// finishSteps marks every step of a stored run as completed
func (f *fixture) finishSteps(runID uuid.UUID) {
	run := f.store.runs[runID]
	for _, step := range run.Steps {
		require.NoError(f.t, run.CompleteStep(step.ID, nil, "", testNow))
	}
	run.Drain()
	f.store.runs[runID] = run
}

func (f *fixture) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(f.store.repos())
}

func (f *fixture) availabilityService() *AvailabilityService {
	svc := NewAvailabilityService(f.store.repos(), f.logger)
	svc.now = func() time.Time { return testNow }
	return svc
}

func (f *fixture) allocationService() *AllocationService {
	svc := NewAllocationService(f.store.repos(), f.scope(), f.publisher, f.logger)
	svc.now = func() time.Time { return testNow }
	return svc
}

func (f *fixture) costService() *CostService {
	svc := NewCostService(f.store.repos(), DefaultSettings(), f.logger)
	svc.now = func() time.Time { return testNow }
	return svc
}

func (f *fixture) completionService(guard *MockIdempotencyStore) *CompletionService {
	var svc *CompletionService
	if guard == nil {
		svc = NewCompletionService(f.store.repos(), f.scope(), f.costService(), nil, f.publisher, DefaultSettings(), f.logger)
	} else {
		svc = NewCompletionService(f.store.repos(), f.scope(), f.costService(), guard, f.publisher, DefaultSettings(), f.logger)
	}
	svc.now = func() time.Time { return testNow }
	return svc
}
