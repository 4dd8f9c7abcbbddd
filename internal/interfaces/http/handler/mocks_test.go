package handler

import (
	"context"

	appprod "github.com/Oscarts/backery2-app-sub003/internal/application/production"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockRunService struct{ mock.Mock }

func (m *mockRunService) run(args mock.Arguments) (*appprod.ProductionRunResponse, error) {
	resp, _ := args.Get(0).(*appprod.ProductionRunResponse)
	return resp, args.Error(1)
}

func (m *mockRunService) CreateProductionRun(ctx context.Context, tenantID uuid.UUID, req appprod.CreateProductionRunRequest) (*appprod.ProductionRunResponse, error) {
	return m.run(m.Called(ctx, tenantID, req))
}

func (m *mockRunService) GetProductionRun(ctx context.Context, tenantID, runID uuid.UUID) (*appprod.ProductionRunResponse, error) {
	return m.run(m.Called(ctx, tenantID, runID))
}

func (m *mockRunService) StartStep(ctx context.Context, tenantID, runID, stepID uuid.UUID) (*appprod.ProductionRunResponse, error) {
	return m.run(m.Called(ctx, tenantID, runID, stepID))
}

func (m *mockRunService) CompleteStep(ctx context.Context, tenantID, runID, stepID uuid.UUID, req appprod.CompleteStepRequest) (*appprod.ProductionRunResponse, error) {
	return m.run(m.Called(ctx, tenantID, runID, stepID, req))
}

func (m *mockRunService) SkipStep(ctx context.Context, tenantID, runID, stepID uuid.UUID, req appprod.SkipStepRequest) (*appprod.ProductionRunResponse, error) {
	return m.run(m.Called(ctx, tenantID, runID, stepID, req))
}

func (m *mockRunService) Hold(ctx context.Context, tenantID, runID uuid.UUID, req appprod.HoldRunRequest) (*appprod.ProductionRunResponse, error) {
	return m.run(m.Called(ctx, tenantID, runID, req))
}

func (m *mockRunService) Resume(ctx context.Context, tenantID, runID uuid.UUID) (*appprod.ProductionRunResponse, error) {
	return m.run(m.Called(ctx, tenantID, runID))
}

type mockAllocationService struct{ mock.Mock }

func (m *mockAllocationService) Allocate(ctx context.Context, tenantID, runID uuid.UUID, req appprod.AllocateRequest) ([]appprod.AllocationResponse, error) {
	args := m.Called(ctx, tenantID, runID, req)
	resp, _ := args.Get(0).([]appprod.AllocationResponse)
	return resp, args.Error(1)
}

func (m *mockAllocationService) Consume(ctx context.Context, tenantID, runID uuid.UUID, req appprod.ConsumeRequest) ([]appprod.AllocationResponse, error) {
	args := m.Called(ctx, tenantID, runID, req)
	resp, _ := args.Get(0).([]appprod.AllocationResponse)
	return resp, args.Error(1)
}

func (m *mockAllocationService) Release(ctx context.Context, tenantID, runID uuid.UUID) (*appprod.ReleaseResponse, error) {
	args := m.Called(ctx, tenantID, runID)
	resp, _ := args.Get(0).(*appprod.ReleaseResponse)
	return resp, args.Error(1)
}

func (m *mockAllocationService) GetMaterialUsage(ctx context.Context, tenantID, runID uuid.UUID) (*appprod.MaterialUsageResponse, error) {
	args := m.Called(ctx, tenantID, runID)
	resp, _ := args.Get(0).(*appprod.MaterialUsageResponse)
	return resp, args.Error(1)
}

type mockCompletionService struct{ mock.Mock }

func (m *mockCompletionService) CompleteProductionRun(ctx context.Context, tenantID, runID uuid.UUID, req appprod.CompleteRunRequest) (*appprod.CompletionResponse, error) {
	args := m.Called(ctx, tenantID, runID, req)
	resp, _ := args.Get(0).(*appprod.CompletionResponse)
	return resp, args.Error(1)
}

func (m *mockCompletionService) CancelProductionRun(ctx context.Context, tenantID, runID uuid.UUID, req appprod.CancelRunRequest) (*appprod.CancellationResponse, error) {
	args := m.Called(ctx, tenantID, runID, req)
	resp, _ := args.Get(0).(*appprod.CancellationResponse)
	return resp, args.Error(1)
}

type mockCostService struct{ mock.Mock }

func (m *mockCostService) CalculateProductionCost(ctx context.Context, tenantID, runID uuid.UUID) (*appprod.CostBreakdownResponse, error) {
	args := m.Called(ctx, tenantID, runID)
	resp, _ := args.Get(0).(*appprod.CostBreakdownResponse)
	return resp, args.Error(1)
}

func (m *mockCostService) EstimateRecipeCost(ctx context.Context, tenantID, recipeID uuid.UUID, multiplier decimal.Decimal) (*appprod.CostBreakdownResponse, error) {
	args := m.Called(ctx, tenantID, recipeID, multiplier)
	resp, _ := args.Get(0).(*appprod.CostBreakdownResponse)
	return resp, args.Error(1)
}

type mockRecipeService struct{ mock.Mock }

func (m *mockRecipeService) CreateRecipe(ctx context.Context, tenantID uuid.UUID, req appprod.CreateRecipeRequest) (*appprod.RecipeResponse, error) {
	args := m.Called(ctx, tenantID, req)
	resp, _ := args.Get(0).(*appprod.RecipeResponse)
	return resp, args.Error(1)
}

func (m *mockRecipeService) GetRecipe(ctx context.Context, tenantID, recipeID uuid.UUID) (*appprod.RecipeResponse, error) {
	args := m.Called(ctx, tenantID, recipeID)
	resp, _ := args.Get(0).(*appprod.RecipeResponse)
	return resp, args.Error(1)
}

type mockAvailabilityService struct{ mock.Mock }

func (m *mockAvailabilityService) CheckAvailability(ctx context.Context, tenantID, recipeID uuid.UUID, multiplier decimal.Decimal) (*appprod.AvailabilityResponse, error) {
	args := m.Called(ctx, tenantID, recipeID, multiplier)
	resp, _ := args.Get(0).(*appprod.AvailabilityResponse)
	return resp, args.Error(1)
}

type mockLedgerService struct{ mock.Mock }

func (m *mockLedgerService) ReceiveBatch(ctx context.Context, tenantID uuid.UUID, req appprod.ReceiveBatchRequest) (*appprod.MaterialBatchResponse, error) {
	args := m.Called(ctx, tenantID, req)
	resp, _ := args.Get(0).(*appprod.MaterialBatchResponse)
	return resp, args.Error(1)
}

func (m *mockLedgerService) GetBatch(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID) (*appprod.MaterialBatchResponse, error) {
	args := m.Called(ctx, tenantID, kind, id)
	resp, _ := args.Get(0).(*appprod.MaterialBatchResponse)
	return resp, args.Error(1)
}

func (m *mockLedgerService) MarkContaminated(ctx context.Context, tenantID uuid.UUID, kind string, id uuid.UUID, req appprod.MarkContaminatedRequest) (*appprod.MaterialBatchResponse, error) {
	args := m.Called(ctx, tenantID, kind, id, req)
	resp, _ := args.Get(0).(*appprod.MaterialBatchResponse)
	return resp, args.Error(1)
}
