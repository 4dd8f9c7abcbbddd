package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appprod "github.com/Oscarts/backery2-app-sub003/internal/application/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/Oscarts/backery2-app-sub003/internal/infrastructure/logger"
	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/dto"
	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type fixture struct {
	engine       *gin.Engine
	tenant       uuid.UUID
	runs         *mockRunService
	allocations  *mockAllocationService
	completion   *mockCompletionService
	costs        *mockCostService
	recipes      *mockRecipeService
	availability *mockAvailabilityService
	ledger       *mockLedgerService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tenant:       uuid.New(),
		runs:         &mockRunService{},
		allocations:  &mockAllocationService{},
		completion:   &mockCompletionService{},
		costs:        &mockCostService{},
		recipes:      &mockRecipeService{},
		availability: &mockAvailabilityService{},
		ledger:       &mockLedgerService{},
	}
	t.Cleanup(func() {
		f.runs.AssertExpectations(t)
		f.allocations.AssertExpectations(t)
		f.completion.AssertExpectations(t)
		f.costs.AssertExpectations(t)
		f.recipes.AssertExpectations(t)
		f.availability.AssertExpectations(t)
		f.ledger.AssertExpectations(t)
	})

	prod := NewProductionHandler(f.runs, f.allocations, f.completion, f.costs)
	rec := NewRecipeHandler(f.recipes, f.availability, f.costs)
	mat := NewMaterialHandler(f.ledger)

	e := gin.New()
	e.Use(middleware.RequestID(), middleware.Tenant(middleware.DefaultTenantConfig()))
	g := e.Group("/api/v1/production")
	g.POST("/recipes", rec.Create)
	g.GET("/recipes/:id", rec.Get)
	g.POST("/recipes/:id/availability", rec.CheckAvailability)
	g.GET("/recipes/:id/cost-estimate", rec.EstimateCost)
	g.POST("/runs", prod.CreateRun)
	g.GET("/runs/:id", prod.GetRun)
	g.POST("/runs/:id/allocations", prod.Allocate)
	g.POST("/runs/:id/allocations/consume", prod.Consume)
	g.POST("/runs/:id/allocations/release", prod.Release)
	g.GET("/runs/:id/material-usage", prod.MaterialUsage)
	g.POST("/runs/:id/steps/:stepId/start", prod.StartStep)
	g.POST("/runs/:id/steps/:stepId/complete", prod.CompleteStep)
	g.POST("/runs/:id/steps/:stepId/skip", prod.SkipStep)
	g.POST("/runs/:id/hold", prod.Hold)
	g.POST("/runs/:id/resume", prod.Resume)
	g.GET("/runs/:id/cost", prod.Cost)
	g.POST("/runs/:id/complete", prod.Complete)
	g.POST("/runs/:id/cancel", prod.Cancel)
	g.POST("/materials/batches", mat.ReceiveBatch)
	g.GET("/materials/batches/:id", mat.GetBatch)
	g.POST("/materials/batches/:id/contaminate", mat.Contaminate)
	f.engine = e
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/api/v1/production"+path, r)
	req.Header.Set(logger.TenantHeader, f.tenant.String())
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		Details   json.RawMessage `json:"details"`
		RequestID string          `json:"request_id"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestCreateRun(t *testing.T) {
	f := newFixture(t)
	recipeID := uuid.New()
	runID := uuid.New()

	f.runs.On("CreateProductionRun", mock.Anything, f.tenant, mock.MatchedBy(func(req appprod.CreateProductionRunRequest) bool {
		return req.RecipeID == recipeID && req.TargetQuantity.Equal(decimal.NewFromInt(20))
	})).Return(&appprod.ProductionRunResponse{ID: runID, Status: "PLANNED"}, nil)

	w := f.do(http.MethodPost, "/runs", `{"recipe_id":"`+recipeID.String()+`","target_quantity":"20"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	env := decode(t, w)
	assert.True(t, env.Success)
	var run appprod.ProductionRunResponse
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Equal(t, runID, run.ID)
}

func TestCreateRun_MalformedBody(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/runs", `{"recipe_id":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, decode(t, w).Error.Code)
}

func TestGetRun_InvalidID(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/runs/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, dto.ErrCodeBadRequest, env.Error.Code)
	assert.NotEmpty(t, env.Error.RequestID)
}

func TestDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"run not found", shared.ErrRunNotFound, http.StatusNotFound, "PRODUCTION_RUN_NOT_FOUND"},
		{"recipe not found", shared.ErrRecipeNotFound, http.StatusNotFound, "RECIPE_NOT_FOUND"},
		{"invalid state", shared.ErrInvalidState.WithMessage("production run is CANCELLED"), http.StatusConflict, "INVALID_STATE"},
		{"conflict", shared.ErrConcurrencyConflict, http.StatusConflict, "CONCURRENCY_CONFLICT"},
		{"invalid quantity", shared.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
		{"wrapped", errors.Join(errors.New("load"), shared.ErrRunNotFound), http.StatusNotFound, "PRODUCTION_RUN_NOT_FOUND"},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			runID := uuid.New()
			f.runs.On("GetProductionRun", mock.Anything, f.tenant, runID).Return(nil, tt.err)

			w := f.do(http.MethodGet, "/runs/"+runID.String(), "")

			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, env.Error.Message, "connection reset")
			}
		})
	}
}

func TestAllocate_Shortage(t *testing.T) {
	f := newFixture(t)
	runID := uuid.New()
	shortage := production.Shortage{
		MaterialName: "Flour",
		Needed:       decimal.NewFromInt(20),
		Available:    decimal.NewFromInt(12),
		Missing:      decimal.NewFromInt(8),
		Unit:         "kg",
	}
	f.allocations.On("Allocate", mock.Anything, f.tenant, runID, appprod.AllocateRequest{}).
		Return(nil, shared.ErrInsufficientStock.WithDetails(shortage))

	w := f.do(http.MethodPost, "/runs/"+runID.String()+"/allocations", "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decode(t, w)
	assert.Equal(t, "INSUFFICIENT_STOCK", env.Error.Code)
	var details production.Shortage
	require.NoError(t, json.Unmarshal(env.Error.Details, &details))
	assert.Equal(t, "Flour", details.MaterialName)
	assert.True(t, details.Missing.Equal(decimal.NewFromInt(8)))
}

func TestAllocate_WithMultiplier(t *testing.T) {
	f := newFixture(t)
	runID := uuid.New()
	f.allocations.On("Allocate", mock.Anything, f.tenant, runID, mock.MatchedBy(func(req appprod.AllocateRequest) bool {
		return req.Multiplier != nil && req.Multiplier.Equal(decimal.NewFromInt(2))
	})).Return([]appprod.AllocationResponse{{ID: uuid.New(), MaterialName: "Flour"}}, nil)

	w := f.do(http.MethodPost, "/runs/"+runID.String()+"/allocations", `{"multiplier":"2"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestConsumeReleaseUsage(t *testing.T) {
	f := newFixture(t)
	runID := uuid.New()
	allocID := uuid.New()

	f.allocations.On("Consume", mock.Anything, f.tenant, runID, mock.MatchedBy(func(req appprod.ConsumeRequest) bool {
		return len(req.Quantities) == 1 && req.Quantities[0].AllocationID == allocID
	})).Return([]appprod.AllocationResponse{{ID: allocID}}, nil)
	f.allocations.On("Release", mock.Anything, f.tenant, runID).
		Return(&appprod.ReleaseResponse{ProductionRunID: runID}, nil)
	f.allocations.On("GetMaterialUsage", mock.Anything, f.tenant, runID).
		Return(&appprod.MaterialUsageResponse{ConsumedCount: 1}, nil)

	base := "/runs/" + runID.String()
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, base+"/allocations/consume",
		`{"quantities":[{"allocation_id":"`+allocID.String()+`","quantity":"9.5"}]}`).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, base+"/allocations/release", "").Code)

	w := f.do(http.MethodGet, base+"/material-usage", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"consumed_count":1`)
}

func TestStepEndpoints(t *testing.T) {
	f := newFixture(t)
	runID, stepID := uuid.New(), uuid.New()
	minutes := 18
	resp := &appprod.ProductionRunResponse{ID: runID, Status: "IN_PROGRESS"}

	f.runs.On("StartStep", mock.Anything, f.tenant, runID, stepID).Return(resp, nil)
	f.runs.On("CompleteStep", mock.Anything, f.tenant, runID, stepID, appprod.CompleteStepRequest{ActualMinutes: &minutes, Notes: "golden"}).Return(resp, nil)
	f.runs.On("SkipStep", mock.Anything, f.tenant, runID, stepID, appprod.SkipStepRequest{}).
		Return(nil, shared.ErrInvalidState.WithMessage("step is already COMPLETED"))
	f.runs.On("Hold", mock.Anything, f.tenant, runID, appprod.HoldRunRequest{Reason: "oven down"}).Return(resp, nil)
	f.runs.On("Resume", mock.Anything, f.tenant, runID).Return(resp, nil)

	base := "/runs/" + runID.String()
	step := base + "/steps/" + stepID.String()
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, step+"/start", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, step+"/complete", `{"actual_minutes":18,"notes":"golden"}`).Code)
	assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, step+"/skip", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, base+"/hold", `{"reason":"oven down"}`).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, base+"/resume", "").Code)

	w := f.do(http.MethodPost, base+"/steps/oops/start", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComplete(t *testing.T) {
	t.Run("steps pending", func(t *testing.T) {
		f := newFixture(t)
		runID := uuid.New()
		pending := []production.PendingStep{{ID: uuid.New(), StepOrder: 4, Name: "Baking", Status: production.StepStatusPending}}
		f.completion.On("CompleteProductionRun", mock.Anything, f.tenant, runID, appprod.CompleteRunRequest{}).
			Return(nil, shared.ErrStepsPending.WithDetails(pending))

		w := f.do(http.MethodPost, "/runs/"+runID.String()+"/complete", "")

		assert.Equal(t, http.StatusConflict, w.Code)
		env := decode(t, w)
		assert.Equal(t, "STEPS_PENDING", env.Error.Code)
		assert.Contains(t, string(env.Error.Details), `"name":"Baking"`)
	})

	t.Run("already completed", func(t *testing.T) {
		f := newFixture(t)
		runID := uuid.New()
		qty := decimal.NewFromInt(18)
		f.completion.On("CompleteProductionRun", mock.Anything, f.tenant, runID, mock.MatchedBy(func(req appprod.CompleteRunRequest) bool {
			return req.ActualQuantity != nil && req.ActualQuantity.Equal(qty)
		})).Return(&appprod.CompletionResponse{
			Run:              appprod.ProductionRunResponse{ID: runID, Status: "COMPLETED"},
			AlreadyCompleted: true,
		}, nil)

		w := f.do(http.MethodPost, "/runs/"+runID.String()+"/complete", `{"actual_quantity":"18"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp appprod.CompletionResponse
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &resp))
		assert.True(t, resp.AlreadyCompleted)
	})
}

func TestCancelAndCost(t *testing.T) {
	f := newFixture(t)
	runID := uuid.New()
	f.completion.On("CancelProductionRun", mock.Anything, f.tenant, runID, appprod.CancelRunRequest{Reason: "burnt"}).
		Return(&appprod.CancellationResponse{ReleasedCount: 2, ReleasedQuantity: decimal.NewFromInt(12)}, nil)
	f.costs.On("CalculateProductionCost", mock.Anything, f.tenant, runID).
		Return(&appprod.CostBreakdownResponse{Source: "ACTUAL", MaterialCost: decimal.RequireFromString("20.06")}, nil)

	w := f.do(http.MethodPost, "/runs/"+runID.String()+"/cancel", `{"reason":"burnt"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"released_count":2`)

	w = f.do(http.MethodGet, "/runs/"+runID.String()+"/cost", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"source":"ACTUAL"`)
}

func TestRecipeEndpoints(t *testing.T) {
	f := newFixture(t)
	recipeID := uuid.New()

	f.availability.On("CheckAvailability", mock.Anything, f.tenant, recipeID, mock.MatchedBy(func(m decimal.Decimal) bool {
		return m.Equal(decimal.NewFromInt(1))
	})).Return(&appprod.AvailabilityResponse{RecipeID: recipeID, CanProduce: true}, nil).Once()
	f.availability.On("CheckAvailability", mock.Anything, f.tenant, recipeID, mock.MatchedBy(func(m decimal.Decimal) bool {
		return m.Equal(decimal.NewFromInt(3))
	})).Return(&appprod.AvailabilityResponse{RecipeID: recipeID, CanProduce: false}, nil).Once()
	f.costs.On("EstimateRecipeCost", mock.Anything, f.tenant, recipeID, mock.MatchedBy(func(m decimal.Decimal) bool {
		return m.Equal(decimal.RequireFromString("2.5"))
	})).Return(&appprod.CostBreakdownResponse{Source: "ESTIMATED"}, nil)
	f.recipes.On("GetRecipe", mock.Anything, f.tenant, recipeID).Return(nil, shared.ErrRecipeNotFound)

	base := "/recipes/" + recipeID.String()
	w := f.do(http.MethodPost, base+"/availability", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"can_produce":true`)

	w = f.do(http.MethodPost, base+"/availability", `{"multiplier":"3"}`)
	assert.Contains(t, string(decode(t, w).Data), `"can_produce":false`)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, base+"/cost-estimate?multiplier=2.5", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, base+"/cost-estimate?multiplier=lots", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, base, "").Code)
}

func TestCreateRecipe_Validation(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/recipes", `{"name":"Sourdough","yield_quantity":"10","yield_unit":"loaf","ingredients":[]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	assert.Contains(t, string(env.Error.Details), `"field":"ingredients"`)
}

func TestMaterialEndpoints(t *testing.T) {
	f := newFixture(t)
	batchID := uuid.New()

	f.ledger.On("ReceiveBatch", mock.Anything, f.tenant, mock.MatchedBy(func(req appprod.ReceiveBatchRequest) bool {
		return req.Name == "Flour" && req.Quantity.Equal(decimal.NewFromInt(10))
	})).Return(&appprod.MaterialBatchResponse{ID: batchID, Name: "Flour"}, nil)
	f.ledger.On("GetBatch", mock.Anything, f.tenant, "FINISHED_PRODUCT", batchID).
		Return(&appprod.MaterialBatchResponse{ID: batchID}, nil)
	f.ledger.On("MarkContaminated", mock.Anything, f.tenant, "RAW_MATERIAL", batchID, appprod.MarkContaminatedRequest{Reason: "mould"}).
		Return(&appprod.MaterialBatchResponse{ID: batchID, Contaminated: true}, nil)

	w := f.do(http.MethodPost, "/materials/batches",
		`{"material_type":"RAW_MATERIAL","name":"Flour","quantity":"10","unit":"kg","unit_cost":"2"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodPost, "/materials/batches",
		`{"material_type":"RAW_MATERIAL","name":"Flour","quantity":"10","unit":"kg","unit_cost":"-2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(decode(t, w).Error.Details), `"tag":"dgte0"`)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/materials/batches/"+batchID.String()+"?material_type=FINISHED_PRODUCT", "").Code)

	w = f.do(http.MethodPost, "/materials/batches/"+batchID.String()+"/contaminate", `{"reason":"mould"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(decode(t, w).Data), `"contaminated":true`)
}

func TestMissingTenant(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/production/runs/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeMissingTenant, decode(t, w).Error.Code)
}
