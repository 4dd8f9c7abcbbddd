package handler

import (
	"context"

	appprod "github.com/Oscarts/backery2-app-sub003/internal/application/production"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RunService plans runs and drives their steps
type RunService interface {
	CreateProductionRun(ctx context.Context, tenantID uuid.UUID, req appprod.CreateProductionRunRequest) (*appprod.ProductionRunResponse, error)
	GetProductionRun(ctx context.Context, tenantID, runID uuid.UUID) (*appprod.ProductionRunResponse, error)
	StartStep(ctx context.Context, tenantID, runID, stepID uuid.UUID) (*appprod.ProductionRunResponse, error)
	CompleteStep(ctx context.Context, tenantID, runID, stepID uuid.UUID, req appprod.CompleteStepRequest) (*appprod.ProductionRunResponse, error)
	SkipStep(ctx context.Context, tenantID, runID, stepID uuid.UUID, req appprod.SkipStepRequest) (*appprod.ProductionRunResponse, error)
	Hold(ctx context.Context, tenantID, runID uuid.UUID, req appprod.HoldRunRequest) (*appprod.ProductionRunResponse, error)
	Resume(ctx context.Context, tenantID, runID uuid.UUID) (*appprod.ProductionRunResponse, error)
}

// AllocationService reserves, consumes and releases ingredient batches
type AllocationService interface {
	Allocate(ctx context.Context, tenantID, runID uuid.UUID, req appprod.AllocateRequest) ([]appprod.AllocationResponse, error)
	Consume(ctx context.Context, tenantID, runID uuid.UUID, req appprod.ConsumeRequest) ([]appprod.AllocationResponse, error)
	Release(ctx context.Context, tenantID, runID uuid.UUID) (*appprod.ReleaseResponse, error)
	GetMaterialUsage(ctx context.Context, tenantID, runID uuid.UUID) (*appprod.MaterialUsageResponse, error)
}

// CompletionService finishes or cancels runs
type CompletionService interface {
	CompleteProductionRun(ctx context.Context, tenantID, runID uuid.UUID, req appprod.CompleteRunRequest) (*appprod.CompletionResponse, error)
	CancelProductionRun(ctx context.Context, tenantID, runID uuid.UUID, req appprod.CancelRunRequest) (*appprod.CancellationResponse, error)
}

// CostService prices runs and recipes
type CostService interface {
	CalculateProductionCost(ctx context.Context, tenantID, runID uuid.UUID) (*appprod.CostBreakdownResponse, error)
	EstimateRecipeCost(ctx context.Context, tenantID, recipeID uuid.UUID, multiplier decimal.Decimal) (*appprod.CostBreakdownResponse, error)
}

// ProductionHandler serves the production run endpoints
type ProductionHandler struct {
	BaseHandler
	runs        RunService
	allocations AllocationService
	completion  CompletionService
	costs       CostService
}

// NewProductionHandler creates a new ProductionHandler
func NewProductionHandler(runs RunService, allocations AllocationService, completion CompletionService, costs CostService) *ProductionHandler {
	return &ProductionHandler{
		runs:        runs,
		allocations: allocations,
		completion:  completion,
		costs:       costs,
	}
}

// runScope resolves the tenant and the :id run parameter
func (h *ProductionHandler) runScope(c *gin.Context) (tenantID, runID uuid.UUID, ok bool) {
	if tenantID, ok = h.tenant(c); !ok {
		return
	}
	runID, ok = h.uuidParam(c, "id")
	return
}

// CreateRun plans a production run of a recipe
func (h *ProductionHandler) CreateRun(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req appprod.CreateProductionRunRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	run, err := h.runs.CreateProductionRun(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, run)
}

// GetRun returns a run with its steps
func (h *ProductionHandler) GetRun(c *gin.Context) {
	tenantID, runID, ok := h.runScope(c)
	if !ok {
		return
	}
	run, err := h.runs.GetProductionRun(c.Request.Context(), tenantID, runID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

// Allocate reserves ingredient batches for the run, earliest expiry first.
// A shortage answers 422 with the per-ingredient shortfall in details.
func (h *ProductionHandler) Allocate(c *gin.Context) {
	tenantID, runID, ok := h.runScope(c)
	if !ok {
		return
	}
	var req appprod.AllocateRequest
	if !h.bindJSON(c, &req, true) {
		return
	}
	allocs, err := h.allocations.Allocate(c.Request.Context(), tenantID, runID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, allocs)
}

// Consume commits the run's reservations
func (h *ProductionHandler) Consume(c *gin.Context) {
	tenantID, runID, ok := h.runScope(c)
	if !ok {
		return
	}
	var req appprod.ConsumeRequest
	if !h.bindJSON(c, &req, true) {
		return
	}
	allocs, err := h.allocations.Consume(c.Request.Context(), tenantID, runID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, allocs)
}

// Release gives back every active reservation of the run
func (h *ProductionHandler) Release(c *gin.Context) {
	tenantID, runID, ok := h.runScope(c)
	if !ok {
		return
	}
	resp, err := h.allocations.Release(c.Request.Context(), tenantID, runID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MaterialUsage lists the run's allocations with totals
func (h *ProductionHandler) MaterialUsage(c *gin.Context) {
	tenantID, runID, ok := h.runScope(c)
	if !ok {
		return
	}
	usage, err := h.allocations.GetMaterialUsage(c.Request.Context(), tenantID, runID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, usage)
}

func (h *ProductionHandler) stepScope(c *gin.Context) (tenantID, runID, stepID uuid.UUID, ok bool) {
	if tenantID, runID, ok = h.runScope(c); !ok {
		return
	}
	stepID, ok = h.uuidParam(c, "stepId")
	return
}

// StartStep moves a step to IN_PROGRESS
func (h *ProductionHandler) StartStep(c *gin.Context) {
	tenantID, runID, stepID, ok := h.stepScope(c)
	if !ok {
		return
	}
	run, err := h.runs.StartStep(c.Request.Context(), tenantID, runID, stepID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

// CompleteStep finishes a step
func (h *ProductionHandler) CompleteStep(c *gin.Context) {
	tenantID, runID, stepID, ok := h.stepScope(c)
	if !ok {
		return
	}
	var req appprod.CompleteStepRequest
	if !h.bindJSON(c, &req, true) {
		return
	}
	run, err := h.runs.CompleteStep(c.Request.Context(), tenantID, runID, stepID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

// SkipStep marks a step as not needed
func (h *ProductionHandler) SkipStep(c *gin.Context) {
	tenantID, runID, stepID, ok := h.stepScope(c)
	if !ok {
		return
	}
	var req appprod.SkipStepRequest
	if !h.bindJSON(c, &req, true) {
		return
	}
	run, err := h.runs.SkipStep(c.Request.Context(), tenantID, runID, stepID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

// Hold pauses the run
func (h *ProductionHandler) Hold(c *gin.Context) {
	tenantID, runID, ok := h.runScope(c)
	if !ok {
		return
	}
	var req appprod.HoldRunRequest
	if !h.bindJSON(c, &req, true) {
		return
	}
	run, err := h.runs.Hold(c.Request.Context(), tenantID, runID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

// Resume continues a run on hold
func (h *ProductionHandler) Resume(c *gin.Context) {
	tenantID, runID, ok := h.runScope(c)
	if !ok {
		return
	}
	run, err := h.runs.Resume(c.Request.Context(), tenantID, runID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, run)
}

// Cost prices the run: ACTUAL from consumed allocations, else ESTIMATED from
// current batch prices, else DEFAULT.
func (h *ProductionHandler) Cost(c *gin.Context) {
	tenantID, runID, ok := h.runScope(c)
	if !ok {
		return
	}
	cost, err := h.costs.CalculateProductionCost(c.Request.Context(), tenantID, runID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cost)
}

// Complete finishes the run and creates its finished product. Repeating the
// call returns the original outcome with already_completed set.
func (h *ProductionHandler) Complete(c *gin.Context) {
	tenantID, runID, ok := h.runScope(c)
	if !ok {
		return
	}
	var req appprod.CompleteRunRequest
	if !h.bindJSON(c, &req, true) {
		return
	}
	resp, err := h.completion.CompleteProductionRun(c.Request.Context(), tenantID, runID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel cancels the run and releases its reservations
func (h *ProductionHandler) Cancel(c *gin.Context) {
	tenantID, runID, ok := h.runScope(c)
	if !ok {
		return
	}
	var req appprod.CancelRunRequest
	if !h.bindJSON(c, &req, true) {
		return
	}
	resp, err := h.completion.CancelProductionRun(c.Request.Context(), tenantID, runID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
