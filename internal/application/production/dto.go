package production

import (
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/production"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// CreateRecipeRequest creates a recipe with its ingredient lines
type CreateRecipeRequest struct {
	Name               string                    `json:"name" binding:"required,max=200"`
	YieldQuantity      decimal.Decimal           `json:"yield_quantity" binding:"required"`
	YieldUnit          string                    `json:"yield_unit" binding:"required,max=20"`
	OverheadPercentage *decimal.Decimal          `json:"overhead_percentage" binding:"omitempty,dgte0"`
	ShelfLifeDays      *int                      `json:"shelf_life_days" binding:"omitempty,min=1"`
	Ingredients        []RecipeIngredientRequest `json:"ingredients" binding:"required,min=1,dive"`
}

// RecipeIngredientRequest is one ingredient line
type RecipeIngredientRequest struct {
	MaterialType string          `json:"material_type" binding:"required,oneof=RAW_MATERIAL FINISHED_PRODUCT"`
	MaterialID   uuid.UUID       `json:"material_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	Unit         string          `json:"unit" binding:"required,max=20"`
}

// CheckAvailabilityRequest asks whether a recipe can be produced
type CheckAvailabilityRequest struct {
	Multiplier decimal.Decimal `json:"multiplier" binding:"required"`
}

// CreateProductionRunRequest plans a run of a recipe
type CreateProductionRunRequest struct {
	RecipeID       uuid.UUID             `json:"recipe_id" binding:"required"`
	Name           string                `json:"name" binding:"max=200"`
	TargetQuantity decimal.Decimal       `json:"target_quantity" binding:"required"`
	Steps          []StepTemplateRequest `json:"steps" binding:"omitempty,dive"`
}

// StepTemplateRequest describes a custom step
type StepTemplateRequest struct {
	Name             string `json:"name" binding:"required,max=100"`
	Description      string `json:"description" binding:"max=500"`
	EstimatedMinutes int    `json:"estimated_minutes" binding:"min=0"`
}

// AllocateRequest reserves ingredients for a run. RecipeID defaults to the
// run's recipe and Multiplier to target quantity over recipe yield.
type AllocateRequest struct {
	RecipeID   *uuid.UUID       `json:"recipe_id"`
	Multiplier *decimal.Decimal `json:"multiplier"`
}

// ConsumeRequest commits a run's reservations. Allocations not listed are
// consumed at their allocated quantity.
type ConsumeRequest struct {
	Quantities []ConsumedQuantity `json:"quantities" binding:"omitempty,dive"`
}

// ConsumedQuantity is the measured usage of one allocation
type ConsumedQuantity struct {
	AllocationID uuid.UUID       `json:"allocation_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
}

// CompleteStepRequest closes a step
type CompleteStepRequest struct {
	ActualMinutes *int   `json:"actual_minutes" binding:"omitempty,min=0"`
	Notes         string `json:"notes" binding:"max=1000"`
}

// SkipStepRequest skips a step
type SkipStepRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

// HoldRunRequest pauses a run
type HoldRunRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CompleteRunRequest finishes a run. ActualQuantity defaults to the target.
type CompleteRunRequest struct {
	ActualQuantity *decimal.Decimal `json:"actual_quantity"`
}

// CancelRunRequest cancels a run
type CancelRunRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ReceiveBatchRequest adds a batch to the ledger
type ReceiveBatchRequest struct {
	MaterialType   string          `json:"material_type" binding:"required,oneof=RAW_MATERIAL FINISHED_PRODUCT"`
	Name           string          `json:"name" binding:"required,max=200"`
	SKU            string          `json:"sku" binding:"max=100"`
	BatchNumber    string          `json:"batch_number" binding:"max=100"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	Unit           string          `json:"unit" binding:"required,max=20"`
	UnitCost       decimal.Decimal `json:"unit_cost" binding:"dgte0"`
	ProductionDate *time.Time      `json:"production_date"`
	ExpirationDate *time.Time      `json:"expiration_date"`
}

// MarkContaminatedRequest quarantines a batch
type MarkContaminatedRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// RecipeResponse represents a recipe in API responses
type RecipeResponse struct {
	ID                 uuid.UUID                  `json:"id"`
	TenantID           uuid.UUID                  `json:"tenant_id"`
	Name               string                     `json:"name"`
	YieldQuantity      decimal.Decimal            `json:"yield_quantity"`
	YieldUnit          string                     `json:"yield_unit"`
	OverheadPercentage *decimal.Decimal           `json:"overhead_percentage,omitempty"`
	ShelfLifeDays      *int                       `json:"shelf_life_days,omitempty"`
	Ingredients        []RecipeIngredientResponse `json:"ingredients"`
	CreatedAt          time.Time                  `json:"created_at"`
	UpdatedAt          time.Time                  `json:"updated_at"`
}

// RecipeIngredientResponse is one ingredient line
type RecipeIngredientResponse struct {
	ID           uuid.UUID       `json:"id"`
	MaterialType string          `json:"material_type"`
	MaterialID   uuid.UUID       `json:"material_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	SortOrder    int             `json:"sort_order"`
}

// AvailabilityResponse is the outcome of an availability check
type AvailabilityResponse struct {
	RecipeID    uuid.UUID                        `json:"recipe_id"`
	Multiplier  decimal.Decimal                  `json:"multiplier"`
	CanProduce  bool                             `json:"can_produce"`
	Ingredients []IngredientAvailabilityResponse `json:"ingredients"`
	Shortages   []production.Shortage            `json:"shortages"`
}

// IngredientAvailabilityResponse compares need and stock of one ingredient
type IngredientAvailabilityResponse struct {
	IngredientID uuid.UUID        `json:"ingredient_id"`
	MaterialType string           `json:"material_type"`
	MaterialID   uuid.UUID        `json:"material_id"`
	MaterialName string           `json:"material_name"`
	Unit         string           `json:"unit"`
	Needed       decimal.Decimal  `json:"needed"`
	Available    decimal.Decimal  `json:"available"`
	Shortage     *decimal.Decimal `json:"shortage,omitempty"`
	BatchCount   int              `json:"batch_count"`
	Sufficient   bool             `json:"sufficient"`
}

// AllocationResponse represents an allocation row
type AllocationResponse struct {
	ID                  uuid.UUID        `json:"id"`
	ProductionRunID     uuid.UUID        `json:"production_run_id"`
	IngredientID        *uuid.UUID       `json:"ingredient_id,omitempty"`
	MaterialType        string           `json:"material_type"`
	MaterialID          uuid.UUID        `json:"material_id"`
	MaterialName        string           `json:"material_name"`
	MaterialSKU         string           `json:"material_sku,omitempty"`
	MaterialBatchNumber string           `json:"material_batch_number,omitempty"`
	QuantityAllocated   decimal.Decimal  `json:"quantity_allocated"`
	QuantityConsumed    *decimal.Decimal `json:"quantity_consumed,omitempty"`
	QuantityReleased    *decimal.Decimal `json:"quantity_released,omitempty"`
	Unit                string           `json:"unit"`
	UnitCost            decimal.Decimal  `json:"unit_cost"`
	TotalCost           decimal.Decimal  `json:"total_cost"`
	Status              string           `json:"status"`
	AllocatedAt         time.Time        `json:"allocated_at"`
	ConsumedAt          *time.Time       `json:"consumed_at,omitempty"`
	ReleasedAt          *time.Time       `json:"released_at,omitempty"`
	Notes               string           `json:"notes,omitempty"`
}

// MaterialUsageResponse lists a run's allocations with totals
type MaterialUsageResponse struct {
	ProductionRunID uuid.UUID            `json:"production_run_id"`
	Allocations     []AllocationResponse `json:"allocations"`
	TotalAllocated  decimal.Decimal      `json:"total_allocated"`
	TotalConsumed   decimal.Decimal      `json:"total_consumed"`
	TotalReleased   decimal.Decimal      `json:"total_released"`
	TotalCost       decimal.Decimal      `json:"total_cost"`
	ActiveCount     int                  `json:"active_count"`
	ConsumedCount   int                  `json:"consumed_count"`
	ReleasedCount   int                  `json:"released_count"`
}

// CostBreakdownResponse is the production cost of a run or recipe
type CostBreakdownResponse struct {
	Source             string                     `json:"source"`
	MaterialCost       decimal.Decimal            `json:"material_cost"`
	OverheadPercentage decimal.Decimal            `json:"overhead_percentage"`
	OverheadCost       decimal.Decimal            `json:"overhead_cost"`
	TotalCost          decimal.Decimal            `json:"total_cost"`
	Quantity           decimal.Decimal            `json:"quantity"`
	CostPerUnit        decimal.Decimal            `json:"cost_per_unit"`
	Materials          []MaterialCostLineResponse `json:"materials"`
}

// MaterialCostLineResponse is one material's share of a cost
type MaterialCostLineResponse struct {
	MaterialType string          `json:"material_type"`
	MaterialID   uuid.UUID       `json:"material_id"`
	Name         string          `json:"name"`
	BatchNumber  string          `json:"batch_number,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
}

// ProductionRunResponse represents a run in API responses
type ProductionRunResponse struct {
	ID                uuid.UUID        `json:"id"`
	TenantID          uuid.UUID        `json:"tenant_id"`
	RecipeID          uuid.UUID        `json:"recipe_id"`
	Name              string           `json:"name"`
	TargetQuantity    decimal.Decimal  `json:"target_quantity"`
	TargetUnit        string           `json:"target_unit"`
	Status            string           `json:"status"`
	Steps             []StepResponse   `json:"steps"`
	FinalQuantity     *decimal.Decimal `json:"final_quantity,omitempty"`
	ActualCost        *decimal.Decimal `json:"actual_cost,omitempty"`
	FinishedProductID *uuid.UUID       `json:"finished_product_id,omitempty"`
	StartedAt         *time.Time       `json:"started_at,omitempty"`
	CompletedAt       *time.Time       `json:"completed_at,omitempty"`
	CancelledAt       *time.Time       `json:"cancelled_at,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	Version           int              `json:"version"`
}

// StepResponse represents a production step
type StepResponse struct {
	ID               uuid.UUID  `json:"id"`
	StepOrder        int        `json:"step_order"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	Status           string     `json:"status"`
	EstimatedMinutes int        `json:"estimated_minutes"`
	ActualMinutes    *int       `json:"actual_minutes,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Notes            string     `json:"notes,omitempty"`
}

// MaterialBatchResponse represents a ledger batch
type MaterialBatchResponse struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	MaterialType      string          `json:"material_type"`
	Name              string          `json:"name"`
	SKU               string          `json:"sku,omitempty"`
	BatchNumber       string          `json:"batch_number,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	Unit              string          `json:"unit"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	SalePrice         decimal.Decimal `json:"sale_price"`
	ProductionDate    *time.Time      `json:"production_date,omitempty"`
	ExpirationDate    *time.Time      `json:"expiration_date,omitempty"`
	Contaminated      bool            `json:"contaminated"`
	Status            string          `json:"status"`
	StorageLocationID *uuid.UUID      `json:"storage_location_id,omitempty"`
	ProductionRunID   *uuid.UUID      `json:"production_run_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// CompletionResponse is the outcome of completing a run
type CompletionResponse struct {
	Run              ProductionRunResponse  `json:"run"`
	FinishedProduct  *MaterialBatchResponse `json:"finished_product,omitempty"`
	Cost             *CostBreakdownResponse `json:"cost,omitempty"`
	AlreadyCompleted bool                   `json:"already_completed"`
}

// CancellationResponse is the outcome of cancelling a run
type CancellationResponse struct {
	Run              ProductionRunResponse `json:"run"`
	ReleasedCount    int                   `json:"released_count"`
	ReleasedQuantity decimal.Decimal       `json:"released_quantity"`
	AlreadyCancelled bool                  `json:"already_cancelled"`
}

// ReleaseResponse is the outcome of releasing a run's reservations
type ReleaseResponse struct {
	ProductionRunID  uuid.UUID            `json:"production_run_id"`
	Released         []AllocationResponse `json:"released"`
	ReleasedQuantity decimal.Decimal      `json:"released_quantity"`
}

// ---------------------------------------------------------------------------
// Conversions
// ---------------------------------------------------------------------------

// ToRecipeResponse converts a domain recipe
func ToRecipeResponse(r *production.Recipe) RecipeResponse {
	resp := RecipeResponse{
		ID:                 r.ID,
		TenantID:           r.TenantID,
		Name:               r.Name,
		YieldQuantity:      r.YieldQuantity,
		YieldUnit:          r.YieldUnit,
		OverheadPercentage: r.OverheadPercentage,
		ShelfLifeDays:      r.ShelfLifeDays,
		Ingredients:        make([]RecipeIngredientResponse, 0, len(r.Ingredients)),
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	for _, ing := range r.Ingredients {
		resp.Ingredients = append(resp.Ingredients, RecipeIngredientResponse{
			ID:           ing.ID,
			MaterialType: ing.Material.Kind().String(),
			MaterialID:   ing.Material.ID(),
			Quantity:     ing.Quantity,
			Unit:         ing.Unit,
			SortOrder:    ing.SortOrder,
		})
	}
	return resp
}

// ToAvailabilityResponse converts an availability report
func ToAvailabilityResponse(report production.AvailabilityReport) AvailabilityResponse {
	resp := AvailabilityResponse{
		RecipeID:    report.RecipeID,
		Multiplier:  report.Multiplier,
		CanProduce:  report.CanProduce(),
		Ingredients: make([]IngredientAvailabilityResponse, 0, len(report.Ingredients)),
		Shortages:   report.Shortages(),
	}
	for _, ing := range report.Ingredients {
		item := IngredientAvailabilityResponse{
			IngredientID: ing.IngredientID,
			MaterialType: ing.Material.Kind().String(),
			MaterialID:   ing.Material.ID(),
			MaterialName: ing.MaterialName,
			Unit:         ing.Unit,
			Needed:       ing.Needed,
			Available:    ing.Available,
			BatchCount:   ing.BatchCount,
			Sufficient:   ing.Sufficient(),
		}
		if !ing.Sufficient() {
			shortage := ing.Shortage
			item.Shortage = &shortage
		}
		resp.Ingredients = append(resp.Ingredients, item)
	}
	return resp
}

// ToAllocationResponse converts an allocation row
func ToAllocationResponse(a *production.Allocation) AllocationResponse {
	return AllocationResponse{
		ID:                  a.ID,
		ProductionRunID:     a.ProductionRunID,
		IngredientID:        a.IngredientID,
		MaterialType:        a.Material.Kind().String(),
		MaterialID:          a.Material.ID(),
		MaterialName:        a.MaterialName,
		MaterialSKU:         a.MaterialSKU,
		MaterialBatchNumber: a.MaterialBatchNumber,
		QuantityAllocated:   a.QuantityAllocated,
		QuantityConsumed:    a.QuantityConsumed,
		QuantityReleased:    a.QuantityReleased,
		Unit:                a.Unit,
		UnitCost:            a.UnitCost,
		TotalCost:           a.TotalCost,
		Status:              string(a.Status),
		AllocatedAt:         a.AllocatedAt,
		ConsumedAt:          a.ConsumedAt,
		ReleasedAt:          a.ReleasedAt,
		Notes:               a.Notes,
	}
}

// ToAllocationResponses converts allocation rows
func ToAllocationResponses(allocations []*production.Allocation) []AllocationResponse {
	out := make([]AllocationResponse, 0, len(allocations))
	for _, a := range allocations {
		out = append(out, ToAllocationResponse(a))
	}
	return out
}

// ToCostBreakdownResponse converts a cost breakdown
func ToCostBreakdownResponse(c production.CostBreakdown) CostBreakdownResponse {
	resp := CostBreakdownResponse{
		Source:             string(c.Source),
		MaterialCost:       c.MaterialCost,
		OverheadPercentage: c.OverheadPercentage,
		OverheadCost:       c.OverheadCost,
		TotalCost:          c.TotalCost,
		Quantity:           c.Quantity,
		CostPerUnit:        c.CostPerUnit,
		Materials:          make([]MaterialCostLineResponse, 0, len(c.Materials)),
	}
	for _, l := range c.Materials {
		resp.Materials = append(resp.Materials, MaterialCostLineResponse{
			MaterialType: l.Material.Kind().String(),
			MaterialID:   l.Material.ID(),
			Name:         l.Name,
			BatchNumber:  l.BatchNumber,
			Quantity:     l.Quantity,
			Unit:         l.Unit,
			UnitCost:     l.UnitCost,
			TotalCost:    l.TotalCost,
		})
	}
	return resp
}

// ToProductionRunResponse converts a run with its steps
func ToProductionRunResponse(r *production.ProductionRun) ProductionRunResponse {
	resp := ProductionRunResponse{
		ID:                r.ID,
		TenantID:          r.TenantID,
		RecipeID:          r.RecipeID,
		Name:              r.Name,
		TargetQuantity:    r.TargetQuantity,
		TargetUnit:        r.TargetUnit,
		Status:            string(r.Status),
		Steps:             make([]StepResponse, 0, len(r.Steps)),
		FinalQuantity:     r.FinalQuantity,
		ActualCost:        r.ActualCost,
		FinishedProductID: r.FinishedProductID,
		StartedAt:         r.StartedAt,
		CompletedAt:       r.CompletedAt,
		CancelledAt:       r.CancelledAt,
		Notes:             r.Notes,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		Version:           r.Version,
	}
	for _, s := range r.Steps {
		resp.Steps = append(resp.Steps, StepResponse{
			ID:               s.ID,
			StepOrder:        s.StepOrder,
			Name:             s.Name,
			Description:      s.Description,
			Status:           string(s.Status),
			EstimatedMinutes: s.EstimatedMinutes,
			ActualMinutes:    s.ActualMinutes,
			StartedAt:        s.StartedAt,
			CompletedAt:      s.CompletedAt,
			Notes:            s.Notes,
		})
	}
	return resp
}

// ToMaterialBatchResponse converts a ledger batch
func ToMaterialBatchResponse(b *inventory.MaterialBatch) MaterialBatchResponse {
	return MaterialBatchResponse{
		ID:                b.ID,
		TenantID:          b.TenantID,
		MaterialType:      b.Kind.String(),
		Name:              b.Name,
		SKU:               b.SKU,
		BatchNumber:       b.BatchNumber,
		Quantity:          b.Quantity,
		ReservedQuantity:  b.ReservedQuantity,
		AvailableQuantity: b.Available(),
		Unit:              b.Unit,
		UnitCost:          b.UnitCost,
		SalePrice:         b.SalePrice,
		ProductionDate:    b.ProductionDate,
		ExpirationDate:    b.ExpirationDate,
		Contaminated:      b.Contaminated,
		Status:            string(b.Status),
		StorageLocationID: b.StorageLocationID,
		ProductionRunID:   b.ProductionRunID,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
		Version:           b.Version,
	}
}

func toStepTemplates(reqs []StepTemplateRequest) []production.StepTemplate {
	out := make([]production.StepTemplate, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, production.StepTemplate{
			Name:             r.Name,
			Description:      r.Description,
			EstimatedMinutes: r.EstimatedMinutes,
		})
	}
	return out
}
