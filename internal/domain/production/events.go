package production

import (
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeAllocationsReserved    = "AllocationsReserved"
	EventTypeAllocationsConsumed    = "AllocationsConsumed"
	EventTypeAllocationsReleased    = "AllocationsReleased"
	EventTypeIngredientShortage     = "IngredientShortage"
	EventTypeProductionRunCompleted = "ProductionRunCompleted"
	EventTypeProductionRunCancelled = "ProductionRunCancelled"
)

// AllocationsEvent is raised when a run's allocations change state
type AllocationsEvent struct {
	shared.BaseDomainEvent
	AllocationIDs []uuid.UUID     `json:"allocation_ids"`
	Quantity      decimal.Decimal `json:"quantity"`
	Cost          decimal.Decimal `json:"cost"`
}

// NewAllocationsEvent creates an allocation event of the given type
func NewAllocationsEvent(eventType string, tenantID, runID uuid.UUID, allocations []*Allocation) *AllocationsEvent {
	e := &AllocationsEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProductionRun, runID, tenantID),
		AllocationIDs:   make([]uuid.UUID, 0, len(allocations)),
		Quantity:        decimal.Zero,
		Cost:            decimal.Zero,
	}
	for _, a := range allocations {
		e.AllocationIDs = append(e.AllocationIDs, a.ID)
		switch eventType {
		case EventTypeAllocationsReleased:
			if a.QuantityReleased != nil {
				e.Quantity = e.Quantity.Add(*a.QuantityReleased)
			}
		default:
			e.Quantity = e.Quantity.Add(a.EffectiveQuantity())
			e.Cost = e.Cost.Add(a.Cost())
		}
	}
	return e
}

// IngredientShortageEvent is raised when an allocation could not be satisfied
type IngredientShortageEvent struct {
	shared.BaseDomainEvent
	MaterialName string          `json:"material_name"`
	Needed       decimal.Decimal `json:"needed"`
	Available    decimal.Decimal `json:"available"`
}

// NewIngredientShortageEvent creates a new IngredientShortageEvent
func NewIngredientShortageEvent(tenantID, runID uuid.UUID, shortage Shortage) *IngredientShortageEvent {
	return &IngredientShortageEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIngredientShortage, AggregateTypeProductionRun, runID, tenantID),
		MaterialName:    shortage.MaterialName,
		Needed:          shortage.Needed,
		Available:       shortage.Available,
	}
}

// ProductionRunCompletedEvent is raised once per completed run
type ProductionRunCompletedEvent struct {
	shared.BaseDomainEvent
	RecipeID          uuid.UUID       `json:"recipe_id"`
	FinishedProductID uuid.UUID       `json:"finished_product_id"`
	FinalQuantity     decimal.Decimal `json:"final_quantity"`
	ActualCost        decimal.Decimal `json:"actual_cost"`
}

// NewProductionRunCompletedEvent creates a new ProductionRunCompletedEvent
func NewProductionRunCompletedEvent(r *ProductionRun) *ProductionRunCompletedEvent {
	e := &ProductionRunCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductionRunCompleted, AggregateTypeProductionRun, r.ID, r.TenantID),
		RecipeID:        r.RecipeID,
	}
	if r.FinishedProductID != nil {
		e.FinishedProductID = *r.FinishedProductID
	}
	if r.FinalQuantity != nil {
		e.FinalQuantity = *r.FinalQuantity
	}
	if r.ActualCost != nil {
		e.ActualCost = *r.ActualCost
	}
	return e
}

// ProductionRunCancelledEvent is raised when a run is cancelled
type ProductionRunCancelledEvent struct {
	shared.BaseDomainEvent
	RecipeID uuid.UUID `json:"recipe_id"`
	Reason   string    `json:"reason,omitempty"`
}

// NewProductionRunCancelledEvent creates a new ProductionRunCancelledEvent
func NewProductionRunCancelledEvent(r *ProductionRun, reason string) *ProductionRunCancelledEvent {
	return &ProductionRunCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductionRunCancelled, AggregateTypeProductionRun, r.ID, r.TenantID),
		RecipeID:        r.RecipeID,
		Reason:          reason,
	}
}
