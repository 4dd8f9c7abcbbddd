package production

import (
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationStatus is the state of a reservation held for a production run
type AllocationStatus string

const (
	AllocationStatusAllocated AllocationStatus = "ALLOCATED"
	AllocationStatusConsumed  AllocationStatus = "CONSUMED"
	AllocationStatusReleased  AllocationStatus = "RELEASED"
)

// Allocation reserves a quantity of one batch for one production run. Name,
// SKU and batch number are copied from the batch when the reservation is made
// and are not kept in sync afterwards.
type Allocation struct {
	shared.BaseEntity
	TenantID            uuid.UUID
	ProductionRunID     uuid.UUID
	IngredientID        *uuid.UUID
	Material            inventory.MaterialRef
	MaterialName        string
	MaterialSKU         string
	MaterialBatchNumber string
	QuantityAllocated   decimal.Decimal
	QuantityConsumed    *decimal.Decimal
	QuantityReleased    *decimal.Decimal
	Unit                string
	UnitCost            decimal.Decimal
	TotalCost           decimal.Decimal
	Status              AllocationStatus
	AllocatedAt         time.Time
	ConsumedAt          *time.Time
	ReleasedAt          *time.Time
	Notes               string
}

// NewAllocation records a draw from a batch for a run
func NewAllocation(tenantID, runID uuid.UUID, ingredientID *uuid.UUID, draw inventory.BatchDraw, at time.Time) *Allocation {
	return &Allocation{
		BaseEntity:          shared.NewBaseEntity(),
		TenantID:            tenantID,
		ProductionRunID:     runID,
		IngredientID:        ingredientID,
		Material:            draw.Ref,
		MaterialName:        draw.Name,
		MaterialSKU:         draw.SKU,
		MaterialBatchNumber: draw.BatchNumber,
		QuantityAllocated:   draw.Quantity,
		Unit:                draw.Unit,
		UnitCost:            draw.UnitCost,
		TotalCost:           draw.Quantity.Mul(draw.UnitCost),
		Status:              AllocationStatusAllocated,
		AllocatedAt:         at,
	}
}

// IsActive reports whether the allocation still holds a reservation
func (a *Allocation) IsActive() bool {
	return a.Status == AllocationStatusAllocated
}

// Consume commits the allocation. Any unused part of the reservation is
// recorded as released.
func (a *Allocation) Consume(consumed decimal.Decimal, at time.Time) error {
	if a.Status != AllocationStatusAllocated {
		return shared.ErrInvalidState.WithMessage("allocation is already " + string(a.Status))
	}
	if consumed.IsNegative() {
		return shared.ErrInvalidQuantity.WithMessage("consumed quantity cannot be negative")
	}
	a.QuantityConsumed = &consumed
	if consumed.LessThan(a.QuantityAllocated) {
		unused := a.QuantityAllocated.Sub(consumed)
		a.QuantityReleased = &unused
	}
	a.TotalCost = consumed.Mul(a.UnitCost)
	a.Status = AllocationStatusConsumed
	a.ConsumedAt = &at
	a.Touch()
	return nil
}

// Release gives the reservation back. It reports false when the allocation
// was no longer active, which keeps repeated releases harmless.
func (a *Allocation) Release(at time.Time) bool {
	if a.Status != AllocationStatusAllocated {
		return false
	}
	released := a.QuantityAllocated
	a.QuantityReleased = &released
	a.Status = AllocationStatusReleased
	a.ReleasedAt = &at
	a.Touch()
	return true
}

// EffectiveQuantity is the consumed quantity, or the allocated one before consumption
func (a *Allocation) EffectiveQuantity() decimal.Decimal {
	if a.QuantityConsumed != nil {
		return *a.QuantityConsumed
	}
	return a.QuantityAllocated
}

// Cost is the effective quantity priced at the snapshot unit cost
func (a *Allocation) Cost() decimal.Decimal {
	return a.EffectiveQuantity().Mul(a.UnitCost)
}

// UsageSummary totals the allocations of a run
type UsageSummary struct {
	TotalAllocated decimal.Decimal
	TotalConsumed  decimal.Decimal
	TotalReleased  decimal.Decimal
	TotalCost      decimal.Decimal
	Active         int
	Consumed       int
	Released       int
}

// SummarizeUsage aggregates allocation rows. Released rows carry no cost.
func SummarizeUsage(allocations []*Allocation) UsageSummary {
	s := UsageSummary{
		TotalAllocated: decimal.Zero,
		TotalConsumed:  decimal.Zero,
		TotalReleased:  decimal.Zero,
		TotalCost:      decimal.Zero,
	}
	for _, a := range allocations {
		s.TotalAllocated = s.TotalAllocated.Add(a.QuantityAllocated)
		if a.QuantityConsumed != nil {
			s.TotalConsumed = s.TotalConsumed.Add(*a.QuantityConsumed)
		}
		if a.QuantityReleased != nil {
			s.TotalReleased = s.TotalReleased.Add(*a.QuantityReleased)
		}
		switch a.Status {
		case AllocationStatusAllocated:
			s.Active++
			s.TotalCost = s.TotalCost.Add(a.Cost())
		case AllocationStatusConsumed:
			s.Consumed++
			s.TotalCost = s.TotalCost.Add(a.Cost())
		case AllocationStatusReleased:
			s.Released++
		}
	}
	return s
}
