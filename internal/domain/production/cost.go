package production

import (
	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// DefaultOverheadPercentage applies when a recipe has no overhead of its own
var DefaultOverheadPercentage = decimal.NewFromInt(50)

// DefaultMarkupPercentage is added on top of cost to price finished products
var DefaultMarkupPercentage = decimal.NewFromInt(50)

var hundred = decimal.NewFromInt(100)

// CostSource tells which tier of the cost fallback produced a figure
type CostSource string

const (
	CostSourceActual    CostSource = "ACTUAL"
	CostSourceEstimated CostSource = "ESTIMATED"
	CostSourceDefault   CostSource = "DEFAULT"
)

// MaterialCostLine is the cost contribution of one material
type MaterialCostLine struct {
	Material    inventory.MaterialRef
	Name        string
	BatchNumber string
	Quantity    decimal.Decimal
	Unit        string
	UnitCost    decimal.Decimal
	TotalCost   decimal.Decimal
}

// CostBreakdown is the production cost of a run
type CostBreakdown struct {
	Source             CostSource
	MaterialCost       decimal.Decimal
	OverheadPercentage decimal.Decimal
	OverheadCost       decimal.Decimal
	TotalCost          decimal.Decimal
	Quantity           decimal.Decimal
	CostPerUnit        decimal.Decimal
	Materials          []MaterialCostLine
}

// NewCostBreakdown applies overhead to a material cost and spreads the total
// over quantity units.
func NewCostBreakdown(source CostSource, materialCost, overheadPct, quantity decimal.Decimal, lines []MaterialCostLine) CostBreakdown {
	overhead := materialCost.Mul(overheadPct).Div(hundred)
	c := CostBreakdown{
		Source:             source,
		MaterialCost:       materialCost,
		OverheadPercentage: overheadPct,
		OverheadCost:       overhead,
		TotalCost:          materialCost.Add(overhead),
		Materials:          lines,
	}
	if c.Materials == nil {
		c.Materials = make([]MaterialCostLine, 0)
	}
	return c.WithQuantity(quantity)
}

// WithQuantity returns the breakdown with cost per unit recomputed for quantity
func (c CostBreakdown) WithQuantity(quantity decimal.Decimal) CostBreakdown {
	c.Quantity = quantity
	c.CostPerUnit = decimal.Zero
	if quantity.IsPositive() {
		c.CostPerUnit = c.TotalCost.Div(quantity)
	}
	return c
}

// CostFromAllocations prices non-released allocations at their snapshot unit
// cost, using consumed quantities where known.
func CostFromAllocations(allocations []*Allocation) (decimal.Decimal, []MaterialCostLine) {
	total := decimal.Zero
	lines := make([]MaterialCostLine, 0, len(allocations))
	for _, a := range allocations {
		if a.Status == AllocationStatusReleased {
			continue
		}
		cost := a.Cost()
		total = total.Add(cost)
		lines = append(lines, MaterialCostLine{
			Material:    a.Material,
			Name:        a.MaterialName,
			BatchNumber: a.MaterialBatchNumber,
			Quantity:    a.EffectiveQuantity(),
			Unit:        a.Unit,
			UnitCost:    a.UnitCost,
			TotalCost:   cost,
		})
	}
	return total, lines
}

// SalePrice marks up a unit cost by markupPct percent, rounded to cents
func SalePrice(costPerUnit, markupPct decimal.Decimal) decimal.Decimal {
	return costPerUnit.Mul(hundred.Add(markupPct)).Div(hundred).Round(2)
}
