package production

import (
	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IngredientAvailability compares what one ingredient needs with what the
// ledger holds across every eligible batch of that material.
type IngredientAvailability struct {
	IngredientID uuid.UUID
	Material     inventory.MaterialRef
	MaterialName string
	Unit         string
	Needed       decimal.Decimal
	Available    decimal.Decimal
	Shortage     decimal.Decimal
	BatchCount   int
}

// Sufficient reports whether the ingredient can be fully served
func (i IngredientAvailability) Sufficient() bool {
	return i.Available.GreaterThanOrEqual(i.Needed)
}

// NewIngredientAvailability computes the shortage for an ingredient
func NewIngredientAvailability(ing RecipeIngredient, name string, needed, available decimal.Decimal, batches int) IngredientAvailability {
	shortage := decimal.Zero
	if needed.GreaterThan(available) {
		shortage = needed.Sub(available)
	}
	return IngredientAvailability{
		IngredientID: ing.ID,
		Material:     ing.Material,
		MaterialName: name,
		Unit:         ing.Unit,
		Needed:       needed,
		Available:    available,
		Shortage:     shortage,
		BatchCount:   batches,
	}
}

// Shortage describes an ingredient that cannot be covered
type Shortage struct {
	Material     inventory.MaterialRef `json:"-"`
	MaterialType string                `json:"material_type"`
	MaterialID   uuid.UUID             `json:"material_id"`
	MaterialName string                `json:"material_name"`
	Needed       decimal.Decimal       `json:"needed"`
	Available    decimal.Decimal       `json:"available"`
	Missing      decimal.Decimal       `json:"missing"`
	Unit         string                `json:"unit"`
}

// AvailabilityReport is the result of checking a recipe against the ledger
type AvailabilityReport struct {
	RecipeID    uuid.UUID
	Multiplier  decimal.Decimal
	Ingredients []IngredientAvailability
}

// CanProduce is true when every ingredient is sufficient
func (r AvailabilityReport) CanProduce() bool {
	for _, i := range r.Ingredients {
		if !i.Sufficient() {
			return false
		}
	}
	return true
}

// Shortages lists the ingredients that cannot be covered
func (r AvailabilityReport) Shortages() []Shortage {
	out := make([]Shortage, 0)
	for _, i := range r.Ingredients {
		if i.Sufficient() {
			continue
		}
		out = append(out, Shortage{
			Material:     i.Material,
			MaterialType: string(i.Material.Kind()),
			MaterialID:   i.Material.ID(),
			MaterialName: i.MaterialName,
			Needed:       i.Needed,
			Available:    i.Available,
			Missing:      i.Shortage,
			Unit:         i.Unit,
		})
	}
	return out
}
