package production

import (
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/domain/inventory"
	"github.com/Oscarts/backery2-app-sub003/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecipeIngredient is one line of a recipe: how much of a material one batch
// of the recipe needs.
type RecipeIngredient struct {
	ID        uuid.UUID
	Material  inventory.MaterialRef
	Quantity  decimal.Decimal // per recipe batch
	Unit      string
	SortOrder int
}

// Recipe describes what a production run makes and what it consumes
type Recipe struct {
	shared.TenantAggregateRoot
	Name               string
	YieldQuantity      decimal.Decimal
	YieldUnit          string
	OverheadPercentage *decimal.Decimal // nil falls back to the configured default
	ShelfLifeDays      *int
	Ingredients        []RecipeIngredient
}

// NewRecipe creates a recipe without ingredients
func NewRecipe(tenantID uuid.UUID, name string, yieldQuantity decimal.Decimal, yieldUnit string) (*Recipe, error) {
	if name == "" {
		return nil, shared.ErrInvalidInput.WithMessage("recipe name cannot be empty")
	}
	if !yieldQuantity.IsPositive() {
		return nil, shared.ErrInvalidQuantity.WithMessage("recipe yield must be positive")
	}
	if yieldUnit == "" {
		return nil, shared.ErrInvalidInput.WithMessage("recipe yield unit cannot be empty")
	}
	return &Recipe{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		YieldQuantity:       yieldQuantity,
		YieldUnit:           yieldUnit,
		Ingredients:         make([]RecipeIngredient, 0),
	}, nil
}

// AddIngredient appends an ingredient line
func (r *Recipe) AddIngredient(material inventory.MaterialRef, quantity decimal.Decimal, unit string) error {
	if material.IsZero() {
		return shared.ErrInvalidInput.WithMessage("ingredient must reference a raw material or a finished product")
	}
	if !quantity.IsPositive() {
		return shared.ErrInvalidQuantity.WithMessage("ingredient quantity must be positive")
	}
	for _, ing := range r.Ingredients {
		if ing.Material == material {
			return shared.ErrAlreadyExists.WithMessage("ingredient already on recipe: " + material.String())
		}
	}
	r.Ingredients = append(r.Ingredients, RecipeIngredient{
		ID:        uuid.New(),
		Material:  material,
		Quantity:  quantity,
		Unit:      unit,
		SortOrder: len(r.Ingredients),
	})
	r.Touch()
	return nil
}

// SetOverheadPercentage sets the recipe-specific overhead surcharge
func (r *Recipe) SetOverheadPercentage(pct decimal.Decimal) error {
	if pct.IsNegative() {
		return shared.ErrInvalidInput.WithMessage("overhead percentage cannot be negative")
	}
	r.OverheadPercentage = &pct
	r.Touch()
	return nil
}

// SetShelfLifeDays sets how long the finished product keeps
func (r *Recipe) SetShelfLifeDays(days int) error {
	if days <= 0 {
		return shared.ErrInvalidInput.WithMessage("shelf life must be at least one day")
	}
	r.ShelfLifeDays = &days
	r.Touch()
	return nil
}

// EffectiveOverhead returns the recipe overhead or the given default
func (r *Recipe) EffectiveOverhead(defaultPct decimal.Decimal) decimal.Decimal {
	if r.OverheadPercentage != nil {
		return *r.OverheadPercentage
	}
	return defaultPct
}

// ShelfLife returns the recipe shelf life or the given default in days
func (r *Recipe) ShelfLife(defaultDays int) time.Duration {
	days := defaultDays
	if r.ShelfLifeDays != nil {
		days = *r.ShelfLifeDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// MultiplierFor returns how many recipe batches produce the target quantity
func (r *Recipe) MultiplierFor(target decimal.Decimal) decimal.Decimal {
	if !r.YieldQuantity.IsPositive() {
		return decimal.NewFromInt(1)
	}
	return target.Div(r.YieldQuantity)
}
